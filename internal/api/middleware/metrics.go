package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MetricsRecorder defines the interface for recording HTTP metrics.
type MetricsRecorder interface {
	RecordHTTPRequest(method, path, status string, duration time.Duration)
	IncActiveConnections()
	DecActiveConnections()
}

// Metrics returns a middleware that records HTTP metrics. Requests to
// skipPath, the metrics endpoint itself, are not recorded.
func Metrics(recorder MetricsRecorder, skipPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPath != "" && r.URL.Path == skipPath {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			recorder.IncActiveConnections()
			defer recorder.DecActiveConnections()

			wrapped := wrap(w)
			defer func() {
				status := wrapped.statusCode
				if err := recover(); err != nil {
					status = http.StatusInternalServerError
					recorder.RecordHTTPRequest(r.Method, normalizePath(r.URL.Path), strconv.Itoa(status), time.Since(start))
					panic(err)
				}
				recorder.RecordHTTPRequest(r.Method, normalizePath(r.URL.Path), strconv.Itoa(status), time.Since(start))
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}

// normalizePath replaces lesson IDs (ULIDs), UUIDs and numbers with ":id"
// to bound label cardinality.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		switch {
		case part == "":
		case len(part) == 26 && isULID(part):
			parts[i] = ":id"
		case len(part) == 36 && strings.Count(part, "-") == 4:
			parts[i] = ":id"
		default:
			if _, err := strconv.Atoi(part); err == nil {
				parts[i] = ":id"
			}
		}
	}
	return strings.Join(parts, "/")
}

func isULID(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
