package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sky-flux/cadence/internal/api/middleware"
	"github.com/sky-flux/cadence/internal/api/response"
	"github.com/sky-flux/cadence/internal/config"
	"github.com/sky-flux/cadence/internal/logger"
	"github.com/sky-flux/cadence/internal/metrics"
	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/store"
	"github.com/sky-flux/cadence/internal/study"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*httptest.Server, *metrics.Manager) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.RateLimitRPS = 0
	if mutate != nil {
		mutate(cfg)
	}

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "router.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := metrics.NewManager(cfg.Metrics.ManagerConfig())
	svc := study.New(st, study.WithMetrics(m))
	log := logger.Discard()

	srv := httptest.NewServer(NewHTTPServer(cfg, log, NewHandlers(svc, log, m, "test")).Handler())
	t.Cleanup(srv.Close)
	return srv, m
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, url, nil)
	} else {
		req, err = http.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouterLessonFlow(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/lessons", `{"title":"Krebs cycle","category":"Biology"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
	var l model.Lesson
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/lessons/"+l.ID+"/reviews", `{"grade":"easy"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, path := range []string{
		"/api/v1/lessons",
		"/api/v1/lessons/due",
		"/api/v1/lessons/" + l.ID,
		"/api/v1/lessons/" + l.ID + "/preview",
		"/api/v1/categories",
		"/api/v1/settings",
		"/api/v1/stats",
		"/api/v1/export",
		"/healthz",
	} {
		resp := do(t, http.MethodGet, srv.URL+path, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp = do(t, http.MethodPut, srv.URL+"/api/v1/categories/Biology", `{"exam_date":"2030-01-01"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/api/v1/lessons/"+l.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRouterErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/nowhere", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, response.ErrCodeNotFound, body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)

	resp = do(t, http.MethodPut, srv.URL+"/api/v1/export", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouterMetrics(t *testing.T) {
	srv, m := newTestServer(t, nil)
	require.True(t, m.Enabled())

	do(t, http.MethodGet, srv.URL+"/healthz", "")
	resp := do(t, http.MethodPost, srv.URL+"/api/v1/lessons", `{"title":"x"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sb strings.Builder
	_, err := io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, sb.String(), `cadence_http_requests_total{method="POST",path="/api/v1/lessons",status="201"} 1`)
	assert.NotContains(t, sb.String(), `path="/metrics"`)
}

func TestRouterMetricsDisabled(t *testing.T) {
	srv, _ := newTestServer(t, func(c *config.Config) { c.Metrics.Enabled = false })

	resp := do(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouterRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, func(c *config.Config) {
		c.Server.RateLimitRPS = 0.001
		c.Server.RateLimitBurst = 1
	})

	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/healthz", "").StatusCode)
	resp := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}
