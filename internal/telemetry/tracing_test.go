package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sky-flux/cadence/internal/logger"
)

type mockExporter struct {
	exported       int
	shutdownCalled bool
}

func (m *mockExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	m.exported += len(spans)
	return nil
}

func (m *mockExporter) Shutdown(context.Context) error {
	m.shutdownCalled = true
	return nil
}

type failingExporter struct{ calls int }

func (f *failingExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error {
	f.calls++
	return errors.New("collector unavailable")
}

func (f *failingExporter) Shutdown(context.Context) error { return nil }

func stubExporter(t *testing.T, exp sdktrace.SpanExporter) *bool {
	t.Helper()
	orig := newOTLPExporter
	t.Cleanup(func() { newOTLPExporter = orig })
	called := false
	newOTLPExporter = func(context.Context, Config) (sdktrace.SpanExporter, error) {
		called = true
		return exp, nil
	}
	return &called
}

func TestInitDisabledDoesNotCreateExporter(t *testing.T) {
	called := stubExporter(t, &mockExporter{})

	shutdown, err := Init(context.Background(), Config{Enabled: false}, logger.Discard(), "cadence", "test")
	require.NoError(t, err)
	assert.False(t, *called)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitEnabledValidation(t *testing.T) {
	_, err := Init(context.Background(), Config{Enabled: true, Timeout: time.Second}, logger.Discard(), "cadence", "test")
	assert.ErrorContains(t, err, "endpoint")

	_, err = Init(context.Background(), Config{Enabled: true, Endpoint: "localhost:4317"}, logger.Discard(), "cadence", "test")
	assert.ErrorContains(t, err, "timeout")
}

func TestInitEnabledExportsAndShutsDown(t *testing.T) {
	exp := &mockExporter{}
	stubExporter(t, exp)
	t.Cleanup(func() {
		_, _ = Init(context.Background(), Config{}, logger.Discard(), "cadence", "test")
	})

	shutdown, err := Init(context.Background(), Config{
		Enabled:  true,
		Endpoint: "http://localhost:4317",
		Timeout:  5 * time.Second,
		Sampler:  "always_on",
	}, logger.Discard(), "cadence", "test")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "review")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx))
	assert.Equal(t, 1, exp.exported)
	assert.True(t, exp.shutdownCalled)
}

func TestIsolatingExporterSwallowsErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: logger.WarnLevel}, &buf)
	failing := &failingExporter{}
	exp := &isolatingExporter{exporter: failing, endpoint: "collector:4317", log: log}

	assert.NoError(t, exp.ExportSpans(context.Background(), nil))
	assert.Equal(t, 1, failing.calls)
	assert.Contains(t, buf.String(), "tracing exporter failed")
}

func TestSelectSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), selectSampler(Config{Sampler: "always_on"}).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), selectSampler(Config{Sampler: " ALWAYS_OFF "}).Description())
	assert.Contains(t, selectSampler(Config{SampleRate: 0.25}).Description(), "ParentBased")
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"":                                "",
		"collector:4317":                  "collector:4317",
		"http://localhost:4317/v1/traces": "localhost:4317",
		" https://otel.local:4317 ":       "otel.local:4317",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeEndpoint(in), in)
	}
}
