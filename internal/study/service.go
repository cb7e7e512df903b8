// Package study implements the lesson lifecycle on top of the scheduling
// engine and the store: adding lessons, reviewing them, migrating legacy
// schedules, and the queries the CLI and API present.
package study

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/logger"
	"github.com/sky-flux/cadence/internal/metrics"
	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/store"
	"github.com/sky-flux/cadence/optimizer"
)

const tracerName = "cadence.study"

// ActivityRetention is how long daily review counts are kept.
const ActivityRetention = 365 * 24 * time.Hour

// CramWindow is how far ahead the cram queue looks.
const CramWindow = 48 * time.Hour

var (
	// ErrNotFound is returned for unknown lessons and categories.
	ErrNotFound = store.ErrNotFound
	// ErrInvalidInput is returned when a request fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Recorder receives study metrics. *metrics.Manager implements it.
type Recorder interface {
	RecordReview(mode, grade string, intervalDays int)
	RecordLapse()
	RecordMigrations(n int)
}

// Service is the study application layer. It is safe for concurrent use as
// long as the store is.
type Service struct {
	store     store.Store
	log       logger.Logger
	metrics   Recorder
	now       func() time.Time
	loc       *time.Location
	optimizer optimizer.Config

	// writeMu serializes read-modify-write cycles on lessons.
	writeMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithLocation sets the time zone calendar days are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithOptimizerConfig overrides the training configuration used by Optimize.
func WithOptimizerConfig(cfg optimizer.Config) Option {
	return func(s *Service) { s.optimizer = cfg }
}

// New creates a Service over st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:   st,
		log:     logger.Discard(),
		metrics: metrics.NoOpManager(),
		now:     time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() store.Store {
	return s.store
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}

// scheduler builds the engine from the stored weights, falling back to the
// defaults when the stored ones are no longer valid.
func (s *Service) scheduler(ctx context.Context, settings model.Settings) *cadence.Scheduler {
	var params cadence.Parameters
	if settings.Parameters != nil {
		params = *settings.Parameters
	}
	sch, err := cadence.NewScheduler(cadence.SchedulerConfig{Parameters: params})
	if err != nil {
		s.log.WarnContext(ctx, "stored parameters rejected, using defaults", "error", err)
		sch, _ = cadence.NewScheduler(cadence.SchedulerConfig{})
	}
	return sch
}

func (s *Service) settings(ctx context.Context) (model.Settings, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return model.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings.Normalize(), nil
}

func (s *Service) getLesson(ctx context.Context, id string) (*model.Lesson, error) {
	l, err := s.store.GetLesson(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get lesson %s: %w", id, err)
	}
	return l, nil
}

// dayStart returns local midnight of t's calendar day.
func (s *Service) dayStart(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func (s *Service) dateKey(t time.Time) string {
	return t.In(s.loc).Format(model.DateLayout)
}

// daysBetween counts calendar days from a to b in the service location.
func (s *Service) daysBetween(a, b time.Time) int {
	ay, am, ad := a.In(s.loc).Date()
	by, bm, bd := b.In(s.loc).Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD date as local midnight in the service
// location.
func (s *Service) ParseDate(v string) (time.Time, error) {
	t, err := time.ParseInLocation(model.DateLayout, v, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q, want YYYY-MM-DD", ErrInvalidInput, v)
	}
	return t, nil
}
