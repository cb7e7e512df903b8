package study

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/optimizer"
)

// SettingsPatch lists the settings UpdateSettings changes; nil fields are kept.
type SettingsPatch struct {
	Intervals        *[]int
	CramMode         *bool
	UseAdaptive      *bool
	DesiredRetention *float64
	// ResetParameters drops fitted weights in favor of the defaults.
	ResetParameters bool
}

// OptimizeResult reports a fit of the memory model to the stored reviews.
type OptimizeResult struct {
	Parameters cadence.Parameters `json:"parameters"`
	LossBefore float64            `json:"loss_before"`
	LossAfter  float64            `json:"loss_after"`
	Reviews    int                `json:"reviews"`
	Applied    bool               `json:"applied"`
	// Retention is the cost-optimal desired retention, when enough timed
	// reviews exist to estimate it.
	Retention *float64 `json:"retention,omitempty"`
}

// GetSettings returns the stored settings.
func (s *Service) GetSettings(ctx context.Context) (model.Settings, error) {
	return s.settings(ctx)
}

// UpdateSettings applies p and returns the new settings.
func (s *Service) UpdateSettings(ctx context.Context, p SettingsPatch) (_ model.Settings, err error) {
	ctx, span := s.startSpan(ctx, "study.update_settings")
	defer func() { endSpan(span, err) }()

	settings, err := s.settings(ctx)
	if err != nil {
		return model.Settings{}, err
	}
	if p.Intervals != nil {
		if len(*p.Intervals) == 0 {
			return model.Settings{}, fmt.Errorf("%w: at least one interval is required", ErrInvalidInput)
		}
		if err := validateIntervals(*p.Intervals); err != nil {
			return model.Settings{}, err
		}
		settings.Intervals = slices.Clone(*p.Intervals)
	}
	if p.CramMode != nil {
		settings.CramMode = *p.CramMode
	}
	if p.UseAdaptive != nil {
		settings.UseAdaptive = *p.UseAdaptive
	}
	if p.DesiredRetention != nil {
		if err := cadence.ValidateRetention(*p.DesiredRetention); err != nil {
			return model.Settings{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		settings.DesiredRetention = *p.DesiredRetention
	}
	if p.ResetParameters {
		settings.Parameters = nil
	}

	if err := s.store.PutSettings(ctx, settings); err != nil {
		return model.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.log.InfoContext(ctx, "settings updated",
		"preset", cadence.PresetName(settings.Intervals),
		"cram_mode", settings.CramMode,
		"use_adaptive", settings.UseAdaptive,
		"desired_retention", settings.DesiredRetention,
	)
	return settings, nil
}

// Optimize fits the memory model to every stored review log and reports the
// loss under the current and the fitted weights. With apply set, the fitted
// weights are saved and used for all later reviews.
func (s *Service) Optimize(ctx context.Context, apply bool) (_ *OptimizeResult, err error) {
	ctx, span := s.startSpan(ctx, "study.optimize", attribute.Bool("apply", apply))
	defer func() { endSpan(span, err) }()

	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := s.store.ListReviewLogs(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list review logs: %w", err)
	}

	opt := optimizer.NewOptimizer(s.optimizer)
	current := s.scheduler(ctx, settings).Parameters()
	fitted, err := opt.ComputeOptimalParameters(ctx, logs)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	res := &OptimizeResult{
		Parameters: fitted,
		LossBefore: opt.ComputeBatchLoss(current, logs),
		LossAfter:  opt.ComputeBatchLoss(fitted, logs),
		Reviews:    len(logs),
	}
	switch r, err := opt.ComputeOptimalRetention(ctx, fitted, logs); {
	case err == nil:
		res.Retention = &r
	case errors.Is(err, optimizer.ErrInsufficientLogs), errors.Is(err, optimizer.ErrMissingDuration):
		s.log.DebugContext(ctx, "optimal retention skipped", "error", err)
	default:
		return nil, fmt.Errorf("optimize retention: %w", err)
	}

	if apply {
		settings.Parameters = &fitted
		if err := s.store.PutSettings(ctx, settings); err != nil {
			return nil, fmt.Errorf("save parameters: %w", err)
		}
		res.Applied = true
	}
	s.log.InfoContext(ctx, "parameters optimized",
		"reviews", res.Reviews,
		"loss_before", res.LossBefore,
		"loss_after", res.LossAfter,
		"applied", apply,
	)
	return res, nil
}

// Export returns every stored record.
func (s *Service) Export(ctx context.Context) (_ model.Backup, err error) {
	ctx, span := s.startSpan(ctx, "study.export")
	defer func() { endSpan(span, err) }()

	b := model.Backup{ExportedAt: s.now().UTC()}
	if b.Lessons, err = s.ListLessons(ctx, ""); err != nil {
		return model.Backup{}, err
	}
	if b.Settings, err = s.settings(ctx); err != nil {
		return model.Backup{}, err
	}
	if b.Categories, err = s.ListCategories(ctx); err != nil {
		return model.Backup{}, err
	}
	if b.Activity, err = s.store.ListActivity(ctx, ""); err != nil {
		return model.Backup{}, fmt.Errorf("list activity: %w", err)
	}
	if b.ReviewLogs, err = s.store.ListReviewLogs(ctx, ""); err != nil {
		return model.Backup{}, fmt.Errorf("list review logs: %w", err)
	}
	return b, nil
}

// Import replaces all stored data with b. Missing settings fall back to the
// defaults.
func (s *Service) Import(ctx context.Context, b model.Backup) (err error) {
	ctx, span := s.startSpan(ctx, "study.import", attribute.Int("lessons", len(b.Lessons)))
	defer func() { endSpan(span, err) }()

	for i := range b.Lessons {
		l := &b.Lessons[i]
		if l.Title == "" {
			return fmt.Errorf("%w: lesson %d has no title", ErrInvalidInput, i)
		}
		if l.Difficulty == 0 {
			l.Difficulty = cadence.Medium
		}
		if l.Category == "" {
			l.Category = model.Uncategorized
		}
		if err := validateIntervals(l.CustomIntervals); err != nil {
			return err
		}
	}
	if err := validateIntervals(b.Settings.Intervals); err != nil {
		return err
	}
	if r := b.Settings.DesiredRetention; r != 0 {
		if err := cadence.ValidateRetention(r); err != nil {
			return fmt.Errorf("%w: settings: %w", ErrInvalidInput, err)
		}
	}
	if p := b.Settings.Parameters; p != nil {
		if err := cadence.ValidateParameters(*p); err != nil {
			return fmt.Errorf("%w: settings: %w", ErrInvalidInput, err)
		}
	}
	b.Settings = b.Settings.Normalize()

	if err := s.store.Restore(ctx, b); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	s.log.InfoContext(ctx, "backup imported",
		"lessons", len(b.Lessons),
		"review_logs", len(b.ReviewLogs),
	)
	return nil
}
