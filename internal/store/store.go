// Package store persists lessons, review logs and study settings.
package store

import (
	"context"
	"errors"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/model"
)

// ErrNotFound is returned when a lesson or category does not exist.
var ErrNotFound = errors.New("not found")

// ListParams filters ListLessons.
type ListParams struct {
	Category string // empty for all
}

// DeleteCategoryParams controls what happens to a deleted category's lessons.
type DeleteCategoryParams struct {
	Name          string
	DeleteLessons bool // otherwise lessons move to model.Uncategorized
}

// ReviewRecord is everything one review writes.
type ReviewRecord struct {
	Lesson *model.Lesson
	Log    cadence.ReviewLog
	// Date is the YYYY-MM-DD day the review counts toward.
	Date string
	// PruneBefore drops activity older than this day; empty keeps all.
	PruneBefore string
}

// Store defines the storage interface.
type Store interface {
	// PutLesson inserts l, assigning an ID when it has none, or replaces the
	// stored lesson with the same ID. Its category is created if missing.
	PutLesson(ctx context.Context, l *model.Lesson) error
	GetLesson(ctx context.Context, id string) (*model.Lesson, error)
	ListLessons(ctx context.Context, p ListParams) ([]model.Lesson, error)
	// DeleteLesson removes a lesson together with its review logs.
	DeleteLesson(ctx context.Context, id string) error

	AppendReviewLog(ctx context.Context, log cadence.ReviewLog) error
	// ListReviewLogs returns the logs of one lesson, or of all lessons when
	// lessonID is empty, oldest first.
	ListReviewLogs(ctx context.Context, lessonID string) ([]cadence.ReviewLog, error)
	DeleteReviewLogs(ctx context.Context, lessonID string) error

	// RecordReview saves the reviewed lesson, appends its log and counts the
	// review toward r.Date in one transaction.
	RecordReview(ctx context.Context, r ReviewRecord) error
	// ResetLesson saves l and deletes its review logs in one transaction.
	ResetLesson(ctx context.Context, l *model.Lesson) error

	PutCategory(ctx context.Context, c model.Category) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	RenameCategory(ctx context.Context, oldName, newName string) error
	DeleteCategory(ctx context.Context, p DeleteCategoryParams) error

	// RecordActivity adds one review to the given YYYY-MM-DD day.
	RecordActivity(ctx context.Context, date string) error
	ListActivity(ctx context.Context, since string) ([]model.Activity, error)
	PruneActivity(ctx context.Context, before string) error

	// GetSettings returns model.DefaultSettings until settings are stored.
	GetSettings(ctx context.Context) (model.Settings, error)
	PutSettings(ctx context.Context, s model.Settings) error

	// Restore replaces every stored record with the contents of b.
	Restore(ctx context.Context, b model.Backup) error

	Close() error
}
