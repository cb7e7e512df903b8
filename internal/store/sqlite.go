package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/model"
)

// timeLayout is fixed-width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const settingsKey = "study"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex // guards entropy
	entropy *rand.Rand
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		name      TEXT PRIMARY KEY,
		exam_date TEXT
	);

	CREATE TABLE IF NOT EXISTS lessons (
		id               TEXT PRIMARY KEY,
		title            TEXT NOT NULL,
		category         TEXT NOT NULL REFERENCES categories(name) ON UPDATE CASCADE,
		subject          TEXT NOT NULL DEFAULT '',
		difficulty       TEXT NOT NULL,
		added_at         TEXT NOT NULL,
		next_review_at   TEXT NOT NULL,
		mode             TEXT NOT NULL,
		schedule         TEXT NOT NULL,
		custom_intervals TEXT,
		review_history   TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_lessons_category ON lessons(category);
	CREATE INDEX IF NOT EXISTS idx_lessons_next_review ON lessons(next_review_at);

	CREATE TABLE IF NOT EXISTS review_logs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		lesson_id   TEXT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
		grade       TEXT NOT NULL,
		reviewed_at TEXT NOT NULL,
		duration_ms INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_review_logs_lesson ON review_logs(lesson_id, reviewed_at);

	CREATE TABLE IF NOT EXISTS activity (
		date  TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func (s *SQLiteStore) PutLesson(ctx context.Context, l *model.Lesson) error {
	if l.ID == "" {
		l.ID = s.newID()
	}
	return putLesson(ctx, s.db, l)
}

func putLesson(ctx context.Context, db execer, l *model.Lesson) error {
	if l.Category == "" {
		l.Category = model.Uncategorized
	}
	difficulty, err := l.Difficulty.MarshalText()
	if err != nil {
		return err
	}
	var sched cadence.ItemSchedule = cadence.LegacyFixedSchedule{}
	if l.Schedule != nil {
		sched = l.Schedule
	}
	schedJSON, err := cadence.MarshalSchedule(sched)
	if err != nil {
		return err
	}

	var intervals, history sql.NullString
	if len(l.CustomIntervals) > 0 {
		b, _ := json.Marshal(l.CustomIntervals)
		intervals = sql.NullString{String: string(b), Valid: true}
	}
	if len(l.ReviewHistory) > 0 {
		hist := make([]string, len(l.ReviewHistory))
		for i, t := range l.ReviewHistory {
			hist[i] = formatTime(t)
		}
		b, _ := json.Marshal(hist)
		history = sql.NullString{String: string(b), Valid: true}
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (name) VALUES (?)`, l.Category); err != nil {
		return fmt.Errorf("ensure category: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO lessons (id, title, category, subject, difficulty, added_at, next_review_at,
		                      mode, schedule, custom_intervals, review_history)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title, category = excluded.category, subject = excluded.subject,
		   difficulty = excluded.difficulty, added_at = excluded.added_at,
		   next_review_at = excluded.next_review_at, mode = excluded.mode,
		   schedule = excluded.schedule, custom_intervals = excluded.custom_intervals,
		   review_history = excluded.review_history`,
		l.ID, l.Title, l.Category, l.Subject, string(difficulty),
		formatTime(l.AddedAt), formatTime(l.NextReviewAt),
		string(sched.Mode()), string(schedJSON), intervals, history,
	)
	if err != nil {
		return fmt.Errorf("put lesson %s: %w", l.ID, err)
	}
	return nil
}

const lessonColumns = `id, title, category, subject, difficulty, added_at, next_review_at,
	schedule, custom_intervals, review_history`

func (s *SQLiteStore) GetLesson(ctx context.Context, id string) (*model.Lesson, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id)
	l, err := scanLesson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lesson %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *SQLiteStore) ListLessons(ctx context.Context, p ListParams) ([]model.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons`
	var args []any
	if p.Category != "" {
		query += ` WHERE category = ?`
		args = append(args, p.Category)
	}
	query += ` ORDER BY next_review_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (s *SQLiteStore) DeleteLesson(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lesson %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) AppendReviewLog(ctx context.Context, log cadence.ReviewLog) error {
	return appendReviewLog(ctx, s.db, log)
}

func appendReviewLog(ctx context.Context, db execer, log cadence.ReviewLog) error {
	grade, err := log.Grade.MarshalText()
	if err != nil {
		return err
	}
	var dur sql.NullInt64
	if log.DurationMillis != nil {
		dur = sql.NullInt64{Int64: int64(*log.DurationMillis), Valid: true}
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO review_logs (lesson_id, grade, reviewed_at, duration_ms) VALUES (?, ?, ?, ?)`,
		log.ItemID, string(grade), formatTime(log.ReviewedAt), dur)
	if err != nil {
		return fmt.Errorf("append review log for %s: %w", log.ItemID, err)
	}
	return nil
}

func (s *SQLiteStore) ListReviewLogs(ctx context.Context, lessonID string) ([]cadence.ReviewLog, error) {
	query := `SELECT lesson_id, grade, reviewed_at, duration_ms FROM review_logs`
	var args []any
	if lessonID != "" {
		query += ` WHERE lesson_id = ?`
		args = append(args, lessonID)
	}
	query += ` ORDER BY reviewed_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []cadence.ReviewLog
	for rows.Next() {
		var (
			log        cadence.ReviewLog
			grade, at  string
			durationMs sql.NullInt64
		)
		if err := rows.Scan(&log.ItemID, &grade, &at, &durationMs); err != nil {
			return nil, err
		}
		if log.Grade, err = cadence.ParseGrade(grade); err != nil {
			return nil, err
		}
		log.ReviewedAt = parseTime(at)
		if durationMs.Valid {
			ms := int(durationMs.Int64)
			log.DurationMillis = &ms
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *SQLiteStore) DeleteReviewLogs(ctx context.Context, lessonID string) error {
	return deleteReviewLogs(ctx, s.db, lessonID)
}

func deleteReviewLogs(ctx context.Context, db execer, lessonID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM review_logs WHERE lesson_id = ?`, lessonID)
	return err
}

func (s *SQLiteStore) RecordReview(ctx context.Context, r ReviewRecord) error {
	if r.Lesson == nil || r.Lesson.ID == "" {
		return errors.New("record review: lesson has no id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := putLesson(ctx, tx, r.Lesson); err != nil {
		return err
	}
	if err := appendReviewLog(ctx, tx, r.Log); err != nil {
		return err
	}
	if err := recordActivity(ctx, tx, r.Date); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	if r.PruneBefore != "" {
		if err := pruneActivity(ctx, tx, r.PruneBefore); err != nil {
			return fmt.Errorf("prune activity: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ResetLesson(ctx context.Context, l *model.Lesson) error {
	if l.ID == "" {
		return errors.New("reset lesson: lesson has no id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteReviewLogs(ctx, tx, l.ID); err != nil {
		return fmt.Errorf("delete review logs for %s: %w", l.ID, err)
	}
	if err := putLesson(ctx, tx, l); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) PutCategory(ctx context.Context, c model.Category) error {
	return putCategory(ctx, s.db, c)
}

func putCategory(ctx context.Context, db execer, c model.Category) error {
	if c.Name == "" {
		return errors.New("category name is required")
	}
	var exam sql.NullString
	if c.ExamDate != nil {
		exam = sql.NullString{String: formatTime(*c.ExamDate), Valid: true}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO categories (name, exam_date) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET exam_date = excluded.exam_date`,
		c.Name, exam)
	return err
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, exam_date FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var (
			c    model.Category
			exam sql.NullString
		)
		if err := rows.Scan(&c.Name, &exam); err != nil {
			return nil, err
		}
		if exam.Valid {
			t := parseTime(exam.String)
			c.ExamDate = &t
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// RenameCategory renames oldName, merging into newName when it already exists.
func (s *SQLiteStore) RenameCategory(ctx context.Context, oldName, newName string) error {
	if newName == "" {
		return errors.New("category name is required")
	}
	if oldName == newName {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE name = ?`, oldName).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("category %q: %w", oldName, ErrNotFound)
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE name = ?`, newName).Scan(&n); err != nil {
		return err
	}

	if n == 0 {
		// lessons follow through ON UPDATE CASCADE
		if _, err := tx.ExecContext(ctx, `UPDATE categories SET name = ? WHERE name = ?`, newName, oldName); err != nil {
			return err
		}
	} else {
		if _, err := tx.ExecContext(ctx, `UPDATE lessons SET category = ? WHERE category = ?`, newName, oldName); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, oldName); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, p DeleteCategoryParams) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if p.DeleteLessons {
		if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE category = ?`, p.Name); err != nil {
			return err
		}
	} else if p.Name != model.Uncategorized {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (name) VALUES (?)`, model.Uncategorized); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE lessons SET category = ? WHERE category = ?`, model.Uncategorized, p.Name); err != nil {
			return err
		}
	} else {
		// Uncategorized has nowhere to move its lessons; keep it while it has any.
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM lessons WHERE category = ?`, p.Name).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return tx.Commit()
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, p.Name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %q: %w", p.Name, ErrNotFound)
	}
	return tx.Commit()
}

func (s *SQLiteStore) RecordActivity(ctx context.Context, date string) error {
	return recordActivity(ctx, s.db, date)
}

func recordActivity(ctx context.Context, db execer, date string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO activity (date, count) VALUES (?, 1)
		 ON CONFLICT(date) DO UPDATE SET count = count + 1`, date)
	return err
}

func (s *SQLiteStore) ListActivity(ctx context.Context, since string) ([]model.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, count FROM activity WHERE date >= ? ORDER BY date`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.Date, &a.Count); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PruneActivity(ctx context.Context, before string) error {
	return pruneActivity(ctx, s.db, before)
}

func pruneActivity(ctx context.Context, db execer, before string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM activity WHERE date < ?`, before)
	return err
}

func (s *SQLiteStore) GetSettings(ctx context.Context) (model.Settings, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, err
	}
	var st model.Settings
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return model.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return st, nil
}

func (s *SQLiteStore) PutSettings(ctx context.Context, st model.Settings) error {
	return putSettings(ctx, s.db, st)
}

// SeedSettings stores st unless settings were already saved. It reports
// whether st was stored.
func (s *SQLiteStore) SeedSettings(ctx context.Context, st model.Settings) (bool, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, settingsKey, string(raw))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func putSettings(ctx context.Context, db execer, st model.Settings) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, settingsKey, string(raw))
	return err
}

// Restore replaces all data in a single transaction. Review logs whose
// lesson is not part of the backup are dropped.
func (s *SQLiteStore) Restore(ctx context.Context, b model.Backup) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"review_logs", "lessons", "categories", "activity", "settings"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, c := range b.Categories {
		if err := putCategory(ctx, tx, c); err != nil {
			return fmt.Errorf("restore category %q: %w", c.Name, err)
		}
	}
	ids := make(map[string]bool, len(b.Lessons))
	for i := range b.Lessons {
		l := b.Lessons[i]
		if l.ID == "" {
			l.ID = s.newID()
		}
		if err := putLesson(ctx, tx, &l); err != nil {
			return err
		}
		ids[l.ID] = true
	}
	for _, log := range b.ReviewLogs {
		if !ids[log.ItemID] {
			continue
		}
		if err := appendReviewLog(ctx, tx, log); err != nil {
			return err
		}
	}
	for _, a := range b.Activity {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO activity (date, count) VALUES (?, ?)
			 ON CONFLICT(date) DO UPDATE SET count = count + excluded.count`, a.Date, a.Count); err != nil {
			return fmt.Errorf("restore activity %s: %w", a.Date, err)
		}
	}
	if err := putSettings(ctx, tx, b.Settings.Normalize()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLesson(row scanner) (model.Lesson, error) {
	var (
		l                      model.Lesson
		difficulty             string
		addedAt, nextReviewAt  string
		schedule               string
		intervals, historyJSON sql.NullString
	)
	err := row.Scan(&l.ID, &l.Title, &l.Category, &l.Subject, &difficulty,
		&addedAt, &nextReviewAt, &schedule, &intervals, &historyJSON)
	if err != nil {
		return l, err
	}

	l.AddedAt = parseTime(addedAt)
	l.NextReviewAt = parseTime(nextReviewAt)
	if l.Difficulty, err = cadence.ParseDifficultyLabel(difficulty); err != nil {
		return l, err
	}
	if l.Schedule, err = cadence.UnmarshalSchedule([]byte(schedule)); err != nil {
		return l, fmt.Errorf("lesson %s: %w", l.ID, err)
	}
	if intervals.Valid {
		if err := json.Unmarshal([]byte(intervals.String), &l.CustomIntervals); err != nil {
			return l, fmt.Errorf("lesson %s: custom intervals: %w", l.ID, err)
		}
	}
	if historyJSON.Valid {
		var hist []string
		if err := json.Unmarshal([]byte(historyJSON.String), &hist); err != nil {
			return l, fmt.Errorf("lesson %s: review history: %w", l.ID, err)
		}
		for _, h := range hist {
			l.ReviewHistory = append(l.ReviewHistory, parseTime(h))
		}
	}
	return l, nil
}
