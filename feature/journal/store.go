package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"netbox-sync/core/database"
	"netbox-sync/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// MaxListLimit caps List.
const MaxListLimit = 500

// Store reads and writes the run journal tables.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the journal tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Run{}, &Action{}); err != nil {
		return fmt.Errorf("failed to migrate journal tables: %w", err)
	}
	return nil
}

// Verify checks that both journal tables carry every expected column.
func (s *Store) Verify() error {
	var errs []error
	for _, t := range []struct {
		table    string
		expected []string
	}{
		{Run{}.TableName(), runColumns},
		{Action{}.TableName(), actionColumns},
	} {
		table := t.table
		missing, err := database.MissingColumns(s.db, table, t.expected)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Errorf("table %s is missing columns: %s", table, strings.Join(missing, ", ")))
		}
	}
	return errors.Join(errs...)
}

// Begin inserts the run row for summary with outcome running.
func (s *Store) Begin(ctx context.Context, summary *reconcile.Summary) error {
	run := newRun(summary)
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("failed to insert run %s: %w", summary.RunID, err)
	}
	return nil
}

// Record appends actions.
func (s *Store) Record(ctx context.Context, actions []Action) error {
	if len(actions) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&actions, 100).Error; err != nil {
		return fmt.Errorf("failed to insert %d actions: %w", len(actions), err)
	}
	return nil
}

// Finish stores the outcome and totals of summary.
func (s *Store) Finish(ctx context.Context, summary *reconcile.Summary) error {
	totals := summary.Totals()
	finished := summary.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	err := s.db.WithContext(ctx).Model(&Run{}).Where("id = ?", summary.RunID).Updates(map[string]any{
		"finished_at": finished,
		"outcome":     outcome(summary),
		"error":       summary.Error,
		"created":     totals.Created,
		"updated":     totals.Updated,
		"unchanged":   totals.Unchanged,
		"skipped":     totals.Skipped,
		"deleted":     totals.Deleted,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", summary.RunID, err)
	}
	return nil
}

// List returns the most recent runs first. kind filters when not empty.
func (s *Store) List(ctx context.Context, kind string, limit int) ([]Run, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	q := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Get returns one run.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &run, nil
}

// Actions returns the actions of a run in recording order.
func (s *Store) Actions(ctx context.Context, runID string) ([]Action, error) {
	var actions []Action
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("failed to list actions of run %s: %w", runID, err)
	}
	return actions, nil
}

// Open begins a journal entry for summary.
// A nil store, or a failed insert, yields a nil Recorder; the run goes on without a journal.
func (s *Store) Open(ctx context.Context, summary *reconcile.Summary, logger *zap.Logger) *Recorder {
	if s == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := s.Begin(ctx, summary); err != nil {
		logger.Warn("Run journal unavailable", zap.Error(err))
		return nil
	}
	return &Recorder{store: s, runID: summary.RunID, logger: logger}
}
