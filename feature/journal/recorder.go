package journal

import (
	"context"
	"strings"
	"time"

	"netbox-sync/core/reconcile"

	"go.uber.org/zap"
)

// Recorder buffers the mutating decisions of one run and writes them per stage.
// It implements reconcile.Observer. Journal write failures are logged, never returned
// to the run.
type Recorder struct {
	store   *Store
	runID   string
	logger  *zap.Logger
	pending []Action
}

// RunID returns the id of the journaled run.
func (r *Recorder) RunID() string {
	if r == nil {
		return ""
	}
	return r.runID
}

// Observe buffers create, update and delete decisions.
func (r *Recorder) Observe(stage, key, name string, d reconcile.Decision) {
	if r == nil || !d.Mutates() {
		return
	}
	r.pending = append(r.pending, Action{
		RunID:     r.runID,
		Stage:     stage,
		Op:        string(d.Op),
		Key:       key,
		Name:      name,
		Changed:   strings.Join(d.Changed, ","),
		CreatedAt: time.Now(),
	})
}

// StageDone flushes the stage's actions.
func (r *Recorder) StageDone(s reconcile.StageSummary) {
	if r == nil {
		return
	}
	r.flush(context.Background(), s.Stage)
}

// Close flushes anything left and stores the run outcome.
func (r *Recorder) Close(ctx context.Context, summary *reconcile.Summary) {
	if r == nil {
		return
	}
	r.flush(ctx, "")
	if err := r.store.Finish(ctx, summary); err != nil {
		r.logger.Warn("Failed to finish journal run", zap.String("run_id", r.runID), zap.Error(err))
	}
}

func (r *Recorder) flush(ctx context.Context, stage string) {
	if len(r.pending) == 0 {
		return
	}
	if err := r.store.Record(ctx, r.pending); err != nil {
		r.logger.Warn("Failed to journal actions",
			zap.String("run_id", r.runID),
			zap.String("stage", stage),
			zap.Int("actions", len(r.pending)),
			zap.Error(err),
		)
	}
	r.pending = nil
}
