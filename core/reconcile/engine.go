package reconcile

import (
	"time"

	"go.uber.org/zap"
)

// Tally counts the decisions of one stage and logs them.
// Each stage owns its tally; nothing is shared between stages.
type Tally struct {
	logger   *zap.Logger
	observer Observer
	every    int
	start    time.Time
	summary  StageSummary
}

// NewTally starts counting for stage. every controls the periodic unchanged log.
func NewTally(stage string, logger *zap.Logger, every int, observer Observer) *Tally {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tally{
		logger:   logger.With(zap.String("stage", stage)),
		observer: observer,
		every:    every,
		start:    time.Now(),
		summary:  StageSummary{Stage: stage},
	}
}

// Record counts one decision for the entity identified by key.
func (t *Tally) Record(key, name string, d Decision) {
	switch d.Op {
	case OpCreate:
		t.summary.Created++
		t.logger.Info("Create", zap.String("external_id", key), zap.String("name", name))
	case OpUpdate:
		t.summary.Updated++
		t.logger.Info("Update",
			zap.String("external_id", key),
			zap.String("name", name),
			zap.Strings("changed", d.Changed))
	case OpDelete:
		t.summary.Deleted++
		t.logger.Info("Delete", zap.String("external_id", key), zap.String("name", name))
	case OpSkip:
		t.summary.Skipped++
		t.logger.Warn("Skipped",
			zap.String("external_id", key),
			zap.String("name", name),
			zap.String("reason", d.Reason))
	default:
		t.summary.Unchanged++
		if t.every > 0 && t.summary.Unchanged%t.every == 0 {
			t.logger.Info("Unchanged", zap.Int("count", t.summary.Unchanged))
		}
	}
	if t.observer != nil {
		t.observer.Observe(t.summary.Stage, key, name, d)
	}
}

// Stage returns the stage name.
func (t *Tally) Stage() string {
	return t.summary.Stage
}

// Current returns the counts recorded so far.
func (t *Tally) Current() StageSummary {
	s := t.summary
	s.Duration = time.Since(t.start)
	return s
}

// Finish stamps the duration, notifies the observer and returns the summary.
func (t *Tally) Finish() StageSummary {
	s := t.Current()
	t.logger.Info("Stage finished",
		zap.Int("created", s.Created),
		zap.Int("updated", s.Updated),
		zap.Int("unchanged", s.Unchanged),
		zap.Int("skipped", s.Skipped),
		zap.Int("deleted", s.Deleted),
		zap.Duration("duration", s.Duration))
	if t.observer != nil {
		t.observer.StageDone(s)
	}
	return s
}
