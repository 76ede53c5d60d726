package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DeleteBatch deletes ids in one call after waiting delay.
// The wait gives an operator watching the log a window to interrupt; a cancelled
// ctx aborts before anything is deleted. An empty batch only logs.
func DeleteBatch(ctx context.Context, logger *zap.Logger, kind string, ids []int, delay time.Duration, del func(ctx context.Context, ids []int) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(ids) == 0 {
		logger.Info("Nothing to delete", zap.String("kind", kind))
		return nil
	}

	logger.Warn("Deleting objects",
		zap.String("kind", kind),
		zap.Int("count", len(ids)),
		zap.Ints("ids", ids),
		zap.Duration("in", delay))

	if err := Wait(ctx, delay); err != nil {
		return fmt.Errorf("delete %d %s: %w", len(ids), kind, err)
	}
	if err := del(ctx, ids); err != nil {
		return fmt.Errorf("delete %d %s: %w", len(ids), kind, err)
	}
	logger.Info("Deleted objects", zap.String("kind", kind), zap.Int("count", len(ids)))
	return nil
}

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
