package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		called := false
		err := DeleteBatch(ctx, nil, "vrfs", nil, time.Hour, func(context.Context, []int) error {
			called = true
			return nil
		})
		require.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("DeletesWholeBatch", func(t *testing.T) {
		var got []int
		err := DeleteBatch(ctx, nil, "disks", []int{3, 1, 2}, time.Millisecond, func(_ context.Context, ids []int) error {
			got = ids
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{3, 1, 2}, got)
	})

	t.Run("FailureIsFatal", func(t *testing.T) {
		err := DeleteBatch(ctx, nil, "interfaces", []int{1}, 0, func(context.Context, []int) error {
			return ErrTransport
		})
		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorContains(t, err, "interfaces")
	})

	t.Run("CancelledDuringDelay", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		called := false
		err := DeleteBatch(cctx, nil, "virtual-machines", []int{1}, time.Hour, func(context.Context, []int) error {
			called = true
			return nil
		})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.False(t, called)
	})
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
