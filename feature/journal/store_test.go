package journal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"netbox-sync/core/database"
	"netbox-sync/core/reconcile"
	"netbox-sync/feature/journal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	return db
}

func setupStore(t *testing.T) *journal.Store {
	t.Helper()
	store := journal.NewStore(setupDB(t))
	require.NoError(t, store.Migrate())
	return store
}

// journaled records a finished run with one create and one update.
func journaled(t *testing.T, store *journal.Store, kind string, started time.Time, runErr error) *reconcile.Summary {
	t.Helper()
	ctx := context.Background()
	summary := reconcile.NewSummary(kind, "cl1", false)
	summary.StartedAt = started

	rec := store.Open(ctx, summary, nil)
	require.NotNil(t, rec)
	rec.Observe("instances", "i-1", "web1", reconcile.Create())
	rec.Observe("instances", "i-2", "db1", reconcile.Noop())
	rec.Observe("instances", "i-3", "app1", reconcile.Update("status", "flavor"))
	rec.Observe("instances", "i-4", "batch1", reconcile.Skip("flavor f9 not found"))
	st := reconcile.StageSummary{Stage: "instances", Created: 1, Updated: 1, Unchanged: 1, Skipped: 1}
	rec.StageDone(st)
	summary.Add(st)

	summary.Finish(runErr)
	rec.Close(ctx, summary)
	return summary
}

func TestRecorder_RoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	summary := journaled(t, store, "sync", time.Now(), nil)

	run, err := store.Get(ctx, summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, "sync", run.Kind)
	assert.Equal(t, "cl1", run.Cluster)
	assert.Equal(t, journal.OutcomeSucceeded, run.Outcome)
	assert.Empty(t, run.Error)
	assert.NotNil(t, run.FinishedAt)
	assert.Equal(t, 1, run.Created)
	assert.Equal(t, 1, run.Updated)
	assert.Equal(t, 1, run.Unchanged)
	assert.Equal(t, 1, run.Skipped)

	actions, err := store.Actions(ctx, summary.RunID)
	require.NoError(t, err)
	require.Len(t, actions, 2, "only mutating decisions are journaled")
	assert.Equal(t, "create", actions[0].Op)
	assert.Equal(t, "i-1", actions[0].Key)
	assert.Equal(t, "web1", actions[0].Name)
	assert.Equal(t, "update", actions[1].Op)
	assert.Equal(t, "status,flavor", actions[1].Changed)
}

func TestRecorder_FailedRun(t *testing.T) {
	store := setupStore(t)
	summary := journaled(t, store, "cleanup", time.Now(), errors.New("stage cleanup_interfaces: status 500"))

	run, err := store.Get(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, journal.OutcomeFailed, run.Outcome)
	assert.Equal(t, "stage cleanup_interfaces: status 500", run.Error)
}

func TestStore_List(t *testing.T) {
	store := setupStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := journaled(t, store, "sync", base, nil)
	second := journaled(t, store, "cleanup", base.Add(time.Minute), nil)
	third := journaled(t, store, "sync", base.Add(2*time.Minute), nil)

	runs, err := store.List(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{third.RunID, second.RunID, first.RunID}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	runs, err = store.List(context.Background(), "sync", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, third.RunID, runs[0].ID)
}

func TestStore_GetMissing(t *testing.T) {
	store := setupStore(t)
	_, err := store.Get(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, journal.ErrRunNotFound)
}

func TestStore_Verify(t *testing.T) {
	store := setupStore(t)
	assert.NoError(t, store.Verify())

	db := setupDB(t)
	require.NoError(t, db.Exec("CREATE TABLE sync_runs (id TEXT PRIMARY KEY, kind TEXT)").Error)
	err := journal.NewStore(db).Verify()
	require.Error(t, err)
	assert.ErrorContains(t, err, "table sync_runs is missing columns: cluster")
	assert.ErrorContains(t, err, "table sync_actions is missing columns: id, run_id")
}

func TestStore_OpenDegrades(t *testing.T) {
	ctx := context.Background()
	summary := reconcile.NewSummary("sync", "cl1", false)

	t.Run("nil store", func(t *testing.T) {
		var store *journal.Store
		rec := store.Open(ctx, summary, nil)
		assert.Nil(t, rec)
		assert.NotPanics(t, func() {
			obs := reconcile.Observers{rec}
			obs.Observe("instances", "i-1", "web1", reconcile.Create())
			obs.StageDone(reconcile.StageSummary{Stage: "instances"})
			rec.Close(ctx, summary)
		})
		assert.Empty(t, rec.RunID())
	})

	t.Run("tables missing", func(t *testing.T) {
		rec := journal.NewStore(setupDB(t)).Open(ctx, summary, nil)
		assert.Nil(t, rec)
	})
}
