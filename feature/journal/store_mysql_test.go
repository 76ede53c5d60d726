package journal_test

import (
	"context"
	"errors"
	"testing"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/journal"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockStore(t *testing.T) (*journal.Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)
	return journal.NewStore(db), mock
}

func TestStore_BeginAndFinish_MySQL(t *testing.T) {
	store, mock := setupMockStore(t)
	summary := reconcile.NewSummary("sync", "cl1", true)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `sync_runs`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `sync_runs` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Begin(context.Background(), summary))
	summary.Finish(nil)
	require.NoError(t, store.Finish(context.Background(), summary))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordSkipsEmpty_MySQL(t *testing.T) {
	store, mock := setupMockStore(t)
	require.NoError(t, store.Record(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetMissing_MySQL(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `sync_runs` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind"}))

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, journal.ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListError_MySQL(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `sync_runs`").WillReturnError(errors.New("connection reset"))

	_, err := store.List(context.Background(), "", 10)
	assert.ErrorContains(t, err, "failed to list runs")
	assert.NotErrorIs(t, err, journal.ErrRunNotFound)
}

func TestStore_Verify_MySQL(t *testing.T) {
	store, mock := setupMockStore(t)
	cols := []string{"Field", "Type", "Null", "Key", "Default", "Extra"}
	runs := sqlmock.NewRows(cols)
	for _, c := range []string{"id", "kind", "cluster", "dry_run", "started_at", "finished_at", "outcome", "error", "created", "updated", "unchanged", "skipped", "deleted"} {
		runs.AddRow(c, "varchar(64)", "YES", "", nil, "")
	}
	actions := sqlmock.NewRows(cols)
	for _, c := range []string{"id", "run_id", "stage", "op", "name", "changed", "created_at"} {
		actions.AddRow(c, "varchar(64)", "YES", "", nil, "")
	}
	mock.ExpectQuery("SHOW COLUMNS FROM `sync_runs`").WillReturnRows(runs)
	mock.ExpectQuery("SHOW COLUMNS FROM `sync_actions`").WillReturnRows(actions)

	err := store.Verify()
	assert.EqualError(t, err, "table sync_actions is missing columns: entity_key")
	assert.NoError(t, mock.ExpectationsWereMet())
}
