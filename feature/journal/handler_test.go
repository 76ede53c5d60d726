package journal_test

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"netbox-sync/feature/journal"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func setupApp(store *journal.Store) *fiber.App {
	app := fiber.New()
	journal.NewHandler(store, zap.NewNop()).RegisterRoutes(app)
	return app
}

func get(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == fiber.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHandleList(t *testing.T) {
	store := setupStore(t)
	base := time.Now().Add(-time.Hour)
	journaled(t, store, "sync", base, nil)
	latest := journaled(t, store, "cleanup", base.Add(time.Minute), nil)
	app := setupApp(store)

	var runs []journal.Run
	assert.Equal(t, fiber.StatusOK, get(t, app, "/runs", &runs))
	assert.Len(t, runs, 2)

	runs = nil
	assert.Equal(t, fiber.StatusOK, get(t, app, "/runs?kind=cleanup&limit=5", &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, latest.RunID, runs[0].ID)
}

func TestHandleGet(t *testing.T) {
	store := setupStore(t)
	summary := journaled(t, store, "sync", time.Now(), nil)
	app := setupApp(store)

	var run journal.Run
	assert.Equal(t, fiber.StatusOK, get(t, app, "/runs/"+summary.RunID, &run))
	assert.Equal(t, summary.RunID, run.ID)
	assert.Equal(t, journal.OutcomeSucceeded, run.Outcome)

	assert.Equal(t, fiber.StatusNotFound, get(t, app, "/runs/unknown", nil))
}

func TestHandleActions(t *testing.T) {
	store := setupStore(t)
	summary := journaled(t, store, "sync", time.Now(), nil)
	app := setupApp(store)

	var actions []journal.Action
	assert.Equal(t, fiber.StatusOK, get(t, app, "/runs/"+summary.RunID+"/actions", &actions))
	require.Len(t, actions, 2)
	assert.Equal(t, "instances", actions[0].Stage)

	assert.Equal(t, fiber.StatusNotFound, get(t, app, "/runs/unknown/actions", nil))
}

func TestHandleList_DatabaseError(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `sync_runs`").WillReturnError(errors.New("connection reset"))

	assert.Equal(t, fiber.StatusInternalServerError, get(t, setupApp(store), "/runs", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandle_DatabaseErrorLogsPath(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `sync_runs`").WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery("SELECT \\* FROM `sync_runs`").WillReturnError(errors.New("connection reset"))

	core, logs := observer.New(zapcore.ErrorLevel)
	app := fiber.New()
	journal.NewHandler(store, zap.New(core)).RegisterRoutes(app)

	assert.Equal(t, fiber.StatusInternalServerError, get(t, app, "/runs", nil))
	assert.Equal(t, fiber.StatusInternalServerError, get(t, app, "/runs/0f3c9a2e-7d41-4b8e-9c55-1e2f3a4b5c6d", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "/runs", entries[0].ContextMap()["path"])
	assert.Equal(t, "/runs/0f3c9a2e-7d41-4b8e-9c55-1e2f3a4b5c6d", entries[1].ContextMap()["path"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeature(t *testing.T) {
	off := journal.NewFeature(nil, nil)
	assert.Equal(t, "journal", off.Name())
	assert.False(t, off.IsEnabled())

	f := journal.NewFeature(setupDB(t), zap.NewNop())
	require.True(t, f.IsEnabled())
	app := fiber.New()
	require.NoError(t, f.Load(app))

	var runs []journal.Run
	assert.Equal(t, fiber.StatusOK, get(t, app, "/runs", &runs))
	assert.Empty(t, runs)
}
