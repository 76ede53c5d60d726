package cmd

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"netbox-sync/core/config"
	"netbox-sync/core/database"
	"netbox-sync/core/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		assumeYes bool
		want      bool
	}{
		{"yes", "yes\n", false, true},
		{"padded yes", "  yes  \n", false, true},
		{"no", "no\n", false, false},
		{"y is not enough", "y\n", false, false},
		{"no newline", "yes", false, true},
		{"closed input", "", false, false},
		{"flag", "", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, tt.want, confirm(strings.NewReader(tt.input), &out, "Delete?", tt.assumeYes))
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range RootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"sync", "cleanup", "status", "hypervisor", "preflight", "serve", "reports"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, syncCmd.Flags().Lookup("dry-run"))
	assert.NotNil(t, cleanupCmd.Flags().Lookup("yes"))
}

func TestNewServer(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.ApiKey = "s3cret"
	cfg.Metrics.Enabled = true

	app, err := newServer(cfg, zap.NewNop(), db, metrics.New(false))
	require.NoError(t, err)

	do := func(path, key string) *httptestResponse {
		req := httptest.NewRequest("GET", path, nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		return &httptestResponse{status: resp.StatusCode, rayID: resp.Header.Get("X-Ray-ID")}
	}

	assert.Equal(t, fiber.StatusUnauthorized, do("/runs", "").status)
	ok := do("/runs", "s3cret")
	assert.Equal(t, fiber.StatusOK, ok.status)
	assert.NotEmpty(t, ok.rayID)
	assert.Equal(t, fiber.StatusOK, do("/metrics", "").status, "metrics are scraped without a key")
	assert.Equal(t, fiber.StatusOK, do("/swagger/doc.json", "").status)
}

func TestNewServer_WithoutDatabase(t *testing.T) {
	cfg := &config.Config{}
	app, err := newServer(cfg, zap.NewNop(), nil, nil)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/runs", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

type httptestResponse struct {
	status int
	rayID  string
}
