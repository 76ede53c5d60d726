package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"netbox-sync/core/config"
	"netbox-sync/core/database"
	"netbox-sync/core/loader"
	"netbox-sync/core/logger"
	"netbox-sync/core/metrics"
	"netbox-sync/core/middleware/auth"
	"netbox-sync/core/middleware/rayid"
	"netbox-sync/core/middleware/requestlog"
	"netbox-sync/feature/journal"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "netbox-sync/docs/swagger"
)

// @title NetBox Sync API
// @version 1.0
// @description Run journal and metrics of the OpenStack to NetBox synchronizer.
// @host localhost:8080
// @BasePath /

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run journal API and the metrics endpoint",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(envDir)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		var db *gorm.DB
		if conn, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional database connection failed, journal API disabled", zap.Error(err))
		} else {
			db = conn
			logg.Info("Connected to journal database")
		}

		var collector *metrics.Collector
		if cfg.Metrics.Enabled {
			collector = metrics.New(true)
		}

		app, err := newServer(cfg, logg, db, collector)
		if err != nil {
			return err
		}

		go func() {
			logg.Info("Starting server", zap.String("address", cfg.Server.Address()))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		select {
		case <-c:
		case <-cmd.Context().Done():
		}
		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

// newServer builds the fiber app with middleware and every enabled feature.
func newServer(cfg *config.Config, logg *zap.Logger, db *gorm.DB, collector *metrics.Collector) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	mgr := loader.NewManager(logg)
	mgr.Register(journal.NewFeature(db, logg))
	mgr.Register(metrics.NewFeature(collector, cfg.Metrics.Enabled))

	// RayID first so every later log line carries it.
	app.Use(rayid.New())
	app.Use(requestlog.New(logg))

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Skip: []string{"/swagger", "/metrics"}}))

	if err := mgr.LoadAll(app); err != nil {
		return nil, fmt.Errorf("failed to load features: %w", err)
	}
	return app, nil
}
