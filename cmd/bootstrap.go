package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"netbox-sync/core/config"
	"netbox-sync/core/database"
	"netbox-sync/core/logger"
	"netbox-sync/core/metrics"
	"netbox-sync/core/reconcile"
	"netbox-sync/core/storage"
	"netbox-sync/feature/journal"
	"netbox-sync/feature/registry"
	"netbox-sync/feature/report"
	"netbox-sync/feature/source"

	"go.uber.org/zap"
)

// app holds what every registry-facing command needs.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	storage storage.Client
	journal *journal.Store
	metrics *metrics.Collector
}

// bootstrap loads configuration, builds the logger and opens the optional backends.
// Storage and the journal database are optional: a failure is a warning.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(envDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logg = logg.With(zap.String("cluster", cfg.NetBox.Cluster))

	rt := &app{cfg: cfg, log: logg}

	if client, err := storage.NewClient(cfg.Storage); err != nil {
		logg.Warn("Storage unavailable", zap.Error(err))
	} else {
		rt.storage = client
	}

	if db, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("Optional database connection failed, runs are not journaled", zap.Error(err))
	} else {
		store := journal.NewStore(db)
		if err := store.Migrate(); err != nil {
			logg.Warn("Journal migration failed, runs are not journaled", zap.Error(err))
		} else {
			rt.journal = store
		}
	}

	if cfg.Metrics.Enabled {
		rt.metrics = metrics.New(false)
	}
	return rt, nil
}

// registry returns the live registry client, or an in-memory registry seeded from it
// when dryRun is set so that no remote write can happen.
func (rt *app) registry(ctx context.Context, dryRun bool) (registry.Registry, error) {
	client, err := registry.NewClient(rt.cfg.NetBox, rt.log)
	if err != nil {
		return nil, err
	}
	if !dryRun {
		return client, nil
	}
	mem := registry.NewMemory(rt.cfg.NetBox.Tag)
	if err := mem.SeedFrom(ctx, client, rt.cfg.NetBox.Cluster); err != nil {
		return nil, fmt.Errorf("failed to seed dry run registry: %w", err)
	}
	rt.log.Info("Dry run: writes go to an in-memory copy of the registry")
	return mem, nil
}

// inventory loads and normalizes the source document.
func (rt *app) inventory(ctx context.Context) (*source.Inventory, error) {
	doc, err := source.Load(ctx, rt.cfg.Source, rt.storage, rt.cfg.Storage.Bucket)
	if err != nil {
		return nil, err
	}
	return source.Build(doc, rt.cfg.NetBox.Cluster, rt.log)
}

// options returns the run options with the --dry-run flag applied.
func (rt *app) options(dryRun bool) reconcile.Options {
	opts := rt.cfg.Sync.Options()
	opts.DryRun = opts.DryRun || dryRun
	return opts
}

// session is one journaled, measured run.
type session struct {
	rt       *app
	summary  *reconcile.Summary
	recorder *journal.Recorder
}

func (rt *app) begin(ctx context.Context, kind string, dryRun bool) *session {
	summary := reconcile.NewSummary(kind, rt.cfg.NetBox.Cluster, dryRun)
	rt.log.Info("Run started", zap.String("kind", kind), zap.String("run_id", summary.RunID), zap.Bool("dry_run", dryRun))
	return &session{rt: rt, summary: summary, recorder: rt.journal.Open(ctx, summary, rt.log)}
}

// observer fans decisions out to the metrics collector and the journal.
func (s *session) observer() reconcile.Observer {
	obs := reconcile.Observers{s.recorder}
	if s.rt.metrics != nil {
		obs = append(obs, s.rt.metrics)
	}
	return obs
}

// end prints the report, archives it, pushes metrics and closes the journal entry.
// It returns runErr unchanged.
func (s *session) end(ctx context.Context, runErr error) error {
	if s.summary.FinishedAt.IsZero() {
		s.summary.Finish(runErr)
	}
	rt := s.rt
	report.Render(os.Stdout, s.summary)

	// The run context may already be cancelled; reporting gets its own deadline.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if rt.storage != nil {
		if key, err := report.Archive(ctx, rt.storage, rt.cfg.Storage.Bucket, s.summary); err != nil {
			rt.log.Warn("Failed to archive run report", zap.Error(err))
		} else {
			rt.log.Info("Run report archived", zap.String("key", key))
		}
	}

	if rt.metrics != nil {
		rt.metrics.RunFinished(s.summary.Kind, s.summary.FinishedAt)
		if url := rt.cfg.Metrics.Pushgateway; url != "" {
			if err := rt.metrics.Push(ctx, url, rt.cfg.Metrics.Job); err != nil {
				rt.log.Warn("Failed to push metrics", zap.Error(err))
			}
		}
	}

	s.recorder.Close(ctx, s.summary)

	totals := s.summary.Totals()
	fields := []zap.Field{
		zap.String("kind", s.summary.Kind),
		zap.String("run_id", s.summary.RunID),
		zap.Int("created", totals.Created),
		zap.Int("updated", totals.Updated),
		zap.Int("unchanged", totals.Unchanged),
		zap.Int("skipped", totals.Skipped),
		zap.Int("deleted", totals.Deleted),
	}
	if runErr != nil {
		rt.log.Error("Run failed", append(fields, zap.Error(runErr))...)
	} else {
		rt.log.Info("Run finished", fields...)
	}
	_ = rt.log.Sync()
	return runErr
}
