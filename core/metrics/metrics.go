package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"netbox-sync/core/reconcile"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "netbox_sync"

// Collector holds the run metrics on its own registry.
// It implements reconcile.Observer.
type Collector struct {
	registry  *prometheus.Registry
	decisions *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	lastRun   *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
}

// New creates a collector with a fresh registry.
// withRuntime adds the Go and process collectors, which serve wants and tests do not.
func New(withRuntime bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Reconciliation decisions by stage and operation.",
			},
			[]string{"stage", "op"},
		),
		skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_total",
				Help:      "Entities skipped for a missing required association.",
			},
			[]string{"stage"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the last finished run by kind.",
			},
			[]string{"kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Stage duration in seconds.",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),
	}
	c.registry.MustRegister(c.decisions, c.skipped, c.lastRun, c.duration)
	if withRuntime {
		c.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return c
}

// Observe counts one decision.
func (c *Collector) Observe(stage, _, _ string, d reconcile.Decision) {
	c.decisions.WithLabelValues(stage, string(d.Op)).Inc()
	if d.Op == reconcile.OpSkip {
		c.skipped.WithLabelValues(stage).Inc()
	}
}

// StageDone records the stage duration.
func (c *Collector) StageDone(s reconcile.StageSummary) {
	c.duration.WithLabelValues(s.Stage).Observe(s.Duration.Seconds())
}

// RunFinished stamps the last run time for kind.
func (c *Collector) RunFinished(kind string, at time.Time) {
	c.lastRun.WithLabelValues(kind).Set(float64(at.Unix()))
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Push sends the collected metrics to a pushgateway, replacing the job's group.
func (c *Collector) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(c.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
