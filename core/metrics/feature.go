package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Feature exposes the collector at /metrics.
// It implements the loader.Feature interface.
type Feature struct {
	collector *Collector
	enabled   bool
}

// NewFeature creates the metrics endpoint feature.
func NewFeature(collector *Collector, enabled bool) *Feature {
	return &Feature{collector: collector, enabled: enabled}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "metrics"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled && f.collector != nil
}

// Load registers the /metrics route.
func (f *Feature) Load(app fiber.Router) error {
	app.Get("/metrics", adaptor.HTTPHandler(f.collector.Handler()))
	return nil
}
