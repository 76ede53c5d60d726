// Package loader provides the feature loading system of the serve command.
//
// Each HTTP module implements Feature:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager registers features and loads the enabled ones in registration order,
// so modules like the run journal or the metrics endpoint stay testable in isolation.
package loader
