package journal

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature wraps the journal API.
// It implements the loader.Feature interface.
type Feature struct {
	store   *Store
	handler *Handler
	logger  *zap.Logger
}

// NewFeature creates the journal feature. A nil db disables it.
func NewFeature(db *gorm.DB, logger *zap.Logger) *Feature {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Feature{logger: logger}
	if db != nil {
		f.store = NewStore(db)
		f.handler = NewHandler(f.store, logger)
	}
	return f
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "journal"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.store != nil
}

// Load migrates the journal tables, verifies them and registers the routes.
func (f *Feature) Load(app fiber.Router) error {
	if err := f.store.Migrate(); err != nil {
		return err
	}
	if err := f.store.Verify(); err != nil {
		return err
	}
	f.handler.RegisterRoutes(app)
	return nil
}
