package requestlog

import (
	"time"

	"netbox-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// New returns a middleware logging every request with its RayID.
// It must be registered after rayid.New.
func New(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := logger.WithRayID(log, c)
		// Ctx strings alias the pooled request buffer.
		method := utils.CopyString(c.Method())
		path := utils.CopyString(c.Path())
		start := time.Now()
		err := c.Next()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.String("ip", c.IP()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			l.Error("Request error", append(fields, zap.Error(err))...)
			return err
		}
		l.Info("Request handled", fields...)
		return nil
	}
}
