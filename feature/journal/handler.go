package journal

import (
	"errors"

	"netbox-sync/core/logger"
	"netbox-sync/core/utils"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// Handler serves the journal read API.
type Handler struct {
	store  *Store
	logger *zap.Logger
}

// NewHandler creates a new journal handler.
func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes registers the journal routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/runs")
	group.Get("/", h.HandleList)
	group.Get("/:id", h.HandleGet)
	group.Get("/:id/actions", h.HandleActions)
}

// HandleList lists recent runs.
// @Summary List runs
// @Description Returns the most recent runs first, optionally filtered by kind.
// @Tags Journal
// @Accept json
// @Produce json
// @Param kind query string false "Run kind (sync, cleanup, status, hypervisor)"
// @Param limit query int false "Maximum number of runs (default and cap 500)"
// @Success 200 {array} journal.Run
// @Failure 500 {object} map[string]string
// @Router /runs [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	runs, err := h.store.List(c.UserContext(), c.Query("kind"), utils.ToInt(c.Query("limit")))
	if err != nil {
		l.Error("Failed to list runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(runs)
}

// HandleGet returns one run.
// @Summary Get run
// @Description Returns one run with its totals and outcome.
// @Tags Journal
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} journal.Run
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /runs/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	run, err := h.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(run)
}

// HandleActions lists the actions of a run.
// @Summary List run actions
// @Description Returns every create, update and delete decision of a run in order.
// @Tags Journal
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} journal.Action
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /runs/{id}/actions [get]
func (h *Handler) HandleActions(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.store.Get(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	actions, err := h.store.Actions(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(actions)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrRunNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.logger, c).Error("Journal query failed", zap.String("path", fiberutils.CopyString(c.Path())), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
