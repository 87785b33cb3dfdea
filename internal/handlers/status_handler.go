package handlers

import (
	"context"
	"time"

	"solarshop/internal/models"
	"solarshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusHandler serves liveness and store diagnostics.
type StatusHandler struct {
	products *services.ProductService
	store    Pinger
	database string
	events   bool
}

// NewStatusHandler creates a new StatusHandler. store may be nil for stores
// without a connection to check.
func NewStatusHandler(products *services.ProductService, store Pinger, database string, eventsEnabled bool) *StatusHandler {
	return &StatusHandler{
		products: products,
		store:    store,
		database: database,
		events:   eventsEnabled,
	}
}

// RegisterRoutes registers GET /status under router.
func (h *StatusHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/status", h.HandleStatus)
}

// HandleHealth is a liveness probe.
func (h *StatusHandler) HandleHealth(c *fiber.Ctx) error {
	events := "disabled"
	if h.events {
		events = "connected"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"events": events,
	})
}

// HandleStatus checks the product store and reports its size with a sample.
func (h *StatusHandler) HandleStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()
	fail := func(err error) error {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":    "error",
			"message":   "Database connection failed",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}

	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			return fail(err)
		}
	}
	count, err := h.products.CountProducts(ctx)
	if err != nil {
		return fail(err)
	}

	var sample fiber.Map
	page, err := h.products.GetAllProducts(ctx, models.ProductFilter{Limit: 1})
	if err != nil {
		return fail(err)
	}
	if len(page.Data) > 0 {
		p := page.Data[0]
		sample = fiber.Map{"name": p.Name, "price": p.Price, "category": p.Category}
	}

	return c.JSON(fiber.Map{
		"status":        "success",
		"message":       "Database connection successful",
		"database":      h.database,
		"productCount":  count,
		"sampleProduct": sample,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
