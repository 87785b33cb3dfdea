package handlers

import (
	"errors"
	"time"

	"solarshop/internal/middleware"
	"solarshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/timeout"
)

// RouterConfig carries the services exposed over HTTP.
type RouterConfig struct {
	Products       *services.ProductService
	Orders         *services.OrderService
	Auth           *services.AuthService
	Status         *StatusHandler
	RequestTimeout time.Duration
	// AccessLog enables the request logger.
	AccessLog bool
}

// NewRouter builds the Fiber app: /health at the root and every API route
// under /api, each request bounded by RequestTimeout.
func NewRouter(cfg RouterConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "solarshop",
		ErrorHandler: jsonErrorHandler,
	})

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New()) // Request logger
	}

	if cfg.Status != nil {
		app.Get("/health", cfg.Status.HandleHealth)
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	api := app.Group("/api", timeout.NewWithContext(func(c *fiber.Ctx) error {
		return c.Next()
	}, requestTimeout))

	admin := middleware.AuthRequired(cfg.Auth)

	if cfg.Auth != nil {
		NewAuthHandler(cfg.Auth).RegisterRoutes(api)
	}
	if cfg.Status != nil {
		cfg.Status.RegisterRoutes(api)
	}
	NewProductHandler(cfg.Products, admin).RegisterRoutes(api)
	if cfg.Orders != nil {
		NewOrderHandler(cfg.Orders, admin).RegisterRoutes(api)
	}

	return app
}

// jsonErrorHandler renders errors that escape a handler, such as unknown
// routes or request timeouts, in the API's error shape.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}
