package handlers

import (
	"log"

	"solarshop/internal/models"
	"solarshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	admin    fiber.Handler
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler. Placing an order is public;
// admin guards reading and updating orders.
func NewOrderHandler(service *services.OrderService, admin fiber.Handler) *OrderHandler {
	if admin == nil {
		admin = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &OrderHandler{
		service:  service,
		admin:    admin,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.admin, h.HandleGetOrders)
	orderRoutes.Get("/:id", h.admin, h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", h.admin, h.HandleUpdateOrderStatus)
}

// HandleGetOrders retrieves all orders, newest first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleCreateOrder places an order enquiry.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var orderRequest models.OrderRequest
	if err := c.BodyParser(&orderRequest); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return badRequest(c, "Invalid request body", err)
	}

	if err := h.validate.Struct(orderRequest); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": validationMessages(err),
		})
	}

	createdOrder, err := h.service.CreateOrder(c.UserContext(), orderRequest)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order received",
		"order":   createdOrder,
	})
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var updateData struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return badRequest(c, "Invalid request body for status update", err)
	}
	if err := h.validate.Struct(updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": validationMessages(err),
		})
	}

	order, err := h.service.UpdateOrderStatus(c.Params("id"), updateData.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order status updated to " + order.Status,
		"order":   order,
	})
}
