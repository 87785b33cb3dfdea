package handlers

import (
	"strconv"
	"strings"
	"time"

	"solarshop/internal/models"
	"solarshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	admin   fiber.Handler
}

// NewProductHandler creates a new ProductHandler. admin guards the write
// routes; reads are public.
func NewProductHandler(service *services.ProductService, admin fiber.Handler) *ProductHandler {
	if admin == nil {
		admin = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &ProductHandler{
		service: service,
		admin:   admin,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	// Fixed paths before the :id routes.
	productRoutes.Get("/stats", h.HandleGetProductStats)
	productRoutes.Post("/bulk", h.admin, h.HandleBulkCreateProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.admin, h.HandleCreateProduct)
	productRoutes.Put("/:id", h.admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.admin, h.HandleDeleteProduct)
}

// HandleGetProducts lists products. The body is the product array and the
// X-Total-Count header carries the match count ignoring pagination.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	list, err := h.service.GetAllProducts(c.UserContext(), parseProductFilter(c))
	if err != nil {
		return respondError(c, err)
	}
	c.Set("X-Total-Count", strconv.FormatInt(list.Total, 10))
	return c.JSON(list.Data)
}

// parseProductFilter reads the listing query. Values that do not parse are
// ignored.
func parseProductFilter(c *fiber.Ctx) models.ProductFilter {
	filter := models.ProductFilter{
		Category: strings.TrimSpace(c.Query("category")),
		SortBy:   c.Query("sortBy"),
	}
	if raw := c.Query("inStock"); raw != "" {
		if v, err := cast.ToBoolE(raw); err == nil {
			filter.InStock = &v
		}
	}
	if raw := c.Query("minWattage"); raw != "" {
		if v, err := cast.ToFloat64E(raw); err == nil {
			filter.MinWattage = &v
		}
	}
	if raw := c.Query("maxWattage"); raw != "" {
		if v, err := cast.ToFloat64E(raw); err == nil {
			filter.MaxWattage = &v
		}
	}
	if v, err := cast.ToIntE(c.Query("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := cast.ToIntE(c.Query("skip")); err == nil {
		filter.Skip = v
	}
	return filter
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var input models.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid JSON in request body", err)
	}

	product, err := h.service.CreateProduct(c.UserContext(), &input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": product,
	})
}

// HandleUpdateProduct applies a partial update to a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var input models.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid JSON in request body", err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), &input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"product": product,
	})
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	result, err := h.service.DeleteProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":      "Product deleted successfully",
		"deletedId":    result.DeletedID,
		"deletedCount": result.DeletedCount,
	})
}

// BulkCreateRequest is the body of POST /products/bulk.
type BulkCreateRequest struct {
	Products []models.ProductInput `json:"products"`
}

// HandleBulkCreateProducts creates up to models.MaxBulkProducts products, reporting
// failures per entry.
func (h *ProductHandler) HandleBulkCreateProducts(c *fiber.Ctx) error {
	var req BulkCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON in request body", err)
	}
	switch {
	case req.Products == nil:
		return badRequest(c, "Products array is required", nil)
	case len(req.Products) == 0:
		return badRequest(c, "Products array cannot be empty", nil)
	case len(req.Products) > models.MaxBulkProducts:
		return badRequest(c, "Maximum 100 products allowed per bulk operation", nil)
	}

	result := h.service.BulkCreateProducts(c.UserContext(), req.Products)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Bulk operation completed. " + strconv.Itoa(result.SuccessCount) +
			" products created, " + strconv.Itoa(result.ErrorCount) + " errors.",
		"results": result.Data,
		"errors":  result.Errors,
		"summary": fiber.Map{
			"totalProcessed": result.TotalProcessed,
			"successCount":   result.SuccessCount,
			"errorCount":     result.ErrorCount,
		},
	})
}

// HandleGetProductStats returns catalog statistics.
func (h *ProductHandler) HandleGetProductStats(c *fiber.Ctx) error {
	stats, err := h.service.GetProductStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"statistics":  stats,
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	})
}
