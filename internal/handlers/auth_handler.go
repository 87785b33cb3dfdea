package handlers

import (
	"errors"
	"log"

	"solarshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/login", h.HandleLogin)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin checks the admin credentials and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	if !h.authService.Enabled() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Authentication is not enabled",
		})
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return badRequest(c, "Invalid request body", err)
	}

	// Validate the login request
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": validationMessages(err),
		})
	}

	token, expiresAt, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		log.Printf("Error during login for user %s: %v", req.Username, err)
		message := "Authentication failed"
		if errors.Is(err, services.ErrInvalidCredentials) {
			message = "Invalid username or password"
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": message,
		})
	}

	return c.JSON(fiber.Map{
		"message":   "Login successful",
		"token":     token,
		"expiresAt": expiresAt.UTC(),
	})
}
