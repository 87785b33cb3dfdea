package handlers

import (
	"errors"
	"fmt"
	"log"

	"solarshop/internal/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondError writes err as {"error", "details"} with the status of its kind.
func respondError(c *fiber.Ctx, err error) error {
	appErr := apperrors.As(err)
	status := appErr.HTTPStatus()

	body := fiber.Map{"error": appErr.Message}
	switch {
	case len(appErr.Details) > 0:
		body["details"] = appErr.Details
	case status >= fiber.StatusInternalServerError && appErr.Err != nil:
		body["details"] = appErr.Err.Error()
	}

	if status >= fiber.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(body)
}

// badRequest reports a body that could not be read.
func badRequest(c *fiber.Ctx, message string, err error) error {
	body := fiber.Map{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// validationMessages turns validator errors into one message per field.
func validationMessages(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
	}
	return messages
}
