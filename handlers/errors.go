package handlers

import (
	"errors"

	"speedrun-league-system/services"

	"github.com/gofiber/fiber/v2"
)

// respondError maps the service error taxonomy onto HTTP statuses. Validation
// responses carry the full list of violated rules so clients can render every
// problem at once.
func respondError(c *fiber.Ctx, err error) error {
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "validation failed",
			"violations": validation.Violations,
		})
	}
	var notFound *services.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": notFound.Error(),
		})
	}
	var state *services.StateError
	if errors.As(err, &state) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": state.Reason,
		})
	}
	var persistence *services.PersistenceError
	if errors.As(err, &persistence) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "storage temporarily unavailable, retry later",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
		"cause": err.Error(),
	})
}
