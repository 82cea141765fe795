package handlers

import (
	"log"
	"time"

	"speedrun-league-system/middleware"
	"speedrun-league-system/models"
	"speedrun-league-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupEventRoutes(app *fiber.App, eventService *services.EventService, pointsService *services.PointsService) {
	// 🔓 Public routes
	app.Get("/events/active", func(c *fiber.Ctx) error {
		events, err := eventService.GetActiveEvents(c.Context())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(events)
	})

	app.Get("/events/:id", func(c *fiber.Ctx) error {
		event, err := eventService.GetEvent(c.Context(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(event)
	})

	app.Get("/events/:id/participants", func(c *fiber.Ctx) error {
		participants, err := eventService.GetEventParticipants(c.Context(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(participants)
	})

	app.Get("/events/:id/statistics", func(c *fiber.Ctx) error {
		stats, err := eventService.GetEventStatistics(c.Context(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(stats)
	})

	// 🔐 Authenticated routes. Applied per route, not as a "/" group: public
	// and secured routes share path prefixes (GET vs POST on the same path),
	// so a prefix-scoped USE would gate the public surface too.
	userCtx := middleware.UserContextMiddleware()

	app.Post("/events/:id/register", userCtx, func(c *fiber.Ctx) error {
		type Req struct {
			Category string `json:"category"` // canonical category id
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		category, err := models.ParseCategory(req.Category)
		if err != nil {
			return respondError(c, services.NewValidationError(err.Error()))
		}

		eventID := c.Params("id")
		event, err := eventService.GetEvent(c.Context(), eventID)
		if err != nil {
			return respondError(c, err)
		}
		if event.AdminOnly && !middleware.IsAdmin(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "event is restricted to admins"})
		}

		userID := c.Locals("user_id").(string)
		username, _ := c.Locals("user_name").(string)
		participant, err := eventService.RegisterParticipant(c.Context(), eventID, userID, username, category)
		if err != nil {
			return respondError(c, err)
		}
		// Record the display name on the points aggregate so standings carry
		// it. Best effort: a points-side hiccup must not fail the registration.
		if username != "" {
			if err := pointsService.SetUsername(c.Context(), userID, username); err != nil {
				log.Printf("⚠️  Failed to record username for %s on points aggregate: %v", userID, err)
			}
		}
		return c.Status(fiber.StatusCreated).JSON(participant)
	})

	// 🔒 Admin-only routes
	admin := app.Group("/admin", userCtx, middleware.AdminOnlyMiddleware())

	admin.Post("/events", func(c *fiber.Ctx) error {
		type Req struct {
			Name            string   `json:"name"`
			Description     string   `json:"description"`
			Categories      []string `json:"allowed_categories"` // canonical ids
			StartTime       string   `json:"start_time"`         // RFC3339
			EndTime         string   `json:"end_time"`           // RFC3339
			MaxParticipants int      `json:"max_participants"`
			GlitchDetection bool     `json:"glitch_detection"`
			AdminOnly       bool     `json:"admin_only"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		var violations []string
		var categories []models.Category
		for _, id := range req.Categories {
			category, err := models.ParseCategory(id)
			if err != nil {
				violations = append(violations, err.Error())
				continue
			}
			categories = append(categories, category)
		}
		startTime, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			violations = append(violations, "invalid start_time (use RFC3339)")
		}
		endTime, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			violations = append(violations, "invalid end_time (use RFC3339)")
		}
		if len(violations) > 0 {
			return respondError(c, services.NewValidationError(violations...))
		}

		event, err := eventService.CreateEvent(c.Context(), services.EventDefinition{
			Name:              req.Name,
			Description:       req.Description,
			AllowedCategories: categories,
			StartTime:         startTime,
			EndTime:           endTime,
			MaxParticipants:   req.MaxParticipants,
			GlitchDetection:   req.GlitchDetection,
			AdminOnly:         req.AdminOnly,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(event)
	})
}
