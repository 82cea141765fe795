package handlers

import (
	"speedrun-league-system/middleware"
	"speedrun-league-system/models"
	"speedrun-league-system/services"
	"speedrun-league-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupSubmissionRoutes(app *fiber.App, submissionService *services.SubmissionService) {
	// 🔓 Public: the full ledger for an event
	app.Get("/events/:id/submissions", func(c *fiber.Ctx) error {
		submissions, err := submissionService.ListSubmissions(c.Context(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(submissions)
	})

	// 🔐 Authenticated routes. Per-route middleware: the GET on this path is
	// public, so the user context cannot be mounted as a prefix USE.
	userCtx := middleware.UserContextMiddleware()

	app.Post("/events/:id/submissions", userCtx, func(c *fiber.Ctx) error {
		type Req struct {
			Category       string `json:"category"` // canonical category id
			Time           string `json:"time"`     // MM:SS.cc
			EvidenceURL    string `json:"evidence_url,omitempty"`
			GlitchDeclared *bool  `json:"glitch_declared,omitempty"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		var violations []string
		category, err := models.ParseCategory(req.Category)
		if err != nil {
			violations = append(violations, err.Error())
		}
		timeMs, err := utils.ParseRunTime(req.Time)
		if err != nil {
			violations = append(violations, err.Error())
		}
		if len(violations) > 0 {
			return respondError(c, services.NewValidationError(violations...))
		}

		userID := c.Locals("user_id").(string)
		submission, err := submissionService.SubmitRun(c.Context(), c.Params("id"), userID, category, timeMs, req.EvidenceURL, req.GlitchDeclared)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"submission":     submission,
			"time_formatted": utils.FormatRunTime(submission.TimeMs),
		})
	})

	// 🔒 Admin-only: verification workflow
	admin := app.Group("/admin", userCtx, middleware.AdminOnlyMiddleware())

	admin.Post("/submissions/:id/verify", func(c *fiber.Ctx) error {
		submission, err := submissionService.Verify(c.Context(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(submission)
	})

	admin.Post("/submissions/:id/disqualify", func(c *fiber.Ctx) error {
		type Req struct {
			Reason string `json:"reason"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		submission, err := submissionService.Disqualify(c.Context(), c.Params("id"), req.Reason)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(submission)
	})
}
