package handlers

import (
	"strconv"

	"speedrun-league-system/middleware"
	"speedrun-league-system/models"
	"speedrun-league-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPointsRoutes(app *fiber.App, pointsService *services.PointsService) {
	// 🔓 Public: points leaderboard, all-time or per season (?season=2026-08)
	app.Get("/points/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		standings, err := pointsService.GetLeaderboard(c.Context(), services.LeaderboardFilter{
			Season: c.Query("season"),
			Limit:  limit,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"season":    c.Query("season"),
			"standings": standings,
		})
	})

	// 🔐 Authenticated routes. Per-route middleware keeps the public
	// leaderboard above reachable without gateway identity headers.
	userCtx := middleware.UserContextMiddleware()

	app.Get("/points/me", userCtx, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		points, err := pointsService.GetUserPoints(c.Context(), userID)
		if err != nil {
			return respondError(c, err)
		}
		tier := pointsService.CalculateRank(points.TotalPoints)
		return c.JSON(fiber.Map{
			"points":        points,
			"rank_tier":     tier,
			"active_season": pointsService.ActiveSeason(),
		})
	})

	app.Get("/points/me/position", userCtx, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		standing, err := pointsService.GetUserPosition(c.Context(), userID, services.LeaderboardFilter{
			Season: c.Query("season"),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(standing)
	})

	app.Post("/points/achievements/check", userCtx, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		unlocked, err := pointsService.CheckAchievements(c.Context(), userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"unlocked": unlocked})
	})

	// 🔒 Admin / sibling-service routes — action occurrences arrive here
	// through the gateway (forum, chat, quiz, gallery, marketplace services)
	admin := app.Group("/admin", userCtx, middleware.AdminOnlyMiddleware())

	admin.Post("/points/award", func(c *fiber.Ctx) error {
		type Req struct {
			UserID      string `json:"user_id"`
			Action      string `json:"action"`
			Description string `json:"description,omitempty"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.UserID == "" || req.Action == "" {
			return respondError(c, services.NewValidationError("user_id and action are required"))
		}

		awarded, err := pointsService.AwardPoints(c.Context(), req.UserID, models.ActionKind(req.Action), req.Description)
		if err != nil {
			return respondError(c, err)
		}
		// Rate-limited and unknown actions are soft rejections, not errors.
		return c.JSON(fiber.Map{"awarded": awarded})
	})

	admin.Post("/seasons/rollover", func(c *fiber.Ctx) error {
		rollover, err := pointsService.StartNewSeason(c.Context())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(rollover)
	})
}
