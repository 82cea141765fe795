package handlers

import (
	"speedrun-league-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboardService *services.LeaderboardService) {
	// 🔓 Public: ranked standings for an event, optionally filtered by
	// canonical category id. Default view keeps one best run per participant;
	// ?full=true returns every non-disqualified attempt.
	app.Get("/events/:id/leaderboard", func(c *fiber.Ctx) error {
		eventID := c.Params("id")
		categoryID := c.Query("category")

		var err error
		var ranked any
		if c.Query("full") == "true" {
			ranked, err = leaderboardService.Rankings(c.Context(), eventID, categoryID)
		} else {
			ranked, err = leaderboardService.BestPerParticipant(c.Context(), eventID, categoryID)
		}
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(ranked)
	})
}
