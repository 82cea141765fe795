package handlers

import (
	"speedrun-league-system/models"

	"github.com/gofiber/fiber/v2"
)

func SetupCategoryRoutes(app *fiber.App) {
	// 🔓 Public: the full category space with presentation derivations
	app.Get("/categories", func(c *fiber.Ctx) error {
		var response []fiber.Map
		for _, category := range models.AllCategories() {
			name, _ := category.DisplayName()
			icons, _ := category.Icons()
			response = append(response, fiber.Map{
				"id":           category.CanonicalID(),
				"region":       category.Region,
				"platform":     category.Platform,
				"fairness":     category.Fairness,
				"display_name": name,
				"icons":        icons,
			})
		}
		return c.JSON(response)
	})
}
