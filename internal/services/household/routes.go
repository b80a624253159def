package household

import (
	"github.com/gofiber/fiber/v3"
	"github.com/wattshare/wattshare-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API домохозяйств
func (s *HouseholdService) SetupRoutes(app *fiber.App) {
	// Группа для API домохозяйств
	api := app.Group("/api/households")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания домохозяйства
	api.Post("/", s.CreateHousehold)

	// Маршрут для получения списка своих домохозяйств
	api.Get("/my", s.GetMyHouseholds)

	// Маршрут для получения одного домохозяйства по ID
	api.Get("/:id", s.GetHousehold)

	// Маршрут для обновления домохозяйства
	api.Put("/:id", s.UpdateHousehold)

	// Маршрут для удаления домохозяйства
	api.Delete("/:id", s.DeleteHousehold)
}
