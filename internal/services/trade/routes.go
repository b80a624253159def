package trade

import (
	"github.com/gofiber/fiber/v3"
	"github.com/wattshare/wattshare-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API сделок
func (s *TradeService) SetupRoutes(app *fiber.App) {
	// Группа для API сделок
	api := app.Group("/api/trades")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания сделки
	api.Post("/", s.CreateTrade)

	// Маршрут для получения своих сделок
	api.Get("/my", s.GetMyTrades)

	// Маршрут для обновления сделки
	api.Put("/:id", s.UpdateTrade)

	// Маршрут для отмены сделки
	api.Put("/:id/cancel", s.CancelTrade)

	// Рыночные предложения: открытые сделки других домохозяйств
	offers := app.Group("/api/offers")
	offers.Use(middleware.AuthMiddleware(s.jwtService))
	offers.Get("/", s.GetOffers)
}
