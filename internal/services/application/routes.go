package application

import (
	"github.com/gofiber/fiber/v3"
	"github.com/wattshare/wattshare-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API заявок
func (s *ApplicationService) SetupRoutes(app *fiber.App) {
	authMiddleware := middleware.AuthMiddleware(s.jwtService)

	// Подача заявки живет под сделкой
	trades := app.Group("/api/trades")
	trades.Use(authMiddleware)
	trades.Post("/:id/apply", s.ApplyToTrade)

	// Группа для API заявок
	api := app.Group("/api/applications")
	api.Use(authMiddleware)

	// Списки: свои заявки и заявки на свои сделки
	api.Get("/my", s.GetMyAcceptances)
	api.Get("/incoming", s.GetIncomingApplications)

	// Переходы статусов
	api.Put("/:id/withdraw", s.WithdrawApplication)
	api.Put("/:id/approve", s.ApproveApplication)
	api.Put("/:id/decline", s.DeclineApplication)
	api.Put("/:id/reject", s.RejectAward)
	api.Put("/:id/share-contact", s.ShareContact)
}
