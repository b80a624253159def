package dashboard

import (
	"github.com/gofiber/fiber/v3"
	"github.com/wattshare/wattshare-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API дашборда
func (s *DashboardService) SetupRoutes(app *fiber.App) {
	// Группа для API дашборда
	api := app.Group("/api/dashboard")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Производное состояние страницы "хранилище"
	api.Get("/", s.GetDashboard)

	// Принудительное обновление всех коллекций
	api.Post("/refresh", s.RefreshDashboard)
}
