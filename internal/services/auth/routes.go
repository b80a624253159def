package auth

import (
	"github.com/gofiber/fiber/v3"
	"github.com/wattshare/wattshare-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App) {
	app.Post("/api/auth/signup", s.SignupHandler)
	app.Post("/api/auth/login", s.LoginHandler)
	app.Post("/api/auth/telegram", s.TelegramAuthHandler)

	// Защищенные маршруты
	protected := app.Group("/api")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Get("/profile", s.ProfileHandler)
}
