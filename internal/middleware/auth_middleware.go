package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/wattshare/wattshare-api/internal/utils"
)

// Схема авторизации в заголовке Authorization
const bearerScheme = "Bearer"

// AuthMiddleware создаёт middleware для проверки JWT.
// ID пользователя кладется в Locals("userID") строкой — формат UUID
// уже проверен, обработчики парсят ее без повторной валидации.
func AuthMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Отсутствует заголовок авторизации",
			})
		}

		// Проверяем Bearer токен
		scheme, tokenString, found := strings.Cut(authHeader, " ")
		if !found || scheme != bearerScheme || tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Неверный формат заголовка авторизации",
			})
		}

		userID, err := jwtService.ExtractUserID(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Недействительный или просроченный токен",
			})
		}

		// Токен обязан нести валидный UUID пользователя
		if _, err := uuid.Parse(userID); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Неверный ID пользователя",
			})
		}

		c.Locals("userID", userID)

		return c.Next()
	}
}
