package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/wattshare/wattshare-api/internal/utils"
)

func newProtectedApp(jwtService *utils.JWTService) *fiber.App {
	app := fiber.New()
	api := app.Group("/api", AuthMiddleware(jwtService))
	api.Get("/whoami", func(c fiber.Ctx) error {
		return c.SendString(c.Locals("userID").(string))
	})
	return app
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := utils.NewJWTService("test-secret")
	userID := uuid.New().String()

	token, err := jwtService.GenerateToken(userID)
	if err != nil {
		t.Fatalf("ошибка создания токена: %v", err)
	}

	app := newProtectedApp(jwtService)
	req := httptest.NewRequest("GET", "/api/whoami", nil)
	req.Header.Set("Authorization", bearerScheme+" "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("ошибка выполнения запроса: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("статус = %d, ожидался 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != userID {
		t.Errorf("в Locals дошел userID %q, ожидался %q", body, userID)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	jwtService := utils.NewJWTService("test-secret")
	app := newProtectedApp(jwtService)

	// Токен валидный, но user_id в нем не UUID
	badSubject, err := jwtService.GenerateToken("not-a-uuid")
	if err != nil {
		t.Fatalf("ошибка создания токена: %v", err)
	}

	// Токен подписан другим секретом
	foreign, err := utils.NewJWTService("another-secret").GenerateToken(uuid.New().String())
	if err != nil {
		t.Fatalf("ошибка создания токена: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"без заголовка", ""},
		{"не Bearer схема", "Token abc123"},
		{"схема без токена", "Bearer "},
		{"мусор вместо токена", "Bearer not.a.jwt"},
		{"чужой секрет", "Bearer " + foreign},
		{"user_id не UUID", "Bearer " + badSubject},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("ошибка выполнения запроса: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != fiber.StatusUnauthorized {
				t.Errorf("статус = %d, ожидался 401", resp.StatusCode)
			}
		})
	}
}
