package utils

import (
	"testing"

	"github.com/google/uuid"
)

func TestJWTService_RoundTrip(t *testing.T) {
	service := NewJWTService("test-secret")
	userID := uuid.New().String()

	token, err := service.GenerateToken(userID)
	if err != nil {
		t.Fatalf("ошибка генерации токена: %v", err)
	}

	extracted, err := service.ExtractUserID(token)
	if err != nil {
		t.Fatalf("ошибка извлечения user_id: %v", err)
	}
	if extracted != userID {
		t.Errorf("user_id = %q, ожидали %q", extracted, userID)
	}
}

func TestJWTService_WrongSecret(t *testing.T) {
	service := NewJWTService("secret-a")
	other := NewJWTService("secret-b")

	token, err := service.GenerateToken(uuid.New().String())
	if err != nil {
		t.Fatalf("ошибка генерации токена: %v", err)
	}

	if _, err := other.ExtractUserID(token); err == nil {
		t.Error("токен с чужим секретом должен отклоняться")
	}
}

func TestJWTService_Garbage(t *testing.T) {
	service := NewJWTService("test-secret")
	if _, err := service.ExtractUserID("не-токен"); err == nil {
		t.Error("мусорная строка должна отклоняться")
	}
}
