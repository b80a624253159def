package cache

import (
	"context"
	"fmt"
	"time"
)

// Store — явно внедряемый кеш выборок, ключ — идентичность запроса.
// Get отличает отсутствие записи от закешированного пустого значения:
// второй результат false означает промах.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Ключи коллекций дашборда для конкретного пользователя
func TradesKey(userID string) string       { return fmt.Sprintf("dashboard:%s:trades", userID) }
func OffersKey(userID string) string       { return fmt.Sprintf("dashboard:%s:offers", userID) }
func AcceptancesKey(userID string) string  { return fmt.Sprintf("dashboard:%s:acceptances", userID) }
func ApplicationsKey(userID string) string { return fmt.Sprintf("dashboard:%s:applications", userID) }
func HouseholdsKey(userID string) string   { return fmt.Sprintf("dashboard:%s:households", userID) }

// UserKeys возвращает все ключи дашборда пользователя (для refresh-all)
func UserKeys(userID string) []string {
	return []string{
		TradesKey(userID),
		OffersKey(userID),
		AcceptancesKey(userID),
		ApplicationsKey(userID),
		HouseholdsKey(userID),
	}
}
