package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/wattshare/wattshare-api/internal/cache"
	"github.com/wattshare/wattshare-api/internal/config"
	"github.com/wattshare/wattshare-api/internal/models"
	"github.com/wattshare/wattshare-api/internal/views"
)

var errDBDown = errors.New("база недоступна")

// newTestService собирает сервис на кеше в памяти с подмененными
// источниками коллекций
func newTestService(store cache.Store, loaders snapshotLoaders) *DashboardService {
	s := NewDashboardService(&config.Config{JWTSecret: "test-secret"}, store)
	s.loaders = loaders
	return s
}

// failingLoaders возвращают ошибку для каждой коллекции
func failingLoaders() snapshotLoaders {
	return snapshotLoaders{
		households: func(ctx context.Context, userID uuid.UUID) ([]models.Household, error) {
			return nil, errDBDown
		},
		trades: func(ctx context.Context, userID uuid.UUID) ([]models.Trade, error) {
			return nil, errDBDown
		},
		offers: func(ctx context.Context, userID uuid.UUID) ([]models.Trade, error) {
			return nil, errDBDown
		},
		acceptances: func(ctx context.Context, userID uuid.UUID) ([]models.TradeAcceptance, error) {
			return nil, errDBDown
		},
		applications: func(ctx context.Context, userID uuid.UUID) ([]models.TradeApplication, error) {
			return nil, errDBDown
		},
	}
}

// workingLoaders отдают по одной записи в каждой коллекции
func workingLoaders(householdID uuid.UUID) snapshotLoaders {
	return snapshotLoaders{
		households: func(ctx context.Context, userID uuid.UUID) ([]models.Household, error) {
			return []models.Household{{ID: householdID, Name: "Дом на Солнечной"}}, nil
		},
		trades: func(ctx context.Context, userID uuid.UUID) ([]models.Trade, error) {
			return []models.Trade{{
				ID:                uuid.New(),
				Type:              models.TradeTypeSell,
				SellerHouseholdID: &householdID,
				Status:            models.TradeStatusPending,
				CreatedAt:         time.Now(),
			}}, nil
		},
		offers: func(ctx context.Context, userID uuid.UUID) ([]models.Trade, error) {
			return []models.Trade{}, nil
		},
		acceptances: func(ctx context.Context, userID uuid.UUID) ([]models.TradeAcceptance, error) {
			return []models.TradeAcceptance{}, nil
		},
		applications: func(ctx context.Context, userID uuid.UUID) ([]models.TradeApplication, error) {
			return []models.TradeApplication{}, nil
		},
	}
}

func seedCache(t *testing.T, store cache.Store, key string, value interface{}) {
	t.Helper()
	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("ошибка сериализации фикстуры: %v", err)
	}
	if err := store.Set(context.Background(), key, data, time.Minute); err != nil {
		t.Fatalf("ошибка записи в кеш: %v", err)
	}
}

// Все пять коллекций в кеше: снимок собирается без единого похода
// в базу, флаги loaded выставлены
func TestLoadSnapshot_AllFromCache(t *testing.T) {
	store := cache.NewMemoryStore()
	userID := uuid.New()
	uid := userID.String()
	householdID := uuid.New()

	seedCache(t, store, cache.HouseholdsKey(uid), []models.Household{{ID: householdID}})
	seedCache(t, store, cache.TradesKey(uid), []models.Trade{{
		ID:                uuid.New(),
		Type:              models.TradeTypeSell,
		SellerHouseholdID: &householdID,
		Status:            models.TradeStatusPending,
	}})
	seedCache(t, store, cache.OffersKey(uid), []models.Trade{{ID: uuid.New()}, {ID: uuid.New()}})
	seedCache(t, store, cache.AcceptancesKey(uid), []models.TradeAcceptance{})
	seedCache(t, store, cache.ApplicationsKey(uid), []models.TradeApplication{})

	// Источники падают: данные обязаны прийти из кеша
	s := newTestService(store, failingLoaders())
	snapshot := s.loadSnapshot(context.Background(), userID)

	if !snapshot.Loaded.Trades || !snapshot.Loaded.Offers ||
		!snapshot.Loaded.Acceptances || !snapshot.Loaded.Applications {
		t.Fatalf("ожидались все флаги loaded=true, получено %+v", snapshot.Loaded)
	}
	if len(snapshot.Trades) != 1 {
		t.Errorf("ожидалась 1 сделка из кеша, получено %d", len(snapshot.Trades))
	}
	if len(snapshot.Offers) != 2 {
		t.Errorf("ожидалось 2 предложения из кеша, получено %d", len(snapshot.Offers))
	}
	if len(snapshot.HouseholdIDs) != 1 || snapshot.HouseholdIDs[0] != householdID {
		t.Errorf("домохозяйства из кеша не попали в снимок: %v", snapshot.HouseholdIDs)
	}
}

// Недоступная коллекция — это не ошибка и не "пусто": она приходит
// с loaded=false, остальные данные строятся как обычно
func TestLoadSnapshot_FailedCollectionIsNotEmpty(t *testing.T) {
	store := cache.NewMemoryStore()
	userID := uuid.New()
	householdID := uuid.New()

	loaders := workingLoaders(householdID)
	loaders.trades = func(ctx context.Context, userID uuid.UUID) ([]models.Trade, error) {
		return nil, errDBDown
	}

	s := newTestService(store, loaders)
	snapshot := s.loadSnapshot(context.Background(), userID)

	if snapshot.Loaded.Trades {
		t.Error("флаг loaded для упавшей коллекции должен быть false")
	}
	if !snapshot.Loaded.Offers || !snapshot.Loaded.Acceptances || !snapshot.Loaded.Applications {
		t.Errorf("остальные коллекции должны загрузиться: %+v", snapshot.Loaded)
	}

	// Производные наборы считаются по тому, что есть, без паники
	d := views.Build(snapshot)
	if d.MyListings == nil || d.MyRequests == nil {
		t.Error("производные наборы должны быть пустыми, а не nil")
	}
	if len(d.MyListings) != 0 {
		t.Errorf("из незагруженной коллекции не должно быть сделок, получено %d", len(d.MyListings))
	}
	if !d.Loaded.Offers {
		t.Error("флаги loaded должны дойти до результата без изменений")
	}
}

// Кешированная пустая коллекция — это попадание, а не промах:
// источник не вызывается, loaded=true
func TestLoadSnapshot_CachedEmptyIsLoaded(t *testing.T) {
	store := cache.NewMemoryStore()
	userID := uuid.New()
	uid := userID.String()

	seedCache(t, store, cache.HouseholdsKey(uid), []models.Household{})
	seedCache(t, store, cache.TradesKey(uid), []models.Trade{})
	seedCache(t, store, cache.OffersKey(uid), []models.Trade{})
	seedCache(t, store, cache.AcceptancesKey(uid), []models.TradeAcceptance{})
	seedCache(t, store, cache.ApplicationsKey(uid), []models.TradeApplication{})

	s := newTestService(store, failingLoaders())
	snapshot := s.loadSnapshot(context.Background(), userID)

	if !snapshot.Loaded.Trades || !snapshot.Loaded.Offers ||
		!snapshot.Loaded.Acceptances || !snapshot.Loaded.Applications {
		t.Fatalf("пустой кеш-хит должен давать loaded=true, получено %+v", snapshot.Loaded)
	}
	if len(snapshot.Trades) != 0 {
		t.Errorf("ожидалась пустая коллекция, получено %d сделок", len(snapshot.Trades))
	}
}

func newRefreshApp(s *DashboardService, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Post("/api/dashboard/refresh", func(c fiber.Ctx) error {
		c.Locals("userID", userID.String())
		return s.RefreshDashboard(c)
	})
	return app
}

// Обновление при недоступной коллекции — одна общая ошибка 502,
// без частичного результата
func TestRefreshDashboard_FailureReturns502(t *testing.T) {
	userID := uuid.New()
	loaders := workingLoaders(uuid.New())
	loaders.acceptances = func(ctx context.Context, userID uuid.UUID) ([]models.TradeAcceptance, error) {
		return nil, errDBDown
	}

	s := newTestService(cache.NewMemoryStore(), loaders)
	app := newRefreshApp(s, userID)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/dashboard/refresh", nil))
	if err != nil {
		t.Fatalf("ошибка выполнения запроса: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadGateway {
		t.Errorf("статус = %d, ожидался 502", resp.StatusCode)
	}
}

// Успешное обновление сбрасывает кеш и перечитывает все коллекции
func TestRefreshDashboard_Success(t *testing.T) {
	store := cache.NewMemoryStore()
	userID := uuid.New()
	uid := userID.String()

	// Протухшие данные в кеше: после refresh их не должно остаться
	seedCache(t, store, cache.TradesKey(uid), []models.Trade{
		{ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()},
	})

	s := newTestService(store, workingLoaders(uuid.New()))
	app := newRefreshApp(s, userID)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/dashboard/refresh", nil))
	if err != nil {
		t.Fatalf("ошибка выполнения запроса: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("статус = %d, ожидался 200", resp.StatusCode)
	}

	// Кеш перечитан из источников: одна сделка вместо трех протухших
	var trades []models.Trade
	data, ok, err := store.Get(context.Background(), cache.TradesKey(uid))
	if err != nil || !ok {
		t.Fatalf("после обновления кеш должен быть заполнен: ok=%v err=%v", ok, err)
	}
	if err := json.Unmarshal(data, &trades); err != nil {
		t.Fatalf("ошибка разбора кеша: %v", err)
	}
	if len(trades) != 1 {
		t.Errorf("в кеше %d сделок, ожидалась 1 свежая", len(trades))
	}
}
