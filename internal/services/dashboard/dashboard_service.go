package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/wattshare/wattshare-api/internal/cache"
	"github.com/wattshare/wattshare-api/internal/config"
	"github.com/wattshare/wattshare-api/internal/models"
	"github.com/wattshare/wattshare-api/internal/services/application"
	"github.com/wattshare/wattshare-api/internal/services/household"
	"github.com/wattshare/wattshare-api/internal/services/trade"
	"github.com/wattshare/wattshare-api/internal/utils"
	"github.com/wattshare/wattshare-api/internal/views"
)

// Время жизни закешированных коллекций дашборда
const cacheTTL = 30 * time.Second

// DashboardService собирает страницу "хранилище": четыре коллекции
// через кеш, производные представления через views
type DashboardService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	store      cache.Store
	loaders    snapshotLoaders
}

// snapshotLoaders — источники коллекций при промахе кеша.
// В бою это запросы к базе, в тестах подменяются
type snapshotLoaders struct {
	households   func(ctx context.Context, userID uuid.UUID) ([]models.Household, error)
	trades       func(ctx context.Context, userID uuid.UUID) ([]models.Trade, error)
	offers       func(ctx context.Context, userID uuid.UUID) ([]models.Trade, error)
	acceptances  func(ctx context.Context, userID uuid.UUID) ([]models.TradeAcceptance, error)
	applications func(ctx context.Context, userID uuid.UUID) ([]models.TradeApplication, error)
}

func defaultLoaders() snapshotLoaders {
	return snapshotLoaders{
		households:   household.LoadUserHouseholds,
		trades:       trade.LoadUserTrades,
		offers:       trade.LoadMarketOffers,
		acceptances:  application.LoadUserAcceptances,
		applications: application.LoadIncomingApplications,
	}
}

// NewDashboardService создает новый экземпляр DashboardService.
// Кеш внедряется явно: в тестах это MemoryStore, в бою — Redis.
func NewDashboardService(cfg *config.Config, store cache.Store) *DashboardService {
	return &DashboardService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		store:      store,
		loaders:    defaultLoaders(),
	}
}

// acceptanceView — заявка пользователя с презентацией статуса
// и кратким описанием сделки для карточки
type acceptanceView struct {
	models.TradeAcceptance
	Presentation views.Presentation `json:"presentation"`
	TradeSummary views.TradeSummary `json:"trade_summary"`
}

// applicationView — входящая заявка с презентацией статуса
// со стороны владельца
type applicationView struct {
	models.TradeApplication
	Presentation  views.Presentation `json:"presentation"`
	TradeSummary  views.TradeSummary `json:"trade_summary"`
	ApplicantName string             `json:"applicant_name"`
}

// GetDashboard возвращает производное состояние дашборда.
// Недоступность отдельной коллекции не ошибка: она приходит пустой
// с loaded=false, остальные данные рисуются.
func (s *DashboardService) GetDashboard(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snapshot := s.loadSnapshot(ctx, userUUID)
	d := views.Build(snapshot)

	return c.JSON(fiber.Map{
		"my_listings":            d.MyListings,
		"my_requests":            d.MyRequests,
		"active_acceptances":     decorateAcceptances(d.ActiveAcceptances),
		"finalized_acceptances":  decorateAcceptances(d.FinalizedAcceptances),
		"active_applications":    decorateApplications(d.ActiveApplications),
		"finalized_applications": decorateApplications(d.FinalizedApplications),
		"stats":                  d.Stats,
		"loaded":                 d.Loaded,
	})
}

// RefreshDashboard сбрасывает кеш и перечитывает все коллекции
// одновременно. Если хотя бы одна не загрузилась, возвращается
// одна общая ошибка без деталей по коллекциям.
func (s *DashboardService) RefreshDashboard(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.Invalidate(ctx, cache.UserKeys(userID)...); err != nil {
		log.Printf("Ошибка сброса кеша дашборда: %v", err)
		// Кеш не критичен: продолжаем, данные перечитаются из базы
	}

	snapshot := s.loadSnapshot(ctx, userUUID)
	if !snapshot.Loaded.Trades || !snapshot.Loaded.Offers ||
		!snapshot.Loaded.Acceptances || !snapshot.Loaded.Applications {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Не удалось обновить данные"})
	}

	d := views.Build(snapshot)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Данные обновлены",
		"stats":   d.Stats,
	})
}

// loadSnapshot загружает четыре коллекции одновременно. Домохозяйства
// загружаются первыми: их список нужен для разбиения по владению.
func (s *DashboardService) loadSnapshot(ctx context.Context, userID uuid.UUID) views.Snapshot {
	var snapshot views.Snapshot

	households := s.loadHouseholds(ctx, userID)
	for _, h := range households {
		snapshot.HouseholdIDs = append(snapshot.HouseholdIDs, h.ID)
	}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		snapshot.Trades, snapshot.Loaded.Trades = s.loadTrades(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		snapshot.Offers, snapshot.Loaded.Offers = s.loadOffers(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		snapshot.Acceptances, snapshot.Loaded.Acceptances = s.loadAcceptances(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		snapshot.Applications, snapshot.Loaded.Applications = s.loadApplications(ctx, userID)
	}()

	wg.Wait()
	return snapshot
}

// getCached пытается достать коллекцию из кеша; false означает промах
func (s *DashboardService) getCached(ctx context.Context, key string, dest interface{}) bool {
	data, ok, err := s.store.Get(ctx, key)
	if err != nil {
		log.Printf("Ошибка чтения кеша %s: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("Ошибка разбора кеша %s: %v", key, err)
		return false
	}
	return true
}

// putCached сохраняет коллекцию в кеш; ошибки кеша не фатальны
func (s *DashboardService) putCached(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("Ошибка сериализации для кеша %s: %v", key, err)
		return
	}
	if err := s.store.Set(ctx, key, data, cacheTTL); err != nil {
		log.Printf("Ошибка записи кеша %s: %v", key, err)
	}
}

func (s *DashboardService) loadHouseholds(ctx context.Context, userID uuid.UUID) []models.Household {
	key := cache.HouseholdsKey(userID.String())

	var households []models.Household
	if s.getCached(ctx, key, &households) {
		return households
	}

	households, err := s.loaders.households(ctx, userID)
	if err != nil {
		log.Printf("Ошибка загрузки домохозяйств: %v", err)
		return nil
	}

	s.putCached(ctx, key, households)
	return households
}

func (s *DashboardService) loadTrades(ctx context.Context, userID uuid.UUID) ([]models.Trade, bool) {
	key := cache.TradesKey(userID.String())

	var trades []models.Trade
	if s.getCached(ctx, key, &trades) {
		return trades, true
	}

	trades, err := s.loaders.trades(ctx, userID)
	if err != nil {
		log.Printf("Ошибка загрузки сделок: %v", err)
		return nil, false
	}

	s.putCached(ctx, key, trades)
	return trades, true
}

func (s *DashboardService) loadOffers(ctx context.Context, userID uuid.UUID) ([]models.Trade, bool) {
	key := cache.OffersKey(userID.String())

	var offers []models.Trade
	if s.getCached(ctx, key, &offers) {
		return offers, true
	}

	offers, err := s.loaders.offers(ctx, userID)
	if err != nil {
		log.Printf("Ошибка загрузки предложений: %v", err)
		return nil, false
	}

	s.putCached(ctx, key, offers)
	return offers, true
}

func (s *DashboardService) loadAcceptances(ctx context.Context, userID uuid.UUID) ([]models.TradeAcceptance, bool) {
	key := cache.AcceptancesKey(userID.String())

	var acceptances []models.TradeAcceptance
	if s.getCached(ctx, key, &acceptances) {
		return acceptances, true
	}

	acceptances, err := s.loaders.acceptances(ctx, userID)
	if err != nil {
		log.Printf("Ошибка загрузки заявок пользователя: %v", err)
		return nil, false
	}

	s.putCached(ctx, key, acceptances)
	return acceptances, true
}

func (s *DashboardService) loadApplications(ctx context.Context, userID uuid.UUID) ([]models.TradeApplication, bool) {
	key := cache.ApplicationsKey(userID.String())

	var applications []models.TradeApplication
	if s.getCached(ctx, key, &applications) {
		return applications, true
	}

	applications, err := s.loaders.applications(ctx, userID)
	if err != nil {
		log.Printf("Ошибка загрузки входящих заявок: %v", err)
		return nil, false
	}

	s.putCached(ctx, key, applications)
	return applications, true
}

// decorateAcceptances добавляет заявкам пользователя презентацию статуса
// с его стороны и краткое описание сделки
func decorateAcceptances(acceptances []models.TradeAcceptance) []acceptanceView {
	result := make([]acceptanceView, 0, len(acceptances))
	for _, a := range acceptances {
		result = append(result, acceptanceView{
			TradeAcceptance: a,
			Presentation:    views.PresentationFor(a.Status, views.PerspectiveApplicant),
			TradeSummary:    views.SummarizeTrade(a.Trade),
		})
	}
	return result
}

// decorateApplications добавляет входящим заявкам презентацию статуса
// со стороны владельца и данные подателя
func decorateApplications(applications []models.TradeApplication) []applicationView {
	result := make([]applicationView, 0, len(applications))
	for _, a := range applications {
		result = append(result, applicationView{
			TradeApplication: a,
			Presentation:     views.PresentationFor(a.Status(), views.PerspectiveOwner),
			TradeSummary:     views.SummarizeTrade(a.Trade),
			ApplicantName:    views.ApplicantName(a.Applicant),
		})
	}
	return result
}
