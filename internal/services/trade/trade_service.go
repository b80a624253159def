package trade

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wattshare/wattshare-api/internal/config"
	"github.com/wattshare/wattshare-api/internal/db"
	"github.com/wattshare/wattshare-api/internal/models"
	"github.com/wattshare/wattshare-api/internal/utils"
)

// TradeService представляет сервис для работы со сделками по энергии
type TradeService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewTradeService создает новый экземпляр TradeService
func NewTradeService(cfg *config.Config) *TradeService {
	return &TradeService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// CreateTrade создает новую сделку: объявление о продаже излишков
// или запрос на покупку энергии
func (s *TradeService) CreateTrade(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		Type        string  `json:"type"` // sell, buy
		HouseholdID string  `json:"household_id"`
		EnergyKWh   float64 `json:"energy_kwh"`
		PricePerKWh float64 `json:"price_per_kwh"`
		Description string  `json:"description"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	// Проверка обязательных полей
	tradeType := models.TradeType(requestData.Type)
	if tradeType != models.TradeTypeSell && tradeType != models.TradeTypeBuy {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Тип сделки должен быть sell или buy"})
	}
	if requestData.EnergyKWh <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Объем энергии должен быть положительным"})
	}
	if requestData.PricePerKWh <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Цена за кВт·ч должна быть положительной"})
	}

	householdID, err := uuid.Parse(requestData.HouseholdID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID домохозяйства"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Проверяем, что домохозяйство принадлежит пользователю
	var ownerID uuid.UUID
	err = db.Pool.QueryRow(ctx, `
        SELECT user_id FROM households WHERE id = $1
    `, householdID).Scan(&ownerID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Домохозяйство не найдено"})
		}
		log.Printf("Ошибка запроса домохозяйства: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки домохозяйства"})
	}

	if ownerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Вы не можете создать сделку от чужого домохозяйства"})
	}

	tradeID := uuid.New()

	// Привязываем домохозяйство к стороне сделки по направлению
	var sellerHouseholdID, buyerHouseholdID *uuid.UUID
	if tradeType == models.TradeTypeSell {
		sellerHouseholdID = &householdID
	} else {
		buyerHouseholdID = &householdID
	}

	_, err = db.Pool.Exec(ctx, `
        INSERT INTO trades (id, type, seller_household_id, buyer_household_id, energy_kwh, price_per_kwh, status, description)
        VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
    `, tradeID, tradeType, sellerHouseholdID, buyerHouseholdID,
		requestData.EnergyKWh, requestData.PricePerKWh, requestData.Description)

	if err != nil {
		log.Printf("Ошибка создания сделки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения сделки"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"trade_id": tradeID,
		"message":  "Сделка успешно создана",
	})
}

// UpdateTrade обновляет параметры сделки. Менять можно только
// сделку в статусе pending.
func (s *TradeService) UpdateTrade(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID сделки"})
	}

	var requestData struct {
		EnergyKWh   float64 `json:"energy_kwh"`
		PricePerKWh float64 `json:"price_per_kwh"`
		Description string  `json:"description"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.EnergyKWh <= 0 || requestData.PricePerKWh <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Объем и цена должны быть положительными"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	trade, err := getTradeWithOwner(ctx, tradeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Сделка не найдена"})
		}
		log.Printf("Ошибка запроса сделки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сделки"})
	}

	if trade.ownerUserID.String() != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Вы не можете изменить чужую сделку"})
	}

	if trade.status != models.TradeStatusPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Нельзя изменить сделку, которая уже не открыта"})
	}

	_, err = db.Pool.Exec(ctx, `
        UPDATE trades
        SET energy_kwh = $1, price_per_kwh = $2, description = $3, updated_at = NOW()
        WHERE id = $4
    `, requestData.EnergyKWh, requestData.PricePerKWh, requestData.Description, tradeID)

	if err != nil {
		log.Printf("Ошибка обновления сделки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления сделки"})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"trade_id": tradeID,
		"message":  "Сделка обновлена",
	})
}

// CancelTrade отменяет открытую сделку владельца
func (s *TradeService) CancelTrade(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID сделки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	trade, err := getTradeWithOwner(ctx, tradeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Сделка не найдена"})
		}
		log.Printf("Ошибка запроса сделки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сделки"})
	}

	if trade.ownerUserID.String() != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Вы не можете отменить чужую сделку"})
	}

	if trade.status != models.TradeStatusPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Нельзя отменить сделку, которая уже не открыта"})
	}

	// Начинаем транзакцию: отмена сделки закрывает и ее активные заявки
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        UPDATE trades SET status = 'canceled', updated_at = NOW() WHERE id = $1
    `, tradeID)
	if err != nil {
		log.Printf("Ошибка отмены сделки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка отмены сделки"})
	}

	_, err = tx.Exec(ctx, `
        UPDATE trade_acceptances
        SET status = 'owner_rejected', updated_at = NOW()
        WHERE trade_id = $1 AND status IN ('applied', 'awarded')
    `, tradeID)
	if err != nil {
		log.Printf("Ошибка закрытия заявок отмененной сделки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка отмены сделки"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"trade_id": tradeID,
		"status":   models.TradeStatusCanceled,
		"message":  "Сделка отменена",
	})
}

// GetMyTrades возвращает сделки всех домохозяйств пользователя
func (s *TradeService) GetMyTrades(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	trades, err := LoadUserTrades(ctx, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса сделок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сделок"})
	}

	return c.JSON(fiber.Map{
		"trades": trades,
		"count":  len(trades),
	})
}

// GetOffers возвращает рыночные предложения: открытые сделки
// чужих домохозяйств
func (s *TradeService) GetOffers(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	offers, err := LoadMarketOffers(ctx, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса предложений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предложений"})
	}

	return c.JSON(fiber.Map{
		"offers": offers,
		"count":  len(offers),
	})
}
