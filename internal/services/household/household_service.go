package household

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wattshare/wattshare-api/internal/config"
	"github.com/wattshare/wattshare-api/internal/db"
	"github.com/wattshare/wattshare-api/internal/models"
	"github.com/wattshare/wattshare-api/internal/utils"
)

// RequestPhoto представляет структуру фотографии в запросе создания домохозяйства
type RequestPhoto struct {
	URL                string          `json:"url"`
	PublicID           string          `json:"public_id"`
	FileName           string          `json:"file_name"`
	IsMain             bool            `json:"is_main"`
	CloudinaryResponse json.RawMessage `json:"cloudinary_response,omitempty"`
}

// HouseholdService представляет сервис для работы с домохозяйствами
type HouseholdService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewHouseholdService создает новый экземпляр HouseholdService
func NewHouseholdService(cfg *config.Config) *HouseholdService {
	return &HouseholdService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// CreateHousehold обрабатывает создание нового домохозяйства
func (s *HouseholdService) CreateHousehold(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		Name           string         `json:"name"`
		Address        string         `json:"address"`
		PanelCapacityW int            `json:"panel_capacity_w"`
		Photos         []RequestPhoto `json:"photos"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	// Валидация обязательных полей
	if requestData.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Название обязательно"})
	}
	if requestData.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Адрес обязателен"})
	}
	if requestData.PanelCapacityW < 0 {
		requestData.PanelCapacityW = 0
	}

	householdID := uuid.New()

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	// Вставляем домохозяйство
	_, err = tx.Exec(ctx, `
		INSERT INTO households (id, user_id, name, address, panel_capacity_w)
		VALUES ($1, $2, $3, $4, $5)
	`, householdID, userUUID, requestData.Name, requestData.Address, requestData.PanelCapacityW)

	if err != nil {
		log.Printf("Ошибка вставки домохозяйства: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения домохозяйства"})
	}

	// Вставляем фотографии установки, если они есть
	for i, photo := range requestData.Photos {
		isMain := i == 0 // Первая фотография - основная

		var metadata []byte
		var previewURL string

		// Обрабатываем данные из Cloudinary
		if len(photo.CloudinaryResponse) > 0 {
			var cloudinaryResp models.CloudinaryResponse
			if err := json.Unmarshal(photo.CloudinaryResponse, &cloudinaryResp); err != nil {
				log.Printf("Ошибка парсинга ответа Cloudinary: %v", err)
			} else {
				previewURL = models.ExtractPreviewURL(cloudinaryResp)
				metadataObj := models.ExtractMetadata(cloudinaryResp)
				metadata, _ = json.Marshal(metadataObj)
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO household_photos (household_id, url, preview_url, public_id, file_name, is_main, position, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, householdID, photo.URL, previewURL, photo.PublicID, photo.FileName, isMain, i, metadata)

		if err != nil {
			log.Printf("Ошибка вставки фотографии: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения фотографий"})
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"household_id": householdID,
		"message":      "Домохозяйство успешно создано",
	})
}

// GetMyHouseholds возвращает список домохозяйств текущего пользователя
func (s *HouseholdService) GetMyHouseholds(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	households, err := LoadUserHouseholds(ctx, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса домохозяйств: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения домохозяйств"})
	}

	return c.JSON(fiber.Map{
		"households": households,
		"count":      len(households),
	})
}

// GetHousehold возвращает одно домохозяйство по ID
func (s *HouseholdService) GetHousehold(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID домохозяйства"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var household models.Household
	err = db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, address, panel_capacity_w, created_at, updated_at
		FROM households WHERE id = $1
	`, householdID).Scan(
		&household.ID, &household.UserID, &household.Name, &household.Address,
		&household.PanelCapacityW, &household.CreatedAt, &household.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Домохозяйство не найдено"})
		}
		log.Printf("Ошибка запроса домохозяйства: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения домохозяйства"})
	}

	if household.UserID.String() != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Это не ваше домохозяйство"})
	}

	household.Photos = loadPhotos(ctx, householdID)

	return c.JSON(fiber.Map{"household": household})
}

// UpdateHousehold обновляет данные домохозяйства
func (s *HouseholdService) UpdateHousehold(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID домохозяйства"})
	}

	var requestData struct {
		Name           string `json:"name"`
		Address        string `json:"address"`
		PanelCapacityW int    `json:"panel_capacity_w"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Name == "" || requestData.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Название и адрес обязательны"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Обновляем только свое домохозяйство
	tag, err := db.Pool.Exec(ctx, `
		UPDATE households
		SET name = $1, address = $2, panel_capacity_w = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
	`, requestData.Name, requestData.Address, requestData.PanelCapacityW, householdID, userID)

	if err != nil {
		log.Printf("Ошибка обновления домохозяйства: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления домохозяйства"})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Домохозяйство не найдено или не принадлежит вам"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Домохозяйство обновлено",
	})
}

// DeleteHousehold удаляет домохозяйство пользователя
func (s *HouseholdService) DeleteHousehold(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID домохозяйства"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Домохозяйство с открытыми сделками удалить нельзя
	var openTrades int
	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM trades
		WHERE (seller_household_id = $1 OR buyer_household_id = $1) AND status = 'pending'
	`, householdID).Scan(&openTrades)

	if err != nil {
		log.Printf("Ошибка проверки открытых сделок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки сделок"})
	}

	if openTrades > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Сначала закройте открытые сделки этого домохозяйства"})
	}

	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM households WHERE id = $1 AND user_id = $2
	`, householdID, userID)

	if err != nil {
		log.Printf("Ошибка удаления домохозяйства: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления домохозяйства"})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Домохозяйство не найдено или не принадлежит вам"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Домохозяйство удалено",
	})
}
