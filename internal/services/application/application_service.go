package application

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
	"github.com/wattshare/wattshare-api/internal/websocket"
)

// ApplicationService представляет сервис для работы с заявками на сделки
type ApplicationService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	wsManager  *websocket.Manager
}

// NewApplicationService создает новый экземпляр ApplicationService
func NewApplicationService(cfg *config.Config, wsManager *websocket.Manager) *ApplicationService {
	return &ApplicationService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		wsManager:  wsManager,
	}
}

// notify отправляет событие пользователю, если менеджер подключен
func (s *ApplicationService) notify(userID string, event websocket.Event) {
	if s.wsManager != nil {
		s.wsManager.SendToUser(userID, event)
	}
}

// ApplyToTrade создает заявку текущего пользователя на чужую сделку
func (s *ApplicationService) ApplyToTrade(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID сделки"})
	}

	var requestData struct {
		HouseholdID string `json:"household_id"`
		Message     string `json:"message"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Проверяем сделку: существует, открыта и не принадлежит подателю
	var ownerUserID uuid.UUID
	var tradeStatus models.TradeStatus
	err = db.Pool.QueryRow(ctx, `
		SELECT h.user_id, t.status
		FROM trades t
		JOIN households h ON h.id = COALESCE(t.seller_household_id, t.buyer_household_id)
		WHERE t.id = $1
	`, tradeID).Scan(&ownerUserID, &tradeStatus)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Сделка не найдена"})
		}
		log.Printf("Ошибка запроса сделки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки сделки"})
	}

	if ownerUserID == userUUID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Вы не можете откликнуться на собственную сделку"})
	}

	if tradeStatus != models.TradeStatusPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Сделка уже не принимает заявки"})
	}

	// Необязательное домохозяйство подателя: проверяем владение
	var applicantHouseholdID *uuid.UUID
	if requestData.HouseholdID != "" {
		hid, err := uuid.Parse(requestData.HouseholdID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID домохозяйства"})
		}

		var hOwner uuid.UUID
		err = db.Pool.QueryRow(ctx, `SELECT user_id FROM households WHERE id = $1`, hid).Scan(&hOwner)
		if err != nil || hOwner != userUUID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Укажите собственное домохозяйство"})
		}
		applicantHouseholdID = &hid
	}

	// Не даем подать вторую активную заявку на ту же сделку
	var existing int
	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM trade_acceptances
		WHERE trade_id = $1 AND applicant_id = $2 AND status IN ('applied', 'awarded')
	`, tradeID, userUUID).Scan(&existing)

	if err != nil {
		log.Printf("Ошибка проверки существующих заявок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки заявок"})
	}

	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Вы уже откликнулись на эту сделку"})
	}

	acceptanceID := uuid.New()
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO trade_acceptances (id, trade_id, applicant_id, applicant_household_id, status, message)
		VALUES ($1, $2, $3, $4, 'applied', $5)
	`, acceptanceID, tradeID, userUUID, applicantHouseholdID, requestData.Message)

	if err != nil {
		log.Printf("Ошибка создания заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения заявки"})
	}

	// Уведомляем владельца сделки
	s.notify(ownerUserID.String(), websocket.Event{
		Type:         websocket.EventApplicationReceived,
		TradeID:      tradeID.String(),
		AcceptanceID: acceptanceID.String(),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":       true,
		"acceptance_id": acceptanceID,
		"message":       "Заявка подана",
	})
}

// WithdrawApplication отзывает заявку подателя. Отозванная заявка
// удаляется: в перечислении статусов нет состояния "отозвана".
func (s *ApplicationService) WithdrawApplication(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	acceptanceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	row, err := getAcceptanceRow(ctx, acceptanceID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Заявка не найдена"})
		}
		log.Printf("Ошибка запроса заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявки"})
	}

	if row.acceptance.ApplicantID.String() != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Отозвать заявку может только ее податель"})
	}

	if row.acceptance.Status.IsFinalized() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Нельзя отозвать завершенную заявку"})
	}

	_, err = db.Pool.Exec(ctx, `DELETE FROM trade_acceptances WHERE id = $1`, acceptanceID)
	if err != nil {
		log.Printf("Ошибка удаления заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка отзыва заявки"})
	}

	// Уведомляем владельца сделки, что заявка исчезла
	s.notify(row.ownerUserID.String(), websocket.Event{
		Type:         websocket.EventTradeStatusChanged,
		TradeID:      row.acceptance.TradeID.String(),
		AcceptanceID: acceptanceID.String(),
	})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Заявка отозвана",
	})
}

// ApproveApplication — владелец сделки выбирает заявку (applied → awarded)
func (s *ApplicationService) ApproveApplication(c fiber.Ctx) error {
	return s.transition(c, transitionParams{
		allowedFrom: []models.AcceptanceStatus{models.AcceptanceApplied},
		to:          models.AcceptanceAwarded,
		byOwner:     true,
		eventType:   websocket.EventTradeStatusChanged,
		message:     "Заявка одобрена",
	})
}

// DeclineApplication — владелец сделки отклоняет заявку
// (applied|awarded → owner_rejected)
func (s *ApplicationService) DeclineApplication(c fiber.Ctx) error {
	return s.transition(c, transitionParams{
		allowedFrom: []models.AcceptanceStatus{models.AcceptanceApplied, models.AcceptanceAwarded},
		to:          models.AcceptanceOwnerRejected,
		byOwner:     true,
		eventType:   websocket.EventTradeStatusChanged,
		message:     "Заявка отклонена",
	})
}

// RejectAward — податель отказывается от выбранной заявки.
// Итог такой же терминальный статус отказа, как и при отклонении
// владельцем: перечисление статусов различает только исход, не сторону.
func (s *ApplicationService) RejectAward(c fiber.Ctx) error {
	return s.transition(c, transitionParams{
		allowedFrom: []models.AcceptanceStatus{models.AcceptanceAwarded},
		to:          models.AcceptanceOwnerRejected,
		byOwner:     false,
		eventType:   websocket.EventTradeStatusChanged,
		message:     "Вы отказались от сделки",
	})
}

// transitionParams описывает один переход статуса заявки
type transitionParams struct {
	allowedFrom []models.AcceptanceStatus
	to          models.AcceptanceStatus
	byOwner     bool // true: переход делает владелец сделки, false: податель
	eventType   websocket.EventType
	message     string
}

// transition выполняет смену статуса заявки с проверкой прав и
// допустимости перехода
func (s *ApplicationService) transition(c fiber.Ctx, p transitionParams) error {
	userID := c.Locals("userID").(string)

	acceptanceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	row, err := getAcceptanceRow(ctx, acceptanceID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Заявка не найдена"})
		}
		log.Printf("Ошибка запроса заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявки"})
	}

	// Проверяем право на переход
	if p.byOwner {
		if row.ownerUserID.String() != userID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Это действие доступно только владельцу сделки"})
		}
	} else {
		if row.acceptance.ApplicantID.String() != userID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Это действие доступно только подателю заявки"})
		}
	}

	// Проверяем допустимость перехода из текущего статуса
	allowed := false
	for _, from := range p.allowedFrom {
		if row.acceptance.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Недопустимый переход из текущего статуса заявки",
		})
	}

	_, err = db.Pool.Exec(ctx, `
		UPDATE trade_acceptances SET status = $1, updated_at = NOW() WHERE id = $2
	`, p.to, acceptanceID)

	if err != nil {
		log.Printf("Ошибка обновления статуса заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления статуса заявки"})
	}

	// Уведомляем вторую сторону
	notifyUserID := row.acceptance.ApplicantID.String()
	if !p.byOwner {
		notifyUserID = row.ownerUserID.String()
	}
	s.notify(notifyUserID, websocket.Event{
		Type:         p.eventType,
		TradeID:      row.acceptance.TradeID.String(),
		AcceptanceID: acceptanceID.String(),
	})

	return c.JSON(fiber.Map{
		"success":       true,
		"acceptance_id": acceptanceID,
		"status":        p.to,
		"message":       p.message,
	})
}

// ShareContact — владелец передает контакты подателю выбранной заявки
// (awarded → contacted). Сделка при этом завершается.
func (s *ApplicationService) ShareContact(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	acceptanceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID заявки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	row, err := getAcceptanceRow(ctx, acceptanceID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Заявка не найдена"})
		}
		log.Printf("Ошибка запроса заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявки"})
	}

	if row.ownerUserID.String() != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Поделиться контактами может только владелец сделки"})
	}

	if row.acceptance.Status != models.AcceptanceAwarded {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Сначала одобрите заявку"})
	}

	// Начинаем транзакцию: заявка завершается вместе со сделкой
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE trade_acceptances SET status = 'contacted', updated_at = NOW() WHERE id = $1
	`, acceptanceID)
	if err != nil {
		log.Printf("Ошибка обновления статуса заявки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления заявки"})
	}

	_, err = tx.Exec(ctx, `
		UPDATE trades SET status = 'completed', updated_at = NOW() WHERE id = $1
	`, row.acceptance.TradeID)
	if err != nil {
		log.Printf("Ошибка завершения сделки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка завершения сделки"})
	}

	// Остальные активные заявки на эту сделку отклоняются
	_, err = tx.Exec(ctx, `
		UPDATE trade_acceptances
		SET status = 'owner_rejected', updated_at = NOW()
		WHERE trade_id = $1 AND id != $2 AND status IN ('applied', 'awarded')
	`, row.acceptance.TradeID, acceptanceID)
	if err != nil {
		log.Printf("Ошибка отклонения остальных заявок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления заявок"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	// Передаем подателю контакты владельца
	contact := getApplicantInfo(ctx, row.ownerUserID)
	payload, _ := json.Marshal(contact)
	s.notify(row.acceptance.ApplicantID.String(), websocket.Event{
		Type:         websocket.EventContactShared,
		TradeID:      row.acceptance.TradeID.String(),
		AcceptanceID: acceptanceID.String(),
		Payload:      payload,
	})

	return c.JSON(fiber.Map{
		"success":       true,
		"acceptance_id": acceptanceID,
		"status":        models.AcceptanceContacted,
		"message":       "Контакты переданы подателю заявки",
	})
}

// GetMyAcceptances возвращает заявки текущего пользователя на чужие сделки
func (s *ApplicationService) GetMyAcceptances(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	acceptances, err := LoadUserAcceptances(ctx, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса заявок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявок"})
	}

	return c.JSON(fiber.Map{
		"acceptances": acceptances,
		"count":       len(acceptances),
	})
}

// GetIncomingApplications возвращает заявки на сделки текущего пользователя
func (s *ApplicationService) GetIncomingApplications(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	applications, err := LoadIncomingApplications(ctx, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса заявок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения заявок"})
	}

	return c.JSON(fiber.Map{
		"applications": applications,
		"count":        len(applications),
	})
}
