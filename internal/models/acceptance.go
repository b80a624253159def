package models

import (
	"time"

	"github.com/google/uuid"
)

// AcceptanceStatus — статус заявки на сделку. Набор закрытый:
// любой статус вне перечисленных считается неизвестным и
// отображается через запасной вариант презентации.
type AcceptanceStatus string

const (
	AcceptanceApplied       AcceptanceStatus = "applied"        // Заявка подана и ждет решения владельца
	AcceptanceAwarded       AcceptanceStatus = "awarded"        // Владелец выбрал эту заявку
	AcceptanceOwnerRejected AcceptanceStatus = "owner_rejected" // Заявка отклонена (терминальный статус)
	AcceptanceContacted     AcceptanceStatus = "contacted"      // Контакты переданы (терминальный статус)
)

// finalizedStatuses — единственное место, где определен набор
// терминальных статусов. Разбиение заявок на активные и завершенные
// всегда идет через IsFinalized, а не через сравнение строк по месту.
var finalizedStatuses = map[AcceptanceStatus]bool{
	AcceptanceContacted:     true,
	AcceptanceOwnerRejected: true,
}

// successStatuses — статусы, которые считаются успешным исходом для
// статистики завершенных обменов. Набор независим от терминального:
// awarded еще активен, но уже идет в зачет.
var successStatuses = map[AcceptanceStatus]bool{
	AcceptanceAwarded:   true,
	AcceptanceContacted: true,
}

// IsFinalized сообщает, достигла ли заявка терминального статуса
func (s AcceptanceStatus) IsFinalized() bool {
	return finalizedStatuses[s]
}

// IsSuccessful сообщает, считается ли статус успешным исходом
func (s AcceptanceStatus) IsSuccessful() bool {
	return successStatuses[s]
}

// TradeAcceptance представляет заявку текущего пользователя на чужую сделку
type TradeAcceptance struct {
	ID                   uuid.UUID        `json:"id"`
	TradeID              uuid.UUID        `json:"trade_id"`
	ApplicantID          uuid.UUID        `json:"applicant_id"`
	ApplicantHouseholdID *uuid.UUID       `json:"applicant_household_id,omitempty"`
	Status               AcceptanceStatus `json:"status"`
	Message              string           `json:"message,omitempty"`
	AppliedAt            time.Time        `json:"applied_at"`
	UpdatedAt            time.Time        `json:"updated_at"`

	// Дополнительные поля для API
	Trade *Trade `json:"trade,omitempty"`
}

// TradeApplication представляет заявку, поданную другим пользователем
// на сделку текущего пользователя (взгляд со стороны владельца)
type TradeApplication struct {
	ID      uuid.UUID `json:"id"`
	TradeID uuid.UUID `json:"trade_id,omitempty"` // Плоское поле на случай отсутствия вложенной заявки

	Acceptance         *TradeAcceptance `json:"acceptance,omitempty"`
	Trade              *Trade           `json:"trade,omitempty"`
	Applicant          *User            `json:"applicant,omitempty"`
	ApplicantHousehold *Household       `json:"applicant_household,omitempty"`
}

// ResolvedTradeID возвращает ID сделки, к которой относится заявка:
// сначала из вложенной заявки, затем из плоского поля.
func (a *TradeApplication) ResolvedTradeID() (uuid.UUID, bool) {
	if a.Acceptance != nil && a.Acceptance.TradeID != uuid.Nil {
		return a.Acceptance.TradeID, true
	}
	if a.TradeID != uuid.Nil {
		return a.TradeID, true
	}
	return uuid.Nil, false
}

// Status возвращает статус вложенной заявки. Если вложенная заявка
// отсутствует, возвращается пустой статус — он не входит ни в один
// набор и уходит в запасную презентацию.
func (a *TradeApplication) Status() AcceptanceStatus {
	if a.Acceptance == nil {
		return ""
	}
	return a.Acceptance.Status
}
