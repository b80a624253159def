package models

import (
	"time"

	"github.com/google/uuid"
)

type (
	TradeType   string // Направление сделки
	TradeStatus string // Статус сделки
)

const (
	TradeTypeSell TradeType = "sell" // Продажа излишков энергии
	TradeTypeBuy  TradeType = "buy"  // Запрос на покупку энергии

	TradeStatusPending   TradeStatus = "pending"   // Сделка открыта и ждет заявок
	TradeStatusCompleted TradeStatus = "completed" // Сделка завершена
	TradeStatusCanceled  TradeStatus = "canceled"  // Сделка отменена владельцем
	TradeStatusExpired   TradeStatus = "expired"   // Срок сделки истек
)

// Trade представляет сделку по продаже или покупке энергии
type Trade struct {
	ID                uuid.UUID   `json:"id"`
	Type              TradeType   `json:"type"`
	SellerHouseholdID *uuid.UUID  `json:"seller_household_id,omitempty"`
	BuyerHouseholdID  *uuid.UUID  `json:"buyer_household_id,omitempty"`
	EnergyKWh         float64     `json:"energy_kwh"`
	PricePerKWh       float64     `json:"price_per_kwh"`
	Status            TradeStatus `json:"status"`
	Description       string      `json:"description,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	// Дополнительные поля для API
	Household *Household `json:"household,omitempty"`
	Owner     *User      `json:"owner,omitempty"`
}

// OwnerHouseholdID возвращает ID домохозяйства-владельца сделки
// в зависимости от ее направления.
func (t *Trade) OwnerHouseholdID() *uuid.UUID {
	if t.Type == TradeTypeSell {
		return t.SellerHouseholdID
	}
	return t.BuyerHouseholdID
}

// User представляет минимальную информацию о пользователе для API
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}
