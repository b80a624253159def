package views

import (
	"github.com/wattshare/wattshare-api/internal/models"
)

// NotSpecified — заглушка для отсутствующих данных в карточках
const NotSpecified = "не указано"

// TradeSummary — краткое описание сделки для карточки заявки.
// Собирается даже при отсутствующих вложенных данных: сделка могла
// быть удалена после подачи заявки, карточка все равно рисуется.
type TradeSummary struct {
	TradeID       string  `json:"trade_id"`
	Type          string  `json:"type"`
	EnergyKWh     float64 `json:"energy_kwh"`
	PricePerKWh   float64 `json:"price_per_kwh"`
	Status        string  `json:"status"`
	HouseholdName string  `json:"household_name"`
}

// SummarizeTrade строит описание сделки, подставляя значения по
// умолчанию вместо отсутствующих полей: нулевые объемы и заглушки
// вместо названий. Никогда не паникует на nil.
func SummarizeTrade(t *models.Trade) TradeSummary {
	if t == nil {
		return TradeSummary{
			TradeID:       "",
			Type:          NotSpecified,
			Status:        NotSpecified,
			HouseholdName: NotSpecified,
		}
	}

	summary := TradeSummary{
		TradeID:     t.ID.String(),
		Type:        string(t.Type),
		EnergyKWh:   t.EnergyKWh,
		PricePerKWh: t.PricePerKWh,
		Status:      string(t.Status),
	}

	if t.Household != nil && t.Household.Name != "" {
		summary.HouseholdName = t.Household.Name
	} else {
		summary.HouseholdName = NotSpecified
	}

	return summary
}

// ApplicantName возвращает отображаемое имя подателя заявки
// либо заглушку, если данные пользователя не подгрузились
func ApplicantName(u *models.User) string {
	if u == nil {
		return NotSpecified
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return NotSpecified
	}
	return name
}
