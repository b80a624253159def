package trade

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wattshare/wattshare-api/internal/db"
	"github.com/wattshare/wattshare-api/internal/models"
)

// tradeOwner — минимальные данные сделки для проверок прав
type tradeOwner struct {
	ownerUserID uuid.UUID
	status      models.TradeStatus
}

// getTradeWithOwner получает статус сделки и пользователя-владельца
// через домохозяйство соответствующей стороны
func getTradeWithOwner(ctx context.Context, tradeID uuid.UUID) (*tradeOwner, error) {
	var t tradeOwner
	err := db.Pool.QueryRow(ctx, `
		SELECT h.user_id, t.status
		FROM trades t
		JOIN households h ON h.id = COALESCE(t.seller_household_id, t.buyer_household_id)
		WHERE t.id = $1
	`, tradeID).Scan(&t.ownerUserID, &t.status)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// scanTrades читает строки сделок и подгружает данные домохозяйств
func scanTrades(ctx context.Context, rows pgx.Rows) []models.Trade {
	trades := make([]models.Trade, 0)
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(
			&t.ID, &t.Type, &t.SellerHouseholdID, &t.BuyerHouseholdID,
			&t.EnergyKWh, &t.PricePerKWh, &t.Status, &t.Description,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования сделки: %v", err)
			continue
		}
		t.Household = getHouseholdInfo(ctx, t.OwnerHouseholdID())
		trades = append(trades, t)
	}
	return trades
}

// LoadUserTrades загружает сделки всех домохозяйств пользователя,
// от новых к старым
func LoadUserTrades(ctx context.Context, userID uuid.UUID) ([]models.Trade, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT t.id, t.type, t.seller_household_id, t.buyer_household_id,
			   t.energy_kwh, t.price_per_kwh, t.status, t.description,
			   t.created_at, t.updated_at
		FROM trades t
		JOIN households h ON h.id = COALESCE(t.seller_household_id, t.buyer_household_id)
		WHERE h.user_id = $1
		ORDER BY t.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(ctx, rows), rows.Err()
}

// LoadMarketOffers загружает открытые сделки чужих домохозяйств
func LoadMarketOffers(ctx context.Context, userID uuid.UUID) ([]models.Trade, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT t.id, t.type, t.seller_household_id, t.buyer_household_id,
			   t.energy_kwh, t.price_per_kwh, t.status, t.description,
			   t.created_at, t.updated_at
		FROM trades t
		JOIN households h ON h.id = COALESCE(t.seller_household_id, t.buyer_household_id)
		WHERE h.user_id != $1 AND t.status = 'pending'
		ORDER BY t.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(ctx, rows), rows.Err()
}

// GetTradeByID загружает одну сделку с данными домохозяйства
func GetTradeByID(ctx context.Context, tradeID uuid.UUID) (*models.Trade, error) {
	var t models.Trade
	err := db.Pool.QueryRow(ctx, `
		SELECT id, type, seller_household_id, buyer_household_id,
			   energy_kwh, price_per_kwh, status, description, created_at, updated_at
		FROM trades WHERE id = $1
	`, tradeID).Scan(
		&t.ID, &t.Type, &t.SellerHouseholdID, &t.BuyerHouseholdID,
		&t.EnergyKWh, &t.PricePerKWh, &t.Status, &t.Description,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Household = getHouseholdInfo(ctx, t.OwnerHouseholdID())
	return &t, nil
}

// getHouseholdInfo получает информацию о домохозяйстве.
// При ошибке возвращает nil: карточка сделки рисуется с заглушками.
func getHouseholdInfo(ctx context.Context, householdID *uuid.UUID) *models.Household {
	if householdID == nil {
		return nil
	}

	var h models.Household
	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, address, panel_capacity_w, created_at, updated_at
		FROM households WHERE id = $1
	`, *householdID).Scan(
		&h.ID, &h.UserID, &h.Name, &h.Address,
		&h.PanelCapacityW, &h.CreatedAt, &h.UpdatedAt,
	)

	if err != nil {
		log.Printf("Ошибка получения домохозяйства %s: %v", *householdID, err)
		return nil
	}

	return &h
}
