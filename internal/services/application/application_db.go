package application

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wattshare/wattshare-api/internal/db"
	"github.com/wattshare/wattshare-api/internal/models"
	"github.com/wattshare/wattshare-api/internal/services/trade"
)

// acceptanceRow — заявка с данными для проверки прав:
// кто подал и чье домохозяйство владеет сделкой
type acceptanceRow struct {
	acceptance  models.TradeAcceptance
	ownerUserID uuid.UUID
	tradeStatus models.TradeStatus
}

// getAcceptanceRow загружает заявку вместе с владельцем сделки
func getAcceptanceRow(ctx context.Context, acceptanceID uuid.UUID) (*acceptanceRow, error) {
	var row acceptanceRow
	var message pgtype.Text

	err := db.Pool.QueryRow(ctx, `
		SELECT a.id, a.trade_id, a.applicant_id, a.applicant_household_id,
			   a.status, a.message, a.applied_at, a.updated_at,
			   h.user_id, t.status
		FROM trade_acceptances a
		JOIN trades t ON t.id = a.trade_id
		JOIN households h ON h.id = COALESCE(t.seller_household_id, t.buyer_household_id)
		WHERE a.id = $1
	`, acceptanceID).Scan(
		&row.acceptance.ID, &row.acceptance.TradeID, &row.acceptance.ApplicantID,
		&row.acceptance.ApplicantHouseholdID, &row.acceptance.Status, &message,
		&row.acceptance.AppliedAt, &row.acceptance.UpdatedAt,
		&row.ownerUserID, &row.tradeStatus,
	)
	if err != nil {
		return nil, err
	}

	row.acceptance.Message = message.String
	return &row, nil
}

// LoadUserAcceptances загружает заявки, поданные пользователем на чужие
// сделки, с вложенными данными сделок
func LoadUserAcceptances(ctx context.Context, userID uuid.UUID) ([]models.TradeAcceptance, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, trade_id, applicant_id, applicant_household_id,
			   status, message, applied_at, updated_at
		FROM trade_acceptances
		WHERE applicant_id = $1
		ORDER BY applied_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	acceptances := make([]models.TradeAcceptance, 0)
	for rows.Next() {
		var a models.TradeAcceptance
		var message pgtype.Text
		if err := rows.Scan(&a.ID, &a.TradeID, &a.ApplicantID, &a.ApplicantHouseholdID,
			&a.Status, &message, &a.AppliedAt, &a.UpdatedAt); err != nil {
			log.Printf("Ошибка сканирования заявки: %v", err)
			continue
		}
		a.Message = message.String

		// Сделка могла быть удалена: заявка все равно возвращается, без вложения
		if t, err := trade.GetTradeByID(ctx, a.TradeID); err == nil {
			a.Trade = t
		} else {
			log.Printf("Ошибка получения сделки %s для заявки: %v", a.TradeID, err)
		}

		acceptances = append(acceptances, a)
	}

	return acceptances, rows.Err()
}

// LoadIncomingApplications загружает заявки, поданные другими
// пользователями на сделки домохозяйств пользователя, с вложенными
// данными заявки, сделки и подателя
func LoadIncomingApplications(ctx context.Context, userID uuid.UUID) ([]models.TradeApplication, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT a.id, a.trade_id, a.applicant_id, a.applicant_household_id,
			   a.status, a.message, a.applied_at, a.updated_at
		FROM trade_acceptances a
		JOIN trades t ON t.id = a.trade_id
		JOIN households h ON h.id = COALESCE(t.seller_household_id, t.buyer_household_id)
		WHERE h.user_id = $1
		ORDER BY a.applied_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applications := make([]models.TradeApplication, 0)
	for rows.Next() {
		var a models.TradeAcceptance
		var message pgtype.Text
		if err := rows.Scan(&a.ID, &a.TradeID, &a.ApplicantID, &a.ApplicantHouseholdID,
			&a.Status, &message, &a.AppliedAt, &a.UpdatedAt); err != nil {
			log.Printf("Ошибка сканирования заявки: %v", err)
			continue
		}
		a.Message = message.String

		app := models.TradeApplication{
			ID:         a.ID,
			TradeID:    a.TradeID,
			Acceptance: &a,
			Applicant:  getApplicantInfo(ctx, a.ApplicantID),
		}

		if t, err := trade.GetTradeByID(ctx, a.TradeID); err == nil {
			app.Trade = t
		} else {
			log.Printf("Ошибка получения сделки %s для заявки: %v", a.TradeID, err)
		}

		if a.ApplicantHouseholdID != nil {
			app.ApplicantHousehold = getApplicantHousehold(ctx, *a.ApplicantHouseholdID)
		}

		applications = append(applications, app)
	}

	return applications, rows.Err()
}

// getApplicantInfo получает информацию о подателе заявки
func getApplicantInfo(ctx context.Context, userID uuid.UUID) *models.User {
	var user models.User
	var email, firstName, lastName, phone, avatarURL pgtype.Text

	err := db.Pool.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, phone, avatar_url
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &email, &firstName, &lastName, &phone, &avatarURL)

	if err != nil {
		log.Printf("Ошибка получения пользователя %s: %v", userID, err)
		return nil
	}

	user.Email = email.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.Phone = phone.String
	user.AvatarURL = avatarURL.String

	return &user
}

// getApplicantHousehold получает домохозяйство подателя заявки
func getApplicantHousehold(ctx context.Context, householdID uuid.UUID) *models.Household {
	var h models.Household
	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, address, panel_capacity_w, created_at, updated_at
		FROM households WHERE id = $1
	`, householdID).Scan(&h.ID, &h.UserID, &h.Name, &h.Address,
		&h.PanelCapacityW, &h.CreatedAt, &h.UpdatedAt)

	if err != nil {
		log.Printf("Ошибка получения домохозяйства %s: %v", householdID, err)
		return nil
	}

	return &h
}
