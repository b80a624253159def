package household

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/wattshare/wattshare-api/internal/db"
	"github.com/wattshare/wattshare-api/internal/models"
)

// LoadUserHouseholds загружает все домохозяйства пользователя с фотографиями.
// Используется и своими хендлерами, и сервисом дашборда.
func LoadUserHouseholds(ctx context.Context, userID uuid.UUID) ([]models.Household, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, name, address, panel_capacity_w, created_at, updated_at
		FROM households
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	households := make([]models.Household, 0)
	for rows.Next() {
		var h models.Household
		if err := rows.Scan(&h.ID, &h.UserID, &h.Name, &h.Address,
			&h.PanelCapacityW, &h.CreatedAt, &h.UpdatedAt); err != nil {
			log.Printf("Ошибка сканирования домохозяйства: %v", err)
			continue
		}
		h.Photos = loadPhotos(ctx, h.ID)
		households = append(households, h)
	}

	return households, rows.Err()
}

// loadPhotos загружает фотографии установки домохозяйства
func loadPhotos(ctx context.Context, householdID uuid.UUID) []models.HouseholdPhoto {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, url, preview_url, is_main, position
		FROM household_photos
		WHERE household_id = $1
		ORDER BY position ASC
	`, householdID)
	if err != nil {
		log.Printf("Ошибка получения фотографий: %v", err)
		return nil
	}
	defer rows.Close()

	var photos []models.HouseholdPhoto
	for rows.Next() {
		var photo models.HouseholdPhoto
		if err := rows.Scan(&photo.ID, &photo.URL, &photo.PreviewURL, &photo.IsMain, &photo.Position); err != nil {
			log.Printf("Ошибка сканирования фотографии: %v", err)
			continue
		}
		photo.HouseholdID = householdID
		photos = append(photos, photo)
	}

	return photos
}
