package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// fakeUserRow имитирует строку users со стороны драйвера
type fakeUserRow struct {
	id          uuid.UUID
	email       pgtype.Text
	firstName   pgtype.Text
	lastName    pgtype.Text
	phone       pgtype.Text
	avatarURL   pgtype.Text
	createdAt   time.Time
	updatedAt   time.Time
	lastLoginAt time.Time
	isActive    bool
}

func (r fakeUserRow) Scan(dest ...any) error {
	*(dest[0].(*uuid.UUID)) = r.id
	*(dest[1].(*pgtype.Text)) = r.email
	*(dest[2].(*pgtype.Text)) = r.firstName
	*(dest[3].(*pgtype.Text)) = r.lastName
	*(dest[4].(*pgtype.Text)) = r.phone
	*(dest[5].(*pgtype.Text)) = r.avatarURL
	*(dest[6].(*time.Time)) = r.createdAt
	*(dest[7].(*time.Time)) = r.updatedAt
	*(dest[8].(*time.Time)) = r.lastLoginAt
	*(dest[9].(*bool)) = r.isActive
	return nil
}

// Пользователь, созданный через Telegram, не имеет email и телефона:
// колонки NULL, чтение строки не должно падать
func TestScanUser_NullEmail(t *testing.T) {
	userID := uuid.New()
	row := fakeUserRow{
		id:        userID,
		email:     pgtype.Text{}, // NULL
		firstName: pgtype.Text{String: "Иван", Valid: true},
		lastName:  pgtype.Text{String: "Петров", Valid: true},
		phone:     pgtype.Text{}, // NULL
		avatarURL: pgtype.Text{String: "https://example.com/a.jpg", Valid: true},
		createdAt: time.Now(),
		isActive:  true,
	}

	user, err := scanUser(row)
	if err != nil {
		t.Fatalf("scanUser вернул ошибку для строки с NULL email: %v", err)
	}

	if user.ID != userID {
		t.Errorf("ID = %s, ожидался %s", user.ID, userID)
	}
	if user.Email != "" {
		t.Errorf("Email = %q, для NULL колонки ожидалась пустая строка", user.Email)
	}
	if user.Phone != "" {
		t.Errorf("Phone = %q, для NULL колонки ожидалась пустая строка", user.Phone)
	}
	if user.FirstName != "Иван" || user.LastName != "Петров" {
		t.Errorf("имя = %q %q, данные профиля потерялись", user.FirstName, user.LastName)
	}
}

func TestScanUser_FullProfile(t *testing.T) {
	row := fakeUserRow{
		id:        uuid.New(),
		email:     pgtype.Text{String: "user@example.com", Valid: true},
		firstName: pgtype.Text{String: "Анна", Valid: true},
		lastName:  pgtype.Text{String: "Смирнова", Valid: true},
		phone:     pgtype.Text{String: "+79990001122", Valid: true},
		isActive:  true,
	}

	user, err := scanUser(row)
	if err != nil {
		t.Fatalf("scanUser вернул ошибку: %v", err)
	}

	if user.Email != "user@example.com" {
		t.Errorf("Email = %q, ожидался user@example.com", user.Email)
	}
	if user.Phone != "+79990001122" {
		t.Errorf("Phone = %q, значение не дошло из колонки", user.Phone)
	}
}
