package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// User представляет пользователя в системе
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  time.Time
	IsActive     bool
}

// TelegramUser представляет данные пользователя из Telegram
type TelegramUser struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
	PhotoURL   string
	RawData    []byte // JSONB данные
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateUser создает нового пользователя с email и хешем пароля
func CreateUser(email, passwordHash, firstName, lastName string) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	// Проверяем, что email еще не занят
	var exists bool
	err := Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)
	`, email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("ошибка при проверке email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("пользователь с email %s уже существует", email)
	}

	var userID uuid.UUID
	err = Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, last_login_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING id
	`, email, passwordHash, firstName, lastName).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
	}

	return GetUserByID(userID)
}

// GetUserByEmail получает пользователя по email (для входа по паролю)
func GetUserByEmail(email string) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	var user User
	var userEmail, firstName, lastName, phone, avatarURL, passwordHash pgtype.Text

	err := Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, first_name, last_name, phone, avatar_url,
			   created_at, updated_at, last_login_at, is_active
		FROM users WHERE email = $1
	`, email).Scan(
		&user.ID, &userEmail, &passwordHash, &firstName, &lastName,
		&phone, &avatarURL, &user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt, &user.IsActive,
	)
	if err != nil {
		return nil, err
	}

	user.Email = userEmail.String
	user.PasswordHash = passwordHash.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.Phone = phone.String
	user.AvatarURL = avatarURL.String

	return &user, nil
}

// GetUserByID получает пользователя по ID
func GetUserByID(userID uuid.UUID) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	return scanUser(Pool.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, phone, avatar_url,
			   created_at, updated_at, last_login_at, is_active
		FROM users WHERE id = $1
	`, userID))
}

// scanUser читает строку users. Email и поля профиля могут быть NULL:
// пользователи, созданные через Telegram, заводятся без email и пароля
func scanUser(row pgx.Row) (*User, error) {
	var user User
	var email, firstName, lastName, phone, avatarURL pgtype.Text

	err := row.Scan(
		&user.ID, &email, &firstName, &lastName,
		&phone, &avatarURL, &user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt, &user.IsActive,
	)
	if err != nil {
		return nil, err
	}

	user.Email = email.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.Phone = phone.String
	user.AvatarURL = avatarURL.String

	return &user, nil
}

// UpdateLastLogin обновляет время последнего входа пользователя
func UpdateLastLogin(userID uuid.UUID) error {
	ctx, cancel := GetContext()
	defer cancel()

	_, err := Pool.Exec(ctx, `
		UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = $1
	`, userID)
	return err
}

// CreateOrUpdateTelegramUser создает нового пользователя через Telegram или обновляет существующего
func CreateOrUpdateTelegramUser(telegramID int64, username, firstName, lastName, photoURL string,
	rawData []byte) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	// Начинаем транзакцию
	tx, err := Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx) // Откатываем транзакцию в случае ошибки

	// Проверяем, существует ли пользователь Telegram
	var telegramUserID uuid.UUID
	var userID uuid.UUID

	row := tx.QueryRow(ctx, `
		SELECT id, user_id FROM telegram_users WHERE telegram_id = $1
	`, telegramID)

	err = row.Scan(&telegramUserID, &userID)
	if err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("ошибка при проверке существования пользователя Telegram: %w", err)
	}

	// Если пользователь не существует, создаем нового
	if err == pgx.ErrNoRows {
		// Создаем запись в users
		err = tx.QueryRow(ctx, `
			INSERT INTO users (first_name, last_name, avatar_url, last_login_at)
			VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
			RETURNING id
		`, firstName, lastName, photoURL).Scan(&userID)

		if err != nil {
			return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
		}

		// Создаем запись в telegram_users
		err = tx.QueryRow(ctx, `
			INSERT INTO telegram_users (user_id, telegram_id, username, first_name, last_name, photo_url, raw_data)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, userID, telegramID, username, firstName, lastName, photoURL, rawData).Scan(&telegramUserID)

		if err != nil {
			return nil, fmt.Errorf("ошибка при создании Telegram пользователя: %w", err)
		}
	} else {
		// Обновляем last_login_at у существующего пользователя
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET last_login_at = CURRENT_TIMESTAMP
			WHERE id = $1
		`, userID)

		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении времени входа пользователя: %w", err)
		}

		// Обновляем данные telegram_users
		_, err = tx.Exec(ctx, `
			UPDATE telegram_users
			SET username = $1, first_name = $2, last_name = $3, photo_url = $4,
				raw_data = $5, updated_at = CURRENT_TIMESTAMP
			WHERE id = $6
		`, username, firstName, lastName, photoURL, rawData, telegramUserID)

		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении Telegram пользователя: %w", err)
		}
	}

	// Получаем пользователя
	user, err := getUserByIDTx(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	// Фиксируем транзакцию
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return user, nil
}

// getUserByIDTx получает пользователя по ID внутри транзакции
func getUserByIDTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*User, error) {
	return scanUser(tx.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, phone, avatar_url,
			   created_at, updated_at, last_login_at, is_active
		FROM users WHERE id = $1
	`, userID))
}
