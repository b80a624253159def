package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config структура конфигурации
type Config struct {
	TelegramBotToken string
	JWTSecret        string
	DatabaseURL      string
	MigrationURL     string
	RedisAddr        string
	ServerAddress    string
	WebSocketAddress string
	DatabaseConfig   DatabaseConfig
	CloudinaryConfig CloudinaryConfig
	AppEnv           string // Окружение приложения
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32 // Верхняя граница пула соединений
	MinConns int32 // Сколько соединений держать прогретыми
}

// CloudinaryConfig содержит конфигурацию для Cloudinary
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
	UploadFolder string
}

// LoadConfig загружает переменные из .env
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "wattshare_user"),
		Password: getEnv("PGPASSWORD", "wattshare_pass"),
		Name:     getEnv("PGDATABASE", "wattshare"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
		MaxConns: getEnvInt32("PGPOOL_MAX_CONNS", 10),
		MinConns: getEnvInt32("PGPOOL_MIN_CONNS", 2),
	}

	// Формируем строку подключения к базе данных
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	cloudinaryConfig := CloudinaryConfig{
		CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "wattshare_photos"),
		UploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "households"),
	}

	cfg := &Config{
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		DatabaseURL:      dbURL,
		MigrationURL:     getEnv("MIGRATION_URL", "file://migrations"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		ServerAddress:    getEnv("SERVER_ADDRESS", ":8080"),
		WebSocketAddress: getEnv("WS_ADDRESS", ":8081"),
		DatabaseConfig:   dbConfig,
		CloudinaryConfig: cloudinaryConfig,
		AppEnv:           getEnv("APP_ENV", "production"), // По умолчанию production
	}

	if cfg.JWTSecret == "" {
		log.Fatal("❌ Ошибка: Не задана обязательная переменная окружения JWT_SECRET")
	}

	return cfg
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt32 читает числовую переменную окружения; нечисловое
// значение не роняет приложение, а откатывается к дефолту
func getEnvInt32(key string, defaultValue int32) int32 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		log.Printf("⚠️ %s=%q не является числом, используем %d", key, value, defaultValue)
		return defaultValue
	}
	return int32(parsed)
}
