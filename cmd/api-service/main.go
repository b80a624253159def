package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/wattshare/wattshare-api/internal/cache"
	"github.com/wattshare/wattshare-api/internal/config"
	"github.com/wattshare/wattshare-api/internal/db"
	"github.com/wattshare/wattshare-api/internal/services/application"
	"github.com/wattshare/wattshare-api/internal/services/auth"
	"github.com/wattshare/wattshare-api/internal/services/cloudinary"
	"github.com/wattshare/wattshare-api/internal/services/dashboard"
	"github.com/wattshare/wattshare-api/internal/services/household"
	"github.com/wattshare/wattshare-api/internal/services/trade"
	"github.com/wattshare/wattshare-api/internal/websocket"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Накатываем миграции
	runDBMigration(cfg.MigrationURL, cfg.DatabaseURL)

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Подключаем кеш дашборда
	store := newCacheStore(cfg)

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "WattShare API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Менеджер WebSocket соединений для событий дашборда
	wsManager := websocket.NewManager()
	defer wsManager.Shutdown()

	// Создаём сервисы
	authService := auth.NewAuthService(cfg)
	householdService := household.NewHouseholdService(cfg)
	tradeService := trade.NewTradeService(cfg)
	applicationService := application.NewApplicationService(cfg, wsManager)
	dashboardService := dashboard.NewDashboardService(cfg, store)
	cloudinaryService := cloudinary.NewCloudinaryService(cfg)

	// Регистрируем маршруты
	authService.SetupRoutes(app)
	householdService.SetupRoutes(app)
	tradeService.SetupRoutes(app)
	applicationService.SetupRoutes(app)
	dashboardService.SetupRoutes(app)
	cloudinaryService.SetupRoutes(app)

	// Запускаем WebSocket листенер
	go func() {
		log.Printf("✅ WebSocket листенер запущен на %s", cfg.WebSocketAddress)
		if err := websocket.ListenAndServe(cfg.WebSocketAddress, wsManager, authService.GetJWTService()); err != nil {
			log.Printf("❌ WebSocket листенер остановлен: %v", err)
		}
	}()

	// Запускаем сервер
	log.Printf("✅ WattShare API запущен на %s", cfg.ServerAddress)
	log.Fatal(app.Listen(cfg.ServerAddress))
}

// runDBMigration накатывает миграции перед стартом
func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatalf("❌ Ошибка создания мигратора: %v", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("❌ Ошибка применения миграций: %v", err)
	}
	log.Println("✅ Миграции применены")
}

// newCacheStore подключает Redis; если он недоступен, дашборд
// работает на кеше в памяти процесса
func newCacheStore(cfg *config.Config) cache.Store {
	redisStore := cache.NewRedisStore(cfg.RedisAddr)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := redisStore.Ping(ctx); err != nil {
		log.Printf("⚠️ Redis недоступен (%v), используем кеш в памяти", err)
		return cache.NewMemoryStore()
	}

	log.Println("✅ Успешное подключение к Redis")
	return redisStore
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
