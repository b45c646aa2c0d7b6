package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/sudak-api/internal/config"
	"github.com/rajivgeraev/sudak-api/internal/db"
	"github.com/rajivgeraev/sudak-api/internal/metrics"
	"github.com/rajivgeraev/sudak-api/internal/middleware"
	"github.com/rajivgeraev/sudak-api/internal/notify"
	"github.com/rajivgeraev/sudak-api/internal/services/auth"
	"github.com/rajivgeraev/sudak-api/internal/services/chat"
	"github.com/rajivgeraev/sudak-api/internal/services/favorite"
	"github.com/rajivgeraev/sudak-api/internal/services/images"
	"github.com/rajivgeraev/sudak-api/internal/services/listing"
	"github.com/rajivgeraev/sudak-api/internal/services/review"
	"github.com/rajivgeraev/sudak-api/internal/store"
	"github.com/rajivgeraev/sudak-api/internal/utils"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()
	log := newLogger(cfg)

	// Открываем хранилище
	kv, err := openStore(cfg, log)
	if err != nil {
		log.Fatalf("❌ Ошибка при инициализации хранилища: %v", err)
	}
	defer kv.Close()
	defer db.CloseDB()

	hub := notify.NewHub(log, notify.DefaultBuffer)
	defer hub.Shutdown()

	jwtService := utils.NewJWTService(cfg.JWTSecret)
	authMiddleware := middleware.AuthMiddleware(jwtService)

	// Создаём сервисы
	authService := auth.NewService(kv, log)
	listingRepo := listing.NewRepository(kv, hub, log)
	reviewService := review.NewService(kv, hub, log)
	favoriteService := favorite.NewService(kv)

	var replier chat.AutoReplier
	if cfg.ChatConfig.AutoReply {
		replier = chat.NewDemoAutoReplier(cfg.ChatConfig.AutoReplyProbability, cfg.ChatConfig.AutoReplyDelay)
		log.Info("Демонстрационный автоответ в чатах включён")
	}
	chatService := chat.NewService(kv, hub, replier, log)

	// Разовые действия при старте
	ctx, cancel := db.GetContext()
	if _, err := authService.MigrateBalances(ctx); err != nil {
		log.WithError(err).Error("Не удалось проставить стартовые балансы")
	}
	if _, err := authService.RestoreSession(ctx); err != nil {
		log.WithError(err).Error("Не удалось восстановить сессию")
	}
	cancel()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Sudak API",
		ErrorHandler: middleware.ErrorHandler(log),
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
	app.Use(metrics.Middleware())

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "store": cfg.StoreBackend})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Регистрируем маршруты
	auth.NewHandler(authService, jwtService).SetupRoutes(app, authMiddleware)
	listing.NewHandler(listingRepo, hub).SetupRoutes(app, authMiddleware)
	review.NewHandler(reviewService, authService).SetupRoutes(app, authMiddleware)
	chat.NewHandler(chatService, authService).SetupRoutes(app, authMiddleware)
	favorite.NewHandler(favoriteService).SetupRoutes(app, authMiddleware)
	images.SetupRoutes(app, authMiddleware)
	hub.SetupRoutes(app, authMiddleware)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info("Останавливаем сервер")
		hub.Shutdown()
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Ошибка остановки сервера")
		}
	}()

	// Запускаем сервер
	log.Infof("✅ Sudak API запущен на порту %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Error("Сервер остановлен с ошибкой")
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// openStore выбирает хранилище по STORE_BACKEND; удалённые хранилища
// закрываются выключателем
func openStore(cfg *config.Config, log *logrus.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		log.Warn("Используется хранилище в памяти, данные не переживут перезапуск")
		return store.NewMemory(cfg.StoreQuotaBytes), nil

	case config.StorePostgres:
		if err := db.InitDB(cfg, log); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, err := store.NewPostgres(ctx, db.Pool)
		if err != nil {
			return nil, err
		}
		return store.WithBreaker(pg, "postgres", log), nil

	case config.StoreRedis:
		client, err := db.InitRedis(cfg, log)
		if err != nil {
			return nil, err
		}
		return store.WithBreaker(store.NewRedis(client), "redis", log), nil

	default:
		return nil, fmt.Errorf("неизвестное хранилище %q", cfg.StoreBackend)
	}
}
