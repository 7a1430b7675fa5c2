// Точка входа Leads Module — бэк-офис заявок с контактной формы сайта.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт клиент хранилища изображений, сервисный слой и API handlers,
// запускает topologymetrics и HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/interiorstudio/leads-module/internal/api/handlers"
	"github.com/bigkaa/interiorstudio/leads-module/internal/api/middleware"
	"github.com/bigkaa/interiorstudio/leads-module/internal/config"
	"github.com/bigkaa/interiorstudio/leads-module/internal/database"
	"github.com/bigkaa/interiorstudio/leads-module/internal/imagestore"
	"github.com/bigkaa/interiorstudio/leads-module/internal/repository"
	"github.com/bigkaa/interiorstudio/leads-module/internal/server"
	"github.com/bigkaa/interiorstudio/leads-module/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Leads Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// Предупреждения о дефолтных значениях topologymetrics
	if os.Getenv("LM_DEPHEALTH_GROUP") == "" {
		logger.Warn("LM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Клиент хранилища изображений.
	// Без учётных данных заявки удаляются, а каждое изображение
	// попадает в imageFailures с kind=not_configured.
	var destroyer imagestore.Destroyer = imagestore.Disabled{}
	var imageChecker handlers.ReadinessChecker = imagestore.Disabled{}
	imageStoreURL := ""
	if cfg.ImageStoreEnabled() {
		client, err := imagestore.New(imagestore.Options{
			BaseURL:    cfg.ImageStoreURL,
			CloudName:  cfg.ImageStoreCloudName,
			APIKey:     cfg.ImageStoreAPIKey,
			APISecret:  cfg.ImageStoreAPISecret,
			CACertPath: cfg.CACertPath,
			Timeout:    cfg.ImageDeleteTimeout,
		}, logger)
		if err != nil {
			logger.Error("Ошибка создания клиента хранилища изображений", slog.String("error", err.Error()))
			os.Exit(1)
		}
		destroyer = client
		imageChecker = client
		imageStoreURL = client.HealthURL()
		logger.Info("Хранилище изображений настроено",
			slog.String("url", cfg.ImageStoreURL),
			slog.String("cloud", cfg.ImageStoreCloudName),
		)
	} else {
		logger.Warn("Хранилище изображений не настроено, изображения удаляемых заявок не очищаются")
	}

	// 6. Repository
	submissionRepo := repository.NewSubmissionRepository(pool)

	// 7. Services
	cleaner := service.NewImageCleaner(destroyer, cfg.ImageDeleteTimeout, cfg.ImageDeleteConcurrency, logger)
	submissionsSvc := service.NewSubmissionService(submissionRepo, logger)
	lifecycleSvc := service.NewLifecycleService(submissionRepo, cleaner, logger)
	notificationsSvc := service.NewNotificationService(submissionRepo, cfg.NotificationsDefaultLimit, logger)

	// 8. JWT middleware: JWKS IdP или общий HMAC-секрет
	var jwtAuth *middleware.JWTAuth
	if cfg.JWTJWKSURL != "" {
		jwtAuth, err = middleware.NewJWKSAuth(
			cfg.JWTJWKSURL,
			cfg.CACertPath,
			cfg.JWTIssuer,
			cfg.RoleAdminGroups,
			cfg.RoleReadonlyGroups,
			cfg.JWKSClientTimeout,
			cfg.JWKSRefreshInterval,
			cfg.JWTLeeway,
			logger,
		)
		if err != nil {
			logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("JWT middleware инициализирован (JWKS)",
			slog.String("jwks_url", cfg.JWTJWKSURL),
			slog.String("issuer", cfg.JWTIssuer),
		)
	} else {
		jwtAuth = middleware.NewHMACAuth(
			cfg.JWTHMACSecret,
			cfg.JWTIssuer,
			cfg.RoleAdminGroups,
			cfg.RoleReadonlyGroups,
			cfg.JWTLeeway,
			logger,
		)
		logger.Info("JWT middleware инициализирован (HMAC)")
	}

	// 9. Readiness checkers (PostgreSQL + JWKS + хранилище изображений)
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker, jwtAuth, imageChecker)

	// 10. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		submissionsSvc,
		lifecycleSvc,
		notificationsSvc,
		logger,
	)

	// 11. topologymetrics — мониторинг зависимостей
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "leads-module",
		Group:         cfg.DephealthGroup,
		DB:            pgDB,
		PostgresURL:   cfg.DatabaseURL(),
		ImageStoreURL: imageStoreURL,
		JWKSURL:       cfg.JWTJWKSURL,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 12. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 13. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Leads Module остановлен")
}
