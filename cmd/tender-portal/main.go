// Точка входа Tender Portal — веб-портал регистрации победителей тендеров.
// Загружает конфигурацию, выбирает хранилище сессий (cookie, memory,
// redis, postgres), создаёт клиент API тендерной системы и сервисный слой,
// запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/stdlib"

	apihandlers "github.com/bigkaa/tender-portal/internal/api/handlers"
	"github.com/bigkaa/tender-portal/internal/apiclient"
	"github.com/bigkaa/tender-portal/internal/config"
	"github.com/bigkaa/tender-portal/internal/database"
	"github.com/bigkaa/tender-portal/internal/server"
	"github.com/bigkaa/tender-portal/internal/service"
	"github.com/bigkaa/tender-portal/internal/ui/auth"
	"github.com/bigkaa/tender-portal/internal/ui/i18n"
)

// sessionCleanupInterval — период удаления истёкших сессий из PostgreSQL.
const sessionCleanupInterval = 10 * time.Minute

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Tender Portal запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("session_backend", cfg.SessionBackend),
	)

	if cfg.CSRFKey == "" {
		logger.Warn("TP_CSRF_KEY не задан, открытые формы станут недействительны после рестарта")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Каталоги переводов
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Клиент API тендерной системы
	apiClient, err := apiclient.New(apiclient.Config{
		BaseURL:    cfg.APIURL,
		AuthScheme: cfg.APIAuthScheme,
		Timeout:    cfg.APITimeout,
		CACertPath: cfg.APICACertPath,
		HealthPath: cfg.APIHealthPath,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента API", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Клиент API создан", slog.String("url", cfg.APIURL))

	checkers := []apihandlers.ReadinessChecker{apiClient}

	// 5. Хранилище сессий
	var (
		store auth.Store
		pgDB  *sql.DB
	)
	switch cfg.SessionBackend {
	case config.SessionBackendMemory:
		store = auth.NewServerStore(auth.NewMemoryBackend(cfg.SessionMemorySize, cfg.SessionTTL), cfg.SessionSecure, logger)
		logger.Warn("Сессии хранятся в памяти процесса и теряются при рестарте")

	case config.SessionBackendRedis:
		redisBackend, redisErr := auth.NewRedisBackend(ctx, auth.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if redisErr != nil {
			logger.Error("Ошибка подключения к Redis", slog.String("error", redisErr.Error()))
			os.Exit(1)
		}
		defer redisBackend.Close()
		store = auth.NewServerStore(redisBackend, cfg.SessionSecure, logger)
		checkers = append(checkers, redisBackend)
		logger.Info("Сессии хранятся в Redis", slog.String("addr", cfg.RedisAddr))

	case config.SessionBackendPostgres:
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}
		pool, poolErr := database.Connect(ctx, cfg, logger)
		if poolErr != nil {
			logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", poolErr.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		// Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
		pgDB = stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()

		pgBackend := auth.NewPostgresBackend(pool, logger)
		go pgBackend.RunCleanup(ctx, sessionCleanupInterval)
		store = auth.NewServerStore(pgBackend, cfg.SessionSecure, logger)
		checkers = append(checkers, database.NewReadinessChecker(pool))

	default:
		cookieStore, cookieErr := auth.NewCookieStore(cfg.SessionSecret, cfg.SessionSecure)
		if cookieErr != nil {
			logger.Error("Ошибка создания cookie-хранилища сессий", slog.String("error", cookieErr.Error()))
			os.Exit(1)
		}
		if cfg.SessionSecret == "" {
			logger.Warn("TP_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
		}
		store = cookieStore
	}
	sessions := auth.NewManager(store, cfg.SessionTTL, logger)

	// 6. Сервисы
	services := server.Services{
		Auth:         service.NewAuthService(apiClient, logger),
		Registration: service.NewRegistrationService(apiClient, logger),
		Applicants:   service.NewApplicantService(apiClient, logger),
	}

	// 7. topologymetrics — мониторинг зависимостей (API + PostgreSQL)
	if cfg.DephealthEnabled {
		dephealthCfg := service.DephealthConfig{
			ServiceID:     "tender-portal",
			Group:         cfg.DephealthGroup,
			APIURL:        cfg.APIURL,
			APIHealthPath: cfg.APIHealthPath,
			CheckInterval: cfg.DephealthCheckInterval,
		}
		if pgDB != nil {
			dephealthCfg.DB = pgDB
			dephealthCfg.DBURL = cfg.DatabaseURL()
		}

		dephealthSvc, dephealthErr := service.NewDephealthService(dephealthCfg, logger)
		if dephealthErr != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", dephealthErr.Error()),
			)
		} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			defer dephealthSvc.Stop()
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 8. HTTP-сервер
	srv, err := server.New(cfg, logger, sessions, services, apihandlers.NewHealthHandler(checkers...))
	if err != nil {
		logger.Error("Ошибка создания HTTP-сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Tender Portal остановлен")
}
