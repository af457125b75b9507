// Пакет server — HTTP-сервер Tender Portal с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на Ingress.
package server

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	apierrors "github.com/bigkaa/tender-portal/internal/api/errors"
	apihandlers "github.com/bigkaa/tender-portal/internal/api/handlers"
	"github.com/bigkaa/tender-portal/internal/api/middleware"
	"github.com/bigkaa/tender-portal/internal/config"
	"github.com/bigkaa/tender-portal/internal/domain/rbac"
	"github.com/bigkaa/tender-portal/internal/service"
	"github.com/bigkaa/tender-portal/internal/ui/auth"
	uihandlers "github.com/bigkaa/tender-portal/internal/ui/handlers"
	"github.com/bigkaa/tender-portal/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/tender-portal/internal/ui/middleware"
	"github.com/bigkaa/tender-portal/internal/ui/pages"
	"github.com/bigkaa/tender-portal/internal/ui/static"
)

// defaultCSRFMaxAge — срок CSRF-cookie gorilla/csrf по умолчанию (12 ч).
const defaultCSRFMaxAge = 12 * 60 * 60

// Services — сервисный слой, который обслуживают страницы портала.
type Services struct {
	Auth         *service.AuthService
	Registration *service.RegistrationService
	Applicants   *service.ApplicantService
}

// Server — HTTP-сервер Tender Portal.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, sessions *auth.Manager, svc Services, health *apihandlers.HealthHandler) (*Server, error) {
	router, err := NewRouter(cfg, logger, sessions, svc, health)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}, nil
}

// NewRouter собирает маршруты портала:
//   - /health/*, /metrics — без сессии и CSRF;
//   - /static/* — встроенные ресурсы;
//   - остальное — страницы UI (язык, сессия, CSRF), защищённые группы
//     кабинета (user) и администратора (admin).
func NewRouter(cfg *config.Config, logger *slog.Logger, sessions *auth.Manager, svc Services, health *apihandlers.HealthHandler) (http.Handler, error) {
	csrfKey, err := csrfKey(cfg.CSRFKey)
	if err != nil {
		return nil, err
	}

	authHandler := uihandlers.NewAuthHandler(svc.Auth, sessions, logger)
	registerHandler := uihandlers.NewRegisterHandler(svc.Registration, logger)
	adminHandler := uihandlers.NewAdminHandler(svc.Applicants, sessions, logger)
	cabinetHandler := uihandlers.NewCabinetHandler(svc.Applicants, sessions, logger)
	uiAuth := uimiddleware.NewUIAuth(sessions, logger)

	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Health и metrics проверяются Kubernetes и Prometheus напрямую.
	router.Get("/health/live", health.HealthLive)
	router.Get("/health/ready", health.HealthReady)
	router.Get("/metrics", health.GetMetrics)

	router.Handle(static.Prefix+"*", static.Handler())

	// Общие middleware страниц: язык и identity до CSRF, чтобы страница
	// ошибки CSRF была локализована и показывала оболочку.
	uiChain := []func(http.Handler) http.Handler{
		plaintextUnlessSecure(cfg.SessionSecure),
		i18n.Middleware(cfg.DefaultLang),
		uiAuth.Middleware(),
	}
	protect := csrf.Protect(csrfKey,
		csrf.Secure(cfg.SessionSecure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.MaxAge(csrfMaxAge(cfg.SessionTTL)),
		csrf.FieldName(pages.CSRFFieldName),
		csrf.ErrorHandler(uihandlers.CSRFFailure(logger)),
	)

	router.Group(func(r chi.Router) {
		r.Use(uiChain...)
		r.Use(protect)

		r.Get("/", authHandler.HandleRoot)
		r.Get("/login", authHandler.HandleLoginPage)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/register", registerHandler.HandleRegisterPage)
		r.Post("/register", registerHandler.HandleRegister)
		r.Get("/activate/{token}", authHandler.HandleActivatePage)
		r.Post("/activate/{token}", authHandler.HandleActivate)
		r.Post("/set-language", uihandlers.HandleSetLanguage)

		r.Group(func(r chi.Router) {
			r.Use(uiAuth.RequireRole(rbac.RoleUser))
			r.Get("/cabinet", cabinetHandler.HandleHome)
			r.Get("/cabinet/documents", cabinetHandler.HandleDocuments)
			r.Get("/cabinet/status", cabinetHandler.HandleStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(uiAuth.RequireRole(rbac.RoleAdmin))
			r.Get("/admin", adminHandler.HandleDashboard)
			r.Get("/admin/users", adminHandler.HandleUsers)
			r.Get("/admin/users/{id}", adminHandler.HandleUserDetail)
			r.Post("/admin/users/{id}/approve", adminHandler.HandleApprove)
			r.Post("/admin/users/{id}/decline", adminHandler.HandleDecline)
			r.Get("/admin/reports", adminHandler.HandleReports)
		})
	})

	notFound := uihandlers.NotFound(logger)
	router.NotFound(chain(notFound, uiChain...).ServeHTTP)
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierrors.MethodNotAllowed(w, fmt.Sprintf("метод %s не поддерживается для %s", r.Method, r.URL.Path))
	})

	return router, nil
}

// plaintextUnlessSecure помечает запросы как HTTP для gorilla/csrf,
// если портал работает без HTTPS (иначе POST отклоняется проверкой Referer).
func plaintextUnlessSecure(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secure {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

// chain оборачивает h в middleware (первый — внешний).
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// csrfKey — 32-байтовый ключ gorilla/csrf. Пустая строка — случайный
// ключ (формы, открытые до рестарта, станут недействительны).
func csrfKey(secret string) ([]byte, error) {
	if secret != "" {
		sum := sha256.Sum256([]byte(secret))
		return sum[:], nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("генерация CSRF-ключа: %w", err)
	}
	return key, nil
}

// csrfMaxAge — срок CSRF-cookie в секундах. Не короче сессии: иначе
// на долго открытой странице выход из сессии получит 403.
func csrfMaxAge(sessionTTL time.Duration) int {
	return max(int(sessionTTL.Seconds()), defaultCSRFMaxAge)
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
