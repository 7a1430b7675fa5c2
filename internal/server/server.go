// Пакет server — HTTP-сервер Leads Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/interiorstudio/leads-module/internal/api/handlers"
	"github.com/bigkaa/interiorstudio/leads-module/internal/api/middleware"
	"github.com/bigkaa/interiorstudio/leads-module/internal/config"
	"github.com/bigkaa/interiorstudio/leads-module/internal/domain/rbac"
)

// Server — HTTP-сервер Leads Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// jwtAuth — JWT middleware (может быть nil для тестирования без auth).
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, handler, jwtAuth),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты API.
// Без jwtAuth проверка ролей отключается целиком.
func NewRouter(logger *slog.Logger, h *handlers.APIHandler, jwtAuth *middleware.JWTAuth) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.RequestID())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// JWT middleware с исключениями для публичных endpoints.
	// Health и metrics проверяются Kubernetes напрямую, форма сайта работает без входа.
	if jwtAuth != nil {
		router.Use(jwtAuthWithExclusions(jwtAuth, "/health/", "/metrics", "/api/v1/public/"))
	}

	viewers := requireAccess(jwtAuth, rbac.CanView, rbac.RoleAdmin+" или "+rbac.RoleReadonly)
	admins := requireAccess(jwtAuth, rbac.CanManage, rbac.RoleAdmin)

	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)

	router.Post("/api/v1/public/submissions", h.CreateSubmission)

	router.Route("/api/v1/submissions", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(viewers)
			r.Get("/", h.ListSubmissions)
			r.Get("/stats", h.GetSubmissionStats)
			r.Get("/{id}", h.GetSubmission)
		})
		r.Group(func(r chi.Router) {
			r.Use(admins)
			r.Delete("/", h.DeleteSubmissions)
			r.Patch("/bulk-status", h.UpdateSubmissionsStatus)
			r.Patch("/{id}/status", h.UpdateSubmissionStatus)
			r.Patch("/{id}/notes", h.UpdateSubmissionNotes)
			r.Delete("/{id}", h.DeleteSubmission)
		})
	})

	router.Route("/api/v1/notifications", func(r chi.Router) {
		r.Use(admins)
		r.Get("/", h.ListNotifications)
		r.Patch("/read-all", h.MarkAllNotificationsRead)
		r.Patch("/{id}/read", h.MarkNotificationRead)
	})

	return router
}

// requireAccess возвращает RequireAccess или пропускающий middleware, если auth отключён.
func requireAccess(jwtAuth *middleware.JWTAuth, allow func(role string) bool, required string) func(http.Handler) http.Handler {
	if jwtAuth == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RequireAccess(allow, required)
}

// jwtAuthWithExclusions оборачивает JWTAuth.Middleware(), пропуская указанные пути.
// Запросы к путям, начинающимся с любого из excludePrefixes, проходят без JWT.
func jwtAuthWithExclusions(jwtAuth *middleware.JWTAuth, excludePrefixes ...string) func(http.Handler) http.Handler {
	jwtMiddleware := jwtAuth.Middleware()

	return func(next http.Handler) http.Handler {
		protected := jwtMiddleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range excludePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}
			protected.ServeHTTP(w, r)
		})
	}
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
	defer signal.Stop(quit)

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
