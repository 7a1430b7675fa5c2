// handler.go — основной обработчик API Leads Module.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/interiorstudio/leads-module/internal/api/errors"
	"github.com/bigkaa/interiorstudio/leads-module/internal/domain/model"
	"github.com/bigkaa/interiorstudio/leads-module/internal/service"
)

// SubmissionReader — приём и чтение заявок (service.SubmissionService).
type SubmissionReader interface {
	Create(ctx context.Context, sub *model.Submission) (*model.Submission, error)
	Get(ctx context.Context, id int64) (*model.Submission, error)
	List(ctx context.Context, status string) ([]*model.Submission, error)
	Stats(ctx context.Context) (map[model.Status]int, error)
}

// SubmissionLifecycle — изменение и удаление заявок (service.LifecycleService).
type SubmissionLifecycle interface {
	SetStatus(ctx context.Context, id int64, status string) (*model.Submission, error)
	SetStatusMany(ctx context.Context, ids []int64, status string) (int, error)
	UpdateNotes(ctx context.Context, id int64, notes *string) (*model.Submission, error)
	DeleteOne(ctx context.Context, id int64) (*model.DeleteResult, error)
	DeleteMany(ctx context.Context, rawIDs []string) (*model.DeleteResult, error)
}

// NotificationFeed — лента уведомлений (service.NotificationService).
type NotificationFeed interface {
	ListRecent(ctx context.Context, limit int) (*model.NotificationFeed, error)
	MarkOneRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int, error)
}

// APIHandler — основной обработчик API Leads Module.
type APIHandler struct {
	health        *HealthHandler
	submissions   SubmissionReader
	lifecycle     SubmissionLifecycle
	notifications NotificationFeed
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	submissions SubmissionReader,
	lifecycle SubmissionLifecycle,
	notifications NotificationFeed,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:        health,
		submissions:   submissions,
		lifecycle:     lifecycle,
		notifications: notifications,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// messageResponse — ответ с текстовым сообщением.
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst. Неизвестные поля не допускаются.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// maxBodyBytes — ограничение размера тела запроса.
const maxBodyBytes = 1 << 20

// idParam разбирает {id} из пути. При ошибке пишет 400 и возвращает false.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := service.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор заявки")
		return 0, false
	}
	return id, true
}

// writeServiceError преобразует ошибку сервисного слоя в HTTP-ответ.
// Ошибки хранилища логируются и скрываются за 500.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error, action string) {
	var invalidIDs *service.InvalidIDsError
	switch {
	case errors.As(err, &invalidIDs):
		apierrors.InvalidIDs(w, "Некорректные идентификаторы заявок", invalidIDs.IDs)
	case errors.Is(err, service.ErrInvalidStatus):
		apierrors.InvalidStatus(w, service.ErrInvalidStatus.Error())
	case errors.Is(err, service.ErrInvalidInput):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Заявка не найдена")
	default:
		h.logger.Error(action,
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
