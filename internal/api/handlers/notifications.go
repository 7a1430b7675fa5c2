// notifications.go — обработчики ленты уведомлений администратора.
// Прочтение уведомления переводит заявку из new в in-progress.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/bigkaa/interiorstudio/leads-module/internal/api/errors"
	"github.com/bigkaa/interiorstudio/leads-module/internal/api/middleware"
)

// ListNotifications — GET /api/v1/notifications?limit=.
func (h *APIHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			apierrors.ValidationError(w, "limit должен быть положительным целым числом")
			return
		}
		limit = n
	}

	feed, err := h.notifications.ListRecent(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения уведомлений")
		return
	}
	writeJSON(w, http.StatusOK, toNotificationFeedResponse(feed))
}

// MarkNotificationRead — PATCH /api/v1/notifications/{id}/read.
// Для уже прочитанной заявки ничего не меняет и возвращает 200.
func (h *APIHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.notifications.MarkOneRead(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "Ошибка отметки уведомления")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Уведомление отмечено как прочитанное"})
}

// MarkAllNotificationsRead — PATCH /api/v1/notifications/read-all.
func (h *APIHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkAllRead(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Ошибка отметки всех уведомлений")
		return
	}
	h.logger.Info("Все уведомления отмечены как прочитанные",
		slog.Int("count", n),
		slog.String("subject", middleware.SubjectFromContext(r.Context())),
	)
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}
