// submissions.go — обработчики заявок: публичный приём, просмотр,
// смена статуса, заметки и удаление (одиночное и массовое).
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/interiorstudio/leads-module/internal/api/errors"
	"github.com/bigkaa/interiorstudio/leads-module/internal/api/middleware"
	"github.com/bigkaa/interiorstudio/leads-module/internal/service"
)

// CreateSubmission — POST /api/v1/public/submissions.
// Авторизация не требуется: endpoint вызывается формой сайта.
func (h *APIHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req createSubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return
	}

	sub, err := h.submissions.Create(r.Context(), req.toModel())
	if err != nil {
		h.writeServiceError(w, err, "Ошибка создания заявки")
		return
	}

	writeJSON(w, http.StatusCreated, toSubmissionResponse(sub))
}

// ListSubmissions — GET /api/v1/submissions?status=.
// Без параметра status возвращает заявки всех статусов.
func (h *APIHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissions.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения списка заявок")
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionList(subs))
}

// GetSubmissionStats — GET /api/v1/submissions/stats.
func (h *APIHandler) GetSubmissionStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.submissions.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Ошибка подсчёта заявок")
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(counts))
}

// GetSubmission — GET /api/v1/submissions/{id}.
func (h *APIHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	sub, err := h.submissions.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения заявки")
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(sub))
}

// UpdateSubmissionStatus — PATCH /api/v1/submissions/{id}/status.
func (h *APIHandler) UpdateSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return
	}

	sub, err := h.lifecycle.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка смены статуса заявки")
		return
	}
	h.logger.Info("Статус заявки изменён",
		slog.Int64("id", id),
		slog.String("status", string(sub.Status)),
		slog.String("subject", middleware.SubjectFromContext(r.Context())),
	)
	writeJSON(w, http.StatusOK, toSubmissionResponse(sub))
}

// UpdateSubmissionNotes — PATCH /api/v1/submissions/{id}/notes.
func (h *APIHandler) UpdateSubmissionNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req notesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return
	}

	sub, err := h.lifecycle.UpdateNotes(r.Context(), id, req.Notes)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка обновления заметок")
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(sub))
}

// UpdateSubmissionsStatus — PATCH /api/v1/submissions/bulk-status.
// Несуществующие id пропускаются, в ответе количество обновлённых заявок.
func (h *APIHandler) UpdateSubmissionsStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return
	}

	ids, err := service.ParseIDs(req.IDs)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка разбора идентификаторов")
		return
	}

	n, err := h.lifecycle.SetStatusMany(r.Context(), ids, req.Status)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка массовой смены статуса")
		return
	}
	h.logger.Info("Статус заявок изменён",
		slog.Int("updated", n),
		slog.String("status", req.Status),
		slog.String("subject", middleware.SubjectFromContext(r.Context())),
	)
	writeJSON(w, http.StatusOK, bulkStatusResponse{UpdatedCount: n})
}

// DeleteSubmission — DELETE /api/v1/submissions/{id}.
// Ошибки удаления изображений не мешают удалению заявки и возвращаются в imageFailures.
func (h *APIHandler) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	res, err := h.lifecycle.DeleteOne(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка удаления заявки")
		return
	}
	subject := middleware.SubjectFromContext(r.Context())
	if len(res.ImageFailures) > 0 {
		h.logger.Warn("Заявка удалена, часть изображений не удалена",
			slog.Int64("id", id),
			slog.Int("image_failures", len(res.ImageFailures)),
			slog.String("subject", subject),
		)
	} else {
		h.logger.Info("Заявка удалена",
			slog.Int64("id", id),
			slog.String("subject", subject),
		)
	}

	writeJSON(w, http.StatusOK, toDeleteResponse(res, "Заявка удалена"))
}

// DeleteSubmissions — DELETE /api/v1/submissions с телом {"ids": [...]}.
func (h *APIHandler) DeleteSubmissions(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return
	}

	res, err := h.lifecycle.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка массового удаления заявок")
		return
	}
	h.logger.Info("Заявки удалены",
		slog.Int("deleted", res.DeletedCount),
		slog.Int("image_failures", len(res.ImageFailures)),
		slog.String("subject", middleware.SubjectFromContext(r.Context())),
	)

	writeJSON(w, http.StatusOK, toDeleteResponse(res, fmt.Sprintf("Удалено заявок: %d", res.DeletedCount)))
}
