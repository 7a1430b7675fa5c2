// dto.go — JSON-представления заявок, уведомлений и результатов удаления.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/bigkaa/interiorstudio/leads-module/internal/domain/model"
)

// submissionResponse — заявка в ответах API.
type submissionResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Service        string    `json:"service"`
	Area           *string   `json:"area"`
	Budget         *string   `json:"budget"`
	Details        *string   `json:"details"`
	Images         []string  `json:"images"`
	ImagePublicIDs []string  `json:"imagePublicIds"`
	Status         string    `json:"status"`
	Notes          *string   `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toSubmissionResponse(s *model.Submission) submissionResponse {
	images := s.Images
	if images == nil {
		images = []string{}
	}
	publicIDs := s.ImagePublicIDs
	if publicIDs == nil {
		publicIDs = []string{}
	}
	return submissionResponse{
		ID:             s.ID,
		Name:           s.Name,
		Address:        s.Address,
		Service:        s.Service,
		Area:           s.Area,
		Budget:         s.Budget,
		Details:        s.Details,
		Images:         images,
		ImagePublicIDs: publicIDs,
		Status:         string(s.Status),
		Notes:          s.Notes,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func toSubmissionList(subs []*model.Submission) []submissionResponse {
	items := make([]submissionResponse, 0, len(subs))
	for _, s := range subs {
		items = append(items, toSubmissionResponse(s))
	}
	return items
}

// createSubmissionRequest — тело публичной формы обратной связи.
type createSubmissionRequest struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Service        string   `json:"service"`
	Area           *string  `json:"area"`
	Budget         *string  `json:"budget"`
	Details        *string  `json:"details"`
	Images         []string `json:"images"`
	ImagePublicIDs []string `json:"imagePublicIds"`
}

func (req createSubmissionRequest) toModel() *model.Submission {
	return &model.Submission{
		Name:           req.Name,
		Address:        req.Address,
		Service:        req.Service,
		Area:           req.Area,
		Budget:         req.Budget,
		Details:        req.Details,
		Images:         req.Images,
		ImagePublicIDs: req.ImagePublicIDs,
	}
}

// statusRequest — тело PATCH /submissions/{id}/status.
type statusRequest struct {
	Status string `json:"status"`
}

// notesRequest — тело PATCH /submissions/{id}/notes. null очищает заметки.
type notesRequest struct {
	Notes *string `json:"notes"`
}

// idList — список идентификаторов заявок из тела запроса.
// Принимает как числа, так и строки: [1, "2"]. Разбор значений выполняет сервис.
type idList []string

func (l *idList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("ids должен быть массивом")
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			out = append(out, s)
			continue
		}
		// Числа и прочие литералы передаются как есть: "1.5", "null", "true"
		// будут отвергнуты при разборе id
		out = append(out, string(item))
	}
	*l = out
	return nil
}

// idsRequest — тело DELETE /submissions.
type idsRequest struct {
	IDs idList `json:"ids"`
}

// bulkStatusRequest — тело PATCH /submissions/bulk-status.
type bulkStatusRequest struct {
	IDs    idList `json:"ids"`
	Status string `json:"status"`
}

// bulkStatusResponse — результат массовой смены статуса.
type bulkStatusResponse struct {
	UpdatedCount int `json:"updatedCount"`
}

// imageFailureResponse — неудачное удаление одного изображения.
type imageFailureResponse struct {
	PublicID string `json:"publicId"`
	Kind     string `json:"kind"`
}

// deleteResponse — результат удаления заявок.
type deleteResponse struct {
	Message         string                 `json:"message,omitempty"`
	DeletedCount    int                    `json:"deletedCount"`
	ImagesAttempted int                    `json:"imagesAttempted"`
	ImagesDeleted   int                    `json:"imagesDeleted"`
	ImageFailures   []imageFailureResponse `json:"imageFailures"`
}

func toDeleteResponse(res *model.DeleteResult, message string) deleteResponse {
	failures := make([]imageFailureResponse, 0, len(res.ImageFailures))
	for _, f := range res.ImageFailures {
		failures = append(failures, imageFailureResponse{PublicID: f.PublicID, Kind: string(f.Kind)})
	}
	return deleteResponse{
		Message:         message,
		DeletedCount:    res.DeletedCount,
		ImagesAttempted: res.ImagesAttempted,
		ImagesDeleted:   res.ImagesDeleted,
		ImageFailures:   failures,
	}
}

// statsResponse — количество заявок по статусам.
type statsResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

func toStatsResponse(counts map[model.Status]int) statsResponse {
	resp := statsResponse{ByStatus: make(map[string]int, len(model.Statuses()))}
	for _, st := range model.Statuses() {
		resp.ByStatus[string(st)] = counts[st]
		resp.Total += counts[st]
	}
	return resp
}

// notificationResponse — элемент ленты уведомлений.
type notificationResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Service   string    `json:"service"`
	CreatedAt time.Time `json:"createdAt"`
	IsRead    bool      `json:"isRead"`
}

// notificationFeedResponse — ответ GET /notifications.
type notificationFeedResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}

func toNotificationFeedResponse(feed *model.NotificationFeed) notificationFeedResponse {
	items := make([]notificationResponse, 0, len(feed.Notifications))
	for _, n := range feed.Notifications {
		items = append(items, notificationResponse{
			ID:        n.ID,
			Name:      n.Name,
			Service:   n.Service,
			CreatedAt: n.CreatedAt,
			IsRead:    n.IsRead,
		})
	}
	return notificationFeedResponse{Notifications: items, UnreadCount: feed.UnreadCount}
}

// countResponse — ответ PATCH /notifications/read-all.
type countResponse struct {
	Count int `json:"count"`
}
