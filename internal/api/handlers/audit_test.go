package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bigkaa/interiorstudio/leads-module/internal/api/middleware"
	"github.com/bigkaa/interiorstudio/leads-module/internal/domain/model"
	"github.com/bigkaa/interiorstudio/leads-module/internal/service"
)

// auditRecords разбирает JSON-записи slog из буфера.
func auditRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("запись лога не JSON: %v (%q)", err, line)
		}
		records = append(records, rec)
	}
	return records
}

func TestMutationHandlers_LogSubject(t *testing.T) {
	lc := &mockLifecycle{
		setStatusFn: func(_ context.Context, id int64, status string) (*model.Submission, error) {
			return sampleSubmission(id, model.Status(status)), nil
		},
		setStatusManyFn: func(_ context.Context, ids []int64, _ string) (int, error) {
			return len(ids), nil
		},
		deleteOneFn: func(_ context.Context, _ int64) (*model.DeleteResult, error) {
			return &model.DeleteResult{DeletedCount: 1, ImageFailures: []model.CleanupFailure{}}, nil
		},
		deleteManyFn: func(_ context.Context, rawIDs []string) (*model.DeleteResult, error) {
			return &model.DeleteResult{DeletedCount: len(rawIDs), ImageFailures: []model.CleanupFailure{}}, nil
		},
	}
	feed := &mockFeed{
		markAllReadFn: func(_ context.Context) (int, error) { return 3, nil },
	}

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		message string
	}{
		{"смена статуса", http.MethodPatch, "/api/v1/submissions/5/status", `{"status":"completed"}`, "Статус заявки изменён"},
		{"массовая смена статуса", http.MethodPatch, "/api/v1/submissions/bulk-status", `{"ids":[1,2],"status":"completed"}`, "Статус заявок изменён"},
		{"удаление заявки", http.MethodDelete, "/api/v1/submissions/5", "", "Заявка удалена"},
		{"массовое удаление", http.MethodDelete, "/api/v1/submissions", `{"ids":["1","2"]}`, "Заявки удалены"},
		{"прочтение всех уведомлений", http.MethodPatch, "/api/v1/notifications/read-all", "", "Все уведомления отмечены как прочитанные"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			health := NewHealthHandler(mockChecker{status: "ok"}, mockChecker{status: "ok"}, mockChecker{status: "ok"})
			router := newTestRouter(NewAPIHandler(health, &mockSubmissions{}, lc, feed, logger))

			var req *http.Request
			if tt.body == "" {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			} else {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			}
			claims := &middleware.AuthClaims{Subject: "admin-1", Role: "admin"}
			req = req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyClaims, claims))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("статус = %d, ожидался 200 (тело %s)", rec.Code, rec.Body.String())
			}

			found := false
			for _, r := range auditRecords(t, &buf) {
				if r["msg"] != tt.message {
					continue
				}
				found = true
				if r["subject"] != "admin-1" {
					t.Errorf("subject = %v, ожидался admin-1", r["subject"])
				}
			}
			if !found {
				t.Errorf("запись %q не найдена в логе: %s", tt.message, buf.String())
			}
		})
	}
}

func TestMutationHandlers_NoAuditOnFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	lc := &mockLifecycle{
		deleteOneFn: func(_ context.Context, _ int64) (*model.DeleteResult, error) {
			return nil, service.ErrNotFound
		},
	}
	health := NewHealthHandler(mockChecker{status: "ok"}, mockChecker{status: "ok"}, mockChecker{status: "ok"})
	router := newTestRouter(NewAPIHandler(health, &mockSubmissions{}, lc, &mockFeed{}, logger))

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/submissions/9", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("статус = %d, ожидался 404", rec.Code)
	}
	for _, r := range auditRecords(t, &buf) {
		if r["msg"] == "Заявка удалена" {
			t.Errorf("неуспешное удаление не должно попадать в аудит: %v", r)
		}
	}
}
