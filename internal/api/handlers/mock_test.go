package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/interiorstudio/leads-module/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockSubmissions — мок SubmissionReader.
type mockSubmissions struct {
	createFn func(ctx context.Context, sub *model.Submission) (*model.Submission, error)
	getFn    func(ctx context.Context, id int64) (*model.Submission, error)
	listFn   func(ctx context.Context, status string) ([]*model.Submission, error)
	statsFn  func(ctx context.Context) (map[model.Status]int, error)
}

func (m *mockSubmissions) Create(ctx context.Context, sub *model.Submission) (*model.Submission, error) {
	return m.createFn(ctx, sub)
}

func (m *mockSubmissions) Get(ctx context.Context, id int64) (*model.Submission, error) {
	return m.getFn(ctx, id)
}

func (m *mockSubmissions) List(ctx context.Context, status string) ([]*model.Submission, error) {
	return m.listFn(ctx, status)
}

func (m *mockSubmissions) Stats(ctx context.Context) (map[model.Status]int, error) {
	return m.statsFn(ctx)
}

// mockLifecycle — мок SubmissionLifecycle.
type mockLifecycle struct {
	setStatusFn     func(ctx context.Context, id int64, status string) (*model.Submission, error)
	setStatusManyFn func(ctx context.Context, ids []int64, status string) (int, error)
	updateNotesFn   func(ctx context.Context, id int64, notes *string) (*model.Submission, error)
	deleteOneFn     func(ctx context.Context, id int64) (*model.DeleteResult, error)
	deleteManyFn    func(ctx context.Context, rawIDs []string) (*model.DeleteResult, error)
}

func (m *mockLifecycle) SetStatus(ctx context.Context, id int64, status string) (*model.Submission, error) {
	return m.setStatusFn(ctx, id, status)
}

func (m *mockLifecycle) SetStatusMany(ctx context.Context, ids []int64, status string) (int, error) {
	return m.setStatusManyFn(ctx, ids, status)
}

func (m *mockLifecycle) UpdateNotes(ctx context.Context, id int64, notes *string) (*model.Submission, error) {
	return m.updateNotesFn(ctx, id, notes)
}

func (m *mockLifecycle) DeleteOne(ctx context.Context, id int64) (*model.DeleteResult, error) {
	return m.deleteOneFn(ctx, id)
}

func (m *mockLifecycle) DeleteMany(ctx context.Context, rawIDs []string) (*model.DeleteResult, error) {
	return m.deleteManyFn(ctx, rawIDs)
}

// mockFeed — мок NotificationFeed.
type mockFeed struct {
	listRecentFn  func(ctx context.Context, limit int) (*model.NotificationFeed, error)
	markOneReadFn func(ctx context.Context, id int64) error
	markAllReadFn func(ctx context.Context) (int, error)
}

func (m *mockFeed) ListRecent(ctx context.Context, limit int) (*model.NotificationFeed, error) {
	return m.listRecentFn(ctx, limit)
}

func (m *mockFeed) MarkOneRead(ctx context.Context, id int64) error {
	return m.markOneReadFn(ctx, id)
}

func (m *mockFeed) MarkAllRead(ctx context.Context) (int, error) {
	return m.markAllReadFn(ctx)
}

// mockChecker — мок ReadinessChecker.
type mockChecker struct {
	status, message string
}

func (m mockChecker) CheckReady() (string, string) {
	return m.status, m.message
}

// newTestRouter собирает маршруты без аутентификации, как в server.New.
func newTestRouter(h *APIHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)
	r.Post("/api/v1/public/submissions", h.CreateSubmission)
	r.Route("/api/v1/submissions", func(r chi.Router) {
		r.Get("/", h.ListSubmissions)
		r.Delete("/", h.DeleteSubmissions)
		r.Get("/stats", h.GetSubmissionStats)
		r.Patch("/bulk-status", h.UpdateSubmissionsStatus)
		r.Get("/{id}", h.GetSubmission)
		r.Delete("/{id}", h.DeleteSubmission)
		r.Patch("/{id}/status", h.UpdateSubmissionStatus)
		r.Patch("/{id}/notes", h.UpdateSubmissionNotes)
	})
	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Get("/", h.ListNotifications)
		r.Patch("/read-all", h.MarkAllNotificationsRead)
		r.Patch("/{id}/read", h.MarkNotificationRead)
	})
	return r
}
