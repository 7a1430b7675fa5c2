package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bigkaa/interiorstudio/leads-module/internal/domain/model"
	"github.com/bigkaa/interiorstudio/leads-module/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memRepo — in-memory реализация SubmissionRepository для unit-тестов.
// Поля *Fn позволяют подменить отдельные операции (например, для ошибок БД).
type memRepo struct {
	mu    sync.Mutex
	rows  map[int64]*model.Submission
	next  int64
	clock time.Time

	// счётчики вызовов
	updateStatusCalls int

	deleteByIDFn       func(ctx context.Context, id int64) (*model.Submission, error)
	updateManyStatusFn func(ctx context.Context, f repository.SubmissionFilter, st model.Status) (int, error)
	listRecentFn       func(ctx context.Context, limit int) ([]*model.Submission, error)
}

func newMemRepo() *memRepo {
	return &memRepo{
		rows:  make(map[int64]*model.Submission),
		clock: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

// tick возвращает строго возрастающее время.
func (m *memRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

func clone(s *model.Submission) *model.Submission {
	c := *s
	c.Images = append([]string{}, s.Images...)
	c.ImagePublicIDs = append([]string{}, s.ImagePublicIDs...)
	return &c
}

func (m *memRepo) sorted() []*model.Submission {
	out := make([]*model.Submission, 0, len(m.rows))
	for _, s := range m.rows {
		out = append(out, clone(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// seed добавляет заявку с заданным статусом и public id.
func (m *memRepo) seed(name string, status model.Status, publicIDs ...string) *model.Submission {
	s := &model.Submission{
		Name:           name,
		Address:        "адрес",
		Service:        "design",
		ImagePublicIDs: publicIDs,
	}
	for i := range publicIDs {
		s.Images = append(s.Images, publicIDs[i]+".jpg")
	}
	_ = m.Create(context.Background(), s)
	if status != model.StatusNew {
		m.mu.Lock()
		m.rows[s.ID].Status = status
		s.Status = status
		m.mu.Unlock()
	}
	return s
}

func (m *memRepo) Create(_ context.Context, s *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	now := m.tick()
	s.ID = m.next
	s.Status = model.StatusNew
	s.CreatedAt, s.UpdatedAt = now, now
	m.rows[s.ID] = clone(s)
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(s), nil
}

func (m *memRepo) List(_ context.Context, status *model.Status) ([]*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Submission, 0)
	for _, s := range m.sorted() {
		if status == nil || s.Status == *status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) ListRecent(ctx context.Context, limit int) ([]*model.Submission, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted()
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memRepo) GetManyByIDs(_ context.Context, ids []int64) ([]*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]*model.Submission, 0)
	for _, s := range m.sorted() {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id int64, status model.Status) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateStatusCalls++
	s, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = m.tick()
	return clone(s), nil
}

func (m *memRepo) UpdateManyStatus(ctx context.Context, f repository.SubmissionFilter, status model.Status) (int, error) {
	if m.updateManyStatusFn != nil {
		return m.updateManyStatusFn(ctx, f, status)
	}
	if f.IDs == nil && f.FromStatus == nil {
		return 0, repository.ErrEmptyFilter
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids map[int64]bool
	if f.IDs != nil {
		ids = make(map[int64]bool, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = true
		}
	}
	n := 0
	for id, s := range m.rows {
		if ids != nil && !ids[id] {
			continue
		}
		if f.FromStatus != nil && s.Status != *f.FromStatus {
			continue
		}
		s.Status = status
		s.UpdatedAt = m.tick()
		n++
	}
	return n, nil
}

func (m *memRepo) UpdateNotes(_ context.Context, id int64, notes *string) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.Notes = notes
	s.UpdatedAt = m.tick()
	return clone(s), nil
}

func (m *memRepo) DeleteByID(ctx context.Context, id int64) (*model.Submission, error) {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.rows, id)
	return s, nil
}

func (m *memRepo) DeleteByIDs(ctx context.Context, ids []int64) ([]*model.Submission, error) {
	deleted := make([]*model.Submission, 0, len(ids))
	for _, id := range ids {
		s, err := m.DeleteByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return deleted, err
		}
		deleted = append(deleted, s)
	}
	return deleted, nil
}

func (m *memRepo) CountByStatus(_ context.Context) (map[model.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[model.Status]int{}
	for _, st := range model.Statuses() {
		counts[st] = 0
	}
	for _, s := range m.rows {
		counts[s.Status]++
	}
	return counts, nil
}

// fakeCleaner — AssetCleaner, запоминающий вызовы.
type fakeCleaner struct {
	mu    sync.Mutex
	calls [][]string
	fail  map[string]model.CleanupFailureKind
}

func (f *fakeCleaner) DeleteAssets(_ context.Context, ids []string) model.CleanupResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{}, ids...))
	res := model.CleanupResult{Attempted: len(ids), Failures: []model.CleanupFailure{}}
	for _, id := range ids {
		if kind, ok := f.fail[id]; ok {
			res.Failures = append(res.Failures, model.CleanupFailure{PublicID: id, Kind: kind})
			continue
		}
		res.Deleted++
	}
	return res
}

// fakeDestroyer — imagestore.Destroyer с настраиваемым поведением.
type fakeDestroyer struct {
	mu        sync.Mutex
	calls     []string
	inFlight  int
	maxFlight int
	destroyFn func(ctx context.Context, publicID string) error
}

func (f *fakeDestroyer) Destroy(ctx context.Context, publicID string) error {
	f.mu.Lock()
	f.calls = append(f.calls, publicID)
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.destroyFn != nil {
		return f.destroyFn(ctx, publicID)
	}
	return nil
}
