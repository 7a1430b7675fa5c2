// lifecycle.go — жизненный цикл заявок: смена статуса, заметки, удаление.
// Удаление сначала вызывает best-effort очистку изображений, затем удаляет
// строку в БД. Сбой очистки не блокирует удаление.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bigkaa/interiorstudio/leads-module/internal/domain/model"
	"github.com/bigkaa/interiorstudio/leads-module/internal/repository"
)

// AssetCleaner — очистка внешних изображений заявок.
type AssetCleaner interface {
	DeleteAssets(ctx context.Context, publicIDs []string) model.CleanupResult
}

// LifecycleService — сервис переходов статуса и удаления заявок.
type LifecycleService struct {
	repo    repository.SubmissionRepository
	cleaner AssetCleaner
	logger  *slog.Logger
}

// NewLifecycleService создаёт сервис жизненного цикла заявок.
func NewLifecycleService(
	repo repository.SubmissionRepository,
	cleaner AssetCleaner,
	logger *slog.Logger,
) *LifecycleService {
	return &LifecycleService{
		repo:    repo,
		cleaner: cleaner,
		logger:  logger.With(slog.String("component", "lifecycle_service")),
	}
}

// SetStatus устанавливает статус заявки. Любой статус достижим из любого.
// Некорректный статус отклоняется до обращения к БД.
func (s *LifecycleService) SetStatus(ctx context.Context, id int64, status string) (*model.Submission, error) {
	st, err := model.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	sub, err := s.repo.UpdateStatus(ctx, id, st)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление статуса заявки %d: %w", id, err)
	}

	statusChangesTotal.WithLabelValues(string(st)).Inc()
	s.logger.Info("Статус заявки изменён",
		slog.Int64("id", id),
		slog.String("status", string(st)),
	)
	return sub, nil
}

// SetStatusMany устанавливает статус набору заявок.
// Несуществующие id пропускаются. Возвращает количество обновлённых заявок.
func (s *LifecycleService) SetStatusMany(ctx context.Context, ids []int64, status string) (int, error) {
	st, err := model.ParseStatus(status)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: список ids пуст", ErrInvalidInput)
	}

	n, err := s.repo.UpdateManyStatus(ctx, repository.SubmissionFilter{IDs: ids}, st)
	if err != nil {
		return 0, fmt.Errorf("массовое обновление статуса: %w", err)
	}

	statusChangesTotal.WithLabelValues(string(st)).Add(float64(n))
	s.logger.Info("Статус заявок изменён",
		slog.Int("requested", len(ids)),
		slog.Int("updated", n),
		slog.String("status", string(st)),
	)
	return n, nil
}

// UpdateNotes меняет заметки администратора. Пустая строка очищает заметки.
func (s *LifecycleService) UpdateNotes(ctx context.Context, id int64, notes *string) (*model.Submission, error) {
	if notes != nil && strings.TrimSpace(*notes) == "" {
		notes = nil
	}

	sub, err := s.repo.UpdateNotes(ctx, id, notes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление заметок заявки %d: %w", id, err)
	}
	return sub, nil
}

// DeleteOne удаляет заявку и её изображения.
// Для несуществующей заявки очистка не вызывается.
func (s *LifecycleService) DeleteOne(ctx context.Context, id int64) (*model.DeleteResult, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение заявки %d: %w", id, err)
	}

	result := &model.DeleteResult{ImageFailures: []model.CleanupFailure{}}
	if len(sub.ImagePublicIDs) > 0 {
		s.applyCleanup(result, s.cleaner.DeleteAssets(ctx, sub.ImagePublicIDs))
	}

	if _, err := s.repo.DeleteByID(ctx, id); err != nil {
		// Заявку могли удалить параллельно между чтением и удалением
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("удаление заявки %d: %w", id, err)
	}
	result.DeletedCount = 1
	submissionsDeletedTotal.Inc()

	s.logger.Info("Заявка удалена",
		slog.Int64("id", id),
		slog.Int("images_attempted", result.ImagesAttempted),
		slog.Int("images_deleted", result.ImagesDeleted),
	)
	return result, nil
}

// DeleteMany удаляет набор заявок.
// Все id разбираются до удаления: хотя бы один некорректный id отменяет
// операцию целиком. Несуществующие id пропускаются.
// Изображения всех найденных заявок удаляются одним вызовом очистки.
func (s *LifecycleService) DeleteMany(ctx context.Context, rawIDs []string) (*model.DeleteResult, error) {
	ids, err := ParseIDs(rawIDs)
	if err != nil {
		return nil, err
	}

	subs, err := s.repo.GetManyByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("получение заявок для удаления: %w", err)
	}

	result := &model.DeleteResult{ImageFailures: []model.CleanupFailure{}}
	if len(subs) == 0 {
		return result, nil
	}

	var publicIDs []string
	existing := make([]int64, 0, len(subs))
	for _, sub := range subs {
		publicIDs = append(publicIDs, sub.ImagePublicIDs...)
		existing = append(existing, sub.ID)
	}
	if len(publicIDs) > 0 {
		s.applyCleanup(result, s.cleaner.DeleteAssets(ctx, publicIDs))
	}

	deleted, err := s.repo.DeleteByIDs(ctx, existing)
	submissionsDeletedTotal.Add(float64(len(deleted)))
	if err != nil {
		s.logger.Error("Массовое удаление прервано ошибкой БД",
			slog.Int("deleted", len(deleted)),
			slog.Int("requested", len(existing)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("массовое удаление заявок: %w", err)
	}
	result.DeletedCount = len(deleted)

	s.logger.Info("Заявки удалены",
		slog.Int("requested", len(ids)),
		slog.Int("deleted", result.DeletedCount),
		slog.Int("images_attempted", result.ImagesAttempted),
		slog.Int("images_deleted", result.ImagesDeleted),
	)
	return result, nil
}

// applyCleanup переносит итог очистки в результат удаления.
func (s *LifecycleService) applyCleanup(result *model.DeleteResult, cr model.CleanupResult) {
	result.ImagesAttempted += cr.Attempted
	result.ImagesDeleted += cr.Deleted
	result.ImageFailures = append(result.ImageFailures, cr.Failures...)
}

// ParseIDs разбирает идентификаторы заявок.
// Возвращает ErrInvalidInput для пустого списка и *InvalidIDsError со всеми
// неразобранными значениями.
func ParseIDs(raw []string) ([]int64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: список ids пуст", ErrInvalidInput)
	}

	ids := make([]int64, 0, len(raw))
	var invalid []string
	for _, r := range raw {
		id, err := ParseID(r)
		if err != nil {
			invalid = append(invalid, r)
			continue
		}
		ids = append(ids, id)
	}
	if len(invalid) > 0 {
		return nil, &InvalidIDsError{IDs: invalid}
	}
	return ids, nil
}

// ParseID разбирает один идентификатор заявки (положительное целое).
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: некорректный id %q", ErrInvalidInput, raw)
	}
	return id, nil
}
