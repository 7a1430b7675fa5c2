// submissions.go — приём заявок с публичной формы и чтение заявок администратором.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/interiorstudio/leads-module/internal/domain/model"
	"github.com/bigkaa/interiorstudio/leads-module/internal/repository"
)

// SubmissionService — сервис заявок.
type SubmissionService struct {
	repo   repository.SubmissionRepository
	logger *slog.Logger
}

// NewSubmissionService создаёт сервис заявок.
func NewSubmissionService(repo repository.SubmissionRepository, logger *slog.Logger) *SubmissionService {
	return &SubmissionService{
		repo:   repo,
		logger: logger.With(slog.String("component", "submission_service")),
	}
}

// Create принимает новую заявку. Статус всегда new, заметки при приёме игнорируются.
func (s *SubmissionService) Create(ctx context.Context, sub *model.Submission) (*model.Submission, error) {
	sub.Notes = nil
	if err := sub.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("создание заявки: %w", err)
	}

	s.logger.Info("Новая заявка",
		slog.Int64("id", sub.ID),
		slog.String("service", sub.Service),
		slog.Int("images", len(sub.Images)),
	)
	return sub, nil
}

// Get возвращает заявку по ID.
func (s *SubmissionService) Get(ctx context.Context, id int64) (*model.Submission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение заявки %d: %w", id, err)
	}
	return sub, nil
}

// List возвращает заявки, новые первыми. Пустой status — все статусы.
func (s *SubmissionService) List(ctx context.Context, status string) ([]*model.Submission, error) {
	var filter *model.Status
	if status != "" {
		st, err := model.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		filter = &st
	}

	subs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("получение списка заявок: %w", err)
	}
	return subs, nil
}

// Stats возвращает количество заявок в каждом статусе.
func (s *SubmissionService) Stats(ctx context.Context) (map[model.Status]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт заявок: %w", err)
	}
	return counts, nil
}
