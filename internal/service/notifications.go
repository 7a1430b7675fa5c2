// notifications.go — лента уведомлений администратора.
// "Прочитано" не хранится отдельно: заявка прочитана, если её статус не new.
// Отметка о прочтении переводит заявку из new в in-progress.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/interiorstudio/leads-module/internal/domain/model"
	"github.com/bigkaa/interiorstudio/leads-module/internal/repository"
)

// MaxNotificationsLimit — верхняя граница размера ленты.
const MaxNotificationsLimit = 50

// NotificationService — сервис ленты уведомлений.
type NotificationService struct {
	repo         repository.SubmissionRepository
	defaultLimit int
	logger       *slog.Logger
}

// NewNotificationService создаёт сервис ленты уведомлений.
// defaultLimit применяется, когда клиент не задал limit.
func NewNotificationService(
	repo repository.SubmissionRepository,
	defaultLimit int,
	logger *slog.Logger,
) *NotificationService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &NotificationService{
		repo:         repo,
		defaultLimit: defaultLimit,
		logger:       logger.With(slog.String("component", "notification_service")),
	}
}

// ListRecent возвращает последние заявки как уведомления и число непрочитанных среди них.
func (s *NotificationService) ListRecent(ctx context.Context, limit int) (*model.NotificationFeed, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > MaxNotificationsLimit {
		limit = MaxNotificationsLimit
	}

	subs, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("получение ленты уведомлений: %w", err)
	}
	return model.NewNotificationFeed(subs), nil
}

// MarkOneRead переводит заявку из new в in-progress.
// Для заявки в другом статусе — успех без изменений.
func (s *NotificationService) MarkOneRead(ctx context.Context, id int64) error {
	from := model.StatusNew
	n, err := s.repo.UpdateManyStatus(ctx,
		repository.SubmissionFilter{IDs: []int64{id}, FromStatus: &from},
		model.StatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("отметка уведомления %d: %w", id, err)
	}
	if n > 0 {
		statusChangesTotal.WithLabelValues(string(model.StatusInProgress)).Inc()
		return nil
	}

	// Ничего не обновлено: либо заявки нет, либо она уже прочитана
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("получение заявки %d: %w", id, err)
	}
	return nil
}

// MarkAllRead переводит все заявки new в in-progress одной операцией.
// Возвращает количество изменённых заявок, ноль — тоже успех.
func (s *NotificationService) MarkAllRead(ctx context.Context) (int, error) {
	from := model.StatusNew
	n, err := s.repo.UpdateManyStatus(ctx,
		repository.SubmissionFilter{FromStatus: &from},
		model.StatusInProgress,
	)
	if err != nil {
		return 0, fmt.Errorf("отметка всех уведомлений: %w", err)
	}

	statusChangesTotal.WithLabelValues(string(model.StatusInProgress)).Add(float64(n))
	s.logger.Info("Все уведомления отмечены прочитанными", slog.Int("count", n))
	return n, nil
}
