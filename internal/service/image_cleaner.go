// image_cleaner.go — best-effort удаление изображений заявок во внешнем хранилище.
// Каждый public id удаляется независимо, параллельно (с ограничением
// concurrency) и с таймаутом на вызов. Ошибки фиксируются в результате,
// но никогда не возвращаются вызывающему.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bigkaa/interiorstudio/leads-module/internal/domain/model"
	"github.com/bigkaa/interiorstudio/leads-module/internal/imagestore"
)

// ImageCleaner — сервис очистки изображений.
type ImageCleaner struct {
	destroyer      imagestore.Destroyer
	timeout        time.Duration
	maxConcurrency int
	logger         *slog.Logger
}

// NewImageCleaner создаёт сервис очистки изображений.
// timeout — ограничение на один вызов Destroy, maxConcurrency — число параллельных вызовов.
func NewImageCleaner(
	destroyer imagestore.Destroyer,
	timeout time.Duration,
	maxConcurrency int,
	logger *slog.Logger,
) *ImageCleaner {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &ImageCleaner{
		destroyer:      destroyer,
		timeout:        timeout,
		maxConcurrency: maxConcurrency,
		logger:         logger.With(slog.String("component", "image_cleaner")),
	}
}

// DeleteAssets удаляет все переданные public id.
// Пустые id пропускаются, повторяющиеся удаляются каждый раз.
// Порядок Failures соответствует порядку publicIDs.
func (c *ImageCleaner) DeleteAssets(ctx context.Context, publicIDs []string) model.CleanupResult {
	ids := make([]string, 0, len(publicIDs))
	for _, id := range publicIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}

	result := model.CleanupResult{
		Attempted: len(ids),
		Failures:  []model.CleanupFailure{},
	}
	if len(ids) == 0 {
		return result
	}

	kinds := make([]model.CleanupFailureKind, len(ids))
	sem := make(chan struct{}, c.maxConcurrency)

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, publicID string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			kinds[i] = c.destroyOne(ctx, publicID)
		}(i, id)
	}
	wg.Wait()

	for i, kind := range kinds {
		if kind == "" {
			result.Deleted++
			continue
		}
		result.Failures = append(result.Failures, model.CleanupFailure{PublicID: ids[i], Kind: kind})
	}

	if len(result.Failures) > 0 {
		c.logger.Warn("Очистка изображений завершена с ошибками",
			slog.Int("attempted", result.Attempted),
			slog.Int("deleted", result.Deleted),
			slog.Int("failed", len(result.Failures)),
		)
	}

	return result
}

// destroyOne выполняет один вызов Destroy с таймаутом.
// Пустой результат — успех.
func (c *ImageCleaner) destroyOne(ctx context.Context, publicID string) model.CleanupFailureKind {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.destroyer.Destroy(callCtx, publicID)
	imageCleanupDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		imageCleanupTotal.WithLabelValues("ok").Inc()
		return ""
	}

	kind := classifyCleanupError(err)
	imageCleanupTotal.WithLabelValues(string(kind)).Inc()
	c.logger.Warn("Не удалось удалить изображение",
		slog.String("public_id", publicID),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
	return kind
}

// classifyCleanupError сопоставляет ошибку клиента хранилища виду сбоя.
func classifyCleanupError(err error) model.CleanupFailureKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return model.CleanupTimeout
	case errors.Is(err, imagestore.ErrNotConfigured):
		return model.CleanupNotConfigured
	case errors.Is(err, imagestore.ErrRejected):
		return model.CleanupRejected
	default:
		return model.CleanupUnavailable
	}
}
