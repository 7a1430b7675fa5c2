// metrics.go — Prometheus метрики сервисного слоя:
// lm_image_cleanup_total, lm_image_cleanup_duration_seconds,
// lm_submission_status_changes_total, lm_submissions_deleted_total.
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// imageCleanupTotal — результаты удаления изображений (ok или вид ошибки).
	imageCleanupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lm_image_cleanup_total",
			Help: "Количество попыток удаления изображений во внешнем хранилище по результату",
		},
		[]string{"result"},
	)

	// imageCleanupDuration — длительность одного вызова Destroy.
	imageCleanupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lm_image_cleanup_duration_seconds",
			Help:    "Длительность удаления одного изображения в секундах",
			Buckets: prometheus.DefBuckets,
		},
	)

	// statusChangesTotal — смены статуса заявок по целевому статусу.
	statusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lm_submission_status_changes_total",
			Help: "Количество изменений статуса заявок",
		},
		[]string{"status"},
	)

	// submissionsDeletedTotal — удалённые заявки.
	submissionsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lm_submissions_deleted_total",
			Help: "Количество удалённых заявок",
		},
	)
)
