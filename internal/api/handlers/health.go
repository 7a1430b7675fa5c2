// health.go — обработчики health endpoints Leads Module.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (PostgreSQL + источник ключей JWT;
// хранилище изображений — некритичная проверка, не выше degraded)
// /metrics — Prometheus метрики
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/interiorstudio/leads-module/internal/config"
)

// serviceName — имя сервиса в ответах health endpoints.
const serviceName = "leads-module"

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady() (status string, message string)
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	pgChecker    ReadinessChecker
	jwtChecker   ReadinessChecker
	imageChecker ReadinessChecker
	promHandler  http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// pgChecker — проверка PostgreSQL, jwtChecker — проверка JWKS endpoint.
// Оба могут быть nil (readiness вернёт "fail" для nil зависимостей).
// imageChecker — хранилище изображений: без него заявки удаляются,
// но изображения остаются, поэтому его отказ даёт только "degraded".
func NewHealthHandler(pgChecker, jwtChecker, imageChecker ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		pgChecker:    pgChecker,
		jwtChecker:   jwtChecker,
		imageChecker: imageChecker,
		promHandler:  promhttp.Handler(),
	}
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		PostgreSQL healthCheckResult `json:"postgresql"`
		JWKS       healthCheckResult `json:"jwks"`
		ImageStore healthCheckResult `json:"image_store"`
	} `json:"checks"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	resp := healthLiveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// HealthReady — readiness probe. Проверяет PostgreSQL, JWKS и хранилище изображений.
// Возвращает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	// Проверяем PostgreSQL
	if h.pgChecker != nil {
		pgStatus, pgMsg := h.pgChecker.CheckReady()
		resp.Checks.PostgreSQL = healthCheckResult{Status: pgStatus, Message: pgMsg}
	} else {
		resp.Checks.PostgreSQL = healthCheckResult{Status: "fail", Message: "не инициализирован"}
	}

	// Проверяем источник ключей JWT
	if h.jwtChecker != nil {
		jwtStatus, jwtMsg := h.jwtChecker.CheckReady()
		resp.Checks.JWKS = healthCheckResult{Status: jwtStatus, Message: jwtMsg}
	} else {
		resp.Checks.JWKS = healthCheckResult{Status: "fail", Message: "не инициализирован"}
	}

	// Хранилище изображений: некритичная зависимость
	if h.imageChecker != nil {
		imgStatus, imgMsg := h.imageChecker.CheckReady()
		resp.Checks.ImageStore = healthCheckResult{Status: nonCritical(imgStatus), Message: imgMsg}
	} else {
		resp.Checks.ImageStore = healthCheckResult{Status: "degraded", Message: "не инициализирован"}
	}

	// Определяем итоговый статус
	resp.Status = overallStatus(
		resp.Checks.PostgreSQL.Status,
		resp.Checks.JWKS.Status,
		resp.Checks.ImageStore.Status,
	)

	w.Header().Set("Content-Type", "application/json")
	if resp.Status == "fail" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// nonCritical понижает fail до degraded для зависимостей,
// без которых сервис продолжает обслуживать запросы.
func nonCritical(status string) string {
	if status == "fail" {
		return "degraded"
	}
	return status
}

// overallStatus определяет итоговый статус из статусов зависимостей.
// Если хотя бы одна зависимость fail — итог fail.
// Если хотя бы одна degraded — итог degraded.
// Иначе — ok.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == "fail" {
			return "fail"
		}
		if s == "degraded" {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return "degraded"
	}
	return "ok"
}
