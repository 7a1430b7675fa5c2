// Пакет config — загрузка и валидация конфигурации Leads Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Leads Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- JWT ---

	// URL JWKS endpoint IdP (RS256). Пустой — используется HMAC-секрет.
	JWTJWKSURL string
	// Ожидаемый issuer JWT (опционально)
	JWTIssuer string
	// Общий секрет HS256 для single-node установок (опционально)
	JWTHMACSecret string
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Допустимое отклонение часов при проверке exp/nbf
	JWTLeeway time.Duration
	// Путь к CA-сертификату для TLS-соединений с IdP и хранилищем изображений
	CACertPath string

	// --- Маппинг групп → ролей ---

	RoleAdminGroups    []string
	RoleReadonlyGroups []string

	// --- Хранилище изображений ---

	// Базовый URL API хранилища (Cloudinary-совместимый)
	ImageStoreURL string
	// Имя облака (сегмент пути в API)
	ImageStoreCloudName string
	ImageStoreAPIKey    string
	ImageStoreAPISecret string
	// Таймаут одного запроса на удаление изображения
	ImageDeleteTimeout time.Duration
	// Максимум параллельных удалений в одной пачке
	ImageDeleteConcurrency int

	// --- Уведомления ---

	// Размер ленты уведомлений по умолчанию
	NotificationsDefaultLimit int

	// --- topologymetrics ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// LM_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("LM_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("LM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("LM_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("LM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LM_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("LM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	cfg.DBHost, err = getEnvRequired("LM_DB_HOST")
	if err != nil {
		return nil, err
	}

	cfg.DBPort, err = getEnvInt("LM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("LM_DB_PORT: %w", err)
	}

	cfg.DBName, err = getEnvRequired("LM_DB_NAME")
	if err != nil {
		return nil, err
	}

	cfg.DBUser, err = getEnvRequired("LM_DB_USER")
	if err != nil {
		return nil, err
	}

	cfg.DBPassword, err = getEnvRequired("LM_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	cfg.DBSSLMode = getEnvDefault("LM_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("LM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- JWT ---

	cfg.JWTJWKSURL = getEnvDefault("LM_JWT_JWKS_URL", "")
	cfg.JWTIssuer = getEnvDefault("LM_JWT_ISSUER", "")
	cfg.JWTHMACSecret = getEnvDefault("LM_JWT_HMAC_SECRET", "")
	if cfg.JWTJWKSURL == "" && cfg.JWTHMACSecret == "" {
		return nil, fmt.Errorf("LM_JWT_JWKS_URL или LM_JWT_HMAC_SECRET: требуется хотя бы одна переменная")
	}
	if cfg.JWTHMACSecret != "" && len(cfg.JWTHMACSecret) < 32 {
		return nil, fmt.Errorf("LM_JWT_HMAC_SECRET: длина секрета должна быть не меньше 32 байт")
	}

	cfg.JWKSClientTimeout, err = getEnvDuration("LM_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LM_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	cfg.JWKSRefreshInterval, err = getEnvDuration("LM_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("LM_JWKS_REFRESH_INTERVAL: %w", err)
	}

	cfg.JWTLeeway, err = getEnvDuration("LM_JWT_LEEWAY", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LM_JWT_LEEWAY: %w", err)
	}

	cfg.CACertPath = getEnvDefault("LM_CA_CERT_PATH", "")

	// --- Маппинг групп → ролей ---

	cfg.RoleAdminGroups = parseCSV(getEnvDefault("LM_ROLE_ADMIN_GROUPS", "studio-admins"))
	cfg.RoleReadonlyGroups = parseCSV(getEnvDefault("LM_ROLE_READONLY_GROUPS", "studio-managers"))

	// --- Хранилище изображений ---

	cfg.ImageStoreURL = strings.TrimRight(getEnvDefault("LM_IMAGE_STORE_URL", "https://api.cloudinary.com/v1_1"), "/")
	if _, err := url.ParseRequestURI(cfg.ImageStoreURL); err != nil {
		return nil, fmt.Errorf("LM_IMAGE_STORE_URL: некорректный URL %q", cfg.ImageStoreURL)
	}
	cfg.ImageStoreCloudName = getEnvDefault("LM_IMAGE_STORE_CLOUD_NAME", "")
	cfg.ImageStoreAPIKey = getEnvDefault("LM_IMAGE_STORE_API_KEY", "")
	cfg.ImageStoreAPISecret = getEnvDefault("LM_IMAGE_STORE_API_SECRET", "")

	// Хранилище либо настроено полностью, либо не настроено вовсе
	set := 0
	for _, v := range []string{cfg.ImageStoreCloudName, cfg.ImageStoreAPIKey, cfg.ImageStoreAPISecret} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return nil, fmt.Errorf("LM_IMAGE_STORE_CLOUD_NAME, LM_IMAGE_STORE_API_KEY, LM_IMAGE_STORE_API_SECRET: задаются только вместе")
	}

	cfg.ImageDeleteTimeout, err = getEnvDuration("LM_IMAGE_DELETE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LM_IMAGE_DELETE_TIMEOUT: %w", err)
	}
	if cfg.ImageDeleteTimeout <= 0 {
		return nil, fmt.Errorf("LM_IMAGE_DELETE_TIMEOUT: значение должно быть положительным")
	}

	cfg.ImageDeleteConcurrency, err = getEnvInt("LM_IMAGE_DELETE_CONCURRENCY", 4)
	if err != nil {
		return nil, fmt.Errorf("LM_IMAGE_DELETE_CONCURRENCY: %w", err)
	}
	if cfg.ImageDeleteConcurrency < 1 || cfg.ImageDeleteConcurrency > 64 {
		return nil, fmt.Errorf("LM_IMAGE_DELETE_CONCURRENCY: значение %d вне допустимого диапазона 1-64", cfg.ImageDeleteConcurrency)
	}

	// --- Уведомления ---

	cfg.NotificationsDefaultLimit, err = getEnvInt("LM_NOTIFICATIONS_DEFAULT_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("LM_NOTIFICATIONS_DEFAULT_LIMIT: %w", err)
	}
	if cfg.NotificationsDefaultLimit < 1 || cfg.NotificationsDefaultLimit > 50 {
		return nil, fmt.Errorf("LM_NOTIFICATIONS_DEFAULT_LIMIT: значение %d вне допустимого диапазона 1-50", cfg.NotificationsDefaultLimit)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("LM_DEPHEALTH_GROUP", "interiorstudio")
	cfg.DephealthCheckInterval, err = getEnvDuration("LM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("LM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// ImageStoreEnabled сообщает, настроены ли учётные данные хранилища изображений.
func (c *Config) ImageStoreEnabled() bool {
	return c.ImageStoreCloudName != "" && c.ImageStoreAPIKey != "" && c.ImageStoreAPISecret != ""
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов метрик).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// MigrateURL возвращает URL для golang-migrate (драйвер pgx5).
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
