// Пакет imagestore — HTTP-клиент внешнего хранилища изображений
// (Cloudinary-совместимый Upload API). Поддерживает TLS с кастомным CA
// (LM_CA_CERT_PATH). Операция: Destroy (POST /{cloud}/image/destroy).
// Срок каждого запроса задаёт контекст вызывающего.
package imagestore

import (
	"context"
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Ошибки клиента хранилища изображений.
var (
	// ErrRejected — хранилище отклонило запрос (4xx или неожиданный result).
	ErrRejected = errors.New("хранилище изображений отклонило запрос")
	// ErrUnavailable — хранилище недоступно (5xx).
	ErrUnavailable = errors.New("хранилище изображений недоступно")
	// ErrNotConfigured — учётные данные хранилища не заданы.
	ErrNotConfigured = errors.New("хранилище изображений не настроено")
)

// Destroyer — удаление изображения по public id.
type Destroyer interface {
	Destroy(ctx context.Context, publicID string) error
}

// destroyResponse — ответ на POST /image/destroy.
type destroyResponse struct {
	Result string `json:"result"`
}

// errorResponse — тело ошибки Cloudinary.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client — HTTP-клиент хранилища изображений.
type Client struct {
	baseURL    string
	cloudName  string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	// readyTimeout ограничивает CheckReady, у которого нет контекста вызывающего.
	readyTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// Options — параметры подключения к хранилищу.
type Options struct {
	BaseURL    string
	CloudName  string
	APIKey     string
	APISecret  string
	CACertPath string
	// Timeout — срок проверки готовности (CheckReady).
	Timeout time.Duration
}

// New создаёт клиент хранилища изображений.
// CACertPath — путь к CA-сертификату (пустая строка — системный пул).
func New(opts Options, logger *slog.Logger) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// Без http.Client.Timeout: Destroy ограничивается контекстом вызывающего.
	httpClient := &http.Client{}

	if opts.CACertPath != "" {
		tlsConfig, err := buildTLSConfig(opts.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата хранилища: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат хранилища изображений добавлен в пул доверия",
			slog.String("ca_cert", opts.CACertPath),
		)
	}

	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		cloudName:    opts.CloudName,
		apiKey:       opts.APIKey,
		apiSecret:    opts.APISecret,
		httpClient:   httpClient,
		readyTimeout: timeout,
		now:          time.Now,
		logger:       logger.With(slog.String("component", "imagestore")),
	}, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

// Destroy удаляет изображение по public id.
// Ответы "ok" и "not found" считаются успехом: повторное удаление не ошибка.
// Без срока в ctx запрос может ждать ответа хранилища неограниченно.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	reqURL := fmt.Sprintf("%s/%s/image/destroy", c.baseURL, url.PathEscape(c.cloudName))

	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("api_key", c.apiKey)
	form.Set("signature", Sign(params, c.apiSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("создание запроса Destroy: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос Destroy %s: %w", publicID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("чтение ответа Destroy %s: %w", publicID, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: статус %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		var e errorResponse
		_ = json.Unmarshal(body, &e)
		return fmt.Errorf("%w: статус %d: %s", ErrRejected, resp.StatusCode, e.Error.Message)
	}

	var dr destroyResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return fmt.Errorf("декодирование ответа Destroy %s: %w", publicID, err)
	}

	switch dr.Result {
	case "ok":
		c.logger.Debug("Изображение удалено", slog.String("public_id", publicID))
		return nil
	case "not found":
		c.logger.Debug("Изображение уже отсутствует", slog.String("public_id", publicID))
		return nil
	default:
		return fmt.Errorf("%w: result=%q", ErrRejected, dr.Result)
	}
}

// CheckReady проверяет сетевую доступность хранилища.
// Любой ответ ниже 500 означает, что хранилище принимает запросы.
func (c *Client) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.readyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, http.NoBody)
	if err != nil {
		return "fail", "ошибка создания запроса: " + err.Error()
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "fail", fmt.Sprintf("хранилище изображений недоступно: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "fail", fmt.Sprintf("хранилище изображений вернуло статус %d", resp.StatusCode)
	}
	return "ok", ""
}

// HealthURL возвращает адрес хранилища для проверки доступности.
func (c *Client) HealthURL() string {
	return c.baseURL
}

// Sign вычисляет подпись запроса: параметры сортируются по имени,
// склеиваются как k=v через '&', к строке дописывается секрет, результат — hex(sha1).
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

// Disabled — Destroyer для установок без внешнего хранилища.
type Disabled struct{}

// Destroy всегда возвращает ErrNotConfigured.
func (Disabled) Destroy(_ context.Context, _ string) error {
	return ErrNotConfigured
}

// CheckReady сообщает, что хранилище не настроено: заявки удаляются без очистки изображений.
func (Disabled) CheckReady() (status, message string) {
	return "degraded", ErrNotConfigured.Error()
}
