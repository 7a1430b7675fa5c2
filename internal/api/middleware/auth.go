// auth.go — JWT middleware для аутентификации и авторизации сотрудников студии.
// Verify превращает токен в (subject, role); Middleware кладёт результат в контекст.
// Ключи: JWKS IdP (RS256) или общий HMAC-секрет (HS256) для single-node установок.
package middleware

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/bigkaa/interiorstudio/leads-module/internal/api/errors"
	"github.com/bigkaa/interiorstudio/leads-module/internal/domain/rbac"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyClaims — извлечённые claims в контексте запроса.
	ContextKeyClaims contextKey = "jwt_claims"
)

// ErrInvalidToken — токен не прошёл проверку подписи, срока или issuer.
var ErrInvalidToken = errors.New("невалидный или просроченный токен")

// AuthClaims — результат проверки токена.
type AuthClaims struct {
	// Subject — sub из JWT.
	Subject string
	// PreferredUsername — preferred_username из JWT.
	PreferredUsername string
	// Groups — группы из JWT.
	Groups []string
	// Role — роль (admin, readonly или пустая строка).
	Role string
}

// tokenClaims — raw claims из JWT для парсинга.
type tokenClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string       `json:"preferred_username"`
	Role              string       `json:"role,omitempty"`
	Groups            []string     `json:"groups,omitempty"`
	RealmAccess       *realmAccess `json:"realm_access,omitempty"`
}

// realmAccess — вложенная структура realm_access (Keycloak).
type realmAccess struct {
	Roles []string `json:"roles"`
}

// JWTAuth — проверка JWT и HTTP middleware.
type JWTAuth struct {
	jwks           keyfunc.Keyfunc
	hmacKey        []byte
	methods        []string
	jwksURL        string
	jwksClient     *http.Client
	issuer         string
	jwtLeeway      time.Duration
	adminGroups    []string
	readonlyGroups []string
	logger         *slog.Logger
}

// NewJWKSAuth создаёт проверку RS256-токенов по JWKS IdP.
// caCertPath — опциональный путь к CA-сертификату для TLS.
// jwksClientTimeout — таймаут HTTP-клиента JWKS (LM_JWKS_CLIENT_TIMEOUT).
// jwksRefreshInterval — интервал обновления ключей (LM_JWKS_REFRESH_INTERVAL).
func NewJWKSAuth(
	jwksURL string,
	caCertPath string,
	issuer string,
	adminGroups, readonlyGroups []string,
	jwksClientTimeout time.Duration,
	jwksRefreshInterval time.Duration,
	jwtLeeway time.Duration,
	logger *slog.Logger,
) (*JWTAuth, error) {
	httpClient := &http.Client{Timeout: jwksClientTimeout}
	if caCertPath != "" {
		var err error
		httpClient, err = httpClientWithCA(caCertPath, jwksClientTimeout)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата %s: %w", caCertPath, err)
		}
		logger.Info("CA-сертификат для JWKS добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	// NoErrorReturnFirstHTTPReq — стартуем даже если IdP ещё недоступен.
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    httpClient,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           jwksRefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	auth := NewJWTAuthWithKeyfunc(k, issuer, adminGroups, readonlyGroups, logger)
	auth.jwksURL = jwksURL
	auth.jwksClient = httpClient
	auth.jwtLeeway = jwtLeeway
	return auth, nil
}

// NewHMACAuth создаёт проверку HS256-токенов с общим секретом.
func NewHMACAuth(
	secret string,
	issuer string,
	adminGroups, readonlyGroups []string,
	jwtLeeway time.Duration,
	logger *slog.Logger,
) *JWTAuth {
	return &JWTAuth{
		hmacKey:        []byte(secret),
		methods:        []string{"HS256"},
		issuer:         issuer,
		jwtLeeway:      jwtLeeway,
		adminGroups:    adminGroups,
		readonlyGroups: readonlyGroups,
		logger:         logger.With(slog.String("component", "jwt_auth")),
	}
}

// httpClientWithCA создаёт HTTP-клиент с кастомным CA-сертификатом.
func httpClientWithCA(caCertPath string, timeout time.Duration) (*http.Client, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, err
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs: caCertPool,
			},
		},
	}, nil
}

// NewJWTAuthWithKeyfunc создаёт проверку RS256 с предоставленной keyfunc.
// Используется в тестах для подстановки mock JWKS.
func NewJWTAuthWithKeyfunc(
	kf keyfunc.Keyfunc,
	issuer string,
	adminGroups, readonlyGroups []string,
	logger *slog.Logger,
) *JWTAuth {
	return &JWTAuth{
		jwks:           kf,
		methods:        []string{"RS256"},
		issuer:         issuer,
		adminGroups:    adminGroups,
		readonlyGroups: readonlyGroups,
		logger:         logger.With(slog.String("component", "jwt_auth")),
	}
}

// Verify проверяет токен и вычисляет роль субъекта.
// Токен без роли валиден: доступ решает RequireAccess.
func (j *JWTAuth) Verify(ctx context.Context, tokenString string) (*AuthClaims, error) {
	var kf jwt.Keyfunc
	if j.jwks != nil {
		kf = j.jwks.KeyfuncCtx(ctx)
	} else {
		kf = func(*jwt.Token) (any, error) { return j.hmacKey, nil }
	}

	raw := &tokenClaims{}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(j.methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(j.jwtLeeway),
	}
	if j.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, raw, kf, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := raw.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: отсутствует sub", ErrInvalidToken)
	}

	role := rbac.ResolveRole(raw.Role, raw.Groups, j.adminGroups, j.readonlyGroups)
	// Если роль не определена через claim и группы, пробуем realm_access.roles
	if role == "" && raw.RealmAccess != nil {
		var mapped []string
		for _, r := range raw.RealmAccess.Roles {
			if rbac.IsValidRole(r) {
				mapped = append(mapped, r)
			}
		}
		role = rbac.HighestRole(mapped)
	}

	return &AuthClaims{
		Subject:           subject,
		PreferredUsername: raw.PreferredUsername,
		Groups:            raw.Groups,
		Role:              role,
	}, nil
}

// Middleware возвращает HTTP middleware для JWT-аутентификации.
// Извлекает Bearer token, вызывает Verify и помещает claims в контекст.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				apierrors.Unauthorized(w, "Пустой Bearer token")
				return
			}

			claims, err := j.Verify(r.Context(), tokenString)
			if err != nil {
				j.logger.Debug("JWT валидация не пройдена",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// --- RBAC middleware helpers ---

// RequireAccess возвращает middleware, пропускающий запрос, если allow(role) истинно.
// required — описание требуемой роли для ответа 403.
// Должен использоваться ПОСЛЕ JWTAuth.Middleware().
func RequireAccess(allow func(role string) bool, required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				apierrors.Unauthorized(w, "Отсутствуют claims в контексте")
				return
			}

			if !allow(claims.Role) {
				apierrors.Forbidden(w, fmt.Sprintf("Недостаточно прав: требуется роль %s", required))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// --- Context helpers ---

// ClaimsFromContext извлекает AuthClaims из контекста запроса.
// Возвращает nil, если claims не найдены.
func ClaimsFromContext(ctx context.Context) *AuthClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*AuthClaims)
	return claims
}

// SubjectFromContext извлекает sub из контекста запроса.
func SubjectFromContext(ctx context.Context) string {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return ""
	}
	return claims.Subject
}

// --- ReadinessChecker для источника ключей ---

const statusFail = "fail"

// CheckReady проверяет доступность JWKS endpoint.
// Для HMAC-режима внешних зависимостей нет, всегда ok.
func (j *JWTAuth) CheckReady() (status, message string) {
	if j.jwksURL == "" {
		return "ok", "используется HMAC-секрет"
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, j.jwksURL, http.NoBody)
	if err != nil {
		return statusFail, "ошибка создания запроса: " + err.Error()
	}
	resp, err := j.jwksClient.Do(req)
	if err != nil {
		return statusFail, fmt.Sprintf("JWKS недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusFail, fmt.Sprintf("JWKS вернул статус %d", resp.StatusCode)
	}

	var jwksResp struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwksResp); err != nil {
		return "degraded", fmt.Sprintf("JWKS: невалидный JSON: %v", err)
	}
	if len(jwksResp.Keys) == 0 {
		return "degraded", "JWKS: нет ключей"
	}

	return "ok", fmt.Sprintf("JWKS доступен, ключей: %d", len(jwksResp.Keys))
}
