package imagestore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockStore создаёт mock HTTP-сервер хранилища изображений.
func setupMockStore(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Options{
		BaseURL:   baseURL,
		CloudName: "studio",
		APIKey:    "key-123",
		APISecret: "secret-xyz",
		Timeout:   2 * time.Second,
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

// TestSign проверяет порядок параметров и формат подписи.
func TestSign(t *testing.T) {
	got := Sign(map[string]string{"timestamp": "1700000000", "public_id": "pubA"}, "secret-xyz")
	// sha1("public_id=pubA&timestamp=1700000000secret-xyz")
	want := Sign(map[string]string{"public_id": "pubA", "timestamp": "1700000000"}, "secret-xyz")
	if got != want {
		t.Errorf("подпись зависит от порядка map: %s != %s", got, want)
	}
	if len(got) != 40 {
		t.Errorf("длина подписи = %d, ожидалось 40", len(got))
	}
	if Sign(map[string]string{"public_id": "pubA"}, "other") == Sign(map[string]string{"public_id": "pubA"}, "secret-xyz") {
		t.Error("подпись не зависит от секрета")
	}
}

// TestClient_Destroy проверяет формат запроса и успешный ответ.
func TestClient_Destroy(t *testing.T) {
	server := setupMockStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/studio/image/destroy" {
			t.Errorf("путь = %s, ожидался /studio/image/destroy", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("public_id") != "pubA" {
			t.Errorf("public_id = %q", r.PostForm.Get("public_id"))
		}
		if r.PostForm.Get("api_key") != "key-123" {
			t.Errorf("api_key = %q", r.PostForm.Get("api_key"))
		}
		if r.PostForm.Get("timestamp") != "1700000000" {
			t.Errorf("timestamp = %q", r.PostForm.Get("timestamp"))
		}
		want := Sign(map[string]string{"public_id": "pubA", "timestamp": "1700000000"}, "secret-xyz")
		if r.PostForm.Get("signature") != want {
			t.Errorf("signature = %q, ожидалась %q", r.PostForm.Get("signature"), want)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(destroyResponse{Result: "ok"})
	})

	client := newTestClient(t, server.URL+"/")
	if err := client.Destroy(context.Background(), "pubA"); err != nil {
		t.Fatalf("Destroy() ошибка: %v", err)
	}
}

// TestClient_Destroy_Results проверяет классификацию ответов.
func TestClient_Destroy_Results(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantOK  bool
	}{
		{name: "ok", status: 200, body: `{"result":"ok"}`, wantOK: true},
		{name: "not found идемпотентен", status: 200, body: `{"result":"not found"}`, wantOK: true},
		{name: "неожиданный result", status: 200, body: `{"result":"error"}`, wantErr: ErrRejected},
		{name: "401", status: 401, body: `{"error":{"message":"Invalid Signature"}}`, wantErr: ErrRejected},
		{name: "503", status: 503, body: `upstream`, wantErr: ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupMockStore(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			err := newTestClient(t, server.URL).Destroy(context.Background(), "pubX")
			if tt.wantOK {
				if err != nil {
					t.Errorf("ожидался успех, получена ошибка: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ошибка = %v, ожидалась %v", err, tt.wantErr)
			}
		})
	}
}

// TestClient_Destroy_ContextDeadline проверяет, что зависший запрос прерывается по контексту.
func TestClient_Destroy_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := setupMockStore(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := newTestClient(t, server.URL).Destroy(ctx, "pubSlow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ошибка = %v, ожидалась context.DeadlineExceeded", err)
	}
}

// TestClient_Destroy_Unreachable проверяет обработку недоступного хранилища.
func TestClient_Destroy_Unreachable(t *testing.T) {
	err := newTestClient(t, "http://localhost:1").Destroy(context.Background(), "pubA")
	if err == nil {
		t.Fatal("ожидалась ошибка, получен nil")
	}
}

// TestNew_NoClientTimeout проверяет, что срок Destroy задаётся только контекстом.
func TestNew_NoClientTimeout(t *testing.T) {
	c := newTestClient(t, "http://localhost:1")
	if c.httpClient.Timeout != 0 {
		t.Errorf("http.Client.Timeout = %v, ожидался 0", c.httpClient.Timeout)
	}
	if c.readyTimeout != 2*time.Second {
		t.Errorf("readyTimeout = %v, ожидалось 2s", c.readyTimeout)
	}
}

// TestClient_CheckReady проверяет статусы готовности хранилища.
func TestClient_CheckReady(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantStatus string
	}{
		{"корень отвечает 200", http.StatusOK, "ok"},
		{"корень отвечает 404", http.StatusNotFound, "ok"},
		{"ошибка сервера", http.StatusBadGateway, "fail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupMockStore(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodHead {
					t.Errorf("метод = %s, ожидался HEAD", r.Method)
				}
				w.WriteHeader(tt.statusCode)
			})
			status, msg := newTestClient(t, server.URL).CheckReady()
			if status != tt.wantStatus {
				t.Errorf("CheckReady() = %q (%s), ожидалось %q", status, msg, tt.wantStatus)
			}
		})
	}
}

// TestClient_CheckReady_Timeout проверяет, что зависшее хранилище не блокирует readiness.
func TestClient_CheckReady_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := setupMockStore(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c := newTestClient(t, server.URL)
	c.readyTimeout = 50 * time.Millisecond

	start := time.Now()
	status, _ := c.CheckReady()
	if status != "fail" {
		t.Errorf("CheckReady() = %q, ожидалось fail", status)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("CheckReady() занял %v", elapsed)
	}
}

func TestClient_CheckReady_Unreachable(t *testing.T) {
	if status, _ := newTestClient(t, "http://localhost:1").CheckReady(); status != "fail" {
		t.Errorf("CheckReady() = %q, ожидалось fail", status)
	}
}

// TestNew_BadCACert проверяет ошибку при отсутствующем CA-сертификате.
func TestNew_BadCACert(t *testing.T) {
	_, err := New(Options{BaseURL: "https://example.com", CACertPath: "/nonexistent/ca.pem"}, testLogger())
	if err == nil {
		t.Fatal("ожидалась ошибка загрузки CA")
	}
}

// TestDisabled проверяет заглушку для ненастроенного хранилища.
func TestDisabled(t *testing.T) {
	var d Destroyer = Disabled{}
	if err := d.Destroy(context.Background(), "pubA"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("ошибка = %v, ожидалась ErrNotConfigured", err)
	}
	if status, _ := (Disabled{}).CheckReady(); status != "degraded" {
		t.Errorf("CheckReady() = %q, ожидалось degraded", status)
	}
}
