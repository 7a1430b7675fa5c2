package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		statuses []string
		want     string
	}{
		{[]string{"ok", "ok"}, "ok"},
		{[]string{"ok", "degraded"}, "degraded"},
		{[]string{"degraded", "fail"}, "fail"},
		{[]string{"ok", "ok", nonCritical("fail")}, "degraded"},
		{nil, "ok"},
	}
	for _, tt := range tests {
		if got := overallStatus(tt.statuses...); got != tt.want {
			t.Errorf("overallStatus(%v) = %q, ожидалось %q", tt.statuses, got, tt.want)
		}
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name            string
		pg, jwt, images ReadinessChecker
		wantStatus      int
		wantBody        string
		wantImages      string
	}{
		{name: "всё доступно", pg: mockChecker{status: "ok"}, jwt: mockChecker{status: "ok"}, images: mockChecker{status: "ok"}, wantStatus: http.StatusOK, wantBody: "ok", wantImages: "ok"},
		{name: "JWKS деградирован", pg: mockChecker{status: "ok"}, jwt: mockChecker{status: "degraded"}, images: mockChecker{status: "ok"}, wantStatus: http.StatusOK, wantBody: "degraded", wantImages: "ok"},
		{name: "PostgreSQL недоступен", pg: mockChecker{status: "fail", message: "нет соединения"}, jwt: mockChecker{status: "ok"}, images: mockChecker{status: "ok"}, wantStatus: http.StatusServiceUnavailable, wantBody: "fail", wantImages: "ok"},
		{name: "хранилище изображений недоступно", pg: mockChecker{status: "ok"}, jwt: mockChecker{status: "ok"}, images: mockChecker{status: "fail", message: "connection refused"}, wantStatus: http.StatusOK, wantBody: "degraded", wantImages: "degraded"},
		{name: "хранилище изображений не настроено", pg: mockChecker{status: "ok"}, jwt: mockChecker{status: "ok"}, images: mockChecker{status: "degraded"}, wantStatus: http.StatusOK, wantBody: "degraded", wantImages: "degraded"},
		{name: "проверки не заданы", wantStatus: http.StatusServiceUnavailable, wantBody: "fail", wantImages: "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAPIHandler(NewHealthHandler(tt.pg, tt.jwt, tt.images), nil, nil, nil, testLogger())
			rec := doRequest(t, newTestRouter(h), http.MethodGet, "/health/ready", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, ожидалось %d", rec.Code, tt.wantStatus)
			}
			var resp healthReadyResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.wantBody || resp.Service != "leads-module" {
				t.Errorf("ответ = %+v", resp)
			}
			if resp.Checks.ImageStore.Status != tt.wantImages {
				t.Errorf("image_store = %q, ожидалось %q", resp.Checks.ImageStore.Status, tt.wantImages)
			}
		})
	}
}

func TestHealthLive(t *testing.T) {
	h := NewAPIHandler(NewHealthHandler(nil, nil, nil), nil, nil, nil, testLogger())
	rec := doRequest(t, newTestRouter(h), http.MethodGet, "/health/live", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp healthLiveResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Service != "leads-module" {
		t.Errorf("ответ = %+v", resp)
	}
}
