package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
)

func intPtr(v int) *int { return &v }

func TestPageRequest_CapsTake(t *testing.T) {
	tests := []struct {
		name   string
		length *int
		max    int
		want   int
	}{
		{"по умолчанию", nil, 100, query.DefaultPageLength},
		{"в пределах", intPtr(25), 100, 25},
		{"больше максимума", intPtr(500), 100, 100},
		{"все строки", intPtr(-1), 100, 100},
		{"без ограничения", intPtr(-1), 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pageRequest(query.DataTableRequest{Length: tt.length}, tt.max)
			if got.Take != tt.want {
				t.Errorf("Take = %d, хотели %d", got.Take, tt.want)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	const valid = "6f1f2c4e-3a8b-4b8e-9d7e-1c2b3a4d5e6f"

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantID     string
	}{
		{"uuid", "/items/" + valid, http.StatusOK, valid},
		{"не uuid", "/items/abc", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			r := chi.NewRouter()
			r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
				id, ok := pathID(w, r, "id")
				if !ok {
					return
				}
				gotID = id
				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus || gotID != tt.wantID {
				t.Errorf("status = %d, id = %q; хотели %d, %q", rec.Code, gotID, tt.wantStatus, tt.wantID)
			}
		})
	}
}

type stubChecker struct {
	status  string
	message string
}

func (s stubChecker) CheckReady() (string, string) { return s.status, s.message }

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		checkers   map[string]ReadinessChecker
		wantStatus int
		wantBody   string
	}{
		{"без зависимостей", nil, http.StatusOK, "ok"},
		{"ok", map[string]ReadinessChecker{"postgresql": stubChecker{status: "ok"}}, http.StatusOK, "ok"},
		{"degraded", map[string]ReadinessChecker{
			"postgresql": stubChecker{status: "ok"},
			"jwks":       stubChecker{status: "degraded", message: "медленно"},
		}, http.StatusOK, "degraded"},
		{"fail", map[string]ReadinessChecker{"postgresql": stubChecker{status: "fail", message: "нет соединения"}}, http.StatusServiceUnavailable, "fail"},
		{"nil checker", map[string]ReadinessChecker{"postgresql": nil}, http.StatusServiceUnavailable, "fail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checkers)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			var body healthReadyResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if rec.Code != tt.wantStatus || body.Status != tt.wantBody {
				t.Errorf("status = %d/%q, хотели %d/%q", rec.Code, body.Status, tt.wantStatus, tt.wantBody)
			}
			if len(body.Checks) != len(tt.checkers) {
				t.Errorf("checks = %v", body.Checks)
			}
		})
	}
}
