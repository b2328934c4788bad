package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health/live", "/health/live"},
		{"/api/v1/menus/tree", "/api/v1/menus/tree"},
		{"/api/v1/menus/0b6f7a8e-2c4d-4f3a-9b1e-5d6c7e8f9a0b", "/api/v1/menus/{id}"},
		{"/api/v1/users/0b6f7a8e-2c4d-4f3a-9b1e-5d6c7e8f9a0b/menus/1c6f7a8e-2c4d-4f3a-9b1e-5d6c7e8f9a0b",
			"/api/v1/users/{id}/menus/{id}"},
		{"/api/v1/menus/not-a-uuid-but-exactly-36-characters!!", "/api/v1/menus/not-a-uuid-but-exactly-36-characters!!"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидали %q", tt.path, got, tt.want)
		}
	}
}

func TestMetricsMiddleware_RoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware())
	r.Get("/api/v1/majors/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/majors/{id}", "418"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/majors/m-1", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/majors/{id}", "418"))
	if after-before != 1 {
		t.Errorf("счётчик запросов вырос на %v, ожидали 1", after-before)
	}
}
