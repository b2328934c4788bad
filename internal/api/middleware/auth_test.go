package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
)

const (
	testKeyID  = "test-key-bo"
	testIssuer = "https://idp.test/realms/backoffice"
)

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	}
	data, _ := json.Marshal(jwks)
	return data
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestJWTAuth(t *testing.T, key *rsa.PrivateKey) *JWTAuth {
	t.Helper()
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey, testKeyID))
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}
	return NewJWTAuthWithKeyfunc(kf, testIssuer, 0, testLogger())
}

// signToken подписывает claims тестовым ключом; стандартные поля
// iss/exp/nbf/iat заполняются, если не заданы.
func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	defaults := jwt.MapClaims{
		"iss": testIssuer,
		"exp": jwt.NewNumericDate(time.Now().Add(time.Hour)),
		"nbf": jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		"iat": jwt.NewNumericDate(time.Now()),
	}
	for k, v := range defaults {
		if _, ok := claims[k]; !ok {
			claims[k] = v
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestJWTAuth_ValidToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	var got model.Actor
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token := signToken(t, key, jwt.MapClaims{
		"sub":                "user-123",
		"preferred_username": "ivanov",
		"name":               "Иванов И.И.",
		"realm_access":       map[string]any{"roles": []string{"administrator"}},
		"roles":              []string{"lecturer"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/menus/tree", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Forwarded-For", "10.0.0.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d, тело: %s", rec.Code, rec.Body.String())
	}
	want := model.Actor{
		ID:       "user-123",
		UserName: "ivanov",
		RealName: "Иванов И.И.",
		ClientIP: "10.0.0.7",
		Roles:    []string{"administrator", "lecturer"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Actor (-want +got):\n%s", diff)
	}
}

func TestJWTAuth_Rejected(t *testing.T) {
	key := generateTestKey(t)
	other := generateTestKey(t)
	auth := newTestJWTAuth(t, key)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"нет заголовка", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"без префикса Bearer", "token123"},
		{"пустой Bearer", "Bearer "},
		{"просроченный", "Bearer " + signToken(t, key, jwt.MapClaims{
			"sub": "user-1", "exp": jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})},
		{"чужой issuer", "Bearer " + signToken(t, key, jwt.MapClaims{"sub": "user-1", "iss": "https://evil.test"})},
		{"чужой ключ", "Bearer " + signToken(t, other, jwt.MapClaims{"sub": "user-1"})},
		{"без sub", "Bearer " + signToken(t, key, jwt.MapClaims{})},
		{"без exp", "Bearer " + signToken(t, key, jwt.MapClaims{"sub": "user-1", "exp": nil})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/menus/tree", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("ожидался статус 401, получен %d", rec.Code)
			}
		})
	}
}

func TestAnonymous(t *testing.T) {
	var got model.Actor
	handler := Anonymous()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/menus/tree", nil)
	req.RemoteAddr = "192.168.1.5:51234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if diff := cmp.Diff(model.Actor{ClientIP: "192.168.1.5"}, got); diff != "" {
		t.Errorf("Actor (-want +got):\n%s", diff)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"X-Forwarded-For", map[string]string{"X-Forwarded-For": " 1.1.1.1 , 2.2.2.2"}, "3.3.3.3:1", "1.1.1.1"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "4.4.4.4"}, "3.3.3.3:1", "4.4.4.4"},
		{"адрес соединения", nil, "3.3.3.3:1", "3.3.3.3"},
		{"без порта", nil, "unix", "unix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, ожидали %q", got, tt.want)
			}
		})
	}
}

// mockChecker — мок ButtonChecker.
type mockChecker struct {
	fn func(actor model.Actor, area, url string) (bool, error)
}

func (m *mockChecker) CanUseButton(_ context.Context, actor model.Actor, area, url string) (bool, error) {
	return m.fn(actor, area, url)
}

func TestRequirePermission(t *testing.T) {
	checker := &mockChecker{fn: func(actor model.Actor, area, url string) (bool, error) {
		switch actor.ID {
		case "allowed":
			return area == "Backoffice" && url == "/menus/create", nil
		case "broken":
			return false, errors.New("db down")
		}
		return false, nil
	}}

	tests := []struct {
		actor model.Actor
		want  int
	}{
		{model.Actor{ID: "allowed"}, http.StatusNoContent},
		{model.Actor{ID: "stranger"}, http.StatusForbidden},
		{model.Actor{}, http.StatusForbidden},
		{model.Actor{ID: "broken"}, http.StatusInternalServerError},
	}

	mw := RequirePermission(checker, "Backoffice", "/menus/create", testLogger())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, tt := range tests {
		t.Run(tt.actor.ID, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/menus", nil)
			req = req.WithContext(WithActor(req.Context(), tt.actor))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("статус %d, ожидали %d", rec.Code, tt.want)
			}
		})
	}
}
