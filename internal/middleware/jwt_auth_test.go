package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestAuth(t *testing.T) *JWTAuthMiddleware {
	t.Helper()
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return NewJWTAuthMiddleware(JWTAuthConfig{
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
	})
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cret" {
		t.Error("expected hash to differ from password")
	}
	if !CheckPassword("s3cret", hash) {
		t.Error("expected matching password to check out")
	}
	if CheckPassword("wrong", hash) {
		t.Error("expected wrong password to fail")
	}
}

func TestValidateCredentials(t *testing.T) {
	m := newTestAuth(t)

	tests := []struct {
		username string
		password string
		want     bool
	}{
		{"admin", "correct-horse", true},
		{"admin", "wrong", false},
		{"root", "correct-horse", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := m.ValidateCredentials(tt.username, tt.password); got != tt.want {
			t.Errorf("ValidateCredentials(%q, %q) = %v, want %v", tt.username, tt.password, got, tt.want)
		}
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestAuth(t)

	token, err := m.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("expected username admin, got %q", claims.Username)
	}
	if claims.Issuer != "snowbridge" {
		t.Errorf("expected issuer snowbridge, got %q", claims.Issuer)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	m := newTestAuth(t)

	other := NewJWTAuthMiddleware(JWTAuthConfig{JWTSecret: "other-secret"})
	foreign, _ := other.GenerateToken("admin")

	expiredIssuer := newTestAuth(t)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredIssuer.GenerateToken("admin")

	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, UserClaims{
		Username: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))

	tests := map[string]string{
		"wrong secret": foreign,
		"expired":      expired,
		"wrong issuer": wrongIssuer,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.ValidateToken(token); err == nil {
				t.Error("expected token to be rejected")
			}
		})
	}
}

func TestWrap(t *testing.T) {
	m := newTestAuth(t)
	token, err := m.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	var user string
	handler := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"invalid token", "Bearer abc", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user = ""
			req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK && user != "admin" {
				t.Errorf("expected admin in context, got %q", user)
			}
			if tt.want == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header")
			}
		})
	}
}

func TestNewJWTAuthMiddleware_DefaultTTL(t *testing.T) {
	m := NewJWTAuthMiddleware(JWTAuthConfig{JWTSecret: "x"})
	if m.TokenTTL() != 24*time.Hour {
		t.Errorf("expected default TTL of 24h, got %v", m.TokenTTL())
	}
}
