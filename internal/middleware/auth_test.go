package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/snipstash/snipstash/internal/auth"
	"github.com/snipstash/snipstash/internal/token"
)

func authTestHandler(t *testing.T, wantEmail string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := auth.AdminEmail(r.Context())
		if !ok {
			t.Error("expected admin email in context")
		}
		if email != wantEmail {
			t.Errorf("email = %q, want %q", email, wantEmail)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthMissingToken(t *testing.T) {
	signer := token.NewSigner("test-secret", 24*time.Hour)
	handler := RequireAuth(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	signer := token.NewSigner("test-secret", 24*time.Hour)
	handler := RequireAuth(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	expired := token.NewSigner("test-secret", -time.Minute)
	tok, err := expired.Mint("admin@x.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	signer := token.NewSigner("test-secret", 24*time.Hour)
	handler := RequireAuth(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d (expired token)", rec.Code, http.StatusForbidden)
	}
}

func TestRequireAuthBearerHeader(t *testing.T) {
	signer := token.NewSigner("test-secret", 24*time.Hour)
	tok, err := signer.Mint("admin@x.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	handler := RequireAuth(signer)(authTestHandler(t, "admin@x.com"))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireAuthCookie(t *testing.T) {
	signer := token.NewSigner("test-secret", 24*time.Hour)
	tok, err := signer.Mint("admin@x.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	handler := RequireAuth(signer)(authTestHandler(t, "admin@x.com"))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireAuthHeaderBeatsCookie(t *testing.T) {
	signer := token.NewSigner("test-secret", 24*time.Hour)
	headerTok, err := signer.Mint("header@x.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	cookieTok, err := signer.Mint("cookie@x.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	handler := RequireAuth(signer)(authTestHandler(t, "header@x.com"))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+headerTok)
	req.AddCookie(&http.Cookie{Name: "token", Value: cookieTok})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
