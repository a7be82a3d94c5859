package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/snipstash/snipstash/internal/database"
	"github.com/snipstash/snipstash/internal/email"
	"github.com/snipstash/snipstash/internal/token"
)

func setupServer(t *testing.T) http.Handler {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := New(db, email.NewClient("", ""), Config{JWTSecret: "test-secret"}, slog.Default())
	return srv.Router()
}

func TestHealth(t *testing.T) {
	router := setupServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %q, want %q", resp["status"], "ok")
	}
}

func TestSnippetReadsArePublic(t *testing.T) {
	router := setupServer(t)

	req := httptest.NewRequest("GET", "/api/snippets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestSnippetWritesRequireSession(t *testing.T) {
	router := setupServer(t)

	for _, tc := range []struct {
		method, path string
	}{
		{"POST", "/api/snippets"},
		{"PUT", "/api/snippets/some-id"},
		{"DELETE", "/api/snippets/some-id"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want %d", tc.method, tc.path, rec.Code, http.StatusUnauthorized)
		}
	}
}

// Dials the websocket endpoint through the fully wrapped router and asserts a
// snippet mutation reaches the subscriber. The upgrade must survive the
// logging and CORS wrappers.
func TestWebSocketFeedThroughRouter(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := New(db, email.NewClient("", ""), Config{JWTSecret: "test-secret"}, slog.Default())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := ws.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	// The mutation must not race the hub registration
	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	tok, err := token.NewSigner("test-secret", time.Hour).Mint("a@x.com")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	req, _ := http.NewRequest("POST", ts.URL+"/api/snippets",
		strings.NewReader(`{"title":"hello","language":"go","code":"code"}`))
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create snippet: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var msg struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if msg.Type != "snippet_created" {
		t.Errorf("type = %q, want %q", msg.Type, "snippet_created")
	}
	if msg.ID == "" {
		t.Error("expected snippet id in broadcast")
	}
}

func TestMeRequiresSession(t *testing.T) {
	router := setupServer(t)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
