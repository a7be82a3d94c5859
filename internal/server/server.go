package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/snipstash/snipstash/internal/email"
	"github.com/snipstash/snipstash/internal/handler"
	"github.com/snipstash/snipstash/internal/middleware"
	"github.com/snipstash/snipstash/internal/store"
	"github.com/snipstash/snipstash/internal/token"
	"github.com/snipstash/snipstash/internal/websocket"
)

const (
	sessionTTL = 24 * time.Hour

	// OTP endpoints are the abuse surface; everything else is either
	// public reads or already behind a session token.
	otpRateLimit  = 10
	otpRateWindow = time.Minute
)

// Config carries the deploy-time settings the server needs beyond its
// collaborators.
type Config struct {
	JWTSecret      string
	AllowedOrigins []string
}

// Server owns the stores, handlers and websocket hub and knows how to
// assemble them into a routable http.Handler.
type Server struct {
	db             *sql.DB
	logger         *slog.Logger
	hub            *websocket.Hub
	adminStore     *store.AdminStore
	rateLimiter    *middleware.RateLimiter
	signer         *token.Signer
	allowedOrigins []string

	authHandler    *handler.AuthHandler
	snippetHandler *handler.SnippetHandler
}

func New(db *sql.DB, emailClient *email.Client, cfg Config, logger *slog.Logger) *Server {
	hub := websocket.NewHub(logger.With("component", "websocket"))
	adminStore := store.NewAdminStore(db)
	snippetStore := store.NewSnippetStore(db)
	signer := token.NewSigner(cfg.JWTSecret, sessionTTL)

	return &Server{
		db:             db,
		logger:         logger,
		hub:            hub,
		adminStore:     adminStore,
		rateLimiter:    middleware.NewRateLimiter(),
		signer:         signer,
		allowedOrigins: cfg.AllowedOrigins,
		authHandler:    handler.NewAuthHandler(adminStore, emailClient, signer, logger.With("component", "auth")),
		snippetHandler: handler.NewSnippetHandler(snippetStore, hub, logger.With("component", "snippets")),
	}
}

// AdminStore exposes the admin store for background maintenance tasks.
func (s *Server) AdminStore() *store.AdminStore {
	return s.adminStore
}

// RateLimiter exposes the limiter so its stale buckets can be swept.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Router builds the full route table wrapped in CORS and request logging.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	otpLimit := middleware.RateLimit(s.rateLimiter, middleware.RealIP, otpRateLimit, otpRateWindow)
	mux.Handle("POST /api/auth/send-otp", otpLimit(http.HandlerFunc(s.authHandler.SendOTP)))
	mux.Handle("POST /api/auth/verify-otp", otpLimit(http.HandlerFunc(s.authHandler.VerifyOTP)))
	mux.HandleFunc("POST /api/auth/logout", s.authHandler.Logout)

	requireAuth := middleware.RequireAuth(s.signer)
	mux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(s.authHandler.Me)))

	mux.HandleFunc("GET /api/snippets", s.snippetHandler.List)
	mux.Handle("POST /api/snippets", requireAuth(http.HandlerFunc(s.snippetHandler.Create)))
	mux.Handle("PUT /api/snippets/{id}", requireAuth(http.HandlerFunc(s.snippetHandler.Update)))
	mux.Handle("DELETE /api/snippets/{id}", requireAuth(http.HandlerFunc(s.snippetHandler.Delete)))

	mux.HandleFunc("GET /ws", websocket.HandleWebSocket(s.hub))

	var h http.Handler = mux
	h = middleware.CORS(s.allowedOrigins)(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.logger.Error("health check failed", "error", err)
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
