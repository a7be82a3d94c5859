package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/snipstash/snipstash/internal/database"
	"github.com/snipstash/snipstash/internal/email"
	"github.com/snipstash/snipstash/internal/logging"
	"github.com/snipstash/snipstash/internal/server"
)

const (
	maintenanceInterval = time.Hour
	keepAliveInterval   = 14 * time.Minute
)

func main() {
	logger := logging.Setup(os.Getenv("SNIPSTASH_LOG_LEVEL"))

	port := os.Getenv("SNIPSTASH_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("SNIPSTASH_DB_PATH")
	if dbPath == "" {
		dbPath = "snipstash.db"
	}

	jwtSecret := os.Getenv("SNIPSTASH_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("SNIPSTASH_JWT_SECRET is required")
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(os.Getenv("SNIPSTASH_POSTMARK_TOKEN"), os.Getenv("SNIPSTASH_EMAIL_FROM"))
	if !emailClient.Configured() {
		logger.Warn("email delivery not configured, login codes cannot be sent",
			"vars", "SNIPSTASH_POSTMARK_TOKEN, SNIPSTASH_EMAIL_FROM")
	}

	srv := server.New(db, emailClient, server.Config{
		JWTSecret:      jwtSecret,
		AllowedOrigins: splitOrigins(os.Getenv("SNIPSTASH_ALLOWED_ORIGINS")),
	}, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan struct{})
	go maintenanceLoop(srv, logger, stop)

	if selfURL := os.Getenv("SNIPSTASH_SELF_URL"); selfURL != "" {
		go keepAlive(selfURL, logger, stop)
	}

	go func() {
		fmt.Printf("Snipstash running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	close(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

// maintenanceLoop sweeps expired login codes and stale rate limit buckets.
func maintenanceLoop(srv *server.Server, logger *slog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := srv.AdminStore().ClearExpiredOTPs(); err != nil {
				logger.Error("expired otp sweep failed", "error", err)
			} else if n > 0 {
				logger.Info("cleared expired otps", "count", n)
			}
			srv.RateLimiter().Cleanup()
		case <-stop:
			return
		}
	}
}

// keepAlive pings the deployment's own URL so free-tier hosts don't idle it out.
func keepAlive(selfURL string, logger *slog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	client := &http.Client{Timeout: 10 * time.Second}
	for {
		select {
		case <-ticker.C:
			resp, err := client.Get(selfURL)
			if err != nil {
				logger.Warn("keep-alive ping failed", "error", err)
				continue
			}
			resp.Body.Close()
		case <-stop:
			return
		}
	}
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
