package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/snipstash/snipstash/internal/auth"
	"github.com/snipstash/snipstash/internal/email"
	"github.com/snipstash/snipstash/internal/otp"
	"github.com/snipstash/snipstash/internal/store"
)

const (
	tokenCookieName = "token"
	otpTTL          = 5 * time.Minute
)

// TokenMinter mints session tokens for verified admins.
type TokenMinter interface {
	Mint(email string) (string, error)
}

type AuthHandler struct {
	adminStore  *store.AdminStore
	emailClient *email.Client
	signer      TokenMinter
	logger      *slog.Logger
}

func NewAuthHandler(as *store.AdminStore, ec *email.Client, signer TokenMinter, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		adminStore:  as,
		emailClient: ec,
		signer:      signer,
		logger:      logger,
	}
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

// SendOTP generates a fresh code, stores its bcrypt hash with a 5-minute
// expiry on the (lazily created) admin account, and emails the plaintext code.
// A reissue overwrites any outstanding code; the last writer wins. The email
// send is awaited before responding, so a failed send surfaces as a 500 even
// though the new OTP is already committed — the caller recovers by requesting
// another code.
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
		return
	}

	emailAddr := strings.TrimSpace(req.Email)
	if emailAddr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Email is required"})
		return
	}

	code, err := otp.Generate()
	if err != nil {
		h.logger.Error("generate otp", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to send OTP"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash otp", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to send OTP"})
		return
	}

	expires := time.Now().UTC().Add(otpTTL)
	if _, err := h.adminStore.SetOTP(emailAddr, string(hash), expires); err != nil {
		h.logger.Error("store otp", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to send OTP"})
		return
	}

	if err := h.emailClient.SendOTP(r.Context(), emailAddr, code); err != nil {
		h.logger.Error("send otp email", "email", emailAddr, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to send OTP"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to email"})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP checks the submitted code against the stored hash and expiry.
// Missing account, no outstanding code, and expired code all produce the same
// 400 so callers cannot probe which emails are registered. A hash mismatch is
// 401 and leaves the stored code usable. On success the code is cleared
// (single use) and a 24-hour session token is minted.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
		return
	}

	emailAddr := strings.TrimSpace(req.Email)
	admin, err := h.adminStore.GetByEmail(emailAddr)
	if err != nil {
		h.logger.Error("verify lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal error"})
		return
	}
	if admin == nil || admin.OTPHash == "" || admin.OTPExpiresAt == nil || admin.OTPExpiresAt.Before(time.Now()) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "OTP expired or invalid"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.OTPHash), []byte(req.OTP)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid OTP"})
		return
	}

	// Mint before clearing so a signing failure leaves the code usable for a
	// retry instead of forcing a reissue.
	tok, err := h.signer.Mint(emailAddr)
	if err != nil {
		h.logger.Error("mint token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal error"})
		return
	}

	if err := h.adminStore.ClearOTP(emailAddr); err != nil {
		h.logger.Error("clear otp", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

// Logout instructs the client to discard its token cookie. Session tokens are
// stateless, so there is nothing to revoke server-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
		Secure:   true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the authenticated admin's email.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	emailAddr, ok := auth.AdminEmail(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized: Token missing"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": emailAddr})
}
