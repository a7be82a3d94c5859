package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/snipstash/snipstash/internal/auth"
	"github.com/snipstash/snipstash/internal/token"
)

const tokenCookieName = "token"

// RequireAuth validates the session token and populates the admin email in
// the request context. The token is read from the Authorization header
// (Bearer scheme) first, falling back to the "token" cookie. A missing token
// is 401; a bad or expired one is 403.
func RequireAuth(signer *token.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				if cookie, err := r.Cookie(tokenCookieName); err == nil {
					tok = cookie.Value
				}
			}
			if tok == "" {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized: Token missing")
				return
			}

			email, err := signer.Verify(tok)
			if err != nil {
				writeAuthError(w, http.StatusForbidden, "Forbidden: Invalid token")
				return
			}

			ctx := auth.WithAdmin(r.Context(), email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
