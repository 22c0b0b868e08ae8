package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"f1-pitwall/internal/core/auth"
	"f1-pitwall/internal/shared/logs"
)

// TokenValidator checks a bearer token.
type TokenValidator interface {
	ValidateToken(token string) (*auth.AdminClaims, error)
}

// AdminAuthConstructor rejects requests without a valid admin bearer token:
// 401 for a missing or invalid token, 403 for a token without the admin role.
func AdminAuthConstructor(validator TokenValidator) MiddlewareConstructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				deny(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(token))
			if errors.Is(err, auth.ErrForbidden) {
				logs.Warn("admin request forbidden", "path", r.URL.Path, "ip", r.RemoteAddr)
				deny(w, http.StatusForbidden, "admin role required")
				return
			}
			if err != nil {
				logs.Warn("admin token rejected", "path", r.URL.Path, "ip", r.RemoteAddr, "error", err)
				deny(w, http.StatusUnauthorized, "invalid token")
				return
			}

			logs.Info("admin request", "method", r.Method, "path", r.URL.Path, "subject", claims.Subject)
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
