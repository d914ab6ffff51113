package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/portfolio/internal/ctxkeys"
	"github.com/templui/portfolio/internal/model"
)

const notAuthorizedMessage = "Not authorized to access this route"

// TokenVerifier checks an access token and returns its claims.
type TokenVerifier interface {
	VerifyAccess(token string) (*model.Claims, error)
}

// RequireAuth admits requests carrying a valid "Authorization: Bearer" access
// token. Every failure gets the same 401 body; the reason is only logged.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				slog.Debug("auth rejected", "reason", "missing bearer token", "path", r.URL.Path)
				unauthorized(w)
				return
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				slog.Debug("auth rejected", "reason", err.Error(), "path", r.URL.Path)
				unauthorized(w)
				return
			}

			ctx := ctxkeys.WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": notAuthorizedMessage,
	})
}
