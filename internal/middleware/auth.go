package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"finbot/internal/auth"
	"finbot/internal/httputil"
)

// Auth validates the bearer token and injects the caller's user id into
// the request context. In development, requests without a token fall
// back to devUserID so the API can be exercised without a Supabase
// session; in any other environment a missing token is a 401.
func Auth(verifier auth.JWTVerifier, environment, devUserID string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				if environment == "dev" && devUserID != "" {
					next.ServeHTTP(w, httputil.WithUserID(r, devUserID))
					return
				}
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			if verifier == nil {
				httputil.RespondError(w, http.StatusUnauthorized, "token verification unavailable")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("token verification failed", "path", r.URL.Path)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, claims.GetUserID()))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
