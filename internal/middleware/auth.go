package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/forkful/forkful/internal/auth"
	"github.com/forkful/forkful/internal/cache"
	"github.com/forkful/forkful/internal/model"
	"github.com/forkful/forkful/internal/repository"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger     *slog.Logger
	Repository *repository.Repository
	Cache      *cache.Cache
}

// Auth returns a middleware that authenticates requests with a bearer token.
// It extracts the token from the Authorization header, resolves it to an
// active user (cache first, database second) and injects the auth context
// into the request.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractToken(r)
			if key == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w)
				return
			}

			if !auth.ValidateTokenFormat(key) {
				logAuthFailure(cfg.Logger, r, "invalid_format")
				writeAuthError(w)
				return
			}

			// Cached lookups are keyed by a hash so raw tokens never
			// reach Redis.
			cacheKey := auth.QuickHash(key)
			authCtx, _ := cfg.Cache.GetAuthContext(r.Context(), cacheKey)

			if authCtx == nil {
				user, err := cfg.Repository.GetUserByTokenKey(r.Context(), key)
				if err != nil {
					if !errors.Is(err, repository.ErrTokenNotFound) {
						cfg.Logger.Error("database error during auth",
							slog.String("error", err.Error()),
							slog.String("request_id", GetRequestID(r.Context())),
						)
					} else {
						logAuthFailure(cfg.Logger, r, "unknown_token")
					}
					writeAuthError(w)
					return
				}

				authCtx = &model.AuthContext{
					UserID:      user.ID,
					Email:       user.Email,
					TokenHash:   cacheKey,
					IsStaff:     user.IsStaff,
					IsSuperuser: user.IsSuperuser,
				}

				_ = cfg.Cache.SetAuthContext(r.Context(), cacheKey, authCtx)
			}

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// extractToken extracts the bearer token from the Authorization header.
// Both "Bearer <token>" and the legacy "Token <token>" scheme are accepted.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	for _, scheme := range []string{"Bearer ", "Token "} {
		if strings.HasPrefix(header, scheme) {
			return strings.TrimSpace(strings.TrimPrefix(header, scheme))
		}
	}
	return ""
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing authentication token","code":"UNAUTHORIZED"}`))
}
