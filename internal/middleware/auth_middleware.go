package middleware

import (
	"context"
	"net/http"
	"strings"

	"websiter-server/internal/domain"
	"websiter-server/internal/repository"
	"websiter-server/pkg/jwt"
	"websiter-server/pkg/response"
)

type contextKey string

const (
	UserIDKey  contextKey = "userID"
	RoleKey    contextKey = "role"
	SessionKey contextKey = "sessionID"
)

// SessionHeader carries the browser session id so change events can skip
// the session that caused them.
const SessionHeader = "X-Session-ID"

// AuthMiddleware validates the bearer token and stores the caller's id,
// role and browser session on the request context.
func AuthMiddleware(jwtSecret string, clientRepo repository.ClientRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwt.ValidateToken(parts[1], jwtSecret)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			client, err := clientRepo.FindByID(claims.UserID)
			if err != nil {
				response.Unauthorized(w, "Unknown account")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, RoleKey, client.Role)
			ctx = context.WithValue(ctx, SessionKey, r.Header.Get(SessionHeader))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware rejects non-admins. It must run inside AuthMiddleware.
func AdminMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAdmin(r) {
				response.Forbidden(w, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

func GetSessionID(r *http.Request) string {
	sessionID, ok := r.Context().Value(SessionKey).(string)
	if !ok {
		return ""
	}
	return sessionID
}

func IsAdmin(r *http.Request) bool {
	role, ok := r.Context().Value(RoleKey).(domain.Role)
	return ok && role == domain.RoleAdmin
}
