package httpapi

import (
	"context"
	"net/http"
	"strings"

	"lessonpath-backend-go/internal/services"
)

type contextKey string

const ctxActor contextKey = "actor"

func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			actor, err := tokenService.VerifyAccess(tokenStr)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Token is not valid")
				return
			}
			ctx := context.WithValue(r.Context(), ctxActor, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentActor(r *http.Request) services.Actor {
	if value, ok := r.Context().Value(ctxActor).(services.Actor); ok {
		return value
	}
	return services.Actor{}
}

func CurrentUserID(r *http.Request) string {
	return CurrentActor(r).UserID
}

// RequireAdmin must run after WithAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := CurrentActor(r)
		if actor.UserID == "" {
			WriteError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		if !actor.IsAdmin {
			WriteError(w, http.StatusForbidden, "Not authorized to access this resource")
			return
		}
		next.ServeHTTP(w, r)
	})
}
