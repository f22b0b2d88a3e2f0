package middleware

import (
	"context"
	"net/http"
	"strings"

	"noteshare-server/pkg/response"
)

type contextKey string

const (
	UserIDKey      contextKey = "userID"
	requestUserKey contextKey = "requestUser"
)

// requestUser is a mutable slot the logger middleware installs before auth
// runs. Auth derives a new request when it attaches the user ID, so the
// logger's own request never sees UserIDKey; writing into the shared slot
// lets the log line carry the resolved user anyway.
type requestUser struct {
	id string
}

// TokenResolver maps a bearer token to a user ID. Implemented by the auth
// service; middleware never inspects tokens itself.
type TokenResolver interface {
	ResolveToken(token string) (string, error)
}

func AuthMiddleware(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			userID, err := resolver.ResolveToken(parts[1])
			if err != nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			if ru, ok := r.Context().Value(requestUserKey).(*requestUser); ok {
				ru.id = userID
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
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
