package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/identity/service"
)

type contextKey string

const (
	contextKeyUserID contextKey = "user_id"
	contextKeyEmail  contextKey = "email"
)

type AuthMiddleware struct {
	jwt *service.JWT
}

func NewAuthMiddleware(jwt *service.JWT) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Authenticate accepts a bearer JWT minted by the identity shim. Full
// account/role management lives outside this service; this middleware only
// needs to establish which customer is making the request.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(raw, "Bearer"))
		token = strings.TrimSpace(token)
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwt.ParseToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, contextKeyEmail, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(contextKeyUserID).(string)
	return v, ok && v != ""
}
