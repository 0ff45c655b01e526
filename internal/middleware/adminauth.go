package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AdminSubjectKey is the context key for the authenticated admin.
	AdminSubjectKey ContextKey = "admin_subject"
)

// AdminClaims are the JWT claims accepted on analytics dashboard tokens.
type AdminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// AdminAuth guards the analytics query endpoints with an HMAC-signed
// bearer token. The chat surface itself is unauthenticated.
func AdminAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header format"}`, http.StatusUnauthorized)
				return
			}

			claims := &AdminClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			if claims.Role != "admin" {
				http.Error(w, `{"error":"insufficient permissions"}`, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), AdminSubjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminSubject gets the authenticated admin subject from context.
func GetAdminSubject(ctx context.Context) string {
	if v := ctx.Value(AdminSubjectKey); v != nil {
		return v.(string)
	}
	return ""
}
