package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const userEmailKey contextKey = "userEmail"

type portalClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// PortalIdentity reads the caller's email from an HMAC-signed bearer token
// issued by the external auth provider. The middleware never rejects a
// request: anonymous callers are allowed through without an identity, since
// booking works before sign-in.
func PortalIdentity(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if secret == "" || auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := portalClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				next.ServeHTTP(w, r)
				return
			}

			email := strings.ToLower(strings.TrimSpace(claims.Email))
			if email == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userEmailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EmailFromContext returns the normalized email of the signed-in user.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userEmailKey).(string)
	return email, ok && email != ""
}

// WithEmail injects an identity into the context; test helper for handlers.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userEmailKey, strings.ToLower(strings.TrimSpace(email)))
}
