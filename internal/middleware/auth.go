package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/identity"
)

type ctxKey string

const (
	CtxUserID    ctxKey = "uid"
	CtxRole      ctxKey = "role"
	CtxEmail     ctxKey = "email"
	CtxFirstName ctxKey = "firstName"
	CtxLastName  ctxKey = "lastName"
)

// TokenParser verifies a bearer token and returns its claims.
type TokenParser interface {
	ParseToken(token string) (*identity.Claims, error)
}

// WithAuth extracts and verifies the Authorization bearer token. A
// missing or invalid token leaves the request unauthenticated; the
// route's RequireAuth/RequireRoles middleware decides whether that is
// fatal.
func WithAuth(log zerolog.Logger, parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := parser.ParseToken(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				log.Debug().Err(err).Msg("bearer token rejected")
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), CtxUserID, claims.Subject)
			ctx = context.WithValue(ctx, CtxRole, claims.Role)
			ctx = context.WithValue(ctx, CtxEmail, claims.Email)
			ctx = context.WithValue(ctx, CtxFirstName, claims.GivenName)
			ctx = context.WithValue(ctx, CtxLastName, claims.FamilyName)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
