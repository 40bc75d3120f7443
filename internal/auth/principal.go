package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/movie-service/internal/domain"
)

const principalKey = "auth_principal"

type ctxKey string

const principalCtxKey ctxKey = "movie.principal"

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
}

// Subject returns the token subject (username) of the caller.
func (p *Principal) Subject() string {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.Username
}

// WithPrincipal stores the caller in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// FromContext fetches the caller stored by WithPrincipal.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(*Principal)
	return p, ok && p != nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
