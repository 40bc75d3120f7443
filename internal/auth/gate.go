package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/movie-service/internal/domain"
	"github.com/spec-kit/movie-service/internal/observability"
	"github.com/spec-kit/movie-service/internal/ratelimit"
)

// Policy is the admission configuration of one protected operation.
// An empty AllowedRoles admits admins only. A nil RateLimit disables limiting.
type Policy struct {
	AllowedRoles []domain.Role
	RateLimit    *ratelimit.Limit
}

func (p Policy) allows(role domain.Role) bool {
	for _, allowed := range p.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// AdmissionRequest carries the transport facts the gate needs.
type AdmissionRequest struct {
	Authorization string
	ClientAddr    string
	Operation     string
}

// PermissionGate is the single enforcement point in front of protected operations.
// Checks run in a fixed order: token, identity, role, rate limit. Admins skip the
// role and rate limit checks.
type PermissionGate struct {
	tokens  *TokenService
	users   UserDirectory
	limiter ratelimit.Limiter
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewPermissionGate builds the gate. limiter may be nil to disable rate limiting.
func NewPermissionGate(tokens *TokenService, users UserDirectory, limiter ratelimit.Limiter, metrics *observability.Metrics, logger *zap.Logger) *PermissionGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionGate{tokens: tokens, users: users, limiter: limiter, metrics: metrics, logger: logger}
}

// Admit runs the admission pipeline and returns the resolved caller.
func (g *PermissionGate) Admit(ctx context.Context, req AdmissionRequest, policy Policy) (*Principal, error) {
	token, err := bearerToken(req.Authorization)
	if err != nil {
		g.metrics.RecordGateDecision(req.Operation, "unauthenticated")
		return nil, err
	}
	subject, err := g.tokens.VerifyAccess(token)
	if err != nil {
		g.metrics.RecordGateDecision(req.Operation, "unauthenticated")
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	user, err := g.users.LookupByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			g.metrics.RecordGateDecision(req.Operation, "not_found")
			return nil, err
		}
		g.metrics.RecordGateDecision(req.Operation, "error")
		return nil, dependencyError("lookup user", err)
	}
	if !user.Active {
		g.metrics.RecordGateDecision(req.Operation, "unauthenticated")
		return nil, fmt.Errorf("%w: session revoked", domain.ErrUnauthenticated)
	}
	principal := &Principal{User: user}

	if user.IsAdmin() {
		g.metrics.RecordGateDecision(req.Operation, "admin_bypass")
		return principal, nil
	}

	if !policy.allows(user.Role) {
		g.metrics.RecordGateDecision(req.Operation, "forbidden")
		g.logger.Debug("role denied",
			zap.String("operation", req.Operation),
			zap.String("subject", user.Username),
			zap.String("role", string(user.Role)))
		return nil, domain.ErrForbidden
	}

	if policy.RateLimit != nil && g.limiter != nil {
		ok, err := g.limiter.Allow(ctx, ratelimit.Key(req.ClientAddr, req.Operation), *policy.RateLimit)
		if err != nil {
			g.metrics.RecordGateDecision(req.Operation, "error")
			return nil, dependencyError("rate limiter", err)
		}
		if !ok {
			g.metrics.RecordGateDecision(req.Operation, "rate_limited")
			g.logger.Info("rate limit exceeded",
				zap.String("operation", req.Operation),
				zap.String("client", req.ClientAddr),
				zap.String("limit", policy.RateLimit.String()))
			return nil, domain.ErrRateLimited
		}
	}

	g.metrics.RecordGateDecision(req.Operation, "admitted")
	return principal, nil
}

// Protect returns a fiber handler that admits the request for operation and
// passes the resolved caller to the next handler.
func (g *PermissionGate) Protect(operation string, policy Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := g.Admit(c.UserContext(), AdmissionRequest{
			Authorization: c.Get(fiber.HeaderAuthorization),
			ClientAddr:    c.IP(),
			Operation:     operation,
		}, policy)
		if err != nil {
			return err
		}
		c.Locals(principalKey, principal)
		c.SetUserContext(WithPrincipal(c.UserContext(), principal))
		return c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", domain.ErrUnauthenticated)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: invalid authorization header", domain.ErrUnauthenticated)
	}
	return strings.TrimSpace(parts[1]), nil
}
