package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/movie-service/internal/domain"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// UserDirectory is the identity store consumed by the auth core.
type UserDirectory interface {
	LookupByUsername(ctx context.Context, username string) (*domain.User, error)
	LookupByID(ctx context.Context, id string) (*domain.User, error)
	UpdateTokens(ctx context.Context, id string, update domain.TokenUpdate) error
	SetVerified(ctx context.Context, id string) error
}

// TokenConfig sets token lifetimes. Zero values use the defaults.
type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssuedToken is a signed token with its absolute expiry.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// LoginTokens is the credential set handed out on login.
type LoginTokens struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// TokenService issues and verifies access and refresh tokens.
type TokenService struct {
	codec      *ClaimsCodec
	users      UserDirectory
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

// NewTokenService wires the codec with the user directory.
func NewTokenService(codec *ClaimsCodec, users UserDirectory, cfg TokenConfig, logger *zap.Logger) *TokenService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{
		codec:      codec,
		users:      users,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		logger:     logger,
	}
}

// Issue signs a new token of the given type for subject.
func (s *TokenService) Issue(subject string, tokenType domain.TokenType) (IssuedToken, error) {
	var ttl time.Duration
	switch tokenType {
	case domain.TokenTypeAccess:
		ttl = s.accessTTL
	case domain.TokenTypeRefresh:
		ttl = s.refreshTTL
	default:
		s.logger.Error("token requested with unknown type", zap.String("type", string(tokenType)))
		return IssuedToken{}, fmt.Errorf("%w: %q", domain.ErrInvalidTokenType, tokenType)
	}

	now := s.codec.Now().Truncate(time.Second)
	claims := domain.Claims{
		Subject:   subject,
		Type:      tokenType,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	value, err := s.codec.Encode(claims)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Value: value, ExpiresAt: claims.ExpiresAt}, nil
}

// VerifyAccess returns the subject of a valid access token.
func (s *TokenService) VerifyAccess(token string) (string, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		s.logRejected(err)
		return "", err
	}
	if claims.Type != domain.TokenTypeAccess {
		return "", fmt.Errorf("%w: access token required", domain.ErrInvalidToken)
	}
	return claims.Subject, nil
}

// RotateOnLogin returns a fresh access token and the caller's refresh token.
// A stored refresh token is reused until it actually expires.
func (s *TokenService) RotateOnLogin(user *domain.User) (LoginTokens, error) {
	access, err := s.Issue(user.Username, domain.TokenTypeAccess)
	if err != nil {
		return LoginTokens{}, err
	}

	now := s.codec.Now()
	if user.RefreshToken != "" && user.RefreshExpiresAt != nil && now.Before(*user.RefreshExpiresAt) {
		return LoginTokens{
			Access:  access,
			Refresh: IssuedToken{Value: user.RefreshToken, ExpiresAt: *user.RefreshExpiresAt},
		}, nil
	}

	refresh, err := s.Issue(user.Username, domain.TokenTypeRefresh)
	if err != nil {
		return LoginTokens{}, err
	}
	return LoginTokens{Access: access, Refresh: refresh}, nil
}

// Refresh mints a new access token from a refresh token that matches the one on record.
// The refresh token itself is not rotated.
func (s *TokenService) Refresh(ctx context.Context, presented string) (IssuedToken, error) {
	claims, err := s.codec.Decode(presented)
	if err != nil {
		s.logRejected(err)
		return IssuedToken{}, err
	}
	if claims.Type != domain.TokenTypeRefresh {
		return IssuedToken{}, fmt.Errorf("%w: refresh token required", domain.ErrInvalidToken)
	}

	user, err := s.users.LookupByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return IssuedToken{}, fmt.Errorf("%w: unknown subject", domain.ErrInvalidToken)
		}
		return IssuedToken{}, dependencyError("lookup user", err)
	}
	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(presented)) != 1 {
		s.logger.Warn("refresh token does not match stored token", zap.String("subject", claims.Subject))
		return IssuedToken{}, domain.ErrRefreshMismatch
	}

	return s.Issue(user.Username, domain.TokenTypeAccess)
}

// Revoke clears the stored tokens of subject and marks the account inactive.
func (s *TokenService) Revoke(ctx context.Context, subject string) error {
	user, err := s.users.LookupByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return dependencyError("lookup user", err)
	}
	if err := s.users.UpdateTokens(ctx, user.ID, domain.TokenUpdate{Active: false}); err != nil {
		return dependencyError("clear tokens", err)
	}
	return nil
}

func (s *TokenService) logRejected(err error) {
	if errors.Is(err, domain.ErrExpiredToken) {
		s.logger.Debug("expired token presented")
		return
	}
	s.logger.Warn("invalid token presented", zap.Error(err))
}

// dependencyError tags collaborator I/O failures so they are not confused with
// business-rule rejections. Already classified errors pass through.
func dependencyError(op string, err error) error {
	if errors.Is(err, domain.ErrDependencyUnavailable) || errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrDependencyUnavailable, op, err)
}
