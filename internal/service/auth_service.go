package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/movie-service/internal/auth"
	"github.com/spec-kit/movie-service/internal/config"
	"github.com/spec-kit/movie-service/internal/domain"
	"github.com/spec-kit/movie-service/internal/events"
	"github.com/spec-kit/movie-service/internal/repository"
	apperrors "github.com/spec-kit/movie-service/pkg/util"
)

// VerificationStore opens and consumes one-time email codes.
type VerificationStore interface {
	Create(ctx context.Context, email string) (string, string, error)
	Lookup(ctx context.Context, sessionID string) (*domain.VerificationSession, error)
	Consume(ctx context.Context, sessionID, code string) (domain.VerificationOutcome, error)
}

// AuthService coordinates registration, verification and session flows.
type AuthService struct {
	users            repository.UserRepository
	tokens           *auth.TokenService
	sessions         VerificationStore
	dispatcher       events.Dispatcher
	bcryptCost       int
	allowAdminSignup bool
	now              func() time.Time
	logger           *zap.Logger
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Users      repository.UserRepository
	Tokens     *auth.TokenService
	Sessions   VerificationStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:            deps.Users,
		tokens:           deps.Tokens,
		sessions:         deps.Sessions,
		dispatcher:       deps.Dispatcher,
		bcryptCost:       cfg.BcryptCost,
		allowAdminSignup: cfg.AllowAdminSignup,
		now:              time.Now,
		logger:           logger,
	}
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// Registration is the outcome of a successful sign-up.
type Registration struct {
	User      *domain.User
	SessionID string
}

// Register creates the account, opens a verification session and requests the code mail.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	if role == domain.RoleAdmin && !s.allowAdminSignup {
		return nil, fmt.Errorf("%w: admin accounts cannot self-register", domain.ErrForbidden)
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, dependency("check user", err)
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	access, err := s.tokens.Issue(in.Username, domain.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(in.Username, domain.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:         in.Username,
		Email:            in.Email,
		PasswordHash:     hash,
		Role:             role,
		AccessToken:      access.Value,
		RefreshToken:     refresh.Value,
		RefreshExpiresAt: &refresh.ExpiresAt,
		Active:           true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, dependency("create user", err)
	}

	sessionID, code, err := s.sessions.Create(ctx, user.Email)
	if err != nil {
		s.logger.Error("verification session not created", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	// Mail delivery is best effort; the account exists either way.
	if err := s.publish(ctx, events.EventVerificationRequested, user.Username, events.VerificationRequestedPayload{
		Email:     user.Email,
		Username:  user.Username,
		SessionID: sessionID,
		Code:      code,
	}); err != nil {
		s.logger.Warn("verification mail not queued", zap.String("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return &Registration{User: user, SessionID: sessionID}, nil
}

// VerifyEmail consumes the one-time code and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, username, sessionID, code string) (auth.IssuedToken, error) {
	user, err := s.users.LookupByUsername(ctx, username)
	if err != nil {
		return auth.IssuedToken{}, dependency("lookup user", err)
	}
	if user.Verified {
		return auth.IssuedToken{}, domain.ErrAlreadyVerified
	}
	if sessionID == "" {
		return auth.IssuedToken{}, fmt.Errorf("%w: verification session required", domain.ErrVerificationExpired)
	}

	// A session only verifies the address it was opened for.
	session, err := s.sessions.Lookup(ctx, sessionID)
	if err != nil {
		return auth.IssuedToken{}, err
	}
	if !strings.EqualFold(session.Email, user.Email) {
		s.logger.Warn("verification session presented for another account",
			zap.String("user_id", user.ID), zap.String("session_id", sessionID))
		return auth.IssuedToken{}, fmt.Errorf("%w: session not issued for this account", domain.ErrVerificationFailed)
	}

	outcome, err := s.sessions.Consume(ctx, sessionID, code)
	if err != nil {
		return auth.IssuedToken{}, err
	}
	switch outcome {
	case domain.VerificationVerified:
	case domain.VerificationExpired:
		return auth.IssuedToken{}, domain.ErrVerificationExpired
	default:
		return auth.IssuedToken{}, domain.ErrVerificationFailed
	}

	if err := s.users.SetVerified(ctx, user.ID); err != nil {
		return auth.IssuedToken{}, dependency("set verified", err)
	}
	if err := s.publish(ctx, events.EventUserVerified, user.Username, events.UserVerifiedPayload{UserID: user.ID}); err != nil {
		s.logger.Warn("user verified event failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return s.tokens.Issue(user.Username, domain.TokenTypeAccess)
}

// Login checks credentials and hands out an access token plus the current refresh token.
func (s *AuthService) Login(ctx context.Context, username, password string) (auth.LoginTokens, error) {
	user, err := s.users.LookupByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return auth.LoginTokens{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return auth.LoginTokens{}, dependency("lookup user", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login rejected", zap.String("user_id", user.ID))
		return auth.LoginTokens{}, domain.ErrInvalidCredentials
	}

	tokens, err := s.tokens.RotateOnLogin(user)
	if err != nil {
		return auth.LoginTokens{}, err
	}
	expires := tokens.Refresh.ExpiresAt
	if err := s.users.UpdateTokens(ctx, user.ID, domain.TokenUpdate{
		AccessToken:      tokens.Access.Value,
		RefreshToken:     tokens.Refresh.Value,
		RefreshExpiresAt: &expires,
		Active:           true,
	}); err != nil {
		return auth.LoginTokens{}, dependency("store tokens", err)
	}
	return tokens, nil
}

// Logout revokes the caller's stored tokens.
func (s *AuthService) Logout(ctx context.Context, subject string) error {
	if err := s.tokens.Revoke(ctx, subject); err != nil {
		return err
	}
	if err := s.publish(ctx, events.EventUserLoggedOut, subject, nil); err != nil {
		s.logger.Warn("logout event failed", zap.String("subject", subject), zap.Error(err))
	}
	return nil
}

// Refresh exchanges the stored refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (auth.IssuedToken, error) {
	if refreshToken == "" {
		return auth.IssuedToken{}, fmt.Errorf("%w: refresh token required", domain.ErrUnauthenticated)
	}
	return s.tokens.Refresh(ctx, refreshToken)
}

// Me returns the profile of the authenticated caller.
func (s *AuthService) Me(principal *auth.Principal) (*domain.User, error) {
	if principal == nil || principal.User == nil {
		return nil, domain.ErrUnauthenticated
	}
	return principal.User, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subject string, payload any) error {
	if s.dispatcher == nil {
		return nil
	}
	return s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: s.now().UTC(),
		Payload:   payload,
	})
}

// dependency tags directory failures. Domain sentinels pass through unchanged.
func dependency(op string, err error) error {
	for _, known := range []error{domain.ErrUserNotFound, domain.ErrUserExists, domain.ErrDependencyUnavailable} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrDependencyUnavailable, op, err)
}
