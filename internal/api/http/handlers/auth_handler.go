package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/movie-service/internal/api/dto"
	"github.com/spec-kit/movie-service/internal/auth"
	"github.com/spec-kit/movie-service/internal/domain"
	"github.com/spec-kit/movie-service/internal/service"
	apperrors "github.com/spec-kit/movie-service/pkg/util"
)

const (
	RefreshCookie      = "refresh_token"
	VerificationCookie = "verification_session"
)

// AuthHandler exposes the account endpoints.
type AuthHandler struct {
	auth          *service.AuthService
	refreshMaxAge time.Duration
	sessionMaxAge time.Duration
	secureCookies bool
}

// AuthHandlerConfig controls cookie lifetimes and flags.
type AuthHandlerConfig struct {
	RefreshMaxAge time.Duration
	SessionMaxAge time.Duration
	SecureCookies bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cfg AuthHandlerConfig) *AuthHandler {
	if cfg.RefreshMaxAge <= 0 {
		cfg.RefreshMaxAge = auth.DefaultRefreshTTL
	}
	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = 600 * time.Second
	}
	return &AuthHandler{
		auth:          authService,
		refreshMaxAge: cfg.RefreshMaxAge,
		sessionMaxAge: cfg.SessionMaxAge,
		secureCookies: cfg.SecureCookies,
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	reg, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     VerificationCookie,
		Value:    reg.SessionID,
		MaxAge:   int(h.sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"status":     "registered",
			"user":       dto.NewUserResponse(reg.User),
			"session_id": reg.SessionID,
		},
	})
}

// VerifyEmail handles GET /api/v1/auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	username := c.Query("username")
	code := c.Query("code")
	if username == "" || code == "" {
		return apperrors.NewValidationError("username and code required", nil)
	}
	sessionID := c.Cookies(VerificationCookie)
	if sessionID == "" {
		sessionID = c.Query("session_id")
	}

	token, err := h.auth.VerifyEmail(c.UserContext(), username, sessionID, code)
	if err != nil {
		return err
	}

	c.ClearCookie(VerificationCookie)
	return c.JSON(fiber.Map{"data": accessResponse(token)})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	tokens, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookie,
		Value:    tokens.Refresh.Value,
		MaxAge:   int(h.refreshMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return c.JSON(fiber.Map{"data": accessResponse(tokens.Access)})
}

// Refresh handles POST /api/v1/auth/refresh. The cookie wins over the body.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(RefreshCookie)
	if token == "" {
		var req dto.RefreshRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return apperrors.NewValidationError("invalid payload", nil)
			}
		}
		token = req.RefreshToken
	}

	access, err := h.auth.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": accessResponse(access)})
}

// Logout handles POST /api/v1/auth/logout behind the gate.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.ErrUnauthenticated
	}
	if err := h.auth.Logout(c.UserContext(), principal.Subject()); err != nil {
		return err
	}
	c.ClearCookie(RefreshCookie)
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "logged_out"}})
}

// Me handles GET /api/v1/auth/me behind the gate.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	user, err := h.auth.Me(principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

func accessResponse(token auth.IssuedToken) dto.TokenResponse {
	return dto.TokenResponse{AccessToken: token.Value, TokenType: "bearer", ExpiresAt: token.ExpiresAt}
}
