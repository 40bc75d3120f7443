package dto

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spec-kit/movie-service/internal/domain"
	apperrors "github.com/spec-kit/movie-service/pkg/util"
)

// Column widths of the users table, in characters.
const (
	MaxUsernameLength = 100
	MaxEmailLength    = 255
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

// Normalize trims identifiers in place.
func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

// Validate checks field bounds. Passwords are capped at bcrypt's 72 byte input limit.
func (r RegisterRequest) Validate() error {
	details := map[string]any{}
	if n := utf8.RuneCountInString(r.Username); n < 1 || n > MaxUsernameLength {
		details["username"] = "must be 1 to 100 characters"
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		details["email"] = "must be a valid email address"
	} else if utf8.RuneCountInString(r.Email) > MaxEmailLength {
		details["email"] = "must be at most 255 characters"
	}
	if n := len(r.Password); n < 6 || n > 72 {
		details["password"] = "must be 6 to 72 bytes"
	}
	if r.Role != "" && !domain.Role(r.Role).Valid() {
		details["role"] = "must be user or admin"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid registration payload", details)
	}
	return nil
}

// LoginRequest payload for login. Accepted as form or JSON.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// RefreshRequest carries the refresh token when no cookie is sent.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// TokenResponse is returned by login, refresh and verification.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse maps a domain user to its public view.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		Verified:  u.Verified,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}
