package domain

import "time"

// Role is the authorization role carried by a caller.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the caller identity owned by the user directory.
type User struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	Role             Role
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt *time.Time
	Active           bool
	Verified         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// TokenUpdate replaces the stored credentials of a user. Empty strings and a nil
// expiry clear the corresponding columns.
type TokenUpdate struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt *time.Time
	Active           bool
}
