package domain

import "errors"

// Sentinel errors shared by the auth core and its adapters.
var (
	// ErrInvalidTokenType is a programming error: a token was requested with an unknown type.
	ErrInvalidTokenType = errors.New("invalid token type")

	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")

	// ErrRefreshMismatch means the presented refresh token is not the one on record and may be compromised.
	ErrRefreshMismatch = errors.New("refresh token mismatch")

	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("permission denied")
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidCredentials = errors.New("invalid user or password")

	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user with this email or username already exists")
	ErrAlreadyVerified     = errors.New("user already verified")
	ErrVerificationFailed  = errors.New("verification code rejected")
	ErrVerificationExpired = errors.New("verification session expired")

	// ErrDependencyUnavailable wraps I/O failures of the key-value store, limiter or directory.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
