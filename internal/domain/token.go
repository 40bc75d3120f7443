package domain

import "time"

// TokenType distinguishes short-lived access tokens from long-lived refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Valid reports whether t is one of the two supported token types.
func (t TokenType) Valid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

// Claims is the signed payload of a token. Values are never mutated after issuance.
type Claims struct {
	Subject   string
	Type      TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}
