package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/movie-service/internal/domain"
)

// ClaimsCodec signs and parses token claims as HS256 JWTs.
// It holds no mutable state and is safe for concurrent use.
type ClaimsCodec struct {
	secret []byte
	now    func() time.Time
}

// CodecOption customizes a ClaimsCodec.
type CodecOption func(*ClaimsCodec)

// WithClock replaces the time source used for expiry checks and issuance.
func WithClock(now func() time.Time) CodecOption {
	return func(c *ClaimsCodec) { c.now = now }
}

// NewClaimsCodec builds a codec for the shared secret.
func NewClaimsCodec(secret string, opts ...CodecOption) *ClaimsCodec {
	c := &ClaimsCodec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// tokenClaims is the wire form: sub, type, iat, exp.
type tokenClaims struct {
	Type domain.TokenType `json:"type"`
	jwt.RegisteredClaims
}

// Now returns the codec's current time.
func (c *ClaimsCodec) Now() time.Time {
	return c.now()
}

// Encode signs claims. Every field, including type and expiry, is covered by the signature.
func (c *ClaimsCodec) Encode(claims domain.Claims) (string, error) {
	if !claims.Type.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidTokenType, claims.Type)
	}
	if claims.Subject == "" {
		return "", errors.New("encode token: empty subject")
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		return "", errors.New("encode token: expiry must be after issuance")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &tokenClaims{
		Type: claims.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and structure of token and returns its claims.
// Expired tokens fail with domain.ErrExpiredToken, everything else with domain.ErrInvalidToken.
func (c *ClaimsCodec) Decode(token string) (domain.Claims, error) {
	if token == "" {
		return domain.Claims{}, fmt.Errorf("%w: empty token", domain.ErrInvalidToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	var parsed tokenClaims
	if _, err := parser.ParseWithClaims(token, &parsed, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Claims{}, domain.ErrExpiredToken
		}
		return domain.Claims{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	if parsed.Subject == "" {
		return domain.Claims{}, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	if !parsed.Type.Valid() {
		return domain.Claims{}, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidToken, parsed.Type)
	}

	claims := domain.Claims{
		Subject:   parsed.Subject,
		Type:      parsed.Type,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	return claims, nil
}
