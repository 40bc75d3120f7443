package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/movie-service/internal/domain"
)

const testSecret = "test-secret-key-at-least-32-bytes-long"

func TestClaimsCodec_RoundTrip(t *testing.T) {
	clock := newFakeClock()
	codec := NewClaimsCodec(testSecret, WithClock(clock.Now))

	claims := domain.Claims{
		Subject:   "alice",
		Type:      domain.TokenTypeRefresh,
		IssuedAt:  clock.Now(),
		ExpiresAt: clock.Now().Add(time.Hour),
	}
	token, err := codec.Encode(claims)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, claims.Subject, decoded.Subject)
	assert.Equal(t, claims.Type, decoded.Type)
	assert.True(t, claims.IssuedAt.Equal(decoded.IssuedAt))
	assert.True(t, claims.ExpiresAt.Equal(decoded.ExpiresAt))
}

func TestClaimsCodec_EncodeIsDeterministic(t *testing.T) {
	clock := newFakeClock()
	codec := NewClaimsCodec(testSecret, WithClock(clock.Now))
	claims := domain.Claims{Subject: "alice", Type: domain.TokenTypeAccess, IssuedAt: clock.Now(), ExpiresAt: clock.Now().Add(time.Minute)}

	a, err := codec.Encode(claims)
	require.NoError(t, err)
	b, err := codec.Encode(claims)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestClaimsCodec_Expired(t *testing.T) {
	clock := newFakeClock()
	codec := NewClaimsCodec(testSecret, WithClock(clock.Now))
	token, err := codec.Encode(domain.Claims{Subject: "alice", Type: domain.TokenTypeAccess, IssuedAt: clock.Now(), ExpiresAt: clock.Now().Add(time.Minute)})
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)
	_, err = codec.Decode(token)
	require.ErrorIs(t, err, domain.ErrExpiredToken)
}

func TestClaimsCodec_RejectsForgedTokens(t *testing.T) {
	clock := newFakeClock()
	codec := NewClaimsCodec(testSecret, WithClock(clock.Now))
	valid, err := codec.Encode(domain.Claims{Subject: "alice", Type: domain.TokenTypeAccess, IssuedAt: clock.Now(), ExpiresAt: clock.Now().Add(time.Minute)})
	require.NoError(t, err)

	signWith := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(clock.Now().Add(time.Minute))

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "wrong secret", token: signWith(jwt.SigningMethodHS256, []byte("other-secret"), &tokenClaims{
			Type:             domain.TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: exp},
		})},
		{name: "tampered type", token: tamperPayload(t, valid, `"access"`, `"refresh"`)},
		{name: "tampered subject", token: tamperPayload(t, valid, `"alice"`, `"root"`)},
		{name: "alg none", token: signWith(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &tokenClaims{
			Type:             domain.TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: exp},
		})},
		{name: "unknown type", token: signWith(jwt.SigningMethodHS256, []byte(testSecret), &tokenClaims{
			Type:             domain.TokenType("session"),
			RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: exp},
		})},
		{name: "missing subject", token: signWith(jwt.SigningMethodHS256, []byte(testSecret), &tokenClaims{
			Type:             domain.TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
		})},
		{name: "missing expiry", token: signWith(jwt.SigningMethodHS256, []byte(testSecret), &tokenClaims{
			Type:             domain.TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.token)
			require.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}

func TestClaimsCodec_EncodeValidation(t *testing.T) {
	clock := newFakeClock()
	codec := NewClaimsCodec(testSecret, WithClock(clock.Now))
	now := clock.Now()

	_, err := codec.Encode(domain.Claims{Subject: "alice", Type: "bearer", IssuedAt: now, ExpiresAt: now.Add(time.Minute)})
	require.ErrorIs(t, err, domain.ErrInvalidTokenType)

	_, err = codec.Encode(domain.Claims{Subject: "alice", Type: domain.TokenTypeAccess, IssuedAt: now, ExpiresAt: now})
	require.Error(t, err)

	_, err = codec.Encode(domain.Claims{Type: domain.TokenTypeAccess, IssuedAt: now, ExpiresAt: now.Add(time.Minute)})
	require.Error(t, err)
}

// tamperPayload rewrites the payload segment while keeping the original signature.
func tamperPayload(t *testing.T, token, from, to string) string {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	require.Contains(t, string(payload), from)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(strings.Replace(string(payload), from, to, 1)))
	return strings.Join(parts, ".")
}
