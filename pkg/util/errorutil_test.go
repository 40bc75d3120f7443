package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/movie-service/internal/domain"
)

func TestToDomainError_Sentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"expired token wrapped in unauthenticated", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, domain.ErrExpiredToken), "TOKEN_EXPIRED", http.StatusUnauthorized},
		{"invalid token", fmt.Errorf("decode: %w", domain.ErrInvalidToken), "INVALID_TOKEN", http.StatusUnauthorized},
		{"refresh mismatch", domain.ErrRefreshMismatch, "REFRESH_MISMATCH", http.StatusUnauthorized},
		{"missing bearer", domain.ErrUnauthenticated, "UNAUTHORIZED", http.StatusUnauthorized},
		{"forbidden", domain.ErrForbidden, "FORBIDDEN", http.StatusForbidden},
		{"rate limited", domain.ErrRateLimited, "RATE_LIMITED", http.StatusTooManyRequests},
		{"user not found", domain.ErrUserNotFound, "NOT_FOUND", http.StatusNotFound},
		{"user exists", domain.ErrUserExists, "CONFLICT", http.StatusConflict},
		{"verification rejected", domain.ErrVerificationFailed, "VERIFICATION_REJECTED", http.StatusBadRequest},
		{"verification expired", domain.ErrVerificationExpired, "VERIFICATION_EXPIRED", http.StatusBadRequest},
		{"dependency", fmt.Errorf("%w: redis: %w", domain.ErrDependencyUnavailable, errors.New("dial tcp")), "DEPENDENCY_UNAVAILABLE", http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, "DEPENDENCY_UNAVAILABLE", http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.status, de.HTTPStatus)
		})
	}
}

func TestToDomainError_PassesThroughDomainError(t *testing.T) {
	original := NewDomainError("FORBIDDEN", "nope", http.StatusForbidden, nil)
	de := ToDomainError(fmt.Errorf("wrapped: %w", original))
	assert.Same(t, original, error(de))
}

func TestToDomainError_FiberError(t *testing.T) {
	de := ToDomainError(fiber.NewError(http.StatusNotFound, "Cannot GET /nope"))
	assert.Equal(t, "NOT_FOUND", de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	assert.Equal(t, "Cannot GET /nope", de.Message)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}
