package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/movie-service/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// sentinelMapping is ordered: more specific kinds come before the generic ones they may wrap.
var sentinelMapping = []struct {
	target  error
	code    string
	message string
	status  int
}{
	{domain.ErrExpiredToken, "TOKEN_EXPIRED", "token expired", http.StatusUnauthorized},
	{domain.ErrRefreshMismatch, "REFRESH_MISMATCH", "invalid refresh token", http.StatusUnauthorized},
	{domain.ErrInvalidToken, "INVALID_TOKEN", "invalid credentials", http.StatusUnauthorized},
	{domain.ErrUnauthenticated, "UNAUTHORIZED", "not authenticated", http.StatusUnauthorized},
	{domain.ErrInvalidCredentials, "UNAUTHORIZED", "invalid user or password", http.StatusUnauthorized},
	{domain.ErrForbidden, "FORBIDDEN", "permission denied", http.StatusForbidden},
	{domain.ErrRateLimited, "RATE_LIMITED", "too many requests", http.StatusTooManyRequests},
	{domain.ErrUserNotFound, "NOT_FOUND", "user not found", http.StatusNotFound},
	{domain.ErrUserExists, "CONFLICT", "user with this email or username already exists", http.StatusConflict},
	{domain.ErrAlreadyVerified, "ALREADY_VERIFIED", "user already verified", http.StatusConflict},
	{domain.ErrVerificationFailed, "VERIFICATION_REJECTED", "verification code rejected", http.StatusBadRequest},
	{domain.ErrVerificationExpired, "VERIFICATION_EXPIRED", "verification session expired", http.StatusBadRequest},
	{domain.ErrDependencyUnavailable, "DEPENDENCY_UNAVAILABLE", "dependency unavailable", http.StatusServiceUnavailable},
	{context.DeadlineExceeded, "DEPENDENCY_UNAVAILABLE", "dependency timed out", http.StatusServiceUnavailable},
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	for _, m := range sentinelMapping {
		if errors.Is(err, m.target) {
			return &DomainError{Code: m.code, Message: m.message, HTTPStatus: m.status, Err: err}
		}
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{Code: codeForStatus(fiberErr.Code), Message: fiberErr.Message, HTTPStatus: fiberErr.Code}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_FAILED"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusRequestTimeout:
		return "TIMEOUT"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}
