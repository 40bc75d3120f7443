package domain

import "time"

// VerificationOutcome is the result of presenting a one-time code.
type VerificationOutcome string

const (
	VerificationVerified VerificationOutcome = "verified"
	VerificationRejected VerificationOutcome = "rejected"
	VerificationExpired  VerificationOutcome = "expired"
)

// VerificationSession binds an email address to a one-time numeric code.
type VerificationSession struct {
	ID           string
	Email        string
	Code         string
	Attempts     int
	CreatedAt    time.Time
	TTLRemaining time.Duration
}
