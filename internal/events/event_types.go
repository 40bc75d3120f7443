package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventVerificationRequested EventType = "verification_requested"
	EventUserVerified          EventType = "user_verified"
	EventUserLoggedOut         EventType = "user_logged_out"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// VerificationRequestedPayload carries what the mail worker needs to send the code.
type VerificationRequestedPayload struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

// UserVerifiedPayload payload.
type UserVerifiedPayload struct {
	UserID string `json:"user_id"`
}
