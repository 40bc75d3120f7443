// Package verification manages one-time email verification codes.
package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/movie-service/internal/domain"
	"github.com/spec-kit/movie-service/internal/observability"
	"github.com/spec-kit/movie-service/internal/persistence"
)

const (
	DefaultTTL         = 600 * time.Second
	DefaultMaxAttempts = 5

	keyPrefix = "verify:"
	codeMin   = 100000
	codeSpan  = 900000
)

// record is the stored form of a session. The session id lives in the key.
type record struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// Config tunes session lifetime and the attempt cap. Zero values use the defaults.
type Config struct {
	TTL         time.Duration
	MaxAttempts int
}

// Store creates and consumes verification sessions on a KeyValueStore.
type Store struct {
	kv          persistence.KeyValueStore
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewStore builds a session store on kv.
func NewStore(kv persistence.KeyValueStore, cfg Config, metrics *observability.Metrics, logger *zap.Logger) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		kv:          kv,
		ttl:         cfg.TTL,
		maxAttempts: cfg.MaxAttempts,
		now:         time.Now,
		metrics:     metrics,
		logger:      logger,
	}
}

// WithClock replaces the time source stamped on new sessions.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Create opens a session for email and returns its id and one-time code.
func (s *Store) Create(ctx context.Context, email string) (string, string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", "", fmt.Errorf("generate session id: %w", err)
	}
	code, err := generateCode()
	if err != nil {
		return "", "", err
	}

	raw, err := json.Marshal(record{Email: email, Code: code, CreatedAt: s.now().UTC()})
	if err != nil {
		return "", "", fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.SetWithTTL(ctx, keyPrefix+id.String(), raw, s.ttl); err != nil {
		return "", "", err
	}

	s.logger.Info("verification session created",
		zap.String("session_id", id.String()),
		zap.Duration("ttl", s.ttl))
	return id.String(), code, nil
}

// Consume presents code against the session. The record is deleted on success
// and once the attempt cap is exceeded. A failed attempt keeps the original expiry.
func (s *Store) Consume(ctx context.Context, sessionID, code string) (domain.VerificationOutcome, error) {
	key := keyPrefix + sessionID

	// Every lost swap means another caller advanced the record, so the loop ends
	// once the record is deleted.
	for i := 0; i < s.maxAttempts+2; i++ {
		raw, ttl, err := s.kv.GetWithRemainingTTL(ctx, key)
		if err != nil {
			return "", err
		}
		if raw == nil || ttl <= 0 {
			return s.finish(sessionID, domain.VerificationExpired, 0), nil
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Warn("discarding unreadable verification session",
				zap.String("session_id", sessionID), zap.Error(err))
			if _, err := s.kv.CompareAndSwapOrDelete(ctx, key, raw, nil); err != nil {
				return "", err
			}
			return s.finish(sessionID, domain.VerificationExpired, 0), nil
		}

		attempts := rec.Attempts + 1
		var (
			next    []byte
			outcome domain.VerificationOutcome
		)
		switch {
		case attempts > s.maxAttempts:
			outcome = domain.VerificationRejected
		case subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) == 1:
			outcome = domain.VerificationVerified
		default:
			rec.Attempts = attempts
			next, err = json.Marshal(rec)
			if err != nil {
				return "", fmt.Errorf("encode session: %w", err)
			}
			outcome = domain.VerificationRejected
		}

		swapped, err := s.kv.CompareAndSwapOrDelete(ctx, key, raw, next)
		if err != nil {
			return "", err
		}
		if swapped {
			return s.finish(sessionID, outcome, attempts), nil
		}
		s.logger.Debug("verification session changed concurrently; retrying", zap.String("session_id", sessionID))
	}

	return "", fmt.Errorf("%w: verification session %s is contended", domain.ErrDependencyUnavailable, sessionID)
}

// Lookup returns the live session without consuming an attempt. Missing and
// unreadable records both report domain.ErrVerificationExpired.
func (s *Store) Lookup(ctx context.Context, sessionID string) (*domain.VerificationSession, error) {
	raw, ttl, err := s.kv.GetWithRemainingTTL(ctx, keyPrefix+sessionID)
	if err != nil {
		return nil, err
	}
	if raw == nil || ttl <= 0 {
		return nil, domain.ErrVerificationExpired
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: unreadable session: %v", domain.ErrVerificationExpired, err)
	}
	return &domain.VerificationSession{
		ID:           sessionID,
		Email:        rec.Email,
		Code:         rec.Code,
		Attempts:     rec.Attempts,
		CreatedAt:    rec.CreatedAt,
		TTLRemaining: ttl,
	}, nil
}

func (s *Store) finish(sessionID string, outcome domain.VerificationOutcome, attempts int) domain.VerificationOutcome {
	s.metrics.RecordVerification(string(outcome))
	fields := []zap.Field{zap.String("session_id", sessionID), zap.String("outcome", string(outcome)), zap.Int("attempts", attempts)}
	if outcome == domain.VerificationRejected {
		s.logger.Warn("verification code rejected", fields...)
	} else {
		s.logger.Info("verification session consumed", fields...)
	}
	return outcome
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

