// Package notify hands outbound mail to the external delivery worker.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/movie-service/internal/domain"
)

const DefaultQueue = "queue:mail:verification"

// VerificationMail is the work item consumed by the mail worker.
type VerificationMail struct {
	From      string `json:"from"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

// MailQueue accepts verification mail jobs. Delivery and retries happen elsewhere.
type MailQueue interface {
	Enqueue(ctx context.Context, job VerificationMail) error
}

// RedisMailQueue pushes JSON jobs onto a Redis list. Consumers pop from the other end.
type RedisMailQueue struct {
	client redis.UniversalClient
	queue  string
}

// NewRedisMailQueue builds a queue on the named list.
func NewRedisMailQueue(client redis.UniversalClient, queue string) *RedisMailQueue {
	if queue == "" {
		queue = DefaultQueue
	}
	return &RedisMailQueue{client: client, queue: queue}
}

func (q *RedisMailQueue) Enqueue(ctx context.Context, job VerificationMail) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode mail job: %w", err)
	}
	if err := q.client.LPush(ctx, q.queue, payload).Err(); err != nil {
		return fmt.Errorf("%w: enqueue mail: %w", domain.ErrDependencyUnavailable, err)
	}
	return nil
}
