package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/movie-service/internal/config"
	"github.com/spec-kit/movie-service/internal/events"
	"github.com/spec-kit/movie-service/internal/notify"
)

// NotificationService turns domain events into mail jobs.
type NotificationService struct {
	dispatcher events.Dispatcher
	queue      notify.MailQueue
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, queue notify.MailQueue, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		queue:      queue,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventVerificationRequested, n.handleVerificationRequested)
	n.dispatcher.Subscribe(events.EventUserVerified, n.handleAudit)
	n.dispatcher.Subscribe(events.EventUserLoggedOut, n.handleAudit)
}

func (n *NotificationService) handleVerificationRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.VerificationRequestedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if n.queue == nil {
		n.logger.Warn("mail queue not configured; dropping verification mail", zap.String("session_id", payload.SessionID))
		return nil
	}

	err := n.queue.Enqueue(ctx, notify.VerificationMail{
		From:      n.cfg.EmailFrom,
		Email:     payload.Email,
		Username:  payload.Username,
		SessionID: payload.SessionID,
		Code:      payload.Code,
	})
	if err != nil {
		return err
	}
	n.logger.Info("verification mail queued",
		zap.String("event_id", event.ID),
		zap.String("session_id", payload.SessionID))
	return nil
}

func (n *NotificationService) handleAudit(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("event_id", event.ID), zap.String("subject", event.Subject))
	return nil
}
