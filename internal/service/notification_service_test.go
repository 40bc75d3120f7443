package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/movie-service/internal/config"
	"github.com/spec-kit/movie-service/internal/events"
)

func TestNotificationService_QueuesVerificationMail(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	queue := &recordingQueue{}
	NewNotificationService(dispatcher, queue, zap.NewNop(), config.NotificationConfig{EmailFrom: "from@example.com"}).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:   "evt-1",
		Type: events.EventVerificationRequested,
		Payload: events.VerificationRequestedPayload{
			Email: "a@example.com", Username: "alice", SessionID: "s1", Code: "123456",
		},
	})
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "from@example.com", queue.jobs[0].From)
	assert.Equal(t, "123456", queue.jobs[0].Code)
}

func TestNotificationService_Failures(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	queue := &recordingQueue{err: errors.New("down")}
	NewNotificationService(dispatcher, queue, nil, config.NotificationConfig{}).RegisterHandlers()
	ctx := context.Background()

	err := dispatcher.Publish(ctx, events.Event{Type: events.EventVerificationRequested, Payload: events.VerificationRequestedPayload{}})
	require.Error(t, err)

	err = dispatcher.Publish(ctx, events.Event{Type: events.EventVerificationRequested, Payload: "bogus"})
	require.Error(t, err)

	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventUserVerified, Subject: "alice"}))
}
