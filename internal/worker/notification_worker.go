package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/movie-service/internal/service"
)

// StartNotificationWorker wires notification handlers onto the dispatcher.
// Mail delivery itself runs in a separate process reading the queue.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		logger.Warn("notification service not configured; verification mail disabled")
		return
	}
	notificationService.RegisterHandlers()
	logger.Info("notification handlers registered")
}
