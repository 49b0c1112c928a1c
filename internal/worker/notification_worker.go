package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/service"
)

// StartNotificationWorker wires milestone notification delivery onto the
// replay's dispatcher. It must run before the first command is processed.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
	if logger != nil {
		logger.Debug("notification handlers registered")
	}
}
