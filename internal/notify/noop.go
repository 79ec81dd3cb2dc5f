package notify

import (
	"context"
	"log/slog"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// NoOpNotifier implements Notifier by logging discarded notifications. It is
// used when Discord (or another delivery backend) is not configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards notifications with a log
// message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendNotification logs and discards a notification.
func (n *NoOpNotifier) SendNotification(_ context.Context, note *domain.Notification) error {
	n.log.Debug("notification discarded (no backend configured)",
		"market_name", note.MarketName,
		"type", string(note.NotificationType),
	)
	return nil
}
