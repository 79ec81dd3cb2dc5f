// Package notify defines the notification interface and implementations
// for match delivery.
package notify

import (
	"context"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// Notifier defines the interface for delivering match notifications.
type Notifier interface {
	SendNotification(ctx context.Context, n *domain.Notification) error
}
