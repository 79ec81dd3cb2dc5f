package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/store"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// NotificationsProvider defines the store methods required by the
// notifications handler.
type NotificationsProvider interface {
	ListNotifiedItems(ctx context.Context, opts *store.NotificationQuery) ([]domain.NotifiedItem, int, error)
}

// NotificationsHandler handles notification history queries.
type NotificationsHandler struct {
	store NotificationsProvider
}

// NewNotificationsHandler creates a new NotificationsHandler.
func NewNotificationsHandler(s NotificationsProvider) *NotificationsHandler {
	return &NotificationsHandler{store: s}
}

// ListNotificationsInput is the input for listing notification history with
// optional filters.
type ListNotificationsInput struct {
	Type    string `query:"type"     doc:"Filter by notification type"    enum:"target_item,keychain,"`
	Keyword string `query:"keyword"  doc:"Filter by matched keyword"`
	Limit   int    `query:"limit"    doc:"Number of results (default 50)" minimum:"1" maximum:"1000"`
	Offset  int    `query:"offset"   doc:"Pagination offset"              minimum:"0"`
	OrderBy string `query:"order_by" doc:"Sort field"                     enum:"notified_at,market_value,market_name,"`
}

// ListNotificationsOutput is the response for listing notification history.
type ListNotificationsOutput struct {
	Body struct {
		Notifications []domain.NotifiedItem `json:"notifications"`
		Total         int                   `json:"total"`
		Limit         int                   `json:"limit"`
		Offset        int                   `json:"offset"`
	}
}

// ListNotifications returns notification history with optional type and
// keyword filters and pagination, newest first by default.
func (h *NotificationsHandler) ListNotifications(
	ctx context.Context,
	input *ListNotificationsInput,
) (*ListNotificationsOutput, error) {
	q := &store.NotificationQuery{
		Offset:  input.Offset,
		OrderBy: input.OrderBy,
	}

	if input.Type != "" {
		q.Type = &input.Type
	}

	if input.Keyword != "" {
		q.Keyword = &input.Keyword
	}

	if input.Limit != 0 {
		q.Limit = input.Limit
	}

	items, total, err := h.store.ListNotifiedItems(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("notification query failed: " + err.Error())
	}

	if items == nil {
		items = []domain.NotifiedItem{}
	}

	resp := &ListNotificationsOutput{}
	resp.Body.Notifications = items
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset

	return resp, nil
}

// RegisterNotificationRoutes registers notification history endpoints with
// the Huma API.
func RegisterNotificationRoutes(api huma.API, h *NotificationsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications",
		Summary:     "List notification history",
		Description: "Returns delivered notifications with optional type and keyword filters and pagination.",
		Tags:        []string{"notifications"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListNotifications)
}
