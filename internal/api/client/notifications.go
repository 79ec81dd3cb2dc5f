package client

import (
	"context"
	"net/url"
	"strconv"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// NotificationsResponse wraps a paginated notification history response.
type NotificationsResponse struct {
	Notifications []domain.NotifiedItem `json:"notifications"`
	Total         int                   `json:"total"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
}

// ListNotificationsParams defines query parameters for notification history
// queries.
type ListNotificationsParams struct {
	Type    string
	Keyword string
	Limit   int
	Offset  int
	OrderBy string
}

// ListNotifications returns notification history matching the given
// parameters.
func (c *Client) ListNotifications(
	ctx context.Context,
	params *ListNotificationsParams,
) (*NotificationsResponse, error) {
	q := url.Values{}
	if params.Type != "" {
		q.Set("type", params.Type)
	}
	if params.Keyword != "" {
		q.Set("keyword", params.Keyword)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.OrderBy != "" {
		q.Set("order_by", params.OrderBy)
	}

	path := "/api/v1/notifications"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp NotificationsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
