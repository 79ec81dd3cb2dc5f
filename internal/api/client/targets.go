package client

import (
	"context"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// ReplaceTargetsResponse echoes the applied entries (ids assigned) and the
// new version.
type ReplaceTargetsResponse struct {
	Version int64                `json:"version"`
	Entries []domain.TargetEntry `json:"entries"`
}

// ListTargets returns the persisted target entries in priority order.
func (c *Client) ListTargets(ctx context.Context) ([]domain.TargetEntry, error) {
	var entries []domain.TargetEntry
	if err := c.get(ctx, "/api/v1/targets", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReplaceTargets replaces the whole target list in one operation. An empty
// list clears it.
func (c *Client) ReplaceTargets(
	ctx context.Context,
	entries []domain.TargetEntry,
) (*ReplaceTargetsResponse, error) {
	if entries == nil {
		entries = []domain.TargetEntry{} // encode as [], not null
	}
	var resp ReplaceTargetsResponse
	if err := c.put(ctx, "/api/v1/targets", entries, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
