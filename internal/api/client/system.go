package client

import (
	"context"

	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// HealthResponse is the service health view.
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	FeedConnected bool   `json:"feed_connected"`
	RulesVersion  int64  `json:"rules_version"`
	LedgerSize    int    `json:"ledger_size"`
}

// GetHealth returns the service health: uptime, feed connectivity, rules
// version, and dedup ledger size.
func (c *Client) GetHealth(ctx context.Context) (*HealthResponse, error) {
	var h HealthResponse
	if err := c.get(ctx, "/api/v1/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// StatsResponse wraps the engine counters with the ledger size and rules
// version.
type StatsResponse struct {
	Engine       domain.EngineStats `json:"engine"`
	LedgerSize   int                `json:"ledger_size"`
	RulesVersion int64              `json:"rules_version"`
}

// GetStats returns the engine's match counters.
func (c *Client) GetStats(ctx context.Context) (*StatsResponse, error) {
	var s StatsResponse
	if err := c.get(ctx, "/api/v1/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// TriggerRefreshPrices starts a reference price refresh. The server runs it
// in the background; the outcome lands in the job history.
func (c *Client) TriggerRefreshPrices(ctx context.Context) error {
	return c.post(ctx, "/api/v1/trigger/refresh-prices", nil, nil)
}
