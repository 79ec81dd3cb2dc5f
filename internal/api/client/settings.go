package client

import (
	"context"
	"net/url"
	"time"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/charm"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// SettingsResponse is the live ruleset as served by the API.
type SettingsResponse struct {
	Version           int64                `json:"version"`
	PriceBand         domain.PriceBand     `json:"price_band"`
	KeychainThreshold float64              `json:"keychain_threshold"`
	EnabledKeychains  []string             `json:"enabled_keychains"`
	Entries           []domain.TargetEntry `json:"entries"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// GetSettings returns the live ruleset.
func (c *Client) GetSettings(ctx context.Context) (*SettingsResponse, error) {
	var s SettingsResponse
	if err := c.get(ctx, "/api/v1/settings", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReplaceBandResponse echoes the applied band and the new version.
type ReplaceBandResponse struct {
	Version   int64            `json:"version"`
	PriceBand domain.PriceBand `json:"price_band"`
}

// ReplacePriceBand replaces the acceptable price-deviation band.
func (c *Client) ReplacePriceBand(ctx context.Context, min, max float64) (*ReplaceBandResponse, error) {
	body := map[string]float64{"min": min, "max": max}
	var resp ReplaceBandResponse
	if err := c.put(ctx, "/api/v1/settings/price-band", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReplaceThresholdResponse echoes the applied threshold and the new version.
type ReplaceThresholdResponse struct {
	Version           int64   `json:"version"`
	KeychainThreshold float64 `json:"keychain_threshold"`
}

// ReplaceKeychainThreshold replaces the minimum charm value percentage for
// keychain matches.
func (c *Client) ReplaceKeychainThreshold(ctx context.Context, pct float64) (*ReplaceThresholdResponse, error) {
	body := map[string]float64{"percentage": pct}
	var resp ReplaceThresholdResponse
	if err := c.put(ctx, "/api/v1/settings/keychain-threshold", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReplaceKeychainsResponse echoes the canonical enabled set and the new
// version.
type ReplaceKeychainsResponse struct {
	Version          int64    `json:"version"`
	EnabledKeychains []string `json:"enabled_keychains"`
}

// ReplaceEnabledKeychains replaces the set of charm names eligible for
// keychain matching. An empty list disables keychain matching.
func (c *Client) ReplaceEnabledKeychains(ctx context.Context, names []string) (*ReplaceKeychainsResponse, error) {
	if names == nil {
		names = []string{} // encode as [], not null
	}
	body := map[string][]string{"names": names}
	var resp ReplaceKeychainsResponse
	if err := c.put(ctx, "/api/v1/settings/keychains", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListCharms returns the charm price table, optionally restricted to one
// rarity category (red, pink, purple, blue).
func (c *Client) ListCharms(ctx context.Context, category string) ([]charm.Charm, error) {
	path := "/api/v1/charms"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}

	var charms []charm.Charm
	if err := c.get(ctx, path, &charms); err != nil {
		return nil, err
	}
	return charms, nil
}
