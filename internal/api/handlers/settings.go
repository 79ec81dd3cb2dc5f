package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/rules"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// SettingsStore is the persistence surface for settings replacements. Each
// value is written to the database before the live snapshot swaps, so a
// failed write leaves the running ruleset untouched.
type SettingsStore interface {
	ReplacePriceBand(ctx context.Context, min, max float64) error
	ReplaceKeychainThreshold(ctx context.Context, pct float64) error
	ReplaceEnabledKeychains(ctx context.Context, names []string) error
}

// SettingsHandler handles settings read and replacement requests.
type SettingsHandler struct {
	store SettingsStore
	rules *rules.Store
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(s SettingsStore, r *rules.Store) *SettingsHandler {
	return &SettingsHandler{store: s, rules: r}
}

// --- Input/Output types ---

// GetSettingsOutput is the full settings view: the ruleset the engine is
// evaluating right now.
type GetSettingsOutput struct {
	Body struct {
		Version           int64                `json:"version"`
		PriceBand         domain.PriceBand     `json:"price_band"`
		KeychainThreshold float64              `json:"keychain_threshold"`
		EnabledKeychains  []string             `json:"enabled_keychains"`
		Entries           []domain.TargetEntry `json:"entries"`
		UpdatedAt         time.Time            `json:"updated_at"`
	}
}

// ReplaceBandInput is the request body for replacing the price band.
type ReplaceBandInput struct {
	Body struct {
		Min float64 `json:"min" doc:"Lower deviation bound (percent)" example:"-12"`
		Max float64 `json:"max" doc:"Upper deviation bound (percent)" example:"2"`
	}
}

// ReplaceBandOutput echoes the applied band and the new version.
type ReplaceBandOutput struct {
	Body struct {
		Version   int64            `json:"version"`
		PriceBand domain.PriceBand `json:"price_band"`
	}
}

// ReplaceThresholdInput is the request body for replacing the keychain
// percentage threshold.
type ReplaceThresholdInput struct {
	Body struct {
		Percentage float64 `json:"percentage" doc:"Minimum charm value as a percentage of the item price" example:"50"`
	}
}

// ReplaceThresholdOutput echoes the applied threshold and the new version.
type ReplaceThresholdOutput struct {
	Body struct {
		Version           int64   `json:"version"`
		KeychainThreshold float64 `json:"keychain_threshold"`
	}
}

// ReplaceKeychainsInput is the request body for replacing the enabled
// keychain set.
type ReplaceKeychainsInput struct {
	Body struct {
		Names []string `json:"names" doc:"Charm names to enable; replaces the whole set"`
	}
}

// ReplaceKeychainsOutput echoes the canonical enabled set and the new
// version.
type ReplaceKeychainsOutput struct {
	Body struct {
		Version          int64    `json:"version"`
		EnabledKeychains []string `json:"enabled_keychains"`
	}
}

// --- Handlers ---

// GetSettings returns the live ruleset: band, threshold, enabled keychains,
// target entries, and version.
func (h *SettingsHandler) GetSettings(
	_ context.Context,
	_ *struct{},
) (*GetSettingsOutput, error) {
	snap := h.rules.Current()

	resp := &GetSettingsOutput{}
	resp.Body.Version = snap.Version
	resp.Body.PriceBand = snap.Band
	resp.Body.KeychainThreshold = snap.KeychainThreshold
	resp.Body.EnabledKeychains = snap.EnabledKeychains
	resp.Body.Entries = snap.Entries
	resp.Body.UpdatedAt = snap.UpdatedAt

	if resp.Body.EnabledKeychains == nil {
		resp.Body.EnabledKeychains = []string{}
	}
	if resp.Body.Entries == nil {
		resp.Body.Entries = []domain.TargetEntry{}
	}

	return resp, nil
}

// ReplaceBand validates, persists, and swaps in a new price band.
func (h *SettingsHandler) ReplaceBand(
	ctx context.Context,
	input *ReplaceBandInput,
) (*ReplaceBandOutput, error) {
	if err := rules.ValidateBand(input.Body.Min, input.Body.Max); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	if err := h.store.ReplacePriceBand(ctx, input.Body.Min, input.Body.Max); err != nil {
		return nil, huma.Error500InternalServerError("persisting price band failed: " + err.Error())
	}

	snap, err := h.rules.ReplaceBand(input.Body.Min, input.Body.Max)
	if err != nil {
		return nil, huma.Error500InternalServerError("applying price band failed: " + err.Error())
	}

	resp := &ReplaceBandOutput{}
	resp.Body.Version = snap.Version
	resp.Body.PriceBand = snap.Band
	return resp, nil
}

// ReplaceThreshold validates, persists, and swaps in a new keychain
// percentage threshold.
func (h *SettingsHandler) ReplaceThreshold(
	ctx context.Context,
	input *ReplaceThresholdInput,
) (*ReplaceThresholdOutput, error) {
	if err := rules.ValidateThreshold(input.Body.Percentage); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	if err := h.store.ReplaceKeychainThreshold(ctx, input.Body.Percentage); err != nil {
		return nil, huma.Error500InternalServerError("persisting keychain threshold failed: " + err.Error())
	}

	snap, err := h.rules.ReplaceKeychainThreshold(input.Body.Percentage)
	if err != nil {
		return nil, huma.Error500InternalServerError("applying keychain threshold failed: " + err.Error())
	}

	resp := &ReplaceThresholdOutput{}
	resp.Body.Version = snap.Version
	resp.Body.KeychainThreshold = snap.KeychainThreshold
	return resp, nil
}

// ReplaceKeychains validates, persists, and swaps in a new enabled keychain
// set. Names are stored in their canonical charm-table spelling.
func (h *SettingsHandler) ReplaceKeychains(
	ctx context.Context,
	input *ReplaceKeychainsInput,
) (*ReplaceKeychainsOutput, error) {
	if err := h.rules.ValidateKeychains(input.Body.Names); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	canonical := h.rules.CanonicalKeychains(input.Body.Names)

	if err := h.store.ReplaceEnabledKeychains(ctx, canonical); err != nil {
		return nil, huma.Error500InternalServerError("persisting enabled keychains failed: " + err.Error())
	}

	snap, err := h.rules.ReplaceEnabledKeychains(canonical)
	if err != nil {
		return nil, huma.Error500InternalServerError("applying enabled keychains failed: " + err.Error())
	}

	resp := &ReplaceKeychainsOutput{}
	resp.Body.Version = snap.Version
	resp.Body.EnabledKeychains = snap.EnabledKeychains
	return resp, nil
}

// RegisterSettingsRoutes registers settings endpoints with the Huma API.
func RegisterSettingsRoutes(api huma.API, h *SettingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings",
		Summary:     "Get settings",
		Description: "Returns the live ruleset: price band, keychain threshold, enabled keychains, target entries, and version.",
		Tags:        []string{"settings"},
	}, h.GetSettings)

	huma.Register(api, huma.Operation{
		OperationID: "replace-price-band",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/price-band",
		Summary:     "Replace the price band",
		Description: "Replaces the acceptable price-deviation band. The previous band is discarded whole.",
		Tags:        []string{"settings"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, h.ReplaceBand)

	huma.Register(api, huma.Operation{
		OperationID: "replace-keychain-threshold",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/keychain-threshold",
		Summary:     "Replace the keychain threshold",
		Description: "Replaces the minimum charm value percentage for keychain matches.",
		Tags:        []string{"settings"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, h.ReplaceThreshold)

	huma.Register(api, huma.Operation{
		OperationID: "replace-enabled-keychains",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/keychains",
		Summary:     "Replace the enabled keychain set",
		Description: "Replaces the set of charm names eligible for keychain matching. Unknown names are rejected.",
		Tags:        []string{"settings"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, h.ReplaceKeychains)
}
