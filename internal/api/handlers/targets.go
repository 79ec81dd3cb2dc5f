package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/rules"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// TargetsStore is the persistence surface for the target entry list.
type TargetsStore interface {
	ListTargetEntries(ctx context.Context) ([]domain.TargetEntry, error)
	ReplaceTargetEntries(ctx context.Context, entries []domain.TargetEntry) error
}

// TargetsHandler handles target entry list and replacement requests.
type TargetsHandler struct {
	store TargetsStore
	rules *rules.Store
}

// NewTargetsHandler creates a new TargetsHandler.
func NewTargetsHandler(s TargetsStore, r *rules.Store) *TargetsHandler {
	return &TargetsHandler{store: s, rules: r}
}

// ListTargetsOutput is the response body for listing target entries.
type ListTargetsOutput struct {
	Body []domain.TargetEntry
}

// ReplaceTargetsInput is the request body for wholesale target replacement.
type ReplaceTargetsInput struct {
	Body []domain.TargetEntry
}

// ReplaceTargetsOutput echoes the applied list (ids assigned) and the new
// version.
type ReplaceTargetsOutput struct {
	Body struct {
		Version int64                `json:"version"`
		Entries []domain.TargetEntry `json:"entries"`
	}
}

// ListTargets returns the persisted target entries in stored order.
func (h *TargetsHandler) ListTargets(
	ctx context.Context,
	_ *struct{},
) (*ListTargetsOutput, error) {
	entries, err := h.store.ListTargetEntries(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing targets failed: " + err.Error())
	}

	if entries == nil {
		entries = []domain.TargetEntry{}
	}

	return &ListTargetsOutput{Body: entries}, nil
}

// ReplaceTargets validates, persists, and swaps in a new target list
// wholesale, preserving the submitted order. Ids are assigned before
// persisting so the database and the live snapshot agree.
func (h *TargetsHandler) ReplaceTargets(
	ctx context.Context,
	input *ReplaceTargetsInput,
) (*ReplaceTargetsOutput, error) {
	if err := rules.ValidateEntries(input.Body); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	prepared := rules.PrepareEntries(input.Body)

	if err := h.store.ReplaceTargetEntries(ctx, prepared); err != nil {
		return nil, huma.Error500InternalServerError("persisting targets failed: " + err.Error())
	}

	snap, err := h.rules.ReplaceEntries(prepared)
	if err != nil {
		return nil, huma.Error500InternalServerError("applying targets failed: " + err.Error())
	}

	resp := &ReplaceTargetsOutput{}
	resp.Body.Version = snap.Version
	resp.Body.Entries = snap.Entries
	if resp.Body.Entries == nil {
		resp.Body.Entries = []domain.TargetEntry{}
	}
	return resp, nil
}

// RegisterTargetRoutes registers target entry endpoints with the Huma API.
func RegisterTargetRoutes(api huma.API, h *TargetsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-targets",
		Method:      http.MethodGet,
		Path:        "/api/v1/targets",
		Summary:     "List target entries",
		Description: "Returns the persisted target entries in priority order.",
		Tags:        []string{"targets"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListTargets)

	huma.Register(api, huma.Operation{
		OperationID: "replace-targets",
		Method:      http.MethodPut,
		Path:        "/api/v1/targets",
		Summary:     "Replace target entries",
		Description: "Replaces the whole target list in one operation, preserving the submitted order. The previous list is discarded.",
		Tags:        []string{"targets"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, h.ReplaceTargets)
}
