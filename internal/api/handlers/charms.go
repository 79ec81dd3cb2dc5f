package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/charm"
)

// CharmsHandler serves the static charm vocabulary.
type CharmsHandler struct {
	table *charm.Table
}

// NewCharmsHandler creates a new CharmsHandler.
func NewCharmsHandler(t *charm.Table) *CharmsHandler {
	return &CharmsHandler{table: t}
}

// ListCharmsInput is the input for listing charms with an optional category
// filter.
type ListCharmsInput struct {
	Category string `query:"category" doc:"Filter by rarity category" enum:"red,pink,purple,blue,"`
}

// ListCharmsOutput is the response body for listing charms.
type ListCharmsOutput struct {
	Body []charm.Charm
}

// ListCharms returns the charm price table, optionally restricted to one
// rarity category.
func (h *CharmsHandler) ListCharms(
	_ context.Context,
	input *ListCharmsInput,
) (*ListCharmsOutput, error) {
	if input.Category == "" {
		return &ListCharmsOutput{Body: h.table.All()}, nil
	}

	cat, ok := categoryFromParam(input.Category)
	if !ok {
		return nil, huma.Error400BadRequest("unknown category " + input.Category)
	}

	charms := h.table.ByCategory(cat)
	if charms == nil {
		charms = []charm.Charm{}
	}
	return &ListCharmsOutput{Body: charms}, nil
}

func categoryFromParam(s string) (charm.Category, bool) {
	switch strings.ToLower(s) {
	case "red":
		return charm.CategoryRed, true
	case "pink":
		return charm.CategoryPink, true
	case "purple":
		return charm.CategoryPurple, true
	case "blue":
		return charm.CategoryBlue, true
	default:
		return "", false
	}
}

// RegisterCharmRoutes registers the charm vocabulary route on the Huma API.
func RegisterCharmRoutes(api huma.API, h *CharmsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-charms",
		Method:      http.MethodGet,
		Path:        "/api/v1/charms",
		Summary:     "List charms",
		Description: "Returns the built-in charm price table: name, rarity category, and reference price.",
		Tags:        []string{"charms"},
		Errors:      []int{http.StatusBadRequest},
	}, h.ListCharms)
}
