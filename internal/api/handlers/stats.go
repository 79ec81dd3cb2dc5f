package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/rules"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// EngineStatus defines the engine methods required by the stats handler.
type EngineStatus interface {
	Stats() domain.EngineStats
	LedgerSize() int
}

// StatsHandler handles engine counter requests.
type StatsHandler struct {
	engine EngineStatus
	rules  *rules.Store
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(engine EngineStatus, r *rules.Store) *StatsHandler {
	return &StatsHandler{engine: engine, rules: r}
}

// GetStatsOutput is the response for the engine stats endpoint.
type GetStatsOutput struct {
	Body struct {
		Engine       domain.EngineStats `json:"engine"`
		LedgerSize   int                `json:"ledger_size"   example:"412"`
		RulesVersion int64              `json:"rules_version" example:"3"`
	}
}

// GetStats returns a point-in-time snapshot of the engine's match counters,
// the deduplication ledger size, and the active rules version.
func (h *StatsHandler) GetStats(
	ctx context.Context,
	_ *struct{},
) (*GetStatsOutput, error) {
	resp := &GetStatsOutput{}
	resp.Body.Engine = h.engine.Stats()
	resp.Body.LedgerSize = h.engine.LedgerSize()
	resp.Body.RulesVersion = h.rules.Current().Version

	return resp, nil
}

// RegisterStatsRoutes registers engine stats endpoints with the Huma API.
func RegisterStatsRoutes(api huma.API, h *StatsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get engine statistics",
		Description: "Returns the engine's match counters, deduplication ledger size, and active rules version.",
		Tags:        []string{"system"},
	}, h.GetStats)
}
