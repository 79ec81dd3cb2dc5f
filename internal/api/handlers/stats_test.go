package handlers_test

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/api/handlers"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/charm"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/rules"
	domain "github.com/Sadat41/Empire-Enhanced-sub001/pkg/types"
)

// stubEngineStatus is a test double for EngineStatus.
type stubEngineStatus struct {
	stats  domain.EngineStats
	ledger int
}

func (s *stubEngineStatus) Stats() domain.EngineStats { return s.stats }

func (s *stubEngineStatus) LedgerSize() int { return s.ledger }

func TestGetStats(t *testing.T) {
	t.Parallel()

	eng := &stubEngineStatus{
		stats: domain.EngineStats{
			ItemsProcessed:       1042,
			SpecificMatches:      7,
			KeychainMatches:      3,
			Rejected:             980,
			DuplicatesSuppressed: 12,
		},
		ledger: 412,
	}
	h := handlers.NewStatsHandler(eng, rules.NewStore(charm.NewTable()))

	_, api := humatest.New(t)
	handlers.RegisterStatsRoutes(api, h)

	resp := api.Get("/api/v1/stats")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"items_processed":1042`)
	assert.Contains(t, resp.Body.String(), `"specific_matches":7`)
	assert.Contains(t, resp.Body.String(), `"duplicates_suppressed":12`)
	assert.Contains(t, resp.Body.String(), `"ledger_size":412`)
	assert.Contains(t, resp.Body.String(), `"rules_version":1`)
}

func TestGetStats_TracksRulesVersion(t *testing.T) {
	t.Parallel()

	r := rules.NewStore(charm.NewTable())
	_, err := r.ReplaceKeychainThreshold(80)
	require.NoError(t, err)

	h := handlers.NewStatsHandler(&stubEngineStatus{}, r)

	_, api := humatest.New(t)
	handlers.RegisterStatsRoutes(api, h)

	resp := api.Get("/api/v1/stats")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"rules_version":2`)
}
