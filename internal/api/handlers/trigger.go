package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// refreshTimeout bounds a manually triggered reference refresh. The trigger
// endpoint returns immediately, so the run needs its own deadline.
const refreshTimeout = 5 * time.Minute

// RefreshTrigger defines the interface for running a reference price refresh
// outside the cron schedule.
type RefreshTrigger interface {
	TriggerRefresh(ctx context.Context) error
}

// TriggerHandler handles manual refresh trigger requests.
type TriggerHandler struct {
	refresher RefreshTrigger
	log       *slog.Logger
}

// NewTriggerHandler creates a new TriggerHandler.
func NewTriggerHandler(r RefreshTrigger, log *slog.Logger) *TriggerHandler {
	return &TriggerHandler{refresher: r, log: log}
}

// TriggerRefreshOutput is the response body for the refresh trigger endpoint.
type TriggerRefreshOutput struct {
	Body struct {
		Status string `json:"status" example:"refresh started" doc:"Refresh status"`
	}
}

// TriggerRefresh starts a reference price refresh in the background and
// returns immediately. The outcome lands in the job history, queryable
// through the jobs endpoints.
func (h *TriggerHandler) TriggerRefresh(ctx context.Context, _ *struct{}) (*TriggerRefreshOutput, error) {
	go func() {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		if err := h.refresher.TriggerRefresh(runCtx); err != nil {
			h.log.Error("manual reference refresh failed", "error", err)
		}
	}()

	resp := &TriggerRefreshOutput{}
	resp.Body.Status = "refresh started"
	return resp, nil
}

// RegisterTriggerRoutes registers trigger endpoints with the Huma API.
func RegisterTriggerRoutes(api huma.API, h *TriggerHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-refresh-prices",
		Method:      http.MethodPost,
		Path:        "/api/v1/trigger/refresh-prices",
		Summary:     "Trigger a reference price refresh",
		Description: "Starts a reference price table refresh in the background and returns " +
			"immediately. The outcome is recorded in the job history.",
		Tags:          []string{"scheduler"},
		DefaultStatus: http.StatusAccepted,
	}, h.TriggerRefresh)
}
