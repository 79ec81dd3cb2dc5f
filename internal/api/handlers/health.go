// Package handlers implements HTTP handlers for the empire monitor API.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/rules"
)

// Pinger checks datastore reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides liveness and readiness endpoints.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(s Pinger) *HealthHandler {
	return &HealthHandler{store: s}
}

// Healthz returns 200 if the process is running.
//
// @Summary Liveness check
// @Description Returns 200 if the process is running.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /healthz [get]
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz returns 200 if the database is reachable, 503 otherwise.
//
// @Summary Readiness check
// @Description Returns 200 if the database is reachable, 503 otherwise.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 503 {object} StatusResponse
// @Router /readyz [get]
func (h *HealthHandler) Readyz(c echo.Context) error {
	if err := h.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(
			http.StatusServiceUnavailable,
			map[string]string{"status": "unavailable"},
		)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

// FeedStatus reports feed connectivity. The feed client implements it.
type FeedStatus interface {
	Connected() bool
}

// ServiceHealthHandler handles the service-level health endpoint.
type ServiceHealthHandler struct {
	startedAt time.Time
	feed      FeedStatus
	rules     *rules.Store
	ledger    LedgerSizer
}

// LedgerSizer reports the dedup ledger's current size.
type LedgerSizer interface {
	LedgerSize() int
}

// NewServiceHealthHandler creates a ServiceHealthHandler. startedAt is the
// process boot time, used for uptime.
func NewServiceHealthHandler(
	startedAt time.Time,
	feed FeedStatus,
	r *rules.Store,
	ledger LedgerSizer,
) *ServiceHealthHandler {
	return &ServiceHealthHandler{
		startedAt: startedAt,
		feed:      feed,
		rules:     r,
		ledger:    ledger,
	}
}

// ServiceHealthOutput is the response for the service health endpoint.
type ServiceHealthOutput struct {
	Body struct {
		Status        string `json:"status"         example:"ok"`
		UptimeSeconds int64  `json:"uptime_seconds" example:"3600"`
		FeedConnected bool   `json:"feed_connected" example:"true"`
		RulesVersion  int64  `json:"rules_version"  example:"4"`
		LedgerSize    int    `json:"ledger_size"    example:"212"`
	}
}

// GetServiceHealth returns uptime, feed connectivity, the active ruleset
// version, and the dedup ledger size.
func (h *ServiceHealthHandler) GetServiceHealth(
	_ context.Context,
	_ *struct{},
) (*ServiceHealthOutput, error) {
	resp := &ServiceHealthOutput{}
	resp.Body.Status = "ok"
	resp.Body.UptimeSeconds = int64(time.Since(h.startedAt).Seconds())
	resp.Body.FeedConnected = h.feed.Connected()
	resp.Body.RulesVersion = h.rules.Current().Version
	resp.Body.LedgerSize = h.ledger.LedgerSize()
	return resp, nil
}

// RegisterHealthRoutes registers the service health route on the Huma API.
func RegisterHealthRoutes(api huma.API, h *ServiceHealthHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-service-health",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Get service health",
		Description: "Returns uptime, feed connectivity, rules version, and dedup ledger size.",
		Tags:        []string{"system"},
	}, h.GetServiceHealth)
}
