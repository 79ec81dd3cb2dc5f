package handlers

import "github.com/danielgtaylor/huma/v2"

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// NewAPIConfig returns the huma configuration shared by the server and the
// spec dump tool, so both emit the same OpenAPI document. Huma serves the
// document at /openapi.json and the docs UI at /docs.
func NewAPIConfig(version string) huma.Config {
	cfg := huma.DefaultConfig("Empire Monitor API", version)
	cfg.Info.Description = "Marketplace listing feed monitor: target-list matching, " +
		"keychain detection, and notification history."
	return cfg
}
