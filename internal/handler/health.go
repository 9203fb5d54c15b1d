package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ArtifactSummary describes what was loaded at startup.
type ArtifactSummary struct {
	Columns     int `json:"columns"`
	VectorWidth int `json:"vector_width"`
	ModelLayers int `json:"model_layers"`
}

// HealthHandler provides liveness and readiness endpoints.
type HealthHandler struct {
	Service   string
	Artifacts ArtifactSummary
	StartTime time.Time
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

type readinessResponse struct {
	Status    string          `json:"status"`
	Service   string          `json:"service"`
	Artifacts ArtifactSummary `json:"artifacts"`
}

// Healthz handles liveness probes (GET /healthz).
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:  "healthy",
		Service: h.Service,
		Uptime:  time.Since(h.StartTime).Round(time.Second).String(),
	})
}

// Readyz handles readiness probes (GET /readyz). The process only starts
// serving once every artifact is loaded, so reaching here means ready.
func (h *HealthHandler) Readyz(c echo.Context) error {
	return c.JSON(http.StatusOK, readinessResponse{
		Status:    "ready",
		Service:   h.Service,
		Artifacts: h.Artifacts,
	})
}
