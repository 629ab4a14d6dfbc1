package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/OceanScout/pkg/types/common"
)

// HealthProbe reports the state of every backend and the overall status.
type HealthProbe func(ctx context.Context) ([]common.ComponentHealth, common.HealthStatus)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	probe   HealthProbe
	version string
	startAt time.Time
}

// NewHealthHandler starts the uptime clock.  A nil probe reports ready.
func NewHealthHandler(version string, probe HealthProbe) *HealthHandler {
	return &HealthHandler{probe: probe, version: version, startAt: time.Now()}
}

const readinessTimeout = 5 * time.Second

// LivenessResponse is the /healthz body.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the /readyz body; Components is empty when no
// backend is enabled.
type ReadinessResponse struct {
	Status     common.HealthStatus      `json:"status"`
	Components []common.ComponentHealth `json:"components,omitempty"`
}

// Liveness handles GET /healthz.  It never touches a backend.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz: 200 when every enabled backend answers,
// 503 otherwise.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.probe == nil {
		c.JSON(http.StatusOK, ReadinessResponse{Status: common.HealthUp})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()
	components, status := h.probe(ctx)

	code := http.StatusOK
	if status != common.HealthUp {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, ReadinessResponse{Status: status, Components: components})
}
