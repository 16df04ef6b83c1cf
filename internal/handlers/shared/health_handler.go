package handlers

import (
	"context"
	"net/http"
	"time"

	"carrental/internal/utils"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	version string
	checks  map[string]Pinger
}

// NewHealthHandler probes every non-nil entry of checks.
func NewHealthHandler(version string, checks map[string]Pinger) *HealthHandler {
	active := make(map[string]Pinger, len(checks))
	for name, pinger := range checks {
		if pinger != nil {
			active[name] = pinger
		}
	}
	return &HealthHandler{version: version, checks: active}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	services := make(map[string]string, len(h.checks))
	for name, pinger := range h.checks {
		if err := pinger.Ping(ctx); err != nil {
			services[name] = "unreachable"
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		services[name] = "ok"
	}

	c.JSON(code, gin.H{
		"status":    status,
		"app":       utils.AppName,
		"version":   h.version,
		"services":  services,
		"timestamp": time.Now().UTC(),
	})
}
