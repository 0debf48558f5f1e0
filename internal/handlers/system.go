package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var timeNow = time.Now

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type SystemHandler struct {
	service string
	version string
	started time.Time
	checks  []ReadinessCheck
	logger  *zap.Logger
}

func NewSystemHandler(service, version string, checks []ReadinessCheck, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{service: service, version: version, started: timeNow(), checks: checks, logger: logger}
}

func (h *SystemHandler) Root(c *gin.Context) {
	respond(c, http.StatusOK, h.service+" is running", gin.H{
		"service":   h.service,
		"version":   h.version,
		"status":    "running",
		"timestamp": timeNow().UTC(),
	})
}

func (h *SystemHandler) Health(c *gin.Context) {
	respond(c, http.StatusOK, "service is healthy", gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(timeNow().Sub(h.started).Seconds()),
		"timestamp":      timeNow().UTC(),
	})
}

func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	healthy := true
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			// Driver errors can carry hosts and credentials; they only go to the log.
			h.logger.Warn("readiness check failed", zap.String("check", check.Name), zap.Error(err))
			checks[check.Name] = "unavailable"
			healthy = false
			continue
		}
		checks[check.Name] = "ok"
	}

	if !healthy {
		respond(c, http.StatusServiceUnavailable, "not ready", gin.H{"checks": checks})
		return
	}
	respond(c, http.StatusOK, "ready", gin.H{"checks": checks})
}
