package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/middleware"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/service"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/response"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics    *service.MetricsService
	checks     map[string]ReadinessCheck
	queueDepth func() int
}

// NewMetricsHandler constructs a metrics handler. queueDepth may be nil when
// report generation is disabled.
func NewMetricsHandler(metrics *service.MetricsService, checks map[string]ReadinessCheck, queueDepth func() int) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, checks: checks, queueDepth: queueDepth}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every readiness check and fails with 503 when any of them does.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	state := "ready"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}

// System godoc
// @Summary Process level counters
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/system [get]
func (h *MetricsHandler) System(c *gin.Context) {
	snapshot := h.metrics.Snapshot()
	if h.queueDepth != nil {
		snapshot.ReportQueueDepth = h.queueDepth()
	}
	meta := middleware.Meta(c)
	response.JSON(c, http.StatusOK, snapshot, nil, meta)
}
