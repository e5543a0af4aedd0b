package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-desk/internal/service"
	"github.com/noah-isme/complaint-desk/pkg/response"
)

const healthTimeout = 2 * time.Second

var errNoDatabase = errors.New("database not configured")

// Pinger reports store connectivity.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      Pinger
	env     string
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, db Pinger, env string) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db, env: env}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Database health
// @Tags Service
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	now := time.Now().UTC()
	if err := h.ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		response.JSON(c, http.StatusInternalServerError, gin.H{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": now,
		})
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": now,
	})
}

// Ready godoc
// @Summary Readiness probe
// @Tags Service
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"status":    "ok",
		"env":       h.env,
		"timestamp": time.Now().UTC(),
	})
}

func (h *MetricsHandler) ping(ctx context.Context) error {
	if h.db == nil {
		return errNoDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return h.db.PingContext(ctx)
}
