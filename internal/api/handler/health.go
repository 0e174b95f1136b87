package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	store  pinger
	logger *zap.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(store pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// Register mounts GET / and GET /healthz.
func (h *HealthHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/", h.Root)
	rg.GET("/healthz", h.Healthz)
}

// Root handles GET / with a plain-text liveness line.
func (h *HealthHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "server is running")
}

// Healthz handles GET /healthz by pinging the account store.
func (h *HealthHandler) Healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		recordHealthCheck(false)
		h.logger.Warn("store ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	recordHealthCheck(true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
