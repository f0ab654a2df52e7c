package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"sentinel-safety-go/internal/services/hub"
	"sentinel-safety-go/internal/services/pipeline"
	"sentinel-safety-go/internal/services/relay"
)

// SystemHandler exposes worker stats and the AI on/off toggle
type SystemHandler struct {
	WorkerID string
	pipeline *pipeline.Service
	relay    *relay.Service
	registry *hub.Registry
}

func NewSystemHandler(workerID string, p *pipeline.Service, r *relay.Service, reg *hub.Registry) *SystemHandler {
	return &SystemHandler{
		WorkerID: workerID,
		pipeline: p,
		relay:    r,
		registry: reg,
	}
}

// ToggleAIRequest switches detection between active and standby
type ToggleAIRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// @Summary Get system stats
// @Description Pipeline, relay, and fan-out counters plus runtime stats
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	published, failed := h.relay.Stats()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"worker_id":  h.WorkerID,
			"ai_active":  h.pipeline.Active(),
			"pipeline":   h.pipeline.Stats(),
			"relay":      gin.H{"published": published, "failed": failed},
			"ws_clients": h.registry.Count(),
			"memory_mb":  m.Alloc / 1024 / 1024,
			"goroutines": runtime.NumGoroutine(),
			"go_version": runtime.Version(),
		},
		"timestamp": time.Now().Unix(),
	})
}

// @Summary Toggle AI processing
// @Description Switch the detection pipeline between active and standby
// @Tags system
// @Accept json
// @Produce json
// @Param toggle body ToggleAIRequest true "desired state"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /system/ai [post]
func (h *SystemHandler) ToggleAI(c *gin.Context) {
	var req ToggleAIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.pipeline.SetActive(*req.Active)
	c.JSON(http.StatusOK, gin.H{"success": true, "ai_active": h.pipeline.Active()})
}
