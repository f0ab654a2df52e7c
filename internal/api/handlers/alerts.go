package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sentinel-safety-go/internal/config"
	"sentinel-safety-go/internal/logging"
	"sentinel-safety-go/internal/models"
	"sentinel-safety-go/internal/privacy"
	"sentinel-safety-go/internal/services/relay"
)

// AlertsHandler serves the alert log and accepts alerts from external
// producers (e.g. a crowd-counting process running elsewhere).
type AlertsHandler struct {
	cfg   *config.Config
	store models.AlertStore
	relay *relay.Service
}

func NewAlertsHandler(cfg *config.Config, store models.AlertStore, r *relay.Service) *AlertsHandler {
	return &AlertsHandler{cfg: cfg, store: store, relay: r}
}

// CreateAlertRequest is an externally produced alert. The raw camera
// identifier is accepted here and hashed before anything is stored or
// published.
type CreateAlertRequest struct {
	CameraID  string         `json:"camera_id" binding:"required"`
	EventType string         `json:"event_type" binding:"required"`
	Severity  string         `json:"severity" binding:"required"`
	Count     *int           `json:"count"`
	Metadata  map[string]any `json:"metadata"`
}

// @Summary List recent alerts
// @Description Page the persisted alert log, newest first
// @Tags alerts
// @Produce json
// @Param limit query int false "maximum number of alerts" default(50)
// @Success 200 {array} models.Alert
// @Failure 503 {object} map[string]string
// @Router /api/alerts [get]
func (h *AlertsHandler) ListAlerts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	alerts, err := h.store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to list alerts")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert log unavailable"})
		return
	}

	c.JSON(http.StatusOK, alerts)
}

// @Summary Create an alert
// @Description Persist and publish an alert from an external producer
// @Tags alerts
// @Accept json
// @Produce json
// @Param alert body CreateAlertRequest true "alert to record"
// @Success 201 {object} models.Alert
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/alerts [post]
func (h *AlertsHandler) CreateAlert(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert := models.Alert{
		CameraHash: privacy.HashIdentifier(h.cfg.PrivacySalt, req.CameraID),
		EventType:  req.EventType,
		Severity:   req.Severity,
		Count:      req.Count,
		Metadata:   req.Metadata,
	}

	stored, err := h.store.Append(c.Request.Context(), alert)
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to persist externally produced alert")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert log unavailable"})
		return
	}

	// Best-effort: the alert is durable already, a missed live push is
	// acceptable.
	if err := h.relay.PublishAlert(stored); err != nil {
		logging.Warn(c).Err(err).Str("alert_id", stored.ID).Msg("Failed to publish externally produced alert")
	}

	c.JSON(http.StatusCreated, stored)
}
