package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "default", cfg.CameraID)
	assert.Equal(t, "0", cfg.VideoSource)
	assert.Equal(t, 0, cfg.PersonClassID)
	assert.Equal(t, []int{34, 43, 76, 86}, cfg.WeaponClassIDs)
	assert.Equal(t, []int{24, 26, 28, 39, 25}, cfg.SuspiciousClassIDs)
	assert.Equal(t, 5, cfg.CrowdThreshold)
	assert.InDelta(t, 0.50, cfg.PersonConfThreshold, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.AlertsCooldown)
	assert.Equal(t, "alerts", cfg.AlertsSubject)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, 1*time.Second, cfg.ResubscribeBackoffMin)
	assert.Equal(t, 30*time.Second, cfg.ResubscribeBackoffMax)
	assert.False(t, cfg.CrowdWorkerEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("CAMERA_ID", "lobby-cam")
	t.Setenv("CROWD_THRESHOLD", "12")
	t.Setenv("PERSON_CONFIDENCE_THRESHOLD", "0.7")
	t.Setenv("WEAPON_CLASS_IDS", "1, 2,3")
	t.Setenv("ALERTS_COOLDOWN", "750ms")
	t.Setenv("CROWD_WORKER_ENABLED", "true")
	t.Setenv("ENVIRONMENT", "Production")

	cfg := Load()

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "lobby-cam", cfg.CameraID)
	assert.Equal(t, 12, cfg.CrowdThreshold)
	assert.InDelta(t, 0.7, cfg.PersonConfThreshold, 1e-9)
	assert.Equal(t, []int{1, 2, 3}, cfg.WeaponClassIDs)
	assert.Equal(t, 750*time.Millisecond, cfg.AlertsCooldown)
	assert.True(t, cfg.CrowdWorkerEnabled)
	assert.True(t, cfg.IsProduction())
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("ALERTS_COOLDOWN", "soon")
	t.Setenv("SUSPICIOUS_CLASS_IDS", "4,banana")

	cfg := Load()

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.AlertsCooldown)
	assert.Equal(t, []int{24, 26, 28, 39, 25}, cfg.SuspiciousClassIDs)
}
