package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-safety-go/internal/config"
	"sentinel-safety-go/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		PersonClassID:       0,
		WeaponClassIDs:      []int{34, 43, 76, 86},
		SuspiciousClassIDs:  []int{24, 26, 28, 39, 25},
		CrowdThreshold:      5,
		PersonConfThreshold: 0.50,
	}
}

func persons(n int, conf float64) []models.Detection {
	dets := make([]models.Detection, n)
	for i := range dets {
		dets[i] = models.Detection{ClassID: 0, Confidence: conf, Label: "person"}
	}
	return dets
}

func findByType(cands []models.AlertCandidate, t models.EventType) []models.AlertCandidate {
	var out []models.AlertCandidate
	for _, c := range cands {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func TestClassifyCrowdSurge(t *testing.T) {
	s := NewService(testConfig())

	tests := []struct {
		name      string
		dets      []models.Detection
		wantCrowd bool
		wantCount int
	}{
		{"below threshold", persons(4, 0.9), false, 0},
		{"at threshold", persons(5, 0.9), true, 5},
		{"above threshold", persons(12, 0.9), true, 12},
		{"low confidence persons ignored", persons(10, 0.40), false, 0},
		{"confidence exactly at threshold ignored", persons(10, 0.50), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crowd := findByType(s.Classify(tt.dets), models.EventTypeCrowdSurge)
			if !tt.wantCrowd {
				assert.Empty(t, crowd)
				return
			}
			require.Len(t, crowd, 1, "exactly one crowd candidate per frame")
			assert.Equal(t, "crowd", crowd[0].Key)
			assert.Equal(t, models.AlertSeverityHigh, crowd[0].Severity)
			require.NotNil(t, crowd[0].Count)
			assert.Equal(t, tt.wantCount, *crowd[0].Count)
		})
	}
}

func TestClassifyWeaponDedupByLabel(t *testing.T) {
	s := NewService(testConfig())

	dets := []models.Detection{
		{ClassID: 43, Confidence: 0.8, Label: "knife"},
		{ClassID: 43, Confidence: 0.3, Label: "knife"},
		{ClassID: 43, Confidence: 0.9, Label: "knife"},
		{ClassID: 76, Confidence: 0.7, Label: "scissors"},
	}

	weapons := findByType(s.Classify(dets), models.EventTypeWeapon)
	require.Len(t, weapons, 2, "one candidate per distinct label")

	keys := []string{weapons[0].Key, weapons[1].Key}
	assert.Contains(t, keys, "weapon:knife")
	assert.Contains(t, keys, "weapon:scissors")
	for _, w := range weapons {
		assert.Equal(t, models.AlertSeverityHigh, w.Severity)
	}
}

func TestClassifyWeaponIgnoresConfidence(t *testing.T) {
	s := NewService(testConfig())

	// Weapons alert regardless of the person confidence gate
	weapons := findByType(s.Classify([]models.Detection{
		{ClassID: 43, Confidence: 0.26, Label: "knife"},
	}), models.EventTypeWeapon)
	assert.Len(t, weapons, 1)
}

func TestClassifySuspicious(t *testing.T) {
	s := NewService(testConfig())

	dets := []models.Detection{
		{ClassID: 24, Confidence: 0.6, Label: "backpack"},
		{ClassID: 24, Confidence: 0.7, Label: "backpack"},
		{ClassID: 39, Confidence: 0.5, Label: "bottle"},
	}

	suspicious := findByType(s.Classify(dets), models.EventTypeSuspicious)
	require.Len(t, suspicious, 2)
	for _, c := range suspicious {
		assert.Equal(t, models.AlertSeverityInfo, c.Severity)
	}
	assert.Equal(t, "suspicious:backpack", suspicious[0].Key)
}

func TestClassifyIndependentOfCrowdState(t *testing.T) {
	s := NewService(testConfig())

	// Suspicious and weapon candidates are never gated on crowd state
	dets := append(persons(6, 0.9),
		models.Detection{ClassID: 43, Confidence: 0.8, Label: "knife"},
		models.Detection{ClassID: 25, Confidence: 0.6, Label: "umbrella"},
	)

	cands := s.Classify(dets)
	assert.Len(t, findByType(cands, models.EventTypeCrowdSurge), 1)
	assert.Len(t, findByType(cands, models.EventTypeWeapon), 1)
	assert.Len(t, findByType(cands, models.EventTypeSuspicious), 1)
}

func TestClassifyPure(t *testing.T) {
	s := NewService(testConfig())
	dets := append(persons(6, 0.9), models.Detection{ClassID: 43, Confidence: 0.8, Label: "knife"})

	first := s.Classify(dets)
	second := s.Classify(dets)
	assert.Equal(t, first, second, "same inputs must yield identical candidates")
}

func TestClassifyLabelFallback(t *testing.T) {
	s := NewService(testConfig())

	weapons := findByType(s.Classify([]models.Detection{
		{ClassID: 43, Confidence: 0.8}, // detector sent no label
	}), models.EventTypeWeapon)
	require.Len(t, weapons, 1)
	assert.Equal(t, "weapon:knife", weapons[0].Key)
}
