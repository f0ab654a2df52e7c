package classifier

import (
	"strconv"
	"strings"

	"sentinel-safety-go/internal/config"
	"sentinel-safety-go/internal/models"
)

// Service derives alert candidates from one frame's detection set. It
// is pure: no hidden state, deterministic output for a given detection
// set and config.
type Service struct {
	personClassID  int
	crowdThreshold int
	personConf     float64
	weaponClasses  map[int]bool
	suspectClasses map[int]bool
}

// NewService creates a classifier from the worker configuration
func NewService(cfg *config.Config) *Service {
	return &Service{
		personClassID:  cfg.PersonClassID,
		crowdThreshold: cfg.CrowdThreshold,
		personConf:     cfg.PersonConfThreshold,
		weaponClasses:  toSet(cfg.WeaponClassIDs),
		suspectClasses: toSet(cfg.SuspiciousClassIDs),
	}
}

// Classify produces zero or more alert candidates for one frame.
// At most one CROWD_SURGE per frame; weapon and suspicious candidates
// are collapsed by label so repeated boxes of the same object class
// yield a single candidate.
func (s *Service) Classify(detections []models.Detection) []models.AlertCandidate {
	candidates := make([]models.AlertCandidate, 0, 4)

	personCount := s.CountPersons(detections)
	if personCount >= s.crowdThreshold {
		count := personCount
		candidates = append(candidates, models.AlertCandidate{
			Key:      "crowd",
			Type:     models.EventTypeCrowdSurge,
			Severity: models.AlertSeverityHigh,
			Count:    &count,
		})
	}

	// Weapon and suspicious classification is independent per
	// detection; confidence gating applies to person counting only.
	seen := make(map[string]bool)
	for _, det := range detections {
		switch {
		case s.weaponClasses[det.ClassID]:
			label := s.labelFor(det)
			key := "weapon:" + label
			if seen[key] {
				continue
			}
			seen[key] = true
			candidates = append(candidates, models.AlertCandidate{
				Key:      key,
				Type:     models.EventTypeWeapon,
				Severity: models.AlertSeverityHigh,
				Label:    label,
			})

		case s.suspectClasses[det.ClassID]:
			label := s.labelFor(det)
			key := "suspicious:" + label
			if seen[key] {
				continue
			}
			seen[key] = true
			candidates = append(candidates, models.AlertCandidate{
				Key:      key,
				Type:     models.EventTypeSuspicious,
				Severity: models.AlertSeverityInfo,
				Label:    label,
			})
		}
	}

	return candidates
}

// CountPersons counts person detections above the confidence threshold
func (s *Service) CountPersons(detections []models.Detection) int {
	count := 0
	for _, det := range detections {
		if det.ClassID == s.personClassID && det.Confidence > s.personConf {
			count++
		}
	}
	return count
}

func (s *Service) labelFor(det models.Detection) string {
	if det.Label != "" {
		return strings.ToLower(det.Label)
	}
	if name, ok := cocoNames[det.ClassID]; ok {
		return name
	}
	return "class_" + strconv.Itoa(det.ClassID)
}

// Fallback names for detectors that send class IDs without labels,
// limited to the classes this worker alerts on.
var cocoNames = map[int]string{
	0:  "person",
	24: "backpack",
	25: "umbrella",
	26: "handbag",
	28: "suitcase",
	34: "baseball bat",
	39: "bottle",
	43: "knife",
	76: "scissors",
	86: "chainsaw",
}

func toSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
