package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sentinel-safety-go/internal/config"
	"sentinel-safety-go/internal/models"
	"sentinel-safety-go/internal/privacy"
	"sentinel-safety-go/internal/services/classifier"
	"sentinel-safety-go/internal/services/throttle"
)

// AlertPublisher pushes an accepted alert onto the alerts channel
type AlertPublisher interface {
	PublishAlert(alert models.Alert) error
}

// Stats is a snapshot of pipeline counters
type Stats struct {
	FramesProcessed  int64 `json:"frames_processed"`
	AlertsEmitted    int64 `json:"alerts_emitted"`
	DetectorFailures int64 `json:"detector_failures"`
	StorageFailures  int64 `json:"storage_failures"`
	PublishFailures  int64 `json:"publish_failures"`
	LastPersonCount  int64 `json:"last_person_count"`
}

// Service is the frame-processing worker: read frame, detect,
// classify, throttle, persist, publish. It owns the per-run state the
// processing needs — throttle store, camera hash, AI-active flag — so
// nothing lives in package globals; its lifecycle is tied to Start and
// Shutdown.
type Service struct {
	cfg        *config.Config
	classifier *classifier.Service
	throttle   *throttle.Store
	store      models.AlertStore
	publisher  AlertPublisher
	detector   models.Detector
	source     models.FrameSource

	// camera hash is computed once at start; the raw camera ID is
	// never attached to an alert
	cameraHash string

	activeMu sync.RWMutex
	active   bool

	frames           atomic.Int64
	alerts           atomic.Int64
	detectorFailures atomic.Int64
	storageFailures  atomic.Int64
	publishFailures  atomic.Int64
	lastPersonCount  atomic.Int64

	now func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService wires the frame-processing worker
func NewService(
	cfg *config.Config,
	cls *classifier.Service,
	store *throttle.Store,
	alertStore models.AlertStore,
	publisher AlertPublisher,
	detector models.Detector,
	source models.FrameSource,
) *Service {
	return &Service{
		cfg:        cfg,
		classifier: cls,
		throttle:   store,
		store:      alertStore,
		publisher:  publisher,
		detector:   detector,
		source:     source,
		cameraHash: privacy.HashIdentifier(cfg.PrivacySalt, cfg.CameraID),
		active:     true,
		now:        time.Now,
	}
}

// Start launches the processing loop in its own goroutine, off the
// goroutines serving live connections, so a slow detector never stalls
// alert delivery.
func (s *Service) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.run(runCtx)
	}()

	log.Info().Str("camera_hash", s.cameraHash).Msg("Frame-processing pipeline started")
}

// Shutdown stops the loop and waits for it to exit
func (s *Service) Shutdown(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetActive toggles detection. When inactive, frames are consumed but
// not analyzed (standby mode).
func (s *Service) SetActive(active bool) {
	s.activeMu.Lock()
	s.active = active
	s.activeMu.Unlock()

	status := "STANDBY"
	if active {
		status = "ACTIVE"
	}
	log.Info().Str("status", status).Msg("AI processing toggled")
}

// Active reports whether detection is running
func (s *Service) Active() bool {
	s.activeMu.RLock()
	defer s.activeMu.RUnlock()
	return s.active
}

func (s *Service) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Frame-processing pipeline stopped")
			return
		default:
		}

		frame, err := s.source.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("Frame-processing pipeline stopped")
				return
			}
			log.Error().Err(err).Msg("Failed to read frame")
			time.Sleep(100 * time.Millisecond)
			continue
		}

		if !s.Active() {
			continue
		}

		s.ProcessFrame(ctx, frame)
	}
}

// ProcessFrame runs one frame through detect, classify, throttle,
// persist, publish. No error here terminates the loop: a failed
// detection skips the frame, a failed append still publishes, a failed
// publish is dropped and counted.
func (s *Service) ProcessFrame(ctx context.Context, frame *models.Frame) {
	s.frames.Add(1)

	detections, err := s.detector.Detect(ctx, frame)
	if err != nil {
		s.detectorFailures.Add(1)
		log.Warn().Err(err).Int64("frame_seq", frame.Seq).Msg("Detector failed, skipping frame")
		return
	}

	s.lastPersonCount.Store(int64(s.classifier.CountPersons(detections)))

	for _, candidate := range s.classifier.Classify(detections) {
		s.emit(ctx, candidate)
	}
}

func (s *Service) emit(ctx context.Context, candidate models.AlertCandidate) {
	now := s.now()

	// Suspicious-object candidates are intentionally not rate-gated;
	// weapon and crowd alerts share the cooldown window per key.
	if candidate.Type != models.EventTypeSuspicious && !s.throttle.Admit(candidate.Key, now) {
		log.Debug().Str("key", candidate.Key).Msg("Alert blocked by cooldown")
		return
	}

	alert := models.Alert{
		ID:         uuid.NewString(),
		Timestamp:  now.UTC(),
		CameraHash: s.cameraHash,
		EventType:  string(candidate.Type),
		Severity:   string(candidate.Severity),
		Count:      candidate.Count,
		Metadata:   map[string]any{"source": "pipeline"},
	}
	if candidate.Label != "" {
		alert.Metadata["label"] = candidate.Label
	}

	// Persistence and publish are independent: a database outage must
	// not starve live subscribers.
	stored, err := s.store.Append(ctx, alert)
	if err != nil {
		s.storageFailures.Add(1)
		log.Error().Err(err).Str("key", candidate.Key).Msg("Failed to persist alert, publishing anyway")
	} else {
		alert = stored
	}

	if err := s.publisher.PublishAlert(alert); err != nil {
		s.publishFailures.Add(1)
		log.Error().Err(err).Str("key", candidate.Key).Msg("Failed to publish alert")
	}

	s.alerts.Add(1)
	log.Info().
		Str("alert_id", alert.ID).
		Str("event_type", alert.EventType).
		Str("severity", alert.Severity).
		Str("key", candidate.Key).
		Msg("🚨 Alert emitted")
}

// Stats returns a snapshot of the pipeline counters
func (s *Service) Stats() Stats {
	return Stats{
		FramesProcessed:  s.frames.Load(),
		AlertsEmitted:    s.alerts.Load(),
		DetectorFailures: s.detectorFailures.Load(),
		StorageFailures:  s.storageFailures.Load(),
		PublishFailures:  s.publishFailures.Load(),
		LastPersonCount:  s.lastPersonCount.Load(),
	}
}

// LastPersonCount returns the confident person count of the most
// recently processed frame. Consumed by the auxiliary crowd worker.
func (s *Service) LastPersonCount() int {
	return int(s.lastPersonCount.Load())
}

// CameraHash returns the salted digest identifying this worker's camera
func (s *Service) CameraHash() string {
	return s.cameraHash
}
