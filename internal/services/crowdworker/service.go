package crowdworker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sentinel-safety-go/internal/config"
	"sentinel-safety-go/internal/models"
	"sentinel-safety-go/internal/privacy"
	"sentinel-safety-go/internal/services/pipeline"
	"sentinel-safety-go/internal/services/throttle"
)

const alertKey = "crowd_count"

// Service is the auxiliary crowd-count producer: on an interval it
// samples the pipeline's latest confident person count and publishes an
// informational crowd_count alert on the shared channel. It shares the
// throttle store with the frame-processing worker, so admission stays
// atomic across both producers.
type Service struct {
	cfg        *config.Config
	pipeline   *pipeline.Service
	throttle   *throttle.Store
	publisher  pipeline.AlertPublisher
	cameraHash string
	interval   time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates the crowd-count worker
func NewService(cfg *config.Config, p *pipeline.Service, store *throttle.Store, publisher pipeline.AlertPublisher) *Service {
	return &Service{
		cfg:        cfg,
		pipeline:   p,
		throttle:   store,
		publisher:  publisher,
		cameraHash: privacy.HashIdentifier(cfg.PrivacySalt, cfg.CameraID),
		interval:   cfg.CrowdWorkerInterval,
	}
}

// Start launches the sampling loop
func (s *Service) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.run(runCtx)
	}()

	log.Info().Dur("interval", s.interval).Msg("Crowd-count worker started")
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

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Crowd-count worker stopped")
			return
		case <-ticker.C:
			s.publishCount()
		}
	}
}

func (s *Service) publishCount() {
	now := time.Now()
	if !s.throttle.Admit(alertKey, now) {
		return
	}

	count := s.pipeline.LastPersonCount()
	alert := models.Alert{
		ID:         uuid.NewString(),
		Timestamp:  now.UTC(),
		CameraHash: s.cameraHash,
		EventType:  string(models.EventTypeCrowdCount),
		Severity:   string(models.AlertSeverityInfo),
		Count:      &count,
		Metadata:   map[string]any{"source": "crowd_worker"},
	}

	if err := s.publisher.PublishAlert(alert); err != nil {
		log.Warn().Err(err).Msg("Failed to publish crowd count")
	}
}
