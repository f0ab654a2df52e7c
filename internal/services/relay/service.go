package relay

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"sentinel-safety-go/internal/config"
	"sentinel-safety-go/internal/models"
)

// Service pushes accepted alerts onto the pub/sub alerts channel.
// Best-effort: a failed publish is returned as a RelayError for the
// caller to log and count, never to crash on.
type Service struct {
	publisher models.MessagePublisher
	subject   string

	published atomic.Int64
	failed    atomic.Int64
}

// NewService creates a publish relay on the configured alerts subject
func NewService(cfg *config.Config, publisher models.MessagePublisher) *Service {
	return &Service{
		publisher: publisher,
		subject:   cfg.AlertsSubject,
	}
}

// PublishAlert serializes the alert as a flat JSON object and publishes
// it as one message on the alerts channel.
func (s *Service) PublishAlert(alert models.Alert) error {
	if err := s.publisher.Publish(s.subject, alert); err != nil {
		s.failed.Add(1)
		return &models.RelayError{Subject: s.subject, Err: err}
	}

	s.published.Add(1)
	log.Debug().
		Str("alert_id", alert.ID).
		Str("event_type", alert.EventType).
		Str("subject", s.subject).
		Msg("Alert published to relay")
	return nil
}

// Stats returns the published and failed message counts
func (s *Service) Stats() (published, failed int64) {
	return s.published.Load(), s.failed.Load()
}
