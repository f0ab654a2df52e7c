package bridge

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"sentinel-safety-go/internal/config"
	"sentinel-safety-go/internal/models"
	"sentinel-safety-go/internal/services/messaging"
)

// Subscription is an active pub/sub subscription
type Subscription interface {
	Unsubscribe() error
	IsValid() bool
}

// Subscriber opens subscriptions on the alerts channel
type Subscriber interface {
	Subscribe(subject string, handler func([]byte)) (Subscription, error)
}

// Broadcaster receives every message from the alerts channel, in order
type Broadcaster interface {
	Broadcast(message []byte)
}

// Service is the long-lived listener between the pub/sub alerts
// channel and the fan-out registry. It forwards each message verbatim
// and retries resubscription instead of terminating.
type Service struct {
	subscriber Subscriber
	registry   Broadcaster
	subject    string
	backoffMin time.Duration
	backoffMax time.Duration

	// how often a live subscription is checked for validity
	checkInterval time.Duration
}

// NewService creates a subscriber bridge
func NewService(cfg *config.Config, subscriber Subscriber, registry Broadcaster) *Service {
	return &Service{
		subscriber:    subscriber,
		registry:      registry,
		subject:       cfg.AlertsSubject,
		backoffMin:    cfg.ResubscribeBackoffMin,
		backoffMax:    cfg.ResubscribeBackoffMax,
		checkInterval: time.Second,
	}
}

// Run subscribes to the alerts channel and blocks until ctx is
// cancelled. Subscription failures are retried with capped exponential
// backoff; a lost subscription is reopened.
func (s *Service) Run(ctx context.Context) {
	backoff := s.backoffMin

	for {
		sub, err := s.subscriber.Subscribe(s.subject, s.handleMessage)
		if err != nil {
			relayErr := &models.RelayError{Subject: s.subject, Err: err}
			log.Error().Err(relayErr).Dur("retry_in", backoff).Msg("Bridge subscription failed, retrying")
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, s.backoffMax)
			continue
		}

		log.Info().Str("subject", s.subject).Msg("Bridge subscribed to alerts channel")
		backoff = s.backoffMin

		if !s.waitWhileValid(ctx, sub) {
			sub.Unsubscribe()
			return
		}

		// Subscription went invalid; loop around and resubscribe
		log.Warn().Str("subject", s.subject).Msg("Bridge subscription lost, resubscribing")
		sub.Unsubscribe()
	}
}

// handleMessage forwards one alerts-channel message to the registry.
// Malformed payloads are dropped silently; nothing may raise into the
// listener loop.
func (s *Service) handleMessage(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Broadcast panic suppressed in bridge")
		}
	}()

	if len(data) == 0 || !utf8.Valid(data) {
		log.Debug().Int("bytes", len(data)).Msg("Bridge dropped malformed alerts message")
		return
	}

	s.registry.Broadcast(data)
}

// waitWhileValid blocks until ctx is cancelled (returns false) or the
// subscription stops being valid (returns true).
func (s *Service) waitWhileValid(ctx context.Context, sub Subscription) bool {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if !sub.IsValid() {
				return true
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

// WrapNATS adapts the messaging service to the bridge's Subscriber
// interface.
func WrapNATS(svc *messaging.Service) Subscriber {
	return natsSubscriber{svc: svc}
}

type natsSubscriber struct {
	svc *messaging.Service
}

func (n natsSubscriber) Subscribe(subject string, handler func([]byte)) (Subscription, error) {
	sub, err := n.svc.Subscribe(subject, handler)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
