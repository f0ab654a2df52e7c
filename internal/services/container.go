package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"sentinel-safety-go/internal/config"
	"sentinel-safety-go/internal/models"
	"sentinel-safety-go/internal/services/bridge"
	"sentinel-safety-go/internal/services/capture"
	"sentinel-safety-go/internal/services/classifier"
	"sentinel-safety-go/internal/services/crowdworker"
	"sentinel-safety-go/internal/services/detection"
	"sentinel-safety-go/internal/services/hub"
	"sentinel-safety-go/internal/services/messaging"
	"sentinel-safety-go/internal/services/pipeline"
	"sentinel-safety-go/internal/services/relay"
	"sentinel-safety-go/internal/services/repository"
	"sentinel-safety-go/internal/services/throttle"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config      *config.Config
	Messaging   *messaging.Service
	AlertStore  models.AlertStore
	Registry    *hub.Registry
	Bridge      *bridge.Service
	Relay       *relay.Service
	Detector    *detection.Service
	Source      *capture.Service
	Throttle    *throttle.Store
	Pipeline    *pipeline.Service
	CrowdWorker *crowdworker.Service

	bridgeCancel context.CancelFunc
	storeCloser  func(context.Context) error
}

// NewServiceContainer wires the alert pipeline
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	msg, err := messaging.NewService(cfg)
	if err != nil {
		return nil, err
	}

	var store models.AlertStore
	var storeCloser func(context.Context) error
	if cfg.DatabaseURL != "" {
		pg, err := repository.NewPostgresStore(cfg)
		if err != nil {
			msg.Shutdown(context.Background())
			return nil, err
		}
		store = pg
		storeCloser = pg.Shutdown
	} else {
		log.Warn().Msg("DATABASE_URL not set, alert log is in-memory only")
		mem := repository.NewMemoryStore()
		store = mem
		storeCloser = mem.Shutdown
	}

	detector, err := detection.NewService(cfg)
	if err != nil {
		msg.Shutdown(context.Background())
		storeCloser(context.Background())
		return nil, err
	}

	source, err := capture.NewService(cfg)
	if err != nil {
		msg.Shutdown(context.Background())
		storeCloser(context.Background())
		return nil, err
	}

	registry := hub.NewRegistry(cfg.WriteTimeout)
	alertRelay := relay.NewService(cfg, msg)
	throttleStore := throttle.NewStore(cfg.AlertsCooldown)

	pipe := pipeline.NewService(cfg, classifier.NewService(cfg), throttleStore, store, alertRelay, detector, source)

	sc := &ServiceContainer{
		Config:      cfg,
		Messaging:   msg,
		AlertStore:  store,
		Registry:    registry,
		Bridge:      bridge.NewService(cfg, bridge.WrapNATS(msg), registry),
		Relay:       alertRelay,
		Detector:    detector,
		Source:      source,
		Throttle:    throttleStore,
		Pipeline:    pipe,
		storeCloser: storeCloser,
	}

	if cfg.CrowdWorkerEnabled {
		sc.CrowdWorker = crowdworker.NewService(cfg, pipe, throttleStore, alertRelay)
	}

	return sc, nil
}

// Start launches the long-running workers: the frame-processing
// pipeline, the subscriber bridge, and the optional crowd worker.
func (sc *ServiceContainer) Start(ctx context.Context) {
	bridgeCtx, cancel := context.WithCancel(ctx)
	sc.bridgeCancel = cancel
	go sc.Bridge.Run(bridgeCtx)

	sc.Pipeline.Start(ctx)

	if sc.CrowdWorker != nil {
		sc.CrowdWorker.Start(ctx)
	}
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	if sc.CrowdWorker != nil {
		if err := sc.CrowdWorker.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Crowd worker shutdown timed out")
		}
	}

	if err := sc.Pipeline.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Pipeline shutdown timed out")
	}

	if sc.bridgeCancel != nil {
		sc.bridgeCancel()
	}

	if sc.Source != nil {
		sc.Source.Close()
	}

	if sc.Detector != nil {
		sc.Detector.Shutdown(ctx)
	}

	if sc.Messaging != nil {
		sc.Messaging.Shutdown(ctx)
	}

	if sc.storeCloser != nil {
		return sc.storeCloser(ctx)
	}
	return nil
}
