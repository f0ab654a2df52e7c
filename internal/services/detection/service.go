package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"sentinel-safety-go/internal/config"
	"sentinel-safety-go/internal/models"
)

// Service calls the external object-detection server over HTTP. The
// detector's internals are out of scope here; this client only consumes
// its contract: one JPEG frame in, a set of detections out.
type Service struct {
	client      *http.Client
	detectURL   string
	healthURL   string
}

type detectResponse struct {
	Detections []models.Detection `json:"detections"`
}

// NewService creates a detector client for the configured inference URL
func NewService(cfg *config.Config) (*Service, error) {
	parsed, err := url.Parse(cfg.DetectorURL)
	if err != nil {
		return nil, fmt.Errorf("invalid detector URL %q: %w", cfg.DetectorURL, err)
	}

	healthURL := *parsed
	healthURL.Path = "/"
	healthURL.RawQuery = ""

	log.Info().Str("url", cfg.DetectorURL).Msg("Initializing AI detection client")

	return &Service{
		client:    &http.Client{Timeout: cfg.DetectorTimeout},
		detectURL: cfg.DetectorURL,
		healthURL: healthURL.String(),
	}, nil
}

// Detect posts one JPEG frame to the detector and returns its
// detections. No ordering guarantee on the returned set.
func (s *Service) Detect(ctx context.Context, frame *models.Frame) ([]models.Detection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.detectURL, bytes.NewReader(frame.JPEG))
	if err != nil {
		return nil, &models.DetectorError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &models.DetectorError{Op: "infer", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &models.DetectorError{
			Op:  "infer",
			Err: fmt.Errorf("detector returned %d: %s", resp.StatusCode, bytes.TrimSpace(body)),
		}
	}

	var decoded detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &models.DetectorError{Op: "decode response", Err: err}
	}

	return decoded.Detections, nil
}

// Ping checks that the detector server is reachable
func (s *Service) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.healthURL, nil)
	if err != nil {
		return &models.DetectorError{Op: "health", Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &models.DetectorError{Op: "health", Err: err}
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &models.DetectorError{Op: "health", Err: fmt.Errorf("detector returned %d", resp.StatusCode)}
	}
	return nil
}

func (s *Service) Shutdown(ctx context.Context) {
	s.client.CloseIdleConnections()
}

var _ models.Detector = (*Service)(nil)
