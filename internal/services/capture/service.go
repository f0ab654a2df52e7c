package capture

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"sentinel-safety-go/internal/config"
	"sentinel-safety-go/internal/models"
)

const maxConsecutiveErrors = 10

// Service reads frames from a webcam or stream URL via OpenCV and
// hands them to the pipeline as JPEG-encoded frames.
type Service struct {
	cfg      *config.Config
	cameraID string

	cap  *gocv.VideoCapture
	img  gocv.Mat
	seq  int64
	errs int
}

// NewService opens the configured video source. A numeric source is
// treated as a webcam device index, anything else as a stream URL.
func NewService(cfg *config.Config) (*Service, error) {
	var cap *gocv.VideoCapture
	var err error

	if idx, convErr := strconv.Atoi(cfg.VideoSource); convErr == nil {
		cap, err = gocv.OpenVideoCapture(idx)
	} else {
		cap, err = gocv.OpenVideoCaptureWithAPI(cfg.VideoSource, gocv.VideoCaptureFFmpeg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open video source %s: %w", cfg.VideoSource, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("video source %s is not opened", cfg.VideoSource)
	}

	log.Info().
		Str("camera_id", cfg.CameraID).
		Str("source", cfg.VideoSource).
		Float64("fps", cap.Get(gocv.VideoCaptureFPS)).
		Float64("width", cap.Get(gocv.VideoCaptureFrameWidth)).
		Float64("height", cap.Get(gocv.VideoCaptureFrameHeight)).
		Msg("VideoCapture opened")

	return &Service{
		cfg:      cfg,
		cameraID: cfg.CameraID,
		cap:      cap,
		img:      gocv.NewMat(),
	}, nil
}

// ReadFrame blocks until the next frame is available, JPEG-encodes it,
// and returns it. Transient read failures are retried with a short
// pause; too many consecutive failures surface as an error.
func (s *Service) ReadFrame(ctx context.Context) (*models.Frame, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !s.cap.Read(&s.img) || s.img.Empty() {
			s.errs++
			if s.errs >= maxConsecutiveErrors {
				return nil, fmt.Errorf("video source stalled after %d consecutive read errors", s.errs)
			}
			log.Warn().
				Str("camera_id", s.cameraID).
				Int("consecutive_errors", s.errs).
				Msg("Failed to read frame from VideoCapture")
			time.Sleep(100 * time.Millisecond)
			continue
		}
		s.errs = 0
		s.seq++

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.img)
		if err != nil {
			return nil, fmt.Errorf("failed to encode frame: %w", err)
		}
		jpeg := make([]byte, len(buf.GetBytes()))
		copy(jpeg, buf.GetBytes())
		buf.Close()

		return &models.Frame{
			CameraID:  s.cameraID,
			Seq:       s.seq,
			Timestamp: time.Now().UTC(),
			JPEG:      jpeg,
			Width:     s.img.Cols(),
			Height:    s.img.Rows(),
		}, nil
	}
}

// Close releases the capture device
func (s *Service) Close() error {
	s.img.Close()
	return s.cap.Close()
}

var _ models.FrameSource = (*Service)(nil)
