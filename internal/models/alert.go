package models

import (
	"context"
	"time"
)

// EventType represents the kind of safety event an alert describes
type EventType string

const (
	EventTypeWeapon     EventType = "WEAPON"
	EventTypeCrowdSurge EventType = "CROWD_SURGE"
	EventTypeSuspicious EventType = "SUSPICIOUS"
	EventTypeCrowdCount EventType = "CROWD_COUNT"
)

// AlertSeverity represents the severity level of alerts
type AlertSeverity string

const (
	AlertSeverityInfo   AlertSeverity = "info"
	AlertSeverityMedium AlertSeverity = "medium"
	AlertSeverityHigh   AlertSeverity = "high"
)

// Detection represents a single object detection from the AI detector.
// Ephemeral: produced per frame, never persisted.
type Detection struct {
	ClassID    int        `json:"class_id"`
	Confidence float64    `json:"confidence"`
	Label      string     `json:"label"`
	BBox       [4]float64 `json:"bbox"` // x1, y1, x2, y2
}

// AlertCandidate is a provisional alert derived from one frame's
// detections, before throttling and persistence. Key is the throttle
// dedup key (e.g. "weapon:knife", "crowd").
type AlertCandidate struct {
	Key      string
	Type     EventType
	Severity AlertSeverity
	Count    *int
	Label    string
}

// Alert is the persisted and published event record. CameraHash is the
// salted digest of the camera identifier; the raw identifier never
// appears here.
type Alert struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	CameraHash string         `json:"camera_hash"`
	EventType  string         `json:"event_type"`
	Severity   string         `json:"severity"`
	Count      *int           `json:"count,omitempty"`
	Metadata   map[string]any `json:"metadata"`
}

// Frame is one captured video frame, JPEG-encoded.
type Frame struct {
	CameraID  string
	Seq       int64
	Timestamp time.Time
	JPEG      []byte
	Width     int
	Height    int
}

// AlertStore is the durable append-only alert log
type AlertStore interface {
	Append(ctx context.Context, alert Alert) (Alert, error)
	ListRecent(ctx context.Context, limit int) ([]Alert, error)
}

// MessagePublisher interface for publishing alerts
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}

// Detector runs object detection on a single frame
type Detector interface {
	Detect(ctx context.Context, frame *Frame) ([]Detection, error)
}

// FrameSource supplies an unbounded sequence of frames from a camera or
// file. ReadFrame blocks until a frame is available or ctx is cancelled.
type FrameSource interface {
	ReadFrame(ctx context.Context) (*Frame, error)
	Close() error
}
