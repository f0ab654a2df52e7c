package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"sentinel-safety-go/internal/config"
	"sentinel-safety-go/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS event_logs (
	id          TEXT PRIMARY KEY,
	timestamp   TIMESTAMPTZ NOT NULL DEFAULT now(),
	camera_hash TEXT NOT NULL,
	event_type  TEXT NOT NULL,
	severity    TEXT NOT NULL,
	count       INTEGER,
	metadata    JSONB
);
CREATE INDEX IF NOT EXISTS idx_event_logs_timestamp ON event_logs (timestamp);
CREATE INDEX IF NOT EXISTS idx_event_camera_time ON event_logs (camera_hash, timestamp);
`

const maxListLimit = 500

// PostgresStore is the durable append-only alert log
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the alert log database, waiting for it
// to become reachable so the worker survives a slow database startup.
func NewPostgresStore(cfg *config.Config) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, &models.StorageError{Op: "open", Err: err}
	}

	var pingErr error
	for i := 0; i < cfg.DBPingRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnTimeout)
		pingErr = db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		time.Sleep(cfg.DBPingInterval)
	}
	if pingErr != nil {
		db.Close()
		return nil, &models.StorageError{Op: "ping", Err: pingErr}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &models.StorageError{Op: "migrate", Err: err}
	}

	log.Info().Msg("Alert log database connection established")

	return &PostgresStore{db: db}, nil
}

// Append persists an alert, assigning its identifier and server
// timestamp when absent, and returns the stored record.
func (s *PostgresStore) Append(ctx context.Context, alert models.Alert) (models.Alert, error) {
	alert = Finalize(alert)

	meta, err := json.Marshal(alert.Metadata)
	if err != nil {
		return models.Alert{}, &models.StorageError{Op: "encode metadata", Err: err}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO event_logs (id, timestamp, camera_hash, event_type, severity, count, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		alert.ID, alert.Timestamp, alert.CameraHash, alert.EventType, alert.Severity, alert.Count, meta,
	)
	if err != nil {
		return models.Alert{}, &models.StorageError{Op: "insert", Err: err}
	}

	return alert, nil
}

// ListRecent returns up to limit alerts, newest first
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]models.Alert, error) {
	limit = ClampLimit(limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, camera_hash, event_type, severity, count, metadata
		 FROM event_logs ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, &models.StorageError{Op: "query", Err: err}
	}
	defer rows.Close()

	alerts := make([]models.Alert, 0, limit)
	for rows.Next() {
		var a models.Alert
		var count sql.NullInt64
		var meta []byte
		if err := rows.Scan(&a.ID, &a.Timestamp, &a.CameraHash, &a.EventType, &a.Severity, &count, &meta); err != nil {
			return nil, &models.StorageError{Op: "scan", Err: err}
		}
		if count.Valid {
			c := int(count.Int64)
			a.Count = &c
		}
		a.Metadata = map[string]any{}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &a.Metadata); err != nil {
				return nil, &models.StorageError{Op: "decode metadata", Err: err}
			}
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "rows", Err: err}
	}

	return alerts, nil
}

// Ping reports whether the backing database is reachable
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &models.StorageError{Op: "ping", Err: err}
	}
	return nil
}

// Shutdown closes the connection pool
func (s *PostgresStore) Shutdown(ctx context.Context) error {
	return s.db.Close()
}

// Finalize assigns the identifier and server timestamp when absent and
// normalizes metadata. Timestamps are server-assigned in UTC, never
// client-supplied.
func Finalize(alert models.Alert) models.Alert {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}
	if alert.Metadata == nil {
		alert.Metadata = map[string]any{}
	}
	return alert
}

// ClampLimit bounds a client-supplied page size
func ClampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

var _ models.AlertStore = (*PostgresStore)(nil)
