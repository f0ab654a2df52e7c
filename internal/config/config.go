package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Privacy
	// Salted one-way digest of camera identifiers. Required outside
	// development so raw camera IDs never reach the log or the wire.
	PrivacySalt string

	// Camera / frame source
	CameraID    string
	VideoSource string // webcam index ("0") or stream URL

	// Detector (HTTP inference service)
	DetectorURL     string
	DetectorTimeout time.Duration

	// Classification
	PersonClassID       int
	WeaponClassIDs      []int
	SuspiciousClassIDs  []int
	CrowdThreshold      int
	PersonConfThreshold float64

	// Throttling
	AlertsCooldown time.Duration

	// NATS (alerts relay)
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	AlertsSubject      string

	// Subscriber bridge
	ResubscribeBackoffMin time.Duration
	ResubscribeBackoffMax time.Duration

	// Database (alert log). Empty DSN falls back to the in-memory store.
	DatabaseURL    string
	DBConnTimeout  time.Duration
	DBPingRetries  int
	DBPingInterval time.Duration

	// Auxiliary crowd-count worker
	CrowdWorkerEnabled  bool
	CrowdWorkerInterval time.Duration

	// Websocket fan-out
	WriteTimeout time.Duration

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "safety-worker-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Privacy
		PrivacySalt: getEnv("PRIVACY_SALT", "set-a-strong-random-salt"),

		// Camera / frame source
		CameraID:    getEnv("CAMERA_ID", "default"),
		VideoSource: getEnv("VIDEO_SOURCE", "0"),

		// Detector
		DetectorURL:     getEnv("DETECTOR_URL", "http://localhost:8001/detect"),
		DetectorTimeout: getEnvDuration("DETECTOR_TIMEOUT", 5*time.Second),

		// Classification. Class IDs follow the COCO indexing the
		// detector is trained on: 34 baseball bat, 43 knife,
		// 76 scissors, 86 chainsaw; 24/26/28 bags, 39 bottle,
		// 25 umbrella.
		PersonClassID:       getEnvInt("PERSON_CLASS_ID", 0),
		WeaponClassIDs:      getEnvIntSlice("WEAPON_CLASS_IDS", []int{34, 43, 76, 86}),
		SuspiciousClassIDs:  getEnvIntSlice("SUSPICIOUS_CLASS_IDS", []int{24, 26, 28, 39, 25}),
		CrowdThreshold:      getEnvInt("CROWD_THRESHOLD", 5),
		PersonConfThreshold: getEnvFloat("PERSON_CONFIDENCE_THRESHOLD", 0.50),

		// Throttling
		AlertsCooldown: getEnvDuration("ALERTS_COOLDOWN", 5*time.Second),

		// NATS
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		AlertsSubject:      getEnv("ALERTS_SUBJECT", "alerts"),

		// Subscriber bridge
		ResubscribeBackoffMin: getEnvDuration("RESUBSCRIBE_BACKOFF_MIN", 1*time.Second),
		ResubscribeBackoffMax: getEnvDuration("RESUBSCRIBE_BACKOFF_MAX", 30*time.Second),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBConnTimeout:  getEnvDuration("DB_CONN_TIMEOUT", 5*time.Second),
		DBPingRetries:  getEnvInt("DB_PING_RETRIES", 60),
		DBPingInterval: getEnvDuration("DB_PING_INTERVAL", 1*time.Second),

		// Auxiliary crowd-count worker
		CrowdWorkerEnabled:  getEnvBool("CROWD_WORKER_ENABLED", false),
		CrowdWorkerInterval: getEnvDuration("CROWD_PUBLISH_INTERVAL", 1*time.Second),

		// Websocket fan-out
		WriteTimeout: getEnvDuration("WS_WRITE_TIMEOUT", 5*time.Second),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// IsProduction reports whether the worker runs with production guards on
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvIntSlice(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		parsed, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	return out
}
