/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string

	DBBackend DatabaseBackend
	DBDSN     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NATSURL            string
	ConfirmSubject     string
	TrustedConfirmHost string // exact Origin match for HTTP confirmations

	JWTSigningKey string

	// Upstream telemetry sources
	ShowQueueURL  string
	PlaybackURL   string
	ScheduleURL   string
	SourceTimeout time.Duration

	// Actuator hardware endpoints
	ActuatorURL     string
	MediaProbeURL   string
	ActuatorTimeout time.Duration

	// Per-source cache TTLs
	ShowQueueTTL time.Duration
	PlaybackTTL  time.Duration
	ScheduleTTL  time.Duration

	// Speaker timer
	SpeakerDuration time.Duration
	SpeakerCooldown time.Duration

	// Lockout thresholds
	HardLockoutSeconds int64
	WarningSeconds     int64
	BufferSeconds      int64
	DefaultSongSeconds int64

	TestMode    bool
	ProfilePath string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("SHOWGATE_ENV", "development"),
		HTTPBind:    getEnv("SHOWGATE_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("SHOWGATE_HTTP_PORT", 8080),
		MetricsBind: getEnv("SHOWGATE_METRICS_BIND", "127.0.0.1:9000"),

		DBBackend: DatabaseBackend(getEnv("SHOWGATE_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:     getEnv("SHOWGATE_DB_DSN", "showgate.db"),

		RedisAddr:     getEnv("SHOWGATE_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("SHOWGATE_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("SHOWGATE_REDIS_DB", 0),

		NATSURL:            getEnv("SHOWGATE_NATS_URL", ""),
		ConfirmSubject:     getEnv("SHOWGATE_CONFIRM_SUBJECT", "showgate.speaker.confirm"),
		TrustedConfirmHost: getEnv("SHOWGATE_TRUSTED_CONFIRM_HOST", ""),

		JWTSigningKey: getEnv("SHOWGATE_JWT_SIGNING_KEY", ""),

		ShowQueueURL:  getEnv("SHOWGATE_SHOWQUEUE_URL", ""),
		PlaybackURL:   getEnv("SHOWGATE_PLAYBACK_URL", ""),
		ScheduleURL:   getEnv("SHOWGATE_SCHEDULE_URL", ""),
		SourceTimeout: time.Duration(getEnvInt("SHOWGATE_SOURCE_TIMEOUT_SECONDS", 5)) * time.Second,

		ActuatorURL:     getEnv("SHOWGATE_ACTUATOR_URL", ""),
		MediaProbeURL:   getEnv("SHOWGATE_MEDIA_PROBE_URL", ""),
		ActuatorTimeout: time.Duration(getEnvInt("SHOWGATE_ACTUATOR_TIMEOUT_SECONDS", 3)) * time.Second,

		ShowQueueTTL: time.Duration(getEnvInt("SHOWGATE_SHOWQUEUE_TTL_SECONDS", 5)) * time.Second,
		PlaybackTTL:  time.Duration(getEnvInt("SHOWGATE_PLAYBACK_TTL_SECONDS", 3)) * time.Second,
		ScheduleTTL:  time.Duration(getEnvInt("SHOWGATE_SCHEDULE_TTL_SECONDS", 60)) * time.Second,

		SpeakerDuration: time.Duration(getEnvInt("SHOWGATE_SPEAKER_DURATION_SECONDS", 300)) * time.Second,
		SpeakerCooldown: time.Duration(getEnvInt("SHOWGATE_SPEAKER_COOLDOWN_SECONDS", 60)) * time.Second,

		HardLockoutSeconds: int64(getEnvInt("SHOWGATE_HARD_LOCKOUT_SECONDS", 300)),
		WarningSeconds:     int64(getEnvInt("SHOWGATE_WARNING_SECONDS", 900)),
		BufferSeconds:      int64(getEnvInt("SHOWGATE_BUFFER_SECONDS", 60)),
		DefaultSongSeconds: int64(getEnvInt("SHOWGATE_DEFAULT_SONG_SECONDS", 180)),

		TestMode:    getEnvBool("SHOWGATE_TEST_MODE", false),
		ProfilePath: getEnv("SHOWGATE_PROFILE_PATH", ""),

		TracingEnabled:    getEnvBool("SHOWGATE_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("SHOWGATE_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("SHOWGATE_TRACING_SAMPLE_RATE", 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.JWTSigningKey == "" {
		return nil, fmt.Errorf("SHOWGATE_JWT_SIGNING_KEY must be provided")
	}

	for key, val := range map[string]string{
		"SHOWGATE_SHOWQUEUE_URL": cfg.ShowQueueURL,
		"SHOWGATE_PLAYBACK_URL":  cfg.PlaybackURL,
		"SHOWGATE_SCHEDULE_URL":  cfg.ScheduleURL,
		"SHOWGATE_ACTUATOR_URL":  cfg.ActuatorURL,
	} {
		if val == "" {
			return nil, fmt.Errorf("%s must be provided", key)
		}
	}

	if strings.EqualFold(cfg.Environment, "production") && cfg.TrustedConfirmHost == "" && cfg.NATSURL == "" {
		return nil, fmt.Errorf("SHOWGATE_TRUSTED_CONFIRM_HOST or SHOWGATE_NATS_URL must be set in production")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "true" || v == "1" || v == "yes" {
			return true
		}
		if v == "false" || v == "0" || v == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}
