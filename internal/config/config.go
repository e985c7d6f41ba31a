// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Admin API credential. Every /api/admin request must carry it as a
	// Bearer token (or X-Admin-Token header).
	AdminToken string

	// CORS allow-list. Empty means every origin is allowed.
	AllowedOrigins []string

	// PublicOrigin is the origin of the public site, used to resolve
	// relative flyer/hero image references into absolute URLs.
	PublicOrigin string

	// S3-compatible object storage for uploaded images
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// X (Twitter) API credentials for OAuth 1.0a user-context posting
	XConsumerKey       string
	XConsumerSecret    string
	XAccessToken       string
	XAccessTokenSecret string

	// Reservation notifications (all optional)
	LineChannelToken string
	LineTo           string
	NotifyWebhookURL string
	AMQPURL          string

	// Policy knobs. The defaults mirror the historical behavior; they are
	// configurable because nobody ever wrote down why 5 minutes or 10 tickets.
	ReservationDedupeWindow time.Duration
	ReservationQuantityCap  int
	ScheduleMinLead         time.Duration
	ScheduleBatchSize       int
	SchedulerInterval       time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "bandsite"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "bandsite"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		PublicOrigin:   strings.TrimRight(os.Getenv("PUBLIC_ORIGIN"), "/"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "auto"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "bandsite-images"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		XConsumerKey:       os.Getenv("X_CONSUMER_KEY"),
		XConsumerSecret:    os.Getenv("X_CONSUMER_SECRET"),
		XAccessToken:       os.Getenv("X_ACCESS_TOKEN"),
		XAccessTokenSecret: os.Getenv("X_ACCESS_TOKEN_SECRET"),

		LineChannelToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		LineTo:           os.Getenv("LINE_TO"),
		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		AMQPURL:          os.Getenv("AMQP_URL"),

		ReservationDedupeWindow: envOrDuration("RESERVATION_DEDUPE_WINDOW", 5*time.Minute),
		ReservationQuantityCap:  envOrInt("RESERVATION_QUANTITY_CAP", 10),
		ScheduleMinLead:         envOrDuration("SCHEDULE_MIN_LEAD", 30*time.Second),
		ScheduleBatchSize:       envOrInt("SCHEDULE_BATCH_SIZE", 10),
		SchedulerInterval:       envOrDuration("SCHEDULER_INTERVAL", time.Minute),
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.AdminToken == "" {
			return nil, fmt.Errorf("ADMIN_TOKEN must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// HasXCredentials reports whether the full OAuth 1.0a credential set is present.
func (c *Config) HasXCredentials() bool {
	return c.XConsumerKey != "" && c.XConsumerSecret != "" &&
		c.XAccessToken != "" && c.XAccessTokenSecret != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, strings.TrimRight(s, "/"))
		}
	}
	return out
}
