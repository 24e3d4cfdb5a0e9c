package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server needs from its environment so main
// stays lean. Missing optional backends (Postgres, Redis, Kafka) degrade to
// in-memory or disabled equivalents; the signing key always has a dev default
// that must be overridden in production.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	JWTSigningKey string
	LogLevel      string

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:            getEnv("ATRIUM_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		AuditTopic:      getEnv("ATRIUM_AUDIT_TOPIC", "atrium.audit.events"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		LogLevel:        getEnv("ATRIUM_LOG_LEVEL", "info"),
		ShutdownTimeout: 10 * time.Second,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
