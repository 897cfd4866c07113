// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr       string
	AdminToken string
	Postgres   PostgresConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	// DiffCacheTTL bounds memory held by cached change sets; cached diffs
	// are between immutable versions so expiry never affects correctness.
	DiffCacheTTL time.Duration
}

// PostgresConfig holds relational store settings. Empty DSN selects the
// in-memory stores.
type PostgresConfig struct {
	DSN string
}

// RedisConfig holds diff cache settings. Empty URL disables the cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds audit publishing settings. Empty Brokers selects the
// slog audit sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds the configuration from environment variables.
func FromEnv() Config {
	addr := os.Getenv("ONTOREG_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("ONTOREG_AUDIT_TOPIC")
	if topic == "" {
		topic = "ontoreg.audit"
	}

	var brokers []string
	if raw := os.Getenv("ONTOREG_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:       addr,
		AdminToken: os.Getenv("ONTOREG_ADMIN_TOKEN"),
		Postgres: PostgresConfig{
			DSN: os.Getenv("ONTOREG_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("ONTOREG_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		DiffCacheTTL: 24 * time.Hour,
	}
}
