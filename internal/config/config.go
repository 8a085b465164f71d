package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/remote-sensing-etl/internal/normalize"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir           string
	SecondaryEncoding string
	Bounds            normalize.Bounds
	PollInterval      time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka sink; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int

	// SQLite snapshot sink; disabled when empty.
	SQLitePath string
}

// KafkaEnabled reports whether the kafka sink is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// SQLiteEnabled reports whether the sqlite sink is configured.
func (c *Config) SQLiteEnabled() bool {
	return c.SQLitePath != ""
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is honored but never overrides
// variables already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	pollInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("POLL_INTERVAL", "30s"))
	if err != nil || pollInterval <= 0 {
		return nil, errors.New("invalid POLL_INTERVAL")
	}

	bounds, err := parseBounds()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:           sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		SecondaryEncoding: sharedcfg.EnvOrDefault("SECONDARY_ENCODING", "latin1"),
		Bounds:            bounds,
		PollInterval:      pollInterval,
		HTTPAddr:          sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,
		KafkaTopic:        sharedcfg.EnvOrDefault("KAFKA_TOPIC", "remote-sensing-observations"),
		BatchSize:         batchSize,
		SQLitePath:        os.Getenv("SQLITE_PATH"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseBounds() (normalize.Bounds, error) {
	accept, err := normalize.ParseBox(sharedcfg.EnvOrDefault("REGION_BBOX", normalize.DefaultBounds.Accept.String()))
	if err != nil {
		return normalize.Bounds{}, fmt.Errorf("invalid REGION_BBOX: %w", err)
	}
	swap, err := normalize.ParseBox(sharedcfg.EnvOrDefault("SWAP_BBOX", normalize.DefaultBounds.Swap.String()))
	if err != nil {
		return normalize.Bounds{}, fmt.Errorf("invalid SWAP_BBOX: %w", err)
	}

	b := normalize.Bounds{Swap: swap, Accept: accept}
	if err := b.Validate(); err != nil {
		return normalize.Bounds{}, fmt.Errorf("invalid REGION_BBOX/SWAP_BBOX: %w", err)
	}
	return b, nil
}
