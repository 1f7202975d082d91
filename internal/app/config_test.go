package app

import (
	"testing"

	"github.com/momentouslyfe-web/DigitalCart/internal/messaging/kafka"
)

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected MetricsAddr :9090, got %s", cfg.MetricsAddr)
	}
	if cfg.StorageDriver != StorageDriverPostgres {
		t.Errorf("expected StorageDriver %s, got %s", StorageDriverPostgres, cfg.StorageDriver)
	}
	if !cfg.PostgresAutoMigrate {
		t.Error("expected PostgresAutoMigrate to be true")
	}
	if cfg.DocumentStore != DocumentStoreRedis {
		t.Errorf("expected DocumentStore %s, got %s", DocumentStoreRedis, cfg.DocumentStore)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisPrefix != "dc" {
		t.Errorf("unexpected redis defaults: %s %s", cfg.RedisAddr, cfg.RedisPrefix)
	}
	if cfg.KafkaBrokers != "" {
		t.Errorf("expected pixel relay to be disabled by default, got brokers %q", cfg.KafkaBrokers)
	}
	if cfg.PixelTopic != kafka.TopicPixelEvents {
		t.Errorf("expected PixelTopic %s, got %s", kafka.TopicPixelEvents, cfg.PixelTopic)
	}
	if cfg.PixelPollInterval <= 0 {
		t.Error("expected PixelPollInterval to be > 0")
	}
	if cfg.PixelBatchSize != 100 {
		t.Errorf("expected PixelBatchSize 100, got %d", cfg.PixelBatchSize)
	}
	if cfg.PixelMaxAttempts <= 0 {
		t.Error("expected PixelMaxAttempts to be > 0")
	}
	if cfg.PixelRetryDelay < 0 {
		t.Error("expected PixelRetryDelay to be >= 0")
	}
	if cfg.ShutdownTimeout <= 0 {
		t.Error("expected ShutdownTimeout to be > 0")
	}
}
