package app

import (
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/messaging/kafka"
)

// Реализации хранилища.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverDocument = "document"
)

// Драйверы документного хранилища.
const (
	DocumentStoreRedis  = "redis"
	DocumentStoreMemory = "memory"
)

// Config описывает настройки запуска приложения.
type Config struct {
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	DocumentStore string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool
	RedisPrefix   string

	// KafkaBrokers — список брокеров через запятую. Пустое значение отключает pixel relay.
	KafkaBrokers      string
	PixelTopic        string
	PixelPollInterval time.Duration
	PixelBatchSize    int
	PixelMaxAttempts  int
	PixelRetryDelay   time.Duration

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverPostgres,
		PostgresAutoMigrate: true,
		DocumentStore:       DocumentStoreRedis,
		RedisAddr:           "localhost:6379",
		RedisPrefix:         "dc",
		PixelTopic:          kafka.TopicPixelEvents,
		PixelPollInterval:   5 * time.Second,
		PixelBatchSize:      100,
		PixelMaxAttempts:    3,
		PixelRetryDelay:     50 * time.Millisecond,
		ShutdownTimeout:     5 * time.Second,
	}
}
