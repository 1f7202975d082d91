package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/metrics"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/document"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/postgres"
)

// initStorage один раз выбирает реализацию хранилища по конфигурации.
// storageMetrics может быть nil.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry, storageMetrics *metrics.StorageMetrics) (domain.Storage, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	switch driver {
	case StorageDriverPostgres:
		return initPostgres(ctx, cfg, logger, storageMetrics)
	case StorageDriverDocument:
		return initDocument(ctx, cfg, logger, storageMetrics)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func initPostgres(ctx context.Context, cfg Config, logger *log.Entry, storageMetrics *metrics.StorageMetrics) (domain.Storage, error) {
	dsn := strings.TrimSpace(cfg.PostgresDSN)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required for storage driver %q", StorageDriverPostgres)
	}

	options := []postgres.Option{postgres.WithLogger(logger.WithField("component", "storage-postgres"))}
	if storageMetrics != nil {
		options = append(options, postgres.WithObserver(storageMetrics))
	}
	store, err := postgres.Open(ctx, dsn, options...)
	if err != nil {
		return nil, err
	}

	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply postgres migrations: %w", err)
		}
	}

	logger.WithField("auto_migrate", cfg.PostgresAutoMigrate).Info("postgres storage initialized")
	return store, nil
}

func initDocument(ctx context.Context, cfg Config, logger *log.Entry, storageMetrics *metrics.StorageMetrics) (domain.Storage, error) {
	var store docstore.Store
	switch strings.ToLower(strings.TrimSpace(cfg.DocumentStore)) {
	case DocumentStoreRedis:
		store = docstore.NewRedisStore(docstore.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
			Prefix:   cfg.RedisPrefix,
		})
	case DocumentStoreMemory:
		store = docstore.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported document store %q", cfg.DocumentStore)
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ping document store: %w", err)
	}

	options := []document.Option{document.WithLogger(logger.WithField("component", "storage-document"))}
	if storageMetrics != nil {
		store = docstore.Instrument(store, storageMetrics)
		options = append(options, document.WithNotProvisionedRecorder(storageMetrics))
	}

	logger.WithField("document_store", cfg.DocumentStore).Info("document storage initialized")
	return document.New(store, options...), nil
}

// closeStorage закрывает хранилище если оно не nil.
func closeStorage(storage domain.Storage, logger *log.Entry) {
	if storage == nil {
		return
	}
	if err := storage.Close(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
		return
	}
	logger.Info("storage closed")
}
