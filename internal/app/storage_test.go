package app

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/metrics"
)

func documentMemoryConfig() Config {
	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverDocument
	cfg.DocumentStore = DocumentStoreMemory
	return cfg
}

func gatheredNames(t *testing.T, reg *prometheus.Registry) map[string]bool {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	return names
}

func TestInitStorage_DocumentMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := prometheus.NewRegistry()
	storage, err := initStorage(ctx, documentMemoryConfig(), log.WithField("test", "document-memory"),
		metrics.NewStorageMetricsWithRegisterer(reg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	require.NoError(t, storage.Ping(ctx))

	products, err := storage.GetProducts(ctx, "missing-owner")
	require.NoError(t, err)
	require.Empty(t, products)

	user, err := storage.CreateUser(ctx, domain.NewUser{Email: "seller@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)

	names := gatheredNames(t, reg)
	require.True(t, names["dc_storage_operation_duration_seconds"])
	require.True(t, names["dc_storage_not_provisioned_reads_total"])
}

func TestInitStorage_DriverIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	cfg := documentMemoryConfig()
	cfg.StorageDriver = " Document "
	cfg.DocumentStore = "MEMORY"

	storage, err := initStorage(context.Background(), cfg, log.WithField("test", "case"), nil)
	require.NoError(t, err)
	require.NoError(t, storage.Close())
}

func TestInitStorage_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.PostgresDSN = "  "

	_, err := initStorage(context.Background(), cfg, log.WithField("test", "postgres-missing-dsn"), nil)
	require.ErrorContains(t, err, "postgres dsn is required")
}

func TestInitStorage_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.StorageDriver = "sqlite"

	_, err := initStorage(context.Background(), cfg, log.WithField("test", "unsupported-driver"), nil)
	require.ErrorContains(t, err, "unsupported storage driver")
}

func TestInitStorage_UnsupportedDocumentStore(t *testing.T) {
	t.Parallel()

	cfg := documentMemoryConfig()
	cfg.DocumentStore = "mongo"

	_, err := initStorage(context.Background(), cfg, log.WithField("test", "unsupported-document-store"), nil)
	require.ErrorContains(t, err, "unsupported document store")
}

func TestInitStorage_RedisUnreachable(t *testing.T) {
	t.Parallel()

	cfg := documentMemoryConfig()
	cfg.DocumentStore = DocumentStoreRedis
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := initStorage(context.Background(), cfg, log.WithField("test", "redis-unreachable"), nil)
	require.ErrorContains(t, err, "ping document store")
}

func TestInitStorage_PostgresSuccess(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("DC_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("postgres dsn is not available")
	}

	cfg := DefaultConfig()
	cfg.PostgresDSN = dsn

	ctx := context.Background()
	storage, err := initStorage(ctx, cfg, log.WithField("test", "postgres-init"),
		metrics.NewStorageMetricsWithRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Skipf("postgres is not available for app integration test: %v", err)
	}
	defer func() { _ = storage.Close() }()

	require.NoError(t, storage.Ping(ctx))
}

func TestCloseStorage_Nil(t *testing.T) {
	closeStorage(nil, log.WithField("test", "close-nil"))
}
