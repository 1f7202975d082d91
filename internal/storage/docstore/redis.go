package docstore

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "dc"
	redisOpTimeout     = 5 * time.Second
)

// RedisConfig описывает подключение к Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	UseTLS   bool
	// Prefix — пространство имён ключей: коллекция хранится в хеше "<prefix>:<collection>".
	Prefix string
}

// RedisStore хранит каждую коллекцию в отдельном Redis-хеше: поле — ID, значение — JSON.
// Хеш без полей в Redis не существует, поэтому пустая коллекция неотличима от
// несозданной и отдаётся как ErrNotProvisioned.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore создаёт клиента по конфигурации. Подключение проверяется через Ping.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return NewRedisStoreWithClient(redis.NewClient(opts), cfg.Prefix)
}

// NewRedisStoreWithClient оборачивает готовый go-redis клиент.
func NewRedisStoreWithClient(client redis.UniversalClient, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(collection string) string {
	return s.prefix + ":" + collection
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	key := s.key(collection)
	doc, err := s.client.HGet(ctx, key, id).Bytes()
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis hget %s: %w", key, err)
	}

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis exists %s: %w", key, err)
	}
	if exists == 0 {
		return nil, ErrNotProvisioned
	}
	return nil, ErrNotFound
}

func (s *RedisStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	key := s.key(collection)
	if err := s.client.HSet(ctx, key, id, doc).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	key := s.key(collection)
	removed, err := s.client.HDel(ctx, key, id).Result()
	if err != nil {
		return false, fmt.Errorf("redis hdel %s: %w", key, err)
	}
	return removed > 0, nil
}

func (s *RedisStore) Find(ctx context.Context, collection string, filters ...Filter) ([][]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	key := s.key(collection)
	all, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
	}
	if len(all) == 0 {
		return nil, ErrNotProvisioned
	}

	docs := make([][]byte, 0, len(all))
	for _, v := range all {
		docs = append(docs, []byte(v))
	}
	return filterDocuments(docs, filters)
}

// Ping проверяет доступность Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close освобождает соединения.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
