// Package postgres реализует domain.Storage поверх реляционной схемы PostgreSQL.
// Целостность (внешние ключи, уникальность, перечисления) обеспечивает сама база,
// нарушения транслируются в доменные ошибки.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute

	opTimeout = 5 * time.Second

	backendName = "postgres"
)

// Observer получает длительность и результат каждой операции хранилища.
type Observer interface {
	ObserveStorageOp(backend, op string, duration time.Duration, err error)
}

// StoreOptions задаёт параметры подключения.
type StoreOptions struct {
	Logger       *log.Entry
	Observer     Observer
	MaxOpenConns int
	MaxIdleConns int
}

// Option настраивает Store.
type Option func(*StoreOptions)

// WithLogger задаёт logger хранилища.
func WithLogger(logger *log.Entry) Option {
	return func(opts *StoreOptions) {
		opts.Logger = logger
	}
}

// WithObserver подключает сбор метрик по операциям.
func WithObserver(observer Observer) Option {
	return func(opts *StoreOptions) {
		opts.Observer = observer
	}
}

// WithPoolSize переопределяет размер пула соединений.
func WithPoolSize(maxOpen, maxIdle int) Option {
	return func(opts *StoreOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
	}
}

// Store оборачивает SQL-подключение к PostgreSQL.
type Store struct {
	db       *sql.DB
	logger   *log.Entry
	observer Observer
}

var _ domain.Storage = (*Store)(nil)

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string, options ...Option) (*Store, error) {
	opts := StoreOptions{
		MaxOpenConns: defaultMaxOpenConns,
		MaxIdleConns: defaultMaxIdleConns,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "storage-postgres")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db, logger: opts.Logger, observer: opts.Observer}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// track засекает операцию. Вызывать как defer s.track("op")(&err).
func (s *Store) track(op string) func(*error) {
	started := time.Now()
	return func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil && !domainError(err) {
			s.logger.WithError(err).WithField("op", op).Warn("postgres operation failed")
		}
		if s.observer != nil {
			s.observer.ObserveStorageOp(backendName, op, time.Since(started), err)
		}
	}
}

// querier — общий интерфейс *sql.DB и *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// deleteByID удаляет строку по первичному ключу и сообщает, была ли она.
func (s *Store) deleteByID(ctx context.Context, op, table, id string) (deleted bool, err error) {
	defer s.track(op)(&err)

	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.db.ExecContext(queryCtx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return false, mapDeleteError(err, table)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows for %s: %w", table, err)
	}
	return affected > 0, nil
}
