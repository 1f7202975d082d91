// Package document реализует контракт хранилища поверх документного хранилища
// без внешних ключей, join-ов и серверных значений по умолчанию. Идентификаторы,
// значения по умолчанию, ссылочная целостность и сортировка обеспечиваются здесь.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
)

// Коллекции документов.
const (
	collUsers          = "users"
	collProducts       = "products"
	collCheckoutPages  = "checkout_pages"
	collOrderBumps     = "order_bumps"
	collUpsells        = "upsells"
	collCoupons        = "coupons"
	collCustomers      = "customers"
	collOrders         = "orders"
	collOrderItems     = "order_items"
	collAbandonedCarts = "abandoned_carts"
	collEmailTemplates = "email_templates"
	collPixelEvents    = "pixel_events"
)

// NotProvisionedRecorder считает чтения, превращённые в пустой результат.
type NotProvisionedRecorder interface {
	RecordNotProvisioned(collection string)
}

// BackendOptions задаёт параметры document backend.
type BackendOptions struct {
	Logger         *log.Entry
	Clock          domain.Clock
	NewID          func() string
	NotProvisioned NotProvisionedRecorder
}

// Option настраивает Backend.
type Option func(*BackendOptions)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *BackendOptions) {
		opts.Logger = logger
	}
}

// WithClock подменяет источник времени для createdAt и значений по умолчанию.
func WithClock(clock domain.Clock) Option {
	return func(opts *BackendOptions) {
		opts.Clock = clock
	}
}

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(newID func() string) Option {
	return func(opts *BackendOptions) {
		opts.NewID = newID
	}
}

// WithNotProvisionedRecorder подключает счётчик чтений из несозданных коллекций.
func WithNotProvisionedRecorder(recorder NotProvisionedRecorder) Option {
	return func(opts *BackendOptions) {
		opts.NotProvisioned = recorder
	}
}

// Backend — реализация domain.Storage поверх docstore.Store.
type Backend struct {
	store          docstore.Store
	logger         *log.Entry
	clock          domain.Clock
	newID          func() string
	notProvisioned NotProvisionedRecorder
}

// New создаёт document backend.
func New(store docstore.Store, options ...Option) *Backend {
	opts := BackendOptions{}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "storage-document")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Backend{
		store:          store,
		logger:         logger,
		clock:          clock,
		newID:          newID,
		notProvisioned: opts.NotProvisioned,
	}
}

// now возвращает время в UTC с точностью реляционного backend-а (микросекунды).
func (b *Backend) now() time.Time {
	return b.clock().UTC().Truncate(time.Microsecond)
}

// Ping проверяет доступность хранилища.
func (b *Backend) Ping(ctx context.Context) error {
	return b.store.Ping(ctx)
}

// Close закрывает хранилище.
func (b *Backend) Close() error {
	return b.store.Close()
}

func (b *Backend) downgrade(collection, op string) {
	b.logger.WithFields(log.Fields{
		"collection": collection,
		"op":         op,
	}).Debug("collection is not provisioned, returning empty result")
	if b.notProvisioned != nil {
		b.notProvisioned.RecordNotProvisioned(collection)
	}
}

// getRecord читает документ. Отсутствие документа или коллекции — nil без ошибки.
func getRecord[R any](ctx context.Context, b *Backend, collection, id string) (*R, error) {
	if id == "" {
		return nil, nil
	}

	raw, err := b.store.Get(ctx, collection, id)
	switch {
	case err == nil:
	case errors.Is(err, docstore.ErrNotFound):
		return nil, nil
	case docstore.IsNotProvisioned(err):
		b.downgrade(collection, "get")
		return nil, nil
	default:
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	var rec R
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return &rec, nil
}

// findRecords возвращает документы по фильтрам в произвольном порядке.
// Несозданная коллекция даёт пустой срез.
func findRecords[R any](ctx context.Context, b *Backend, collection string, filters ...docstore.Filter) ([]R, error) {
	raws, err := b.store.Find(ctx, collection, filters...)
	if err != nil {
		if docstore.IsNotProvisioned(err) {
			b.downgrade(collection, "find")
			return []R{}, nil
		}
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	records := make([]R, 0, len(raws))
	for _, raw := range raws {
		var rec R
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func putRecord(ctx context.Context, b *Backend, collection, id string, rec any) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	if err := b.store.Put(ctx, collection, id, raw); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

func deleteRecord(ctx context.Context, b *Backend, collection, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	deleted, err := b.store.Delete(ctx, collection, id)
	if err != nil {
		if docstore.IsNotProvisioned(err) {
			b.downgrade(collection, "delete")
			return false, nil
		}
		return false, fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return deleted, nil
}

// mapRecords конвертирует записи в доменные значения.
func mapRecords[R any, T any](records []R, convert func(R) T) []T {
	result := make([]T, 0, len(records))
	for _, rec := range records {
		result = append(result, convert(rec))
	}
	return result
}

var _ domain.Storage = (*Backend)(nil)
