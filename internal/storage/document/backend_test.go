package document_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/document"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/storagetest"
)

// steppingClock возвращает строго возрастающее время при каждом вызове.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func newBackend(t *testing.T, store docstore.Store, options ...document.Option) *document.Backend {
	t.Helper()
	options = append([]document.Option{document.WithClock(newSteppingClock().Now)}, options...)
	backend := document.New(store, options...)
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestBackend_Conformance(t *testing.T) {
	storagetest.Run(t, storagetest.Harness{
		New: func(t *testing.T) domain.Storage {
			return newBackend(t, docstore.NewMemoryStore())
		},
	})
}

type countingRecorder struct {
	mu          sync.Mutex
	collections []string
}

func (r *countingRecorder) RecordNotProvisioned(collection string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections = append(r.collections, collection)
}

func TestBackend_NotProvisionedReadsAreEmpty(t *testing.T) {
	recorder := &countingRecorder{}
	backend := newBackend(t, docstore.NewMemoryStore(), document.WithNotProvisionedRecorder(recorder))
	ctx := context.Background()

	coupons, err := backend.GetCoupons(ctx, "owner")
	require.NoError(t, err)
	require.NotNil(t, coupons)
	require.Empty(t, coupons)

	coupon, err := backend.GetCoupon(ctx, "c-1")
	require.NoError(t, err)
	require.Nil(t, coupon)

	deleted, err := backend.DeleteAbandonedCart(ctx, "a-1")
	require.NoError(t, err)
	require.False(t, deleted)

	require.Equal(t, []string{"coupons", "coupons", "abandoned_carts"}, recorder.collections)
}

// brokenStore отказывает на чтении коллекции заказов, эмулируя сбой хранилища.
type brokenStore struct {
	docstore.Store
	failCollection string
}

var errBroken = errors.New("connection reset")

func (s brokenStore) Find(ctx context.Context, collection string, filters ...docstore.Filter) ([][]byte, error) {
	if collection == s.failCollection {
		return nil, errBroken
	}
	return s.Store.Find(ctx, collection, filters...)
}

func (s brokenStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if collection == s.failCollection {
		return nil, errBroken
	}
	return s.Store.Get(ctx, collection, id)
}

func TestBackend_InfrastructureFailurePropagates(t *testing.T) {
	backend := newBackend(t, brokenStore{Store: docstore.NewMemoryStore(), failCollection: "products"})
	ctx := context.Background()

	_, err := backend.GetProducts(ctx, "owner")
	require.ErrorIs(t, err, errBroken)

	_, err = backend.GetProduct(ctx, "p-1")
	require.ErrorIs(t, err, errBroken)
}

func TestBackend_CompositeFetchFailsAsWhole(t *testing.T) {
	memory := docstore.NewMemoryStore()
	seed := newBackend(t, memory)
	ctx := context.Background()

	user, err := seed.CreateUser(ctx, domain.NewUser{Email: "owner@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	customer, err := seed.CreateCustomer(ctx, domain.NewCustomer{UserID: user.ID, Email: "buyer@example.com"})
	require.NoError(t, err)
	order, err := seed.CreateOrder(ctx, domain.NewOrder{UserID: user.ID, CustomerID: customer.ID})
	require.NoError(t, err)

	backend := newBackend(t, brokenStore{Store: memory, failCollection: "customers"})

	orders, err := backend.GetOrders(ctx, user.ID)
	require.ErrorIs(t, err, errBroken)
	require.Nil(t, orders)

	detailed, err := backend.GetOrder(ctx, order.ID)
	require.ErrorIs(t, err, errBroken)
	require.Nil(t, detailed)
}

func TestBackend_StoresNativeTimestamps(t *testing.T) {
	memory := docstore.NewMemoryStore()
	backend := newBackend(t, memory, document.WithIDGenerator(func() string { return "user-1" }))
	ctx := context.Background()

	user, err := backend.CreateUser(ctx, domain.NewUser{Email: "owner@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	raw, err := memory.Get(ctx, "users", "user-1")
	require.NoError(t, err)
	require.Contains(t, string(raw), `"createdAt":{"_seconds":`)
	require.Contains(t, string(raw), `"passwordHash":"h"`)

	got, err := backend.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, got.CreatedAt.Equal(user.CreatedAt))
}

func TestBackend_ReadsForeignTimestampFormats(t *testing.T) {
	memory := docstore.NewMemoryStore()
	backend := newBackend(t, memory)
	ctx := context.Background()

	require.NoError(t, memory.Put(ctx, "coupons", "c-1", []byte(`{
		"id": "c-1",
		"userId": "u-1",
		"code": "LEGACY",
		"discountType": "fixed",
		"discountValue": "5",
		"usedCount": 0,
		"isActive": true,
		"expiresAt": "",
		"createdAt": "2025-12-31T23:59:59Z"
	}`)))

	coupon, err := backend.GetCouponByCode(ctx, "LEGACY", "u-1")
	require.NoError(t, err)
	require.NotNil(t, coupon)
	require.Nil(t, coupon.ExpiresAt)
	require.True(t, coupon.CreatedAt.Equal(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)))
	require.Equal(t, "5", coupon.DiscountValue.String())
}

func TestBackend_DetachKeepsUnknownFields(t *testing.T) {
	memory := docstore.NewMemoryStore()
	backend := newBackend(t, memory)
	ctx := context.Background()

	require.NoError(t, memory.Put(ctx, "coupons", "c-1", []byte(`{"id":"c-1","userId":"u-1","code":"X","discountType":"fixed","discountValue":"1","isActive":true}`)))
	require.NoError(t, memory.Put(ctx, "orders", "o-1", []byte(`{"id":"o-1","userId":"u-1","couponId":"c-1","legacyField":"keep"}`)))

	deleted, err := backend.DeleteCoupon(ctx, "c-1")
	require.NoError(t, err)
	require.True(t, deleted)

	raw, err := memory.Get(ctx, "orders", "o-1")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"o-1","userId":"u-1","couponId":null,"legacyField":"keep"}`, string(raw))
}
