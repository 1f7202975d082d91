package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/document"
)

var day1 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func order(id string, status domain.OrderStatus, total string, createdAt time.Time) domain.OrderWithDetails {
	return domain.OrderWithDetails{Order: domain.Order{
		ID:        id,
		Status:    status,
		Total:     decimal.RequireFromString(total),
		Discount:  decimal.Zero,
		CreatedAt: createdAt,
	}}
}

func TestDashboard_Aggregates(t *testing.T) {
	t.Parallel()

	withCoupon := order("o-2", domain.OrderStatusCompleted, "15.00", day1.Add(20*time.Hour))
	withCoupon.CouponID = domain.Ptr("c-1")
	withCoupon.Discount = decimal.RequireFromString("5")

	source := &stubSource{
		orders: []domain.OrderWithDetails{
			order("o-4", domain.OrderStatusPending, "99.00", day1.Add(49*time.Hour)),
			order("o-3", domain.OrderStatusCompleted, "10.00", day1.Add(26*time.Hour)),
			withCoupon,
			order("o-1", domain.OrderStatusCompleted, "19.99", day1.Add(time.Hour)),
			order("o-0", domain.OrderStatusRefunded, "5.00", day1.Add(30*time.Minute)),
		},
		customers: []domain.Customer{
			{ID: "cu-1", CreatedAt: day1},
			{ID: "cu-2", CreatedAt: day1.Add(time.Hour)},
		},
	}

	dashboard, err := NewService(source, nil).Dashboard(context.Background(), "owner-1", time.Time{})
	require.NoError(t, err)

	require.Equal(t, "44.99", dashboard.Revenue.String())
	require.Equal(t, "5", dashboard.Discounts.String())
	require.Equal(t, 5, dashboard.TotalOrders)
	require.Equal(t, map[domain.OrderStatus]int{
		domain.OrderStatusPending:   1,
		domain.OrderStatusCompleted: 3,
		domain.OrderStatusRefunded:  1,
	}, dashboard.OrdersByStatus)
	require.Equal(t, "15", dashboard.AverageOrderValue.String())
	require.Equal(t, 2, dashboard.Customers)
	require.Equal(t, 1, dashboard.CouponOrders)

	require.Len(t, dashboard.Daily, 2)
	require.True(t, dashboard.Daily[0].Day.Equal(day1))
	require.Equal(t, "34.99", dashboard.Daily[0].Revenue.String())
	require.Equal(t, 2, dashboard.Daily[0].Orders)
	require.True(t, dashboard.Daily[1].Day.Equal(day1.AddDate(0, 0, 1)))
	require.Equal(t, "10", dashboard.Daily[1].Revenue.String())
	require.Equal(t, 1, dashboard.Daily[1].Orders)
}

func TestDashboard_Since(t *testing.T) {
	t.Parallel()

	source := &stubSource{
		orders: []domain.OrderWithDetails{
			order("o-2", domain.OrderStatusCompleted, "30.00", day1.Add(48*time.Hour)),
			order("o-1", domain.OrderStatusCompleted, "10.00", day1),
		},
		customers: []domain.Customer{
			{ID: "cu-2", CreatedAt: day1.Add(48 * time.Hour)},
			{ID: "cu-1", CreatedAt: day1},
		},
	}

	dashboard, err := NewService(source, nil).Dashboard(context.Background(), "owner-1", day1.Add(24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, dashboard.TotalOrders)
	require.Equal(t, "30", dashboard.Revenue.String())
	require.Equal(t, 1, dashboard.Customers)
	require.Len(t, dashboard.Daily, 1)
}

func TestDashboard_Empty(t *testing.T) {
	t.Parallel()

	dashboard, err := NewService(&stubSource{}, nil).Dashboard(context.Background(), "owner-1", time.Time{})
	require.NoError(t, err)
	require.True(t, dashboard.Revenue.IsZero())
	require.True(t, dashboard.AverageOrderValue.IsZero())
	require.Zero(t, dashboard.TotalOrders)
	require.NotNil(t, dashboard.OrdersByStatus)
	require.NotNil(t, dashboard.Daily)
	require.Empty(t, dashboard.Daily)
}

func TestDashboard_AverageIsRounded(t *testing.T) {
	t.Parallel()

	source := &stubSource{orders: []domain.OrderWithDetails{
		order("o-1", domain.OrderStatusCompleted, "10.00", day1),
		order("o-2", domain.OrderStatusCompleted, "10.00", day1),
		order("o-3", domain.OrderStatusCompleted, "0.01", day1),
	}}

	dashboard, err := NewService(source, nil).Dashboard(context.Background(), "owner-1", time.Time{})
	require.NoError(t, err)
	require.Equal(t, "6.67", dashboard.AverageOrderValue.String())
}

func TestDashboard_SourceError(t *testing.T) {
	t.Parallel()

	errStore := errors.New("store down")
	_, err := NewService(&stubSource{customersErr: errStore}, nil).Dashboard(context.Background(), "owner-1", time.Time{})
	require.ErrorIs(t, err, errStore)
	require.ErrorContains(t, err, "load customers")
}

func TestDashboard_DocumentBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := document.New(docstore.NewMemoryStore())
	t.Cleanup(func() { _ = backend.Close() })

	owner, err := backend.CreateUser(ctx, domain.NewUser{Email: "seller@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	customer, err := backend.CreateCustomer(ctx, domain.NewCustomer{UserID: owner.ID, Email: "buyer@example.com"})
	require.NoError(t, err)

	completed := domain.OrderStatusCompleted
	for _, total := range []string{"19.99", "5.01"} {
		_, err := backend.CreateOrder(ctx, domain.NewOrder{
			UserID:     owner.ID,
			CustomerID: customer.ID,
			Status:     &completed,
			Subtotal:   decimal.RequireFromString(total),
			Total:      decimal.RequireFromString(total),
		})
		require.NoError(t, err)
	}
	_, err = backend.CreateOrder(ctx, domain.NewOrder{
		UserID:     owner.ID,
		CustomerID: customer.ID,
		Subtotal:   decimal.RequireFromString("50"),
		Total:      decimal.RequireFromString("50"),
	})
	require.NoError(t, err)

	dashboard, err := NewService(backend, nil).Dashboard(ctx, owner.ID, time.Time{})
	require.NoError(t, err)
	require.Equal(t, "25", dashboard.Revenue.String())
	require.Equal(t, 3, dashboard.TotalOrders)
	require.Equal(t, 1, dashboard.OrdersByStatus[domain.OrderStatusPending])
	require.Equal(t, 1, dashboard.Customers)
	require.Equal(t, "12.5", dashboard.AverageOrderValue.String())
}

type stubSource struct {
	orders       []domain.OrderWithDetails
	customers    []domain.Customer
	ordersErr    error
	customersErr error
}

func (s *stubSource) GetOrders(context.Context, string) ([]domain.OrderWithDetails, error) {
	if s.ordersErr != nil {
		return nil, s.ordersErr
	}
	return s.orders, nil
}

func (s *stubSource) GetCustomers(context.Context, string) ([]domain.Customer, error) {
	if s.customersErr != nil {
		return nil, s.customersErr
	}
	return s.customers, nil
}

var _ Source = (*stubSource)(nil)
