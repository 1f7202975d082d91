package coupon_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/service/coupon"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/document"
)

var evaluationTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return evaluationTime }

type stubFinder struct {
	coupon *domain.Coupon
	err    error
}

func (s stubFinder) GetCouponByCode(context.Context, string, string) (*domain.Coupon, error) {
	return s.coupon, s.err
}

func TestValidator_Validate(t *testing.T) {
	past := evaluationTime.Add(-time.Hour)
	future := evaluationTime.Add(time.Hour)

	tests := []struct {
		name   string
		coupon *domain.Coupon
		reason error
	}{
		{name: "not found", coupon: nil, reason: domain.ErrCouponNotFound},
		{
			name:   "inactive wins over expired",
			coupon: &domain.Coupon{Code: "X", IsActive: false, ExpiresAt: &past},
			reason: domain.ErrCouponInactive,
		},
		{
			name:   "limit wins over expired",
			coupon: &domain.Coupon{Code: "X", IsActive: true, UsageLimit: domain.Ptr(1), UsedCount: 1, ExpiresAt: &past},
			reason: domain.ErrCouponLimitReached,
		},
		{
			name:   "expired",
			coupon: &domain.Coupon{Code: "X", IsActive: true, ExpiresAt: &past},
			reason: domain.ErrCouponExpired,
		},
		{
			name:   "valid with future expiry",
			coupon: &domain.Coupon{Code: "X", IsActive: true, UsageLimit: domain.Ptr(2), UsedCount: 1, ExpiresAt: &future},
		},
		{
			name:   "valid without limits",
			coupon: &domain.Coupon{Code: "X", IsActive: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := coupon.NewValidator(stubFinder{coupon: tt.coupon}, coupon.WithClock(fixedClock))

			got, err := validator.Validate(context.Background(), "X", "owner")
			if tt.reason == nil {
				require.NoError(t, err)
				require.NotNil(t, got)
				return
			}

			require.ErrorIs(t, err, tt.reason)
			require.True(t, domain.IsCouponRejection(err))
			var validationErr *coupon.ValidationError
			require.True(t, errors.As(err, &validationErr))
			require.Nil(t, got)
		})
	}
}

func TestValidator_StorageFailureIsNotRejection(t *testing.T) {
	boom := errors.New("connection refused")
	validator := coupon.NewValidator(stubFinder{err: boom})

	_, err := validator.Validate(context.Background(), "X", "owner")
	require.ErrorIs(t, err, boom)
	require.False(t, domain.IsCouponRejection(err))
}

func TestValidator_EmptyCode(t *testing.T) {
	validator := coupon.NewValidator(stubFinder{coupon: &domain.Coupon{IsActive: true}})

	_, err := validator.Validate(context.Background(), "  ", "owner")
	require.ErrorIs(t, err, domain.ErrCouponNotFound)
}

func TestService_CodeWithSurroundingSpaces(t *testing.T) {
	store := newStorage(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, domain.NewUser{Email: "owner@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	created, err := store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        user.ID,
		Code:          " SAVE10 ",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.Equal(t, "SAVE10", created.Code)

	service := coupon.NewService(store, coupon.WithClock(fixedClock))
	for _, code := range []string{" SAVE10 ", " SAVE10", "SAVE10"} {
		valid, err := service.Validate(ctx, code, user.ID)
		require.NoError(t, err, "code %q", code)
		require.Equal(t, created.ID, valid.ID)
	}
}

func newStorage(t *testing.T) domain.Storage {
	t.Helper()
	backend := document.New(docstore.NewMemoryStore())
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestService_WelcomeCouponLimit(t *testing.T) {
	store := newStorage(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, domain.NewUser{Email: "owner@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        user.ID,
		Code:          "WELCOME",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		UsageLimit:    domain.Ptr(1),
	})
	require.NoError(t, err)

	service := coupon.NewService(store, coupon.WithClock(fixedClock))

	valid, err := service.Validate(ctx, "WELCOME", user.ID)
	require.NoError(t, err)
	require.Equal(t, 0, valid.UsedCount)

	redeemed, err := service.Redeem(ctx, "WELCOME", user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, redeemed.UsedCount)

	_, err = service.Validate(ctx, "WELCOME", user.ID)
	require.ErrorIs(t, err, domain.ErrCouponLimitReached)

	_, err = service.Redeem(ctx, "WELCOME", user.ID)
	require.ErrorIs(t, err, domain.ErrCouponLimitReached)
}

func TestService_Apply(t *testing.T) {
	store := newStorage(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, domain.NewUser{Email: "owner@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        user.ID,
		Code:          "TENOFF",
		DiscountType:  domain.DiscountFixed,
		DiscountValue: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	_, err = store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        user.ID,
		Code:          "THIRD",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: decimal.RequireFromString("33.333"),
	})
	require.NoError(t, err)

	service := coupon.NewService(store, coupon.WithClock(fixedClock))

	quote, err := service.Apply(ctx, "TENOFF", user.ID, decimal.RequireFromString("7.50"))
	require.NoError(t, err)
	require.Equal(t, "7.5", quote.Discount.String())
	require.Equal(t, "0", quote.Total.String())

	quote, err = service.Apply(ctx, "THIRD", user.ID, decimal.RequireFromString("30"))
	require.NoError(t, err)
	require.Equal(t, "10", quote.Discount.String())
	require.Equal(t, "20", quote.Total.String())

	_, err = service.Apply(ctx, "MISSING", user.ID, decimal.NewFromInt(30))
	require.ErrorIs(t, err, domain.ErrCouponNotFound)

	stored, err := store.GetCouponByCode(ctx, "TENOFF", user.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stored.UsedCount)
}
