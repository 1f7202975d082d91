package document

import (
	"context"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
)

func couponKey(c domain.Coupon) (time.Time, string) { return c.CreatedAt, c.ID }

// GetCoupons возвращает купоны владельца, новые первыми.
func (b *Backend) GetCoupons(ctx context.Context, ownerID string) ([]domain.Coupon, error) {
	records, err := findRecords[couponRecord](ctx, b, collCoupons, docstore.Eq("userId", ownerID))
	if err != nil {
		return nil, err
	}
	coupons := mapRecords(records, couponRecord.toDomain)
	sortNewestFirst(coupons, couponKey)
	return coupons, nil
}

// GetCoupon возвращает купон по ID.
func (b *Backend) GetCoupon(ctx context.Context, id string) (*domain.Coupon, error) {
	rec, err := getRecord[couponRecord](ctx, b, collCoupons, id)
	if err != nil || rec == nil {
		return nil, err
	}
	c := rec.toDomain()
	return &c, nil
}

// GetCouponByCode ищет купон по нормализованному коду в рамках владельца.
func (b *Backend) GetCouponByCode(ctx context.Context, code, ownerID string) (*domain.Coupon, error) {
	records, err := findRecords[couponRecord](ctx, b, collCoupons,
		docstore.Eq("userId", ownerID),
		docstore.Eq("code", domain.NormalizeCouponCode(code)),
	)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	c := records[0].toDomain()
	return &c, nil
}

// CreateCoupon создаёт купон. UsedCount всегда начинается с нуля.
func (b *Backend) CreateCoupon(ctx context.Context, in domain.NewCoupon) (*domain.Coupon, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in = in.Normalize()
	if err := b.requireRef(ctx, collUsers, in.UserID, "user"); err != nil {
		return nil, err
	}
	if err := b.ensureUnique(ctx, collCoupons, "", "coupon code",
		docstore.Eq("userId", in.UserID),
		docstore.Eq("code", in.Code),
	); err != nil {
		return nil, err
	}

	c := domain.Coupon{
		ID:            b.newID(),
		UserID:        in.UserID,
		Code:          in.Code,
		DiscountType:  in.DiscountType,
		DiscountValue: domain.RoundMoney(in.DiscountValue),
		UsageLimit:    in.UsageLimit,
		IsActive:      true,
		CreatedAt:     b.now(),
	}
	if in.ExpiresAt != nil {
		v := in.ExpiresAt.UTC().Truncate(time.Microsecond)
		c.ExpiresAt = &v
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	if err := putRecord(ctx, b, collCoupons, c.ID, newCouponRecord(c)); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCoupon частично обновляет купон, включая счётчик использований.
func (b *Backend) UpdateCoupon(ctx context.Context, id string, patch domain.CouponPatch) (*domain.Coupon, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	patch = patch.Normalize()
	current, err := b.GetCoupon(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}
	if patch.Code != nil && *patch.Code != current.Code {
		if err := b.ensureUnique(ctx, collCoupons, id, "coupon code",
			docstore.Eq("userId", current.UserID),
			docstore.Eq("code", *patch.Code),
		); err != nil {
			return nil, err
		}
	}

	patch.Apply(current)
	if err := current.ValidateDiscount(); err != nil {
		return nil, err
	}
	if current.ExpiresAt != nil {
		v := current.ExpiresAt.Truncate(time.Microsecond)
		current.ExpiresAt = &v
	}
	if err := putRecord(ctx, b, collCoupons, id, newCouponRecord(*current)); err != nil {
		return nil, err
	}
	return b.GetCoupon(ctx, id)
}

// DeleteCoupon удаляет купон; в заказах ссылка на него обнуляется.
func (b *Backend) DeleteCoupon(ctx context.Context, id string) (bool, error) {
	current, err := b.GetCoupon(ctx, id)
	if err != nil || current == nil {
		return false, err
	}
	if err := b.detachReferences(ctx, collOrders, "couponId", id); err != nil {
		return false, err
	}
	return deleteRecord(ctx, b, collCoupons, id)
}
