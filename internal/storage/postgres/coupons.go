package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

const couponColumns = `id, user_id, code, discount_type, discount_value, usage_limit, used_count, expires_at,
	is_active, created_at`

func scanCoupon(row rowScanner) (domain.Coupon, error) {
	var (
		c            domain.Coupon
		discountType string
		usageLimit   sql.Null[int]
		expiresAt    sql.Null[time.Time]
		createdAt    time.Time
	)
	if err := row.Scan(
		&c.ID, &c.UserID, &c.Code, &discountType, &c.DiscountValue, &usageLimit, &c.UsedCount, &expiresAt,
		&c.IsActive, &createdAt,
	); err != nil {
		return domain.Coupon{}, err
	}
	c.DiscountType = domain.DiscountType(discountType)
	c.UsageLimit = optional(usageLimit)
	c.ExpiresAt = optionalTime(expiresAt)
	c.CreatedAt = createdAt.UTC()
	return c, nil
}

func (s *Store) GetCoupons(ctx context.Context, ownerID string) (_ []domain.Coupon, err error) {
	defer s.track("get_coupons")(&err)
	return queryList(ctx, s.db, scanCoupon, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID)
}

func (s *Store) GetCoupon(ctx context.Context, id string) (_ *domain.Coupon, err error) {
	defer s.track("get_coupon")(&err)
	return queryOne(ctx, s.db, scanCoupon, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id)
}

// GetCouponByCode ищет купон по нормализованному коду в рамках владельца.
func (s *Store) GetCouponByCode(ctx context.Context, code, ownerID string) (_ *domain.Coupon, err error) {
	defer s.track("get_coupon_by_code")(&err)
	return queryOne(ctx, s.db, scanCoupon,
		`SELECT `+couponColumns+` FROM coupons WHERE user_id = $1 AND code = $2`,
		ownerID, domain.NormalizeCouponCode(code))
}

// CreateCoupon создаёт купон; used_count всегда стартует с нуля.
func (s *Store) CreateCoupon(ctx context.Context, in domain.NewCoupon) (_ *domain.Coupon, err error) {
	defer s.track("create_coupon")(&err)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in = in.Normalize()
	return writeOne(ctx, s.db, "coupon", scanCoupon, `
		INSERT INTO coupons (user_id, code, discount_type, discount_value, usage_limit, used_count, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, 0, $6, COALESCE($7, TRUE))
		RETURNING `+couponColumns,
		in.UserID, in.Code, string(in.DiscountType), money(in.DiscountValue),
		arg(in.UsageLimit), timeArg(in.ExpiresAt), arg(in.IsActive),
	)
}

func (s *Store) UpdateCoupon(ctx context.Context, id string, patch domain.CouponPatch) (_ *domain.Coupon, err error) {
	defer s.track("update_coupon")(&err)
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	patch = patch.Normalize()
	return writeOne(ctx, s.db, "coupon", scanCoupon, `
		UPDATE coupons SET
			code = COALESCE($2, code),
			discount_type = COALESCE($3, discount_type),
			discount_value = COALESCE($4::numeric, discount_value),
			usage_limit = COALESCE($5, usage_limit),
			used_count = COALESCE($6, used_count),
			expires_at = COALESCE($7, expires_at),
			is_active = COALESCE($8, is_active)
		WHERE id = $1
		RETURNING `+couponColumns,
		id, arg(patch.Code), arg((*string)(patch.DiscountType)), moneyArg(patch.DiscountValue),
		arg(patch.UsageLimit), arg(patch.UsedCount), timeArg(patch.ExpiresAt), arg(patch.IsActive),
	)
}

// DeleteCoupon удаляет купон; у заказов ссылка на купон обнуляется.
func (s *Store) DeleteCoupon(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "delete_coupon", "coupons", id)
}
