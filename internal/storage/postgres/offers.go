package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

const (
	tableOrderBumps = "order_bumps"
	tableUpsells    = "upsells"

	offerColumns = `id, checkout_page_id, product_id, headline, description, discount_type, discount_value,
	position, is_active, created_at`
)

func scanOffer(row rowScanner) (domain.Offer, error) {
	var (
		o            domain.Offer
		description  sql.Null[string]
		discountType string
		createdAt    time.Time
	)
	if err := row.Scan(
		&o.ID, &o.CheckoutPageID, &o.ProductID, &o.Headline, &description, &discountType, &o.DiscountValue,
		&o.Position, &o.IsActive, &createdAt,
	); err != nil {
		return domain.Offer{}, err
	}
	o.Description = optional(description)
	o.DiscountType = domain.DiscountType(discountType)
	o.CreatedAt = createdAt.UTC()
	return o, nil
}

// listOffers возвращает предложения страницы по position, при равенстве старые первыми.
func (s *Store) listOffers(ctx context.Context, table, checkoutPageID string) ([]domain.Offer, error) {
	return queryList(ctx, s.db, scanOffer, `
		SELECT `+offerColumns+`
		FROM `+table+`
		WHERE checkout_page_id = $1
		ORDER BY position ASC, created_at ASC, id ASC`, checkoutPageID)
}

func (s *Store) getOffer(ctx context.Context, table, id string) (*domain.Offer, error) {
	return queryOne(ctx, s.db, scanOffer, `SELECT `+offerColumns+` FROM `+table+` WHERE id = $1`, id)
}

func (s *Store) createOffer(ctx context.Context, table string, in domain.NewOffer) (*domain.Offer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return writeOne(ctx, s.db, table, scanOffer, `
		INSERT INTO `+table+` (
			checkout_page_id, product_id, headline, description, discount_type, discount_value, position, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, 0), COALESCE($8, TRUE))
		RETURNING `+offerColumns,
		in.CheckoutPageID, in.ProductID, in.Headline, arg(in.Description), string(in.DiscountType),
		money(in.DiscountValue), arg(in.Position), arg(in.IsActive),
	)
}

func (s *Store) updateOffer(ctx context.Context, table, id string, patch domain.OfferPatch) (*domain.Offer, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return writeOne(ctx, s.db, table, scanOffer, `
		UPDATE `+table+` SET
			product_id = COALESCE($2, product_id),
			headline = COALESCE($3, headline),
			description = COALESCE($4, description),
			discount_type = COALESCE($5, discount_type),
			discount_value = COALESCE($6::numeric, discount_value),
			position = COALESCE($7, position),
			is_active = COALESCE($8, is_active)
		WHERE id = $1
		RETURNING `+offerColumns,
		id, arg(patch.ProductID), arg(patch.Headline), arg(patch.Description), arg((*string)(patch.DiscountType)),
		moneyArg(patch.DiscountValue), arg(patch.Position), arg(patch.IsActive),
	)
}

func bumps(offers []domain.Offer) []domain.OrderBump {
	result := make([]domain.OrderBump, 0, len(offers))
	for _, o := range offers {
		result = append(result, domain.OrderBump{Offer: o})
	}
	return result
}

func bump(o *domain.Offer) *domain.OrderBump {
	if o == nil {
		return nil
	}
	return &domain.OrderBump{Offer: *o}
}

func upsells(offers []domain.Offer) []domain.Upsell {
	result := make([]domain.Upsell, 0, len(offers))
	for _, o := range offers {
		result = append(result, domain.Upsell{Offer: o})
	}
	return result
}

func upsell(o *domain.Offer) *domain.Upsell {
	if o == nil {
		return nil
	}
	return &domain.Upsell{Offer: *o}
}

func (s *Store) GetOrderBumps(ctx context.Context, checkoutPageID string) (_ []domain.OrderBump, err error) {
	defer s.track("get_order_bumps")(&err)
	offers, err := s.listOffers(ctx, tableOrderBumps, checkoutPageID)
	if err != nil {
		return nil, err
	}
	return bumps(offers), nil
}

func (s *Store) GetOrderBump(ctx context.Context, id string) (_ *domain.OrderBump, err error) {
	defer s.track("get_order_bump")(&err)
	o, err := s.getOffer(ctx, tableOrderBumps, id)
	return bump(o), err
}

func (s *Store) CreateOrderBump(ctx context.Context, in domain.NewOffer) (_ *domain.OrderBump, err error) {
	defer s.track("create_order_bump")(&err)
	o, err := s.createOffer(ctx, tableOrderBumps, in)
	return bump(o), err
}

func (s *Store) UpdateOrderBump(ctx context.Context, id string, patch domain.OfferPatch) (_ *domain.OrderBump, err error) {
	defer s.track("update_order_bump")(&err)
	o, err := s.updateOffer(ctx, tableOrderBumps, id, patch)
	return bump(o), err
}

func (s *Store) DeleteOrderBump(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "delete_order_bump", tableOrderBumps, id)
}

func (s *Store) GetUpsells(ctx context.Context, checkoutPageID string) (_ []domain.Upsell, err error) {
	defer s.track("get_upsells")(&err)
	offers, err := s.listOffers(ctx, tableUpsells, checkoutPageID)
	if err != nil {
		return nil, err
	}
	return upsells(offers), nil
}

func (s *Store) GetUpsell(ctx context.Context, id string) (_ *domain.Upsell, err error) {
	defer s.track("get_upsell")(&err)
	o, err := s.getOffer(ctx, tableUpsells, id)
	return upsell(o), err
}

func (s *Store) CreateUpsell(ctx context.Context, in domain.NewOffer) (_ *domain.Upsell, err error) {
	defer s.track("create_upsell")(&err)
	o, err := s.createOffer(ctx, tableUpsells, in)
	return upsell(o), err
}

func (s *Store) UpdateUpsell(ctx context.Context, id string, patch domain.OfferPatch) (_ *domain.Upsell, err error) {
	defer s.track("update_upsell")(&err)
	o, err := s.updateOffer(ctx, tableUpsells, id, patch)
	return upsell(o), err
}

func (s *Store) DeleteUpsell(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "delete_upsell", tableUpsells, id)
}
