package document

import (
	"context"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
)

// Order bumps и upsells хранятся в разных коллекциях, но обрабатываются одним кодом.

func (b *Backend) listOffers(ctx context.Context, collection, checkoutPageID string) ([]domain.Offer, error) {
	records, err := findRecords[offerRecord](ctx, b, collection, docstore.Eq("checkoutPageId", checkoutPageID))
	if err != nil {
		return nil, err
	}
	offers := mapRecords(records, offerRecord.toDomain)
	sortByPosition(offers)
	return offers, nil
}

func (b *Backend) getOffer(ctx context.Context, collection, id string) (*domain.Offer, error) {
	rec, err := getRecord[offerRecord](ctx, b, collection, id)
	if err != nil || rec == nil {
		return nil, err
	}
	o := rec.toDomain()
	return &o, nil
}

func (b *Backend) createOffer(ctx context.Context, collection string, in domain.NewOffer) (*domain.Offer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collCheckoutPages, in.CheckoutPageID, "checkout page"); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collProducts, in.ProductID, "product"); err != nil {
		return nil, err
	}

	o := domain.Offer{
		ID:             b.newID(),
		CheckoutPageID: in.CheckoutPageID,
		ProductID:      in.ProductID,
		Headline:       in.Headline,
		Description:    in.Description,
		DiscountType:   in.DiscountType,
		DiscountValue:  domain.RoundMoney(in.DiscountValue),
		IsActive:       true,
		CreatedAt:      b.now(),
	}
	if in.Position != nil {
		o.Position = *in.Position
	}
	if in.IsActive != nil {
		o.IsActive = *in.IsActive
	}

	if err := putRecord(ctx, b, collection, o.ID, newOfferRecord(o)); err != nil {
		return nil, err
	}
	return &o, nil
}

func (b *Backend) updateOffer(ctx context.Context, collection, id string, patch domain.OfferPatch) (*domain.Offer, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	current, err := b.getOffer(ctx, collection, id)
	if err != nil || current == nil {
		return nil, err
	}
	if patch.ProductID != nil {
		if err := b.requireRef(ctx, collProducts, *patch.ProductID, "product"); err != nil {
			return nil, err
		}
	}

	patch.Apply(current)
	if err := putRecord(ctx, b, collection, id, newOfferRecord(*current)); err != nil {
		return nil, err
	}
	return b.getOffer(ctx, collection, id)
}

func wrapOffers[T any](offers []domain.Offer, wrap func(domain.Offer) T) []T {
	result := make([]T, 0, len(offers))
	for _, o := range offers {
		result = append(result, wrap(o))
	}
	return result
}

func wrapOffer[T any](o *domain.Offer, err error, wrap func(domain.Offer) T) (*T, error) {
	if err != nil || o == nil {
		return nil, err
	}
	v := wrap(*o)
	return &v, nil
}

func asBump(o domain.Offer) domain.OrderBump { return domain.OrderBump{Offer: o} }

func asUpsell(o domain.Offer) domain.Upsell { return domain.Upsell{Offer: o} }

// GetOrderBumps возвращает bumps страницы по возрастанию Position.
func (b *Backend) GetOrderBumps(ctx context.Context, checkoutPageID string) ([]domain.OrderBump, error) {
	offers, err := b.listOffers(ctx, collOrderBumps, checkoutPageID)
	if err != nil {
		return nil, err
	}
	return wrapOffers(offers, asBump), nil
}

func (b *Backend) GetOrderBump(ctx context.Context, id string) (*domain.OrderBump, error) {
	o, err := b.getOffer(ctx, collOrderBumps, id)
	return wrapOffer(o, err, asBump)
}

func (b *Backend) CreateOrderBump(ctx context.Context, in domain.NewOffer) (*domain.OrderBump, error) {
	o, err := b.createOffer(ctx, collOrderBumps, in)
	return wrapOffer(o, err, asBump)
}

func (b *Backend) UpdateOrderBump(ctx context.Context, id string, patch domain.OfferPatch) (*domain.OrderBump, error) {
	o, err := b.updateOffer(ctx, collOrderBumps, id, patch)
	return wrapOffer(o, err, asBump)
}

func (b *Backend) DeleteOrderBump(ctx context.Context, id string) (bool, error) {
	return deleteRecord(ctx, b, collOrderBumps, id)
}

// GetUpsells возвращает upsells страницы по возрастанию Position.
func (b *Backend) GetUpsells(ctx context.Context, checkoutPageID string) ([]domain.Upsell, error) {
	offers, err := b.listOffers(ctx, collUpsells, checkoutPageID)
	if err != nil {
		return nil, err
	}
	return wrapOffers(offers, asUpsell), nil
}

func (b *Backend) GetUpsell(ctx context.Context, id string) (*domain.Upsell, error) {
	o, err := b.getOffer(ctx, collUpsells, id)
	return wrapOffer(o, err, asUpsell)
}

func (b *Backend) CreateUpsell(ctx context.Context, in domain.NewOffer) (*domain.Upsell, error) {
	o, err := b.createOffer(ctx, collUpsells, in)
	return wrapOffer(o, err, asUpsell)
}

func (b *Backend) UpdateUpsell(ctx context.Context, id string, patch domain.OfferPatch) (*domain.Upsell, error) {
	o, err := b.updateOffer(ctx, collUpsells, id, patch)
	return wrapOffer(o, err, asUpsell)
}

func (b *Backend) DeleteUpsell(ctx context.Context, id string) (bool, error) {
	return deleteRecord(ctx, b, collUpsells, id)
}
