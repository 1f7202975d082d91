package document

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
)

// withProducts подгружает товар каждой страницы отдельным точечным чтением.
// Ошибка любого чтения отменяет всю выборку.
func (b *Backend) withProducts(ctx context.Context, pages []domain.CheckoutPage) ([]domain.CheckoutPageWithProduct, error) {
	result := make([]domain.CheckoutPageWithProduct, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	for i := range pages {
		result[i].CheckoutPage = pages[i]
		g.Go(func() error {
			product, err := b.GetProduct(gctx, pages[i].ProductID)
			if err != nil {
				return err
			}
			result[i].Product = product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetCheckoutPages возвращает страницы владельца с товарами, новые первыми.
func (b *Backend) GetCheckoutPages(ctx context.Context, ownerID string) ([]domain.CheckoutPageWithProduct, error) {
	records, err := findRecords[checkoutPageRecord](ctx, b, collCheckoutPages, docstore.Eq("userId", ownerID))
	if err != nil {
		return nil, err
	}
	pages := mapRecords(records, checkoutPageRecord.toDomain)
	sortNewestFirst(pages, func(p domain.CheckoutPage) (time.Time, string) { return p.CreatedAt, p.ID })
	return b.withProducts(ctx, pages)
}

func (b *Backend) getCheckoutPage(ctx context.Context, id string) (*domain.CheckoutPage, error) {
	rec, err := getRecord[checkoutPageRecord](ctx, b, collCheckoutPages, id)
	if err != nil || rec == nil {
		return nil, err
	}
	p := rec.toDomain()
	return &p, nil
}

// GetCheckoutPage возвращает страницу с товаром.
func (b *Backend) GetCheckoutPage(ctx context.Context, id string) (*domain.CheckoutPageWithProduct, error) {
	page, err := b.getCheckoutPage(ctx, id)
	if err != nil || page == nil {
		return nil, err
	}
	result, err := b.withProducts(ctx, []domain.CheckoutPage{*page})
	if err != nil {
		return nil, err
	}
	return &result[0], nil
}

// GetCheckoutPageBySlug ищет опубликованную или черновую страницу по глобальному slug.
func (b *Backend) GetCheckoutPageBySlug(ctx context.Context, slug string) (*domain.CheckoutPageWithProduct, error) {
	records, err := findRecords[checkoutPageRecord](ctx, b, collCheckoutPages, docstore.Eq("slug", slug))
	if err != nil || len(records) == 0 {
		return nil, err
	}
	result, err := b.withProducts(ctx, []domain.CheckoutPage{records[0].toDomain()})
	if err != nil {
		return nil, err
	}
	return &result[0], nil
}

// CreateCheckoutPage создаёт страницу.
func (b *Backend) CreateCheckoutPage(ctx context.Context, in domain.NewCheckoutPage) (*domain.CheckoutPage, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collUsers, in.UserID, "user"); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collProducts, in.ProductID, "product"); err != nil {
		return nil, err
	}
	if err := b.ensureUnique(ctx, collCheckoutPages, "", "checkout page slug", docstore.Eq("slug", in.Slug)); err != nil {
		return nil, err
	}

	p := domain.CheckoutPage{
		ID:           b.newID(),
		UserID:       in.UserID,
		ProductID:    in.ProductID,
		Name:         in.Name,
		Slug:         in.Slug,
		Template:     domain.DefaultTemplate,
		Blocks:       in.Blocks,
		CustomStyles: in.CustomStyles,
		CreatedAt:    b.now(),
	}
	if in.Template != nil {
		p.Template = *in.Template
	}
	if in.IsPublished != nil {
		p.IsPublished = *in.IsPublished
	}

	rec := newCheckoutPageRecord(p)
	if err := putRecord(ctx, b, collCheckoutPages, p.ID, rec); err != nil {
		return nil, err
	}
	created := rec.toDomain()
	return &created, nil
}

// UpdateCheckoutPage частично обновляет страницу. Blocks заменяются целиком.
func (b *Backend) UpdateCheckoutPage(ctx context.Context, id string, patch domain.CheckoutPagePatch) (*domain.CheckoutPage, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	current, err := b.getCheckoutPage(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}
	if patch.ProductID != nil {
		if err := b.requireRef(ctx, collProducts, *patch.ProductID, "product"); err != nil {
			return nil, err
		}
	}
	if patch.Slug != nil && *patch.Slug != current.Slug {
		if err := b.ensureUnique(ctx, collCheckoutPages, id, "checkout page slug", docstore.Eq("slug", *patch.Slug)); err != nil {
			return nil, err
		}
	}

	patch.Apply(current)
	if err := putRecord(ctx, b, collCheckoutPages, id, newCheckoutPageRecord(*current)); err != nil {
		return nil, err
	}
	return b.getCheckoutPage(ctx, id)
}

// DeleteCheckoutPage удаляет страницу вместе с её bumps, upsells и брошенными корзинами.
// Заказы со страницы остаются, ссылка на страницу в них обнуляется.
func (b *Backend) DeleteCheckoutPage(ctx context.Context, id string) (bool, error) {
	current, err := b.getCheckoutPage(ctx, id)
	if err != nil || current == nil {
		return false, err
	}

	for _, coll := range []string{collOrderBumps, collUpsells, collAbandonedCarts} {
		if err := b.cascadeDelete(ctx, coll, "checkoutPageId", id); err != nil {
			return false, err
		}
	}
	if err := b.detachReferences(ctx, collOrders, "checkoutPageId", id); err != nil {
		return false, err
	}
	return deleteRecord(ctx, b, collCheckoutPages, id)
}

// sortByPosition упорядочивает предложения по Position, затем по времени создания.
func sortByPosition(offers []domain.Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		if offers[i].Position != offers[j].Position {
			return offers[i].Position < offers[j].Position
		}
		if !offers[i].CreatedAt.Equal(offers[j].CreatedAt) {
			return offers[i].CreatedAt.Before(offers[j].CreatedAt)
		}
		return offers[i].ID < offers[j].ID
	})
}
