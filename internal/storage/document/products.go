package document

import (
	"context"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
)

func productKey(p domain.Product) (time.Time, string) { return p.CreatedAt, p.ID }

// GetProducts возвращает товары владельца, новые первыми.
func (b *Backend) GetProducts(ctx context.Context, ownerID string) ([]domain.Product, error) {
	records, err := findRecords[productRecord](ctx, b, collProducts, docstore.Eq("userId", ownerID))
	if err != nil {
		return nil, err
	}
	products := mapRecords(records, productRecord.toDomain)
	sortNewestFirst(products, productKey)
	return products, nil
}

// GetProduct возвращает товар по ID.
func (b *Backend) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	rec, err := getRecord[productRecord](ctx, b, collProducts, id)
	if err != nil || rec == nil {
		return nil, err
	}
	p := rec.toDomain()
	return &p, nil
}

// CreateProduct создаёт товар, применяя значения по умолчанию схемы.
func (b *Backend) CreateProduct(ctx context.Context, in domain.NewProduct) (*domain.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collUsers, in.UserID, "user"); err != nil {
		return nil, err
	}

	p := domain.Product{
		ID:            b.newID(),
		UserID:        in.UserID,
		Name:          in.Name,
		Description:   in.Description,
		Price:         domain.RoundMoney(in.Price),
		ImageURL:      in.ImageURL,
		FileURL:       in.FileURL,
		FileName:      in.FileName,
		FileSize:      in.FileSize,
		DownloadLimit: domain.DefaultDownloadLimit,
		IsActive:      true,
		CreatedAt:     b.now(),
	}
	if in.CompareAtPrice != nil {
		v := domain.RoundMoney(*in.CompareAtPrice)
		p.CompareAtPrice = &v
	}
	if in.DownloadLimit != nil {
		p.DownloadLimit = *in.DownloadLimit
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if err := putRecord(ctx, b, collProducts, p.ID, newProductRecord(p)); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct частично обновляет товар.
func (b *Backend) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	current, err := b.GetProduct(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}

	patch.Apply(current)
	if err := putRecord(ctx, b, collProducts, id, newProductRecord(*current)); err != nil {
		return nil, err
	}
	return b.GetProduct(ctx, id)
}

// DeleteProduct удаляет товар. Товар, на который ссылаются страницы, предложения
// или позиции заказов, не удаляется.
func (b *Backend) DeleteProduct(ctx context.Context, id string) (bool, error) {
	current, err := b.GetProduct(ctx, id)
	if err != nil || current == nil {
		return false, err
	}

	for _, coll := range []string{collCheckoutPages, collOrderBumps, collUpsells, collOrderItems} {
		if err := b.restrictDelete(ctx, coll, "productId", id, "product"); err != nil {
			return false, err
		}
	}
	return deleteRecord(ctx, b, collProducts, id)
}
