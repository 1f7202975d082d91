package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

const productColumns = `id, user_id, name, description, price, compare_at_price, image_url, file_url,
	file_name, file_size, download_limit, is_active, created_at`

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p                              domain.Product
		description, imageURL, fileURL sql.Null[string]
		fileName                       sql.Null[string]
		fileSize                       sql.Null[int64]
		compareAt                      decimal.NullDecimal
		createdAt                      time.Time
	)
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &description, &p.Price, &compareAt, &imageURL, &fileURL,
		&fileName, &fileSize, &p.DownloadLimit, &p.IsActive, &createdAt,
	); err != nil {
		return domain.Product{}, err
	}

	p.Description = optional(description)
	p.CompareAtPrice = optionalDecimal(compareAt)
	p.ImageURL = optional(imageURL)
	p.FileURL = optional(fileURL)
	p.FileName = optional(fileName)
	p.FileSize = optional(fileSize)
	p.CreatedAt = createdAt.UTC()
	return p, nil
}

// GetProducts возвращает товары владельца, новые первыми.
func (s *Store) GetProducts(ctx context.Context, ownerID string) (_ []domain.Product, err error) {
	defer s.track("get_products")(&err)
	return queryList(ctx, s.db, scanProduct, `
		SELECT `+productColumns+`
		FROM products
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID)
}

// GetProduct возвращает товар по ID.
func (s *Store) GetProduct(ctx context.Context, id string) (_ *domain.Product, err error) {
	defer s.track("get_product")(&err)
	return queryOne(ctx, s.db, scanProduct, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// productsByID загружает товары пачкой для составных чтений.
func (s *Store) productsByID(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	result := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	products, err := queryList(ctx, s.db, scanProduct,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		result[products[i].ID] = &products[i]
	}
	return result, nil
}

// CreateProduct создаёт товар; download_limit и is_active по умолчанию берутся из схемы.
func (s *Store) CreateProduct(ctx context.Context, in domain.NewProduct) (_ *domain.Product, err error) {
	defer s.track("create_product")(&err)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return writeOne(ctx, s.db, "product", scanProduct, `
		INSERT INTO products (
			user_id, name, description, price, compare_at_price, image_url, file_url,
			file_name, file_size, download_limit, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, 5), COALESCE($11, TRUE))
		RETURNING `+productColumns,
		in.UserID, in.Name, arg(in.Description), money(in.Price), moneyArg(in.CompareAtPrice),
		arg(in.ImageURL), arg(in.FileURL), arg(in.FileName), arg(in.FileSize),
		arg(in.DownloadLimit), arg(in.IsActive),
	)
}

// UpdateProduct частично обновляет товар.
func (s *Store) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (_ *domain.Product, err error) {
	defer s.track("update_product")(&err)
	return writeOne(ctx, s.db, "product", scanProduct, `
		UPDATE products SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			price = COALESCE($4::numeric, price),
			compare_at_price = COALESCE($5::numeric, compare_at_price),
			image_url = COALESCE($6, image_url),
			file_url = COALESCE($7, file_url),
			file_name = COALESCE($8, file_name),
			file_size = COALESCE($9, file_size),
			download_limit = COALESCE($10, download_limit),
			is_active = COALESCE($11, is_active)
		WHERE id = $1
		RETURNING `+productColumns,
		id, arg(patch.Name), arg(patch.Description), moneyArg(patch.Price), moneyArg(patch.CompareAtPrice),
		arg(patch.ImageURL), arg(patch.FileURL), arg(patch.FileName), arg(patch.FileSize),
		arg(patch.DownloadLimit), arg(patch.IsActive),
	)
}

// DeleteProduct удаляет товар. Товар, на который ссылаются страницы, предложения
// или позиции заказов, не удаляется.
func (s *Store) DeleteProduct(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "delete_product", "products", id)
}
