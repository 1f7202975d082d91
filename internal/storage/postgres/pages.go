package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

const pageColumns = `id, user_id, product_id, name, slug, template, blocks, custom_styles, is_published, created_at`

func scanPage(row rowScanner) (domain.CheckoutPage, error) {
	var (
		p              domain.CheckoutPage
		blocks, styles []byte
		createdAt      time.Time
	)
	if err := row.Scan(
		&p.ID, &p.UserID, &p.ProductID, &p.Name, &p.Slug, &p.Template, &blocks, &styles, &p.IsPublished, &createdAt,
	); err != nil {
		return domain.CheckoutPage{}, err
	}

	p.Blocks = []domain.Block{}
	if len(blocks) > 0 {
		if err := json.Unmarshal(blocks, &p.Blocks); err != nil {
			return domain.CheckoutPage{}, fmt.Errorf("decode checkout page %s blocks: %w", p.ID, err)
		}
		if p.Blocks == nil {
			p.Blocks = []domain.Block{}
		}
	}
	customStyles, err := decodeObject(styles)
	if err != nil {
		return domain.CheckoutPage{}, err
	}
	p.CustomStyles = customStyles
	p.CreatedAt = createdAt.UTC()
	return p, nil
}

// attachProducts дополняет страницы их товарами одним запросом.
func (s *Store) attachProducts(ctx context.Context, pages []domain.CheckoutPage) ([]domain.CheckoutPageWithProduct, error) {
	ids := make([]string, 0, len(pages))
	for _, p := range pages {
		ids = append(ids, p.ProductID)
	}
	products, err := s.productsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]domain.CheckoutPageWithProduct, 0, len(pages))
	for _, p := range pages {
		result = append(result, domain.CheckoutPageWithProduct{CheckoutPage: p, Product: products[p.ProductID]})
	}
	return result, nil
}

func (s *Store) getPageWithProduct(ctx context.Context, query string, key string) (*domain.CheckoutPageWithProduct, error) {
	page, err := queryOne(ctx, s.db, scanPage, query, key)
	if err != nil || page == nil {
		return nil, err
	}
	withProduct, err := s.attachProducts(ctx, []domain.CheckoutPage{*page})
	if err != nil {
		return nil, err
	}
	return &withProduct[0], nil
}

// GetCheckoutPages возвращает страницы владельца с товарами, новые первыми.
func (s *Store) GetCheckoutPages(ctx context.Context, ownerID string) (_ []domain.CheckoutPageWithProduct, err error) {
	defer s.track("get_checkout_pages")(&err)
	pages, err := queryList(ctx, s.db, scanPage, `
		SELECT `+pageColumns+`
		FROM checkout_pages
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return s.attachProducts(ctx, pages)
}

// GetCheckoutPage возвращает страницу с товаром.
func (s *Store) GetCheckoutPage(ctx context.Context, id string) (_ *domain.CheckoutPageWithProduct, err error) {
	defer s.track("get_checkout_page")(&err)
	return s.getPageWithProduct(ctx, `SELECT `+pageColumns+` FROM checkout_pages WHERE id = $1`, id)
}

// GetCheckoutPageBySlug ищет страницу по глобально уникальному slug.
func (s *Store) GetCheckoutPageBySlug(ctx context.Context, slug string) (_ *domain.CheckoutPageWithProduct, err error) {
	defer s.track("get_checkout_page_by_slug")(&err)
	return s.getPageWithProduct(ctx, `SELECT `+pageColumns+` FROM checkout_pages WHERE slug = $1`, slug)
}

// CreateCheckoutPage создаёт страницу; шаблон по умолчанию modern.
func (s *Store) CreateCheckoutPage(ctx context.Context, in domain.NewCheckoutPage) (_ *domain.CheckoutPage, err error) {
	defer s.track("create_checkout_page")(&err)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	blocks := in.Blocks
	if blocks == nil {
		blocks = []domain.Block{}
	}
	blocksJSON, err := jsonArg(blocks)
	if err != nil {
		return nil, err
	}
	stylesJSON, err := jsonArg(objectOrEmpty(in.CustomStyles))
	if err != nil {
		return nil, err
	}

	return writeOne(ctx, s.db, "checkout page", scanPage, `
		INSERT INTO checkout_pages (user_id, product_id, name, slug, template, blocks, custom_styles, is_published)
		VALUES ($1, $2, $3, $4, COALESCE($5, 'modern'), $6::jsonb, $7::jsonb, COALESCE($8, FALSE))
		RETURNING `+pageColumns,
		in.UserID, in.ProductID, in.Name, in.Slug, arg(in.Template), blocksJSON, stylesJSON, arg(in.IsPublished),
	)
}

// UpdateCheckoutPage частично обновляет страницу. Blocks и CustomStyles заменяются целиком.
func (s *Store) UpdateCheckoutPage(ctx context.Context, id string, patch domain.CheckoutPagePatch) (_ *domain.CheckoutPage, err error) {
	defer s.track("update_checkout_page")(&err)
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var blocksJSON, stylesJSON any
	if patch.Blocks != nil {
		blocks := *patch.Blocks
		if blocks == nil {
			blocks = []domain.Block{}
		}
		if blocksJSON, err = jsonArg(blocks); err != nil {
			return nil, err
		}
	}
	if patch.CustomStyles != nil {
		if stylesJSON, err = jsonArg(objectOrEmpty(*patch.CustomStyles)); err != nil {
			return nil, err
		}
	}

	return writeOne(ctx, s.db, "checkout page", scanPage, `
		UPDATE checkout_pages SET
			product_id = COALESCE($2, product_id),
			name = COALESCE($3, name),
			slug = COALESCE($4, slug),
			template = COALESCE($5, template),
			blocks = COALESCE($6::jsonb, blocks),
			custom_styles = COALESCE($7::jsonb, custom_styles),
			is_published = COALESCE($8, is_published)
		WHERE id = $1
		RETURNING `+pageColumns,
		id, arg(patch.ProductID), arg(patch.Name), arg(patch.Slug), arg(patch.Template),
		blocksJSON, stylesJSON, arg(patch.IsPublished),
	)
}

// DeleteCheckoutPage удаляет страницу. Предложения и брошенные корзины удаляются
// каскадно, у заказов ссылка на страницу обнуляется.
func (s *Store) DeleteCheckoutPage(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "delete_checkout_page", "checkout_pages", id)
}
