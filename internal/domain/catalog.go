package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultDownloadLimit — сколько раз покупатель может скачать файл товара.
	DefaultDownloadLimit = 5
	// DefaultTemplate — вариант шаблона checkout-страницы по умолчанию.
	DefaultTemplate = "modern"
)

// Product — цифровой товар продавца.
type Product struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	Name           string           `json:"name"`
	Description    *string          `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compareAtPrice"`
	ImageURL       *string          `json:"imageUrl"`
	FileURL        *string          `json:"fileUrl"`
	FileName       *string          `json:"fileName"`
	FileSize       *int64           `json:"fileSize"`
	DownloadLimit  int              `json:"downloadLimit"`
	IsActive       bool             `json:"isActive"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// NewProduct — входные данные для создания товара. DownloadLimit и IsActive
// получают значения по умолчанию, если не заданы.
type NewProduct struct {
	UserID         string
	Name           string
	Description    *string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	ImageURL       *string
	FileURL        *string
	FileName       *string
	FileSize       *int64
	DownloadLimit  *int
	IsActive       *bool
}

// Validate проверяет обязательные поля товара.
func (p NewProduct) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: product price must be non-negative", ErrInvalidInput)
	}
	return nil
}

// ProductPatch — частичное обновление товара.
type ProductPatch struct {
	Name           *string
	Description    *string
	Price          *decimal.Decimal
	CompareAtPrice *decimal.Decimal
	ImageURL       *string
	FileURL        *string
	FileName       *string
	FileSize       *int64
	DownloadLimit  *int
	IsActive       *bool
}

// Apply переносит заданные поля патча в p.
func (patch ProductPatch) Apply(p *Product) {
	setValue(&p.Name, patch.Name)
	setOptional(&p.Description, patch.Description)
	if patch.Price != nil {
		p.Price = RoundMoney(*patch.Price)
	}
	if patch.CompareAtPrice != nil {
		v := RoundMoney(*patch.CompareAtPrice)
		p.CompareAtPrice = &v
	}
	setOptional(&p.ImageURL, patch.ImageURL)
	setOptional(&p.FileURL, patch.FileURL)
	setOptional(&p.FileName, patch.FileName)
	setOptional(&p.FileSize, patch.FileSize)
	setValue(&p.DownloadLimit, patch.DownloadLimit)
	setValue(&p.IsActive, patch.IsActive)
}

// BlockType — тип контентного блока checkout-страницы.
type BlockType string

const (
	BlockHeading     BlockType = "heading"
	BlockText        BlockType = "text"
	BlockImage       BlockType = "image"
	BlockVideo       BlockType = "video"
	BlockTestimonial BlockType = "testimonial"
	BlockFeatures    BlockType = "features"
	BlockFAQ         BlockType = "faq"
	BlockGuarantee   BlockType = "guarantee"
	BlockCountdown   BlockType = "countdown"
	BlockDivider     BlockType = "divider"
	BlockOrderForm   BlockType = "order_form"
)

// Valid проверяет, что тип блока входит в фиксированное перечисление.
func (t BlockType) Valid() bool {
	switch t {
	case BlockHeading, BlockText, BlockImage, BlockVideo, BlockTestimonial, BlockFeatures,
		BlockFAQ, BlockGuarantee, BlockCountdown, BlockDivider, BlockOrderForm:
		return true
	default:
		return false
	}
}

// Block — позиционированный контентный блок страницы.
type Block struct {
	ID       string         `json:"id"`
	Type     BlockType      `json:"type"`
	Content  map[string]any `json:"content"`
	Styles   map[string]any `json:"styles,omitempty"`
	Position int            `json:"position"`
}

// ValidateBlocks проверяет типы и идентификаторы блоков.
func ValidateBlocks(blocks []Block) error {
	for i, b := range blocks {
		if b.ID == "" {
			return fmt.Errorf("%w: block #%d has empty id", ErrInvalidInput, i)
		}
		if !b.Type.Valid() {
			return fmt.Errorf("%w: block %s has unsupported type %q", ErrInvalidInput, b.ID, b.Type)
		}
	}
	return nil
}

// CheckoutPage — публичная страница оформления заказа.
type CheckoutPage struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	ProductID    string         `json:"productId"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	Template     string         `json:"template"`
	Blocks       []Block        `json:"blocks"`
	CustomStyles map[string]any `json:"customStyles"`
	IsPublished  bool           `json:"isPublished"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// CheckoutPageWithProduct — составное чтение: страница вместе с её товаром.
// Product равен nil, если товар не найден.
type CheckoutPageWithProduct struct {
	CheckoutPage
	Product *Product `json:"product"`
}

// NewCheckoutPage — входные данные для создания страницы.
type NewCheckoutPage struct {
	UserID       string
	ProductID    string
	Name         string
	Slug         string
	Template     *string
	Blocks       []Block
	CustomStyles map[string]any
	IsPublished  *bool
}

// Validate проверяет slug и блоки страницы.
func (p NewCheckoutPage) Validate() error {
	if strings.TrimSpace(p.Slug) == "" {
		return fmt.Errorf("%w: checkout page slug is required", ErrInvalidInput)
	}
	if p.ProductID == "" {
		return fmt.Errorf("%w: checkout page product is required", ErrInvalidInput)
	}
	return ValidateBlocks(p.Blocks)
}

// CheckoutPagePatch — частичное обновление страницы.
type CheckoutPagePatch struct {
	ProductID    *string
	Name         *string
	Slug         *string
	Template     *string
	Blocks       *[]Block
	CustomStyles *map[string]any
	IsPublished  *bool
}

// Validate проверяет заменяемые блоки.
func (patch CheckoutPagePatch) Validate() error {
	if patch.Slug != nil && strings.TrimSpace(*patch.Slug) == "" {
		return fmt.Errorf("%w: checkout page slug is required", ErrInvalidInput)
	}
	if patch.Blocks != nil {
		return ValidateBlocks(*patch.Blocks)
	}
	return nil
}

// Apply переносит заданные поля патча в p.
func (patch CheckoutPagePatch) Apply(p *CheckoutPage) {
	setValue(&p.ProductID, patch.ProductID)
	setValue(&p.Name, patch.Name)
	setValue(&p.Slug, patch.Slug)
	setValue(&p.Template, patch.Template)
	setValue(&p.Blocks, patch.Blocks)
	setValue(&p.CustomStyles, patch.CustomStyles)
	setValue(&p.IsPublished, patch.IsPublished)
}

// Offer — общие поля order bump и upsell: предложение дополнительного товара
// со скидкой на checkout-странице.
type Offer struct {
	ID             string          `json:"id"`
	CheckoutPageID string          `json:"checkoutPageId"`
	ProductID      string          `json:"productId"`
	Headline       string          `json:"headline"`
	Description    *string         `json:"description"`
	DiscountType   DiscountType    `json:"discountType"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	Position       int             `json:"position"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// OfferPrice возвращает цену товара с учётом скидки предложения.
func (o Offer) OfferPrice(productPrice decimal.Decimal) decimal.Decimal {
	return RoundMoney(productPrice.Sub(DiscountAmount(o.DiscountType, o.DiscountValue, productPrice)))
}

// OrderBump — галочка «добавить к заказу» на форме оплаты.
type OrderBump struct {
	Offer
}

// Upsell — предложение, показываемое после оплаты.
type Upsell struct {
	Offer
}

// NewOffer — входные данные для создания bump/upsell.
type NewOffer struct {
	CheckoutPageID string
	ProductID      string
	Headline       string
	Description    *string
	DiscountType   DiscountType
	DiscountValue  decimal.Decimal
	Position       *int
	IsActive       *bool
}

// Validate проверяет ссылки и параметры скидки.
func (o NewOffer) Validate() error {
	if o.CheckoutPageID == "" || o.ProductID == "" {
		return fmt.Errorf("%w: offer requires checkout page and product", ErrInvalidInput)
	}
	return validateDiscount(o.DiscountType, o.DiscountValue)
}

// OfferPatch — частичное обновление bump/upsell.
type OfferPatch struct {
	ProductID     *string
	Headline      *string
	Description   *string
	DiscountType  *DiscountType
	DiscountValue *decimal.Decimal
	Position      *int
	IsActive      *bool
}

// Validate проверяет тип скидки, если он меняется.
func (patch OfferPatch) Validate() error {
	if patch.DiscountType != nil && !patch.DiscountType.Valid() {
		return fmt.Errorf("%w: unsupported discount type %q", ErrInvalidInput, *patch.DiscountType)
	}
	return nil
}

// Apply переносит заданные поля патча в o.
func (patch OfferPatch) Apply(o *Offer) {
	setValue(&o.ProductID, patch.ProductID)
	setValue(&o.Headline, patch.Headline)
	setOptional(&o.Description, patch.Description)
	setValue(&o.DiscountType, patch.DiscountType)
	if patch.DiscountValue != nil {
		o.DiscountValue = RoundMoney(*patch.DiscountValue)
	}
	setValue(&o.Position, patch.Position)
	setValue(&o.IsActive, patch.IsActive)
}
