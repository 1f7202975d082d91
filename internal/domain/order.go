package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, оплата ещё не подтверждена.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusCompleted — оплата подтверждена, файлы доступны покупателю.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusFailed — платёж отклонён или прерван.
	OrderStatusFailed OrderStatus = "failed"
	// OrderStatusRefunded — деньги возвращены покупателю.
	OrderStatusRefunded OrderStatus = "refunded"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusFailed, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// ItemType — происхождение позиции заказа.
type ItemType string

const (
	ItemTypeMain   ItemType = "main"
	ItemTypeBump   ItemType = "bump"
	ItemTypeUpsell ItemType = "upsell"
)

// Valid проверяет тип позиции.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeMain, ItemTypeBump, ItemTypeUpsell:
		return true
	default:
		return false
	}
}

// Order — заказ покупателя.
type Order struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	CustomerID     string          `json:"customerId"`
	CheckoutPageID *string         `json:"checkoutPageId"`
	CouponID       *string         `json:"couponId"`
	Status         OrderStatus     `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	PaymentMethod  *string         `json:"paymentMethod"`
	TransactionID  *string         `json:"transactionId"`
	InvoiceID      *string         `json:"invoiceId"`
	// EventID — ключ дедупликации конверсии для внешнего приёмника аналитики.
	EventID   *string   `json:"eventId"`
	IPAddress *string   `json:"ipAddress"`
	UserAgent *string   `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewOrder — входные данные для создания заказа.
type NewOrder struct {
	UserID         string
	CustomerID     string
	CheckoutPageID *string
	CouponID       *string
	Status         *OrderStatus
	Subtotal       decimal.Decimal
	Discount       *decimal.Decimal
	Total          decimal.Decimal
	PaymentMethod  *string
	TransactionID  *string
	InvoiceID      *string
	EventID        *string
	IPAddress      *string
	UserAgent      *string
}

// Validate проверяет ссылки и статус заказа.
func (o NewOrder) Validate() error {
	if o.CustomerID == "" {
		return fmt.Errorf("%w: order customer is required", ErrInvalidInput)
	}
	if o.Status != nil && !o.Status.Valid() {
		return fmt.Errorf("%w: unsupported order status %q", ErrInvalidInput, *o.Status)
	}
	return nil
}

// OrderPatch — частичное обновление заказа.
type OrderPatch struct {
	Status        *OrderStatus
	Subtotal      *decimal.Decimal
	Discount      *decimal.Decimal
	Total         *decimal.Decimal
	PaymentMethod *string
	TransactionID *string
	InvoiceID     *string
	EventID       *string
}

// Validate проверяет статус, если он меняется.
func (patch OrderPatch) Validate() error {
	if patch.Status != nil && !patch.Status.Valid() {
		return fmt.Errorf("%w: unsupported order status %q", ErrInvalidInput, *patch.Status)
	}
	return nil
}

// Apply переносит заданные поля патча в o.
func (patch OrderPatch) Apply(o *Order) {
	setValue(&o.Status, patch.Status)
	if patch.Subtotal != nil {
		o.Subtotal = RoundMoney(*patch.Subtotal)
	}
	if patch.Discount != nil {
		o.Discount = RoundMoney(*patch.Discount)
	}
	if patch.Total != nil {
		o.Total = RoundMoney(*patch.Total)
	}
	setOptional(&o.PaymentMethod, patch.PaymentMethod)
	setOptional(&o.TransactionID, patch.TransactionID)
	setOptional(&o.InvoiceID, patch.InvoiceID)
	setOptional(&o.EventID, patch.EventID)
}

// OrderItem — позиция заказа. Price — снимок цены на момент покупки, он не
// пересчитывается из Product.Price.
type OrderItem struct {
	ID             string          `json:"id"`
	OrderID        string          `json:"orderId"`
	ProductID      string          `json:"productId"`
	Type           ItemType        `json:"type"`
	Price          decimal.Decimal `json:"price"`
	DownloadCount  int             `json:"downloadCount"`
	DownloadToken  *string         `json:"downloadToken"`
	TokenExpiresAt *time.Time      `json:"tokenExpiresAt"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// CanDownload проверяет срок действия токена и лимит скачиваний товара.
func (i OrderItem) CanDownload(downloadLimit int, now time.Time) bool {
	if i.DownloadToken == nil {
		return false
	}
	if i.TokenExpiresAt != nil && !now.Before(*i.TokenExpiresAt) {
		return false
	}
	return downloadLimit <= 0 || i.DownloadCount < downloadLimit
}

// NewOrderItem — входные данные для позиции заказа.
type NewOrderItem struct {
	OrderID        string
	ProductID      string
	Type           ItemType
	Price          decimal.Decimal
	DownloadToken  *string
	TokenExpiresAt *time.Time
}

// Validate проверяет тип позиции.
func (i NewOrderItem) Validate() error {
	if !i.Type.Valid() {
		return fmt.Errorf("%w: unsupported item type %q", ErrInvalidInput, i.Type)
	}
	return nil
}

// OrderItemPatch — обновление счётчика и токена скачивания. Цена позиции неизменна.
type OrderItemPatch struct {
	DownloadCount  *int
	DownloadToken  *string
	TokenExpiresAt *time.Time
}

// Apply переносит заданные поля патча в i.
func (patch OrderItemPatch) Apply(i *OrderItem) {
	setValue(&i.DownloadCount, patch.DownloadCount)
	setOptional(&i.DownloadToken, patch.DownloadToken)
	if patch.TokenExpiresAt != nil {
		v := patch.TokenExpiresAt.UTC()
		i.TokenExpiresAt = &v
	}
}

// OrderItemWithProduct — позиция вместе с товаром. Product равен nil, если
// товар не подгружался или не найден.
type OrderItemWithProduct struct {
	OrderItem
	Product *Product `json:"product,omitempty"`
}

// OrderWithDetails — составное чтение заказа: покупатель и позиции.
type OrderWithDetails struct {
	Order
	Customer *Customer              `json:"customer"`
	Items    []OrderItemWithProduct `json:"items"`
}
