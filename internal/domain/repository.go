package domain

import (
	"context"
	"time"
)

// Контракт хранилища. Общие правила для всех реализаций:
//   - отсутствие записи — значение, а не ошибка: Get*/Update* возвращают nil, nil,
//     Delete* возвращает false, nil, списки — пустой срез;
//   - списки по владельцу отсортированы по времени создания, новые первыми;
//   - Update* меняет только переданные поля патча;
//   - ошибка возвращается только при отказе инфраструктуры или нарушении целостности.

// UserRepository хранит продавцов.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, in NewUser) (*User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error)
}

// ProductRepository хранит товары.
type ProductRepository interface {
	GetProducts(ctx context.Context, ownerID string) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, in NewProduct) (*Product, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error)
	DeleteProduct(ctx context.Context, id string) (bool, error)
}

// CheckoutPageRepository хранит checkout-страницы. Чтения возвращают страницу вместе с товаром.
type CheckoutPageRepository interface {
	GetCheckoutPages(ctx context.Context, ownerID string) ([]CheckoutPageWithProduct, error)
	GetCheckoutPage(ctx context.Context, id string) (*CheckoutPageWithProduct, error)
	// GetCheckoutPageBySlug ищет страницу без фильтра по владельцу: slug уникален глобально.
	GetCheckoutPageBySlug(ctx context.Context, slug string) (*CheckoutPageWithProduct, error)
	CreateCheckoutPage(ctx context.Context, in NewCheckoutPage) (*CheckoutPage, error)
	UpdateCheckoutPage(ctx context.Context, id string, patch CheckoutPagePatch) (*CheckoutPage, error)
	DeleteCheckoutPage(ctx context.Context, id string) (bool, error)
}

// OfferRepository хранит order bumps и upsells. Списки упорядочены по Position.
type OfferRepository interface {
	GetOrderBumps(ctx context.Context, checkoutPageID string) ([]OrderBump, error)
	GetOrderBump(ctx context.Context, id string) (*OrderBump, error)
	CreateOrderBump(ctx context.Context, in NewOffer) (*OrderBump, error)
	UpdateOrderBump(ctx context.Context, id string, patch OfferPatch) (*OrderBump, error)
	DeleteOrderBump(ctx context.Context, id string) (bool, error)

	GetUpsells(ctx context.Context, checkoutPageID string) ([]Upsell, error)
	GetUpsell(ctx context.Context, id string) (*Upsell, error)
	CreateUpsell(ctx context.Context, in NewOffer) (*Upsell, error)
	UpdateUpsell(ctx context.Context, id string, patch OfferPatch) (*Upsell, error)
	DeleteUpsell(ctx context.Context, id string) (bool, error)
}

// CouponFinder — узкий порт для валидации купонов.
type CouponFinder interface {
	GetCouponByCode(ctx context.Context, code, ownerID string) (*Coupon, error)
}

// CouponRepository хранит купоны.
type CouponRepository interface {
	CouponFinder
	GetCoupons(ctx context.Context, ownerID string) ([]Coupon, error)
	GetCoupon(ctx context.Context, id string) (*Coupon, error)
	CreateCoupon(ctx context.Context, in NewCoupon) (*Coupon, error)
	UpdateCoupon(ctx context.Context, id string, patch CouponPatch) (*Coupon, error)
	DeleteCoupon(ctx context.Context, id string) (bool, error)
}

// CustomerRepository хранит покупателей.
type CustomerRepository interface {
	GetCustomers(ctx context.Context, ownerID string) ([]Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	GetCustomerByEmail(ctx context.Context, email, ownerID string) (*Customer, error)
	CreateCustomer(ctx context.Context, in NewCustomer) (*Customer, error)
	UpdateCustomer(ctx context.Context, id string, patch CustomerPatch) (*Customer, error)
	DeleteCustomer(ctx context.Context, id string) (bool, error)
}

// OrderRepository хранит заказы и их позиции.
type OrderRepository interface {
	// GetOrders возвращает заказы с покупателем и позициями (без товаров позиций).
	GetOrders(ctx context.Context, ownerID string) ([]OrderWithDetails, error)
	// GetOrder возвращает заказ с покупателем и позициями, к каждой позиции подгружен товар.
	GetOrder(ctx context.Context, id string) (*OrderWithDetails, error)
	GetOrderByTransactionID(ctx context.Context, transactionID string) (*Order, error)
	CreateOrder(ctx context.Context, in NewOrder) (*Order, error)
	UpdateOrder(ctx context.Context, id string, patch OrderPatch) (*Order, error)
	DeleteOrder(ctx context.Context, id string) (bool, error)

	// GetOrderItems возвращает позиции заказа (старые первыми) с товарами.
	GetOrderItems(ctx context.Context, orderID string) ([]OrderItemWithProduct, error)
	GetOrderItemByDownloadToken(ctx context.Context, token string) (*OrderItem, error)
	CreateOrderItem(ctx context.Context, in NewOrderItem) (*OrderItem, error)
	UpdateOrderItem(ctx context.Context, id string, patch OrderItemPatch) (*OrderItem, error)
}

// AbandonedCartRepository хранит брошенные корзины.
type AbandonedCartRepository interface {
	GetAbandonedCarts(ctx context.Context, ownerID string) ([]AbandonedCart, error)
	GetAbandonedCart(ctx context.Context, id string) (*AbandonedCart, error)
	CreateAbandonedCart(ctx context.Context, in NewAbandonedCart) (*AbandonedCart, error)
	UpdateAbandonedCart(ctx context.Context, id string, patch AbandonedCartPatch) (*AbandonedCart, error)
	DeleteAbandonedCart(ctx context.Context, id string) (bool, error)
}

// EmailTemplateRepository хранит шаблоны писем.
type EmailTemplateRepository interface {
	GetEmailTemplates(ctx context.Context, ownerID string) ([]EmailTemplate, error)
	GetEmailTemplate(ctx context.Context, id string) (*EmailTemplate, error)
	// GetEmailTemplateByType возвращает самый новый активный шаблон заданного типа.
	GetEmailTemplateByType(ctx context.Context, ownerID, templateType string) (*EmailTemplate, error)
	CreateEmailTemplate(ctx context.Context, in NewEmailTemplate) (*EmailTemplate, error)
	UpdateEmailTemplate(ctx context.Context, id string, patch EmailTemplatePatch) (*EmailTemplate, error)
	DeleteEmailTemplate(ctx context.Context, id string) (bool, error)
}

// PixelEventRepository хранит pixel-события.
type PixelEventRepository interface {
	GetPixelEvents(ctx context.Context, ownerID string) ([]PixelEvent, error)
	CreatePixelEvent(ctx context.Context, in NewPixelEvent) (*PixelEvent, error)
	UpdatePixelEvent(ctx context.Context, id string, patch PixelEventPatch) (*PixelEvent, error)
	// ListUnsentPixelEvents возвращает неотправленные события всех владельцев, старые первыми.
	ListUnsentPixelEvents(ctx context.Context, limit int) ([]PixelEvent, error)
}

// Storage — полный контракт хранилища, который реализует каждый backend.
type Storage interface {
	UserRepository
	ProductRepository
	CheckoutPageRepository
	OfferRepository
	CouponRepository
	CustomerRepository
	OrderRepository
	AbandonedCartRepository
	EmailTemplateRepository
	PixelEventRepository

	// Ping проверяет доступность нижележащего хранилища.
	Ping(ctx context.Context) error
	// Close освобождает соединения.
	Close() error
}

// Clock возвращает текущее время; подменяется в тестах.
type Clock func() time.Time

// Ptr возвращает указатель на копию v.
func Ptr[T any](v T) *T {
	return &v
}
