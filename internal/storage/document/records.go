package document

import (
	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
)

// Записи документов встраивают доменные структуры и перекрывают поля времени
// нативным docstore.Timestamp: поле внешней структуры побеждает при JSON-кодировании.

// userSecrets хранит то, что доменная модель скрывает из JSON.
type userSecrets struct {
	PasswordHash     string  `json:"passwordHash"`
	PaymentAPIKey    *string `json:"paymentApiKey"`
	PaymentSecretKey *string `json:"paymentSecretKey"`
	EmailAPIKey      *string `json:"emailApiKey"`
	PixelAccessToken *string `json:"pixelAccessToken"`
}

type userRecord struct {
	domain.User
	Secrets   userSecrets         `json:"secrets"`
	CreatedAt *docstore.Timestamp `json:"createdAt"`
}

func newUserRecord(u domain.User) userRecord {
	return userRecord{
		User: u,
		Secrets: userSecrets{
			PasswordHash:     u.PasswordHash,
			PaymentAPIKey:    u.PaymentAPIKey,
			PaymentSecretKey: u.PaymentSecretKey,
			EmailAPIKey:      u.EmailAPIKey,
			PixelAccessToken: u.PixelAccessToken,
		},
		CreatedAt: docstore.NewTimestamp(u.CreatedAt),
	}
}

func (r userRecord) toDomain() domain.User {
	u := r.User
	u.PasswordHash = r.Secrets.PasswordHash
	u.PaymentAPIKey = r.Secrets.PaymentAPIKey
	u.PaymentSecretKey = r.Secrets.PaymentSecretKey
	u.EmailAPIKey = r.Secrets.EmailAPIKey
	u.PixelAccessToken = r.Secrets.PixelAccessToken
	u.CreatedAt = r.CreatedAt.Time()
	return u
}

type productRecord struct {
	domain.Product
	CreatedAt *docstore.Timestamp `json:"createdAt"`
}

func newProductRecord(p domain.Product) productRecord {
	return productRecord{Product: p, CreatedAt: docstore.NewTimestamp(p.CreatedAt)}
}

func (r productRecord) toDomain() domain.Product {
	p := r.Product
	p.CreatedAt = r.CreatedAt.Time()
	return p
}

type checkoutPageRecord struct {
	domain.CheckoutPage
	CreatedAt *docstore.Timestamp `json:"createdAt"`
}

func newCheckoutPageRecord(p domain.CheckoutPage) checkoutPageRecord {
	return checkoutPageRecord{CheckoutPage: p, CreatedAt: docstore.NewTimestamp(p.CreatedAt)}
}

func (r checkoutPageRecord) toDomain() domain.CheckoutPage {
	p := r.CheckoutPage
	if p.Blocks == nil {
		p.Blocks = []domain.Block{}
	}
	if p.CustomStyles == nil {
		p.CustomStyles = map[string]any{}
	}
	p.CreatedAt = r.CreatedAt.Time()
	return p
}

// offerRecord используется и для bumps, и для upsells: у них одинаковая форма.
type offerRecord struct {
	domain.Offer
	CreatedAt *docstore.Timestamp `json:"createdAt"`
}

func newOfferRecord(o domain.Offer) offerRecord {
	return offerRecord{Offer: o, CreatedAt: docstore.NewTimestamp(o.CreatedAt)}
}

func (r offerRecord) toDomain() domain.Offer {
	o := r.Offer
	o.CreatedAt = r.CreatedAt.Time()
	return o
}

type couponRecord struct {
	domain.Coupon
	ExpiresAt *docstore.Timestamp `json:"expiresAt"`
	CreatedAt *docstore.Timestamp `json:"createdAt"`
}

func newCouponRecord(c domain.Coupon) couponRecord {
	return couponRecord{
		Coupon:    c,
		ExpiresAt: docstore.NewTimestampPtr(c.ExpiresAt),
		CreatedAt: docstore.NewTimestamp(c.CreatedAt),
	}
}

func (r couponRecord) toDomain() domain.Coupon {
	c := r.Coupon
	c.ExpiresAt = r.ExpiresAt.TimePtr()
	c.CreatedAt = r.CreatedAt.Time()
	return c
}

type customerRecord struct {
	domain.Customer
	CreatedAt *docstore.Timestamp `json:"createdAt"`
}

func newCustomerRecord(c domain.Customer) customerRecord {
	return customerRecord{Customer: c, CreatedAt: docstore.NewTimestamp(c.CreatedAt)}
}

func (r customerRecord) toDomain() domain.Customer {
	c := r.Customer
	c.CreatedAt = r.CreatedAt.Time()
	return c
}

type orderRecord struct {
	domain.Order
	CreatedAt *docstore.Timestamp `json:"createdAt"`
}

func newOrderRecord(o domain.Order) orderRecord {
	return orderRecord{Order: o, CreatedAt: docstore.NewTimestamp(o.CreatedAt)}
}

func (r orderRecord) toDomain() domain.Order {
	o := r.Order
	o.CreatedAt = r.CreatedAt.Time()
	return o
}

type orderItemRecord struct {
	domain.OrderItem
	TokenExpiresAt *docstore.Timestamp `json:"tokenExpiresAt"`
	CreatedAt      *docstore.Timestamp `json:"createdAt"`
}

func newOrderItemRecord(i domain.OrderItem) orderItemRecord {
	return orderItemRecord{
		OrderItem:      i,
		TokenExpiresAt: docstore.NewTimestampPtr(i.TokenExpiresAt),
		CreatedAt:      docstore.NewTimestamp(i.CreatedAt),
	}
}

func (r orderItemRecord) toDomain() domain.OrderItem {
	i := r.OrderItem
	i.TokenExpiresAt = r.TokenExpiresAt.TimePtr()
	i.CreatedAt = r.CreatedAt.Time()
	return i
}

type abandonedCartRecord struct {
	domain.AbandonedCart
	RecoveredAt *docstore.Timestamp `json:"recoveredAt"`
	CreatedAt   *docstore.Timestamp `json:"createdAt"`
}

func newAbandonedCartRecord(c domain.AbandonedCart) abandonedCartRecord {
	return abandonedCartRecord{
		AbandonedCart: c,
		RecoveredAt:   docstore.NewTimestampPtr(c.RecoveredAt),
		CreatedAt:     docstore.NewTimestamp(c.CreatedAt),
	}
}

func (r abandonedCartRecord) toDomain() domain.AbandonedCart {
	c := r.AbandonedCart
	c.RecoveredAt = r.RecoveredAt.TimePtr()
	c.CreatedAt = r.CreatedAt.Time()
	return c
}

type emailTemplateRecord struct {
	domain.EmailTemplate
	CreatedAt *docstore.Timestamp `json:"createdAt"`
}

func newEmailTemplateRecord(t domain.EmailTemplate) emailTemplateRecord {
	return emailTemplateRecord{EmailTemplate: t, CreatedAt: docstore.NewTimestamp(t.CreatedAt)}
}

func (r emailTemplateRecord) toDomain() domain.EmailTemplate {
	t := r.EmailTemplate
	t.CreatedAt = r.CreatedAt.Time()
	return t
}

type pixelEventRecord struct {
	domain.PixelEvent
	EventTime *docstore.Timestamp `json:"eventTime"`
	CreatedAt *docstore.Timestamp `json:"createdAt"`
}

func newPixelEventRecord(e domain.PixelEvent) pixelEventRecord {
	return pixelEventRecord{
		PixelEvent: e,
		EventTime:  docstore.NewTimestamp(e.EventTime),
		CreatedAt:  docstore.NewTimestamp(e.CreatedAt),
	}
}

func (r pixelEventRecord) toDomain() domain.PixelEvent {
	e := r.PixelEvent
	e.EventTime = r.EventTime.Time()
	e.CreatedAt = r.CreatedAt.Time()
	return e
}
