package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Coupon — скидочный код продавца. Code уникален только в рамках владельца.
type Coupon struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	UsageLimit    *int            `json:"usageLimit"`
	UsedCount     int             `json:"usedCount"`
	ExpiresAt     *time.Time      `json:"expiresAt"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// LimitReached сообщает, исчерпан ли лимит использований.
func (c Coupon) LimitReached() bool {
	return c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit
}

// ExpiredAt сообщает, истёк ли срок действия на момент now.
func (c Coupon) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// ValidateDiscount проверяет сочетание типа и размера скидки.
func (c Coupon) ValidateDiscount() error {
	return validateDiscount(c.DiscountType, c.DiscountValue)
}

// NormalizeCouponCode приводит код к виду, в котором он хранится и ищется.
func NormalizeCouponCode(code string) string {
	return strings.TrimSpace(code)
}

// Discount считает скидку купона для subtotal.
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	return DiscountAmount(c.DiscountType, c.DiscountValue, subtotal)
}

// NewCoupon — входные данные для создания купона. UsedCount всегда стартует с нуля.
type NewCoupon struct {
	UserID        string
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	UsageLimit    *int
	ExpiresAt     *time.Time
	IsActive      *bool
}

// Validate проверяет код и параметры скидки.
func (c NewCoupon) Validate() error {
	if NormalizeCouponCode(c.Code) == "" {
		return fmt.Errorf("%w: coupon code is required", ErrInvalidInput)
	}
	if err := validateNonNegative("coupon usage limit", c.UsageLimit); err != nil {
		return err
	}
	return validateDiscount(c.DiscountType, c.DiscountValue)
}

// Normalize возвращает копию с нормализованным кодом.
func (c NewCoupon) Normalize() NewCoupon {
	c.Code = NormalizeCouponCode(c.Code)
	return c
}

// CouponPatch — частичное обновление купона.
type CouponPatch struct {
	Code          *string
	DiscountType  *DiscountType
	DiscountValue *decimal.Decimal
	UsageLimit    *int
	UsedCount     *int
	ExpiresAt     *time.Time
	IsActive      *bool
}

// Validate проверяет поля патча по отдельности. Сочетание типа и размера скидки, когда
// меняется только одно из них, проверяется по итоговому купону.
func (patch CouponPatch) Validate() error {
	if patch.Code != nil && NormalizeCouponCode(*patch.Code) == "" {
		return fmt.Errorf("%w: coupon code is required", ErrInvalidInput)
	}
	if patch.DiscountType != nil && !patch.DiscountType.Valid() {
		return fmt.Errorf("%w: unsupported discount type %q", ErrInvalidInput, *patch.DiscountType)
	}
	if patch.DiscountValue != nil && patch.DiscountValue.IsNegative() {
		return fmt.Errorf("%w: discount value must be non-negative", ErrInvalidInput)
	}
	if patch.DiscountType != nil && patch.DiscountValue != nil {
		if err := validateDiscount(*patch.DiscountType, *patch.DiscountValue); err != nil {
			return err
		}
	}
	if err := validateNonNegative("coupon usage limit", patch.UsageLimit); err != nil {
		return err
	}
	return validateNonNegative("coupon used count", patch.UsedCount)
}

// Normalize возвращает копию с нормализованным кодом.
func (patch CouponPatch) Normalize() CouponPatch {
	if patch.Code != nil {
		patch.Code = Ptr(NormalizeCouponCode(*patch.Code))
	}
	return patch
}

func validateNonNegative(field string, v *int) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%w: %s must be non-negative", ErrInvalidInput, field)
	}
	return nil
}

// Apply переносит заданные поля патча в c.
func (patch CouponPatch) Apply(c *Coupon) {
	setValue(&c.Code, patch.Code)
	setValue(&c.DiscountType, patch.DiscountType)
	if patch.DiscountValue != nil {
		c.DiscountValue = RoundMoney(*patch.DiscountValue)
	}
	setOptional(&c.UsageLimit, patch.UsageLimit)
	setValue(&c.UsedCount, patch.UsedCount)
	if patch.ExpiresAt != nil {
		v := patch.ExpiresAt.UTC()
		c.ExpiresAt = &v
	}
	setValue(&c.IsActive, patch.IsActive)
}

// Customer — покупатель продавца. Email уникален в рамках владельца.
type Customer struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewCustomer — входные данные для создания покупателя.
type NewCustomer struct {
	UserID string
	Email  string
	Name   *string
	Phone  *string
}

// Validate проверяет email покупателя.
func (c NewCustomer) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("%w: customer email is required", ErrInvalidInput)
	}
	return nil
}

// CustomerPatch — частичное обновление покупателя.
type CustomerPatch struct {
	Email *string
	Name  *string
	Phone *string
}

// Apply переносит заданные поля патча в c.
func (patch CustomerPatch) Apply(c *Customer) {
	setValue(&c.Email, patch.Email)
	setOptional(&c.Name, patch.Name)
	setOptional(&c.Phone, patch.Phone)
}
