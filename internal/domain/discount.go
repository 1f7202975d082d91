package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyPlaces — точность денежных сумм (два знака после запятой).
const MoneyPlaces = 2

// DiscountType описывает способ расчёта скидки.
type DiscountType string

const (
	// DiscountFixed — фиксированная сумма.
	DiscountFixed DiscountType = "fixed"
	// DiscountPercentage — процент от суммы.
	DiscountPercentage DiscountType = "percentage"
)

// Valid проверяет, что тип скидки поддерживается.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountFixed, DiscountPercentage:
		return true
	default:
		return false
	}
}

// DiscountAmount считает величину скидки для amount. Результат не превышает amount
// и округлён до MoneyPlaces.
func DiscountAmount(kind DiscountType, value, amount decimal.Decimal) decimal.Decimal {
	if amount.Sign() <= 0 || value.Sign() <= 0 {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch kind {
	case DiscountPercentage:
		discount = amount.Mul(value).Div(decimal.NewFromInt(100))
	case DiscountFixed:
		discount = value
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(amount) {
		discount = amount
	}
	return discount.Round(MoneyPlaces)
}

// RoundMoney приводит сумму к денежной точности хранилища.
func RoundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(MoneyPlaces)
}

func validateDiscount(kind DiscountType, value decimal.Decimal) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unsupported discount type %q", ErrInvalidInput, kind)
	}
	if value.IsNegative() {
		return fmt.Errorf("%w: discount value must be non-negative", ErrInvalidInput)
	}
	if kind == DiscountPercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percentage discount must not exceed 100", ErrInvalidInput)
	}
	return nil
}
