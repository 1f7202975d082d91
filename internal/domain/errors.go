package domain

import "errors"

var (
	// ErrReferenceNotFound — владелец или связанная сущность не существует.
	ErrReferenceNotFound = errors.New("referenced entity not found")
	// ErrReferenceInUse — сущность нельзя удалить, пока на неё ссылаются другие записи.
	ErrReferenceInUse = errors.New("entity is still referenced")
	// ErrDuplicate — нарушена уникальность (slug, email, код купона в рамках владельца).
	ErrDuplicate = errors.New("duplicate unique key")
	// ErrInvalidInput — значение вне допустимого перечисления или пустое обязательное поле.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCouponNotFound — купон с таким кодом у владельца отсутствует.
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrCouponInactive — купон выключен владельцем.
	ErrCouponInactive = errors.New("coupon is inactive")
	// ErrCouponLimitReached — исчерпан лимит использований.
	ErrCouponLimitReached = errors.New("coupon usage limit reached")
	// ErrCouponExpired — срок действия купона истёк.
	ErrCouponExpired = errors.New("coupon has expired")
)

// IsIntegrityError проверяет, относится ли ошибка к нарушению целостности данных,
// а не к отказу инфраструктуры.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrReferenceNotFound) ||
		errors.Is(err, ErrReferenceInUse) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrInvalidInput)
}

// IsCouponRejection проверяет, что ошибка — отказ в применении купона по бизнес-правилу.
func IsCouponRejection(err error) bool {
	return errors.Is(err, ErrCouponNotFound) ||
		errors.Is(err, ErrCouponInactive) ||
		errors.Is(err, ErrCouponLimitReached) ||
		errors.Is(err, ErrCouponExpired)
}
