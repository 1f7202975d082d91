// Package coupon проверяет и применяет скидочные коды независимо от backend-а хранилища.
package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

// ValidationError — отказ в применении купона. Reason — один из sentinel-ов domain.ErrCoupon*.
type ValidationError struct {
	Code   string
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("coupon %q rejected: %v", e.Code, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// Options задаёт параметры валидатора и сервиса.
type Options struct {
	Clock  domain.Clock
	Logger *log.Entry
}

// Option настраивает Validator и Service.
type Option func(*Options)

// WithClock подменяет момент, относительно которого проверяется срок действия.
func WithClock(clock domain.Clock) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func buildOptions(options []Option) Options {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "coupon")
	}
	return opts
}

// Validator проверяет купон по коду и владельцу.
type Validator struct {
	finder domain.CouponFinder
	clock  domain.Clock
}

// NewValidator создаёт валидатор поверх любого хранилища купонов.
func NewValidator(finder domain.CouponFinder, options ...Option) *Validator {
	opts := buildOptions(options)
	return &Validator{finder: finder, clock: opts.Clock}
}

// Validate возвращает купон, если его можно применить. Правила проверяются строго
// в порядке: не найден, выключен, исчерпан лимит, истёк срок. Отказ возвращается
// как *ValidationError, сбой хранилища — как обычная ошибка.
func (v *Validator) Validate(ctx context.Context, code, ownerID string) (*domain.Coupon, error) {
	code = domain.NormalizeCouponCode(code)
	if code == "" {
		return nil, &ValidationError{Code: code, Reason: domain.ErrCouponNotFound}
	}

	coupon, err := v.finder.GetCouponByCode(ctx, code, ownerID)
	if err != nil {
		return nil, fmt.Errorf("lookup coupon %q: %w", code, err)
	}

	switch {
	case coupon == nil:
		return nil, &ValidationError{Code: code, Reason: domain.ErrCouponNotFound}
	case !coupon.IsActive:
		return nil, &ValidationError{Code: code, Reason: domain.ErrCouponInactive}
	case coupon.LimitReached():
		return nil, &ValidationError{Code: code, Reason: domain.ErrCouponLimitReached}
	case coupon.ExpiredAt(v.clock()):
		return nil, &ValidationError{Code: code, Reason: domain.ErrCouponExpired}
	}
	return coupon, nil
}

// Quote — результат применения купона к сумме заказа.
type Quote struct {
	Coupon   domain.Coupon
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Service применяет и погашает купоны.
type Service struct {
	*Validator
	repo   domain.CouponRepository
	logger *log.Entry
}

// NewService создаёт сервис купонов.
func NewService(repo domain.CouponRepository, options ...Option) *Service {
	opts := buildOptions(options)
	return &Service{
		Validator: &Validator{finder: repo, clock: opts.Clock},
		repo:      repo,
		logger:    opts.Logger,
	}
}

// Apply проверяет купон и считает скидку для subtotal, ничего не записывая.
func (s *Service) Apply(ctx context.Context, code, ownerID string, subtotal decimal.Decimal) (*Quote, error) {
	coupon, err := s.Validate(ctx, code, ownerID)
	if err != nil {
		return nil, err
	}

	subtotal = domain.RoundMoney(subtotal)
	discount := coupon.Discount(subtotal)
	return &Quote{
		Coupon:   *coupon,
		Subtotal: subtotal,
		Discount: discount,
		Total:    domain.RoundMoney(subtotal.Sub(discount)),
	}, nil
}

// Redeem проверяет купон и увеличивает счётчик использований на единицу.
// Чтение и запись не атомарны: конкурентные погашения могут превысить лимит.
func (s *Service) Redeem(ctx context.Context, code, ownerID string) (*domain.Coupon, error) {
	coupon, err := s.Validate(ctx, code, ownerID)
	if err != nil {
		return nil, err
	}

	used := coupon.UsedCount + 1
	updated, err := s.repo.UpdateCoupon(ctx, coupon.ID, domain.CouponPatch{UsedCount: &used})
	if err != nil {
		return nil, fmt.Errorf("increment coupon %s usage: %w", coupon.ID, err)
	}
	if updated == nil {
		// Купон удалён между проверкой и записью.
		return nil, &ValidationError{Code: coupon.Code, Reason: domain.ErrCouponNotFound}
	}

	s.logger.WithFields(log.Fields{
		"coupon_id":  updated.ID,
		"owner_id":   ownerID,
		"used_count": updated.UsedCount,
	}).Info("coupon redeemed")
	return updated, nil
}
