// Package analytics собирает сводку продаж владельца по данным хранилища.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

// Source — чтения хранилища, нужные для сводки.
type Source interface {
	GetOrders(ctx context.Context, ownerID string) ([]domain.OrderWithDetails, error)
	GetCustomers(ctx context.Context, ownerID string) ([]domain.Customer, error)
}

// DailyRevenue — выручка за календарный день UTC.
type DailyRevenue struct {
	Day     time.Time       `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// Dashboard — сводка продаж.
// Выручка, средний чек и дневная разбивка считаются только по completed-заказам.
type Dashboard struct {
	Revenue           decimal.Decimal            `json:"revenue"`
	Discounts         decimal.Decimal            `json:"discounts"`
	TotalOrders       int                        `json:"totalOrders"`
	OrdersByStatus    map[domain.OrderStatus]int `json:"ordersByStatus"`
	AverageOrderValue decimal.Decimal            `json:"averageOrderValue"`
	Customers         int                        `json:"customers"`
	CouponOrders      int                        `json:"couponOrders"`
	Daily             []DailyRevenue             `json:"daily"`
}

// Service строит сводку.
type Service struct {
	source Source
	logger *log.Entry
}

// NewService создаёт сервис аналитики. nil logger заменяется entry с component=analytics.
func NewService(source Source, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "analytics")
	}
	return &Service{source: source, logger: logger}
}

// Dashboard возвращает сводку по заказам и покупателям, созданным не раньше since.
// Нулевой since означает всю историю.
func (s *Service) Dashboard(ctx context.Context, ownerID string, since time.Time) (Dashboard, error) {
	var (
		orders    []domain.OrderWithDetails
		customers []domain.Customer
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		if orders, err = s.source.GetOrders(groupCtx, ownerID); err != nil {
			return fmt.Errorf("load orders: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		if customers, err = s.source.GetCustomers(groupCtx, ownerID); err != nil {
			return fmt.Errorf("load customers: %w", err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return Dashboard{}, err
	}

	dashboard := Dashboard{
		Revenue:           decimal.Zero,
		Discounts:         decimal.Zero,
		OrdersByStatus:    make(map[domain.OrderStatus]int),
		AverageOrderValue: decimal.Zero,
		Daily:             []DailyRevenue{},
	}

	completed := 0
	daily := make(map[time.Time]*DailyRevenue)
	for _, o := range orders {
		if !included(o.CreatedAt, since) {
			continue
		}
		dashboard.TotalOrders++
		dashboard.OrdersByStatus[o.Status]++
		if o.CouponID != nil {
			dashboard.CouponOrders++
		}
		if o.Status != domain.OrderStatusCompleted {
			continue
		}

		completed++
		dashboard.Revenue = dashboard.Revenue.Add(o.Total)
		dashboard.Discounts = dashboard.Discounts.Add(o.Discount)

		day := dayOf(o.CreatedAt)
		bucket, ok := daily[day]
		if !ok {
			bucket = &DailyRevenue{Day: day, Revenue: decimal.Zero}
			daily[day] = bucket
		}
		bucket.Revenue = bucket.Revenue.Add(o.Total)
		bucket.Orders++
	}

	for _, c := range customers {
		if included(c.CreatedAt, since) {
			dashboard.Customers++
		}
	}

	if completed > 0 {
		dashboard.AverageOrderValue = dashboard.Revenue.Div(decimal.NewFromInt(int64(completed))).Round(2)
	}
	for _, bucket := range daily {
		dashboard.Daily = append(dashboard.Daily, *bucket)
	}
	sort.Slice(dashboard.Daily, func(i, j int) bool {
		return dashboard.Daily[i].Day.Before(dashboard.Daily[j].Day)
	})

	s.logger.WithFields(log.Fields{
		"owner_id": ownerID,
		"orders":   dashboard.TotalOrders,
		"revenue":  dashboard.Revenue.StringFixed(2),
	}).Debug("dashboard computed")

	return dashboard, nil
}

func included(createdAt, since time.Time) bool {
	return since.IsZero() || !createdAt.Before(since)
}

func dayOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
