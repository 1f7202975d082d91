package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/service/analytics"
	"github.com/momentouslyfe-web/DigitalCart/internal/service/coupon"
)

// Dependencies содержит сервисы, собранные поверх выбранного хранилища.
// Хранилище создаётся один раз и передаётся всем потребителям.
type Dependencies struct {
	Storage   domain.Storage
	Coupons   *coupon.Service
	Analytics *analytics.Service
	Logger    *log.Entry
}

// NewDependencies собирает сервисы поверх storage.
func NewDependencies(storage domain.Storage, logger *log.Entry) *Dependencies {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	return &Dependencies{
		Storage:   storage,
		Coupons:   coupon.NewService(storage, coupon.WithLogger(logger.WithField("component", "coupon"))),
		Analytics: analytics.NewService(storage, logger.WithField("component", "analytics")),
		Logger:    logger,
	}
}
