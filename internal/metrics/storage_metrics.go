// Package metrics содержит Prometheus-коллекторы хранилища и pixel relay.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

// Виды ошибок в метке kind.
const (
	ErrorKindIntegrity      = "integrity"
	ErrorKindInfrastructure = "infrastructure"
)

// StorageMetrics содержит метрики операций хранилища.
type StorageMetrics struct {
	// Гистограмма времени выполнения по backend и операции
	opDuration *prometheus.HistogramVec
	// Ошибки по backend, операции и виду
	opErrors *prometheus.CounterVec
	// Чтения из несозданных коллекций, отданные пустым результатом
	notProvisioned *prometheus.CounterVec
}

// NewStorageMetrics создаёт метрики хранилища в DefaultRegisterer.
func NewStorageMetrics() *StorageMetrics {
	return NewStorageMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewStorageMetricsWithRegisterer создаёт метрики хранилища в заданном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewStorageMetricsWithRegisterer(registerer prometheus.Registerer) *StorageMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StorageMetrics{
		opDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "dc_storage_operation_duration_seconds",
			Help:    "Duration of storage operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"backend", "op"}),
		opErrors: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "dc_storage_operation_errors_total",
			Help: "Total number of failed storage operations",
		}, []string{"backend", "op", "kind"}),
		notProvisioned: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "dc_storage_not_provisioned_reads_total",
			Help: "Total number of reads from collections that do not exist yet",
		}, []string{"collection"}),
	}
}

// ObserveStorageOp записывает длительность операции и, если она упала, ошибку.
func (m *StorageMetrics) ObserveStorageOp(backend, op string, duration time.Duration, err error) {
	m.opDuration.WithLabelValues(backend, op).Observe(duration.Seconds())
	if err == nil {
		return
	}
	m.opErrors.WithLabelValues(backend, op, errorKind(err)).Inc()
}

// RecordNotProvisioned увеличивает счётчик чтений из несозданной коллекции.
func (m *StorageMetrics) RecordNotProvisioned(collection string) {
	m.notProvisioned.WithLabelValues(collection).Inc()
}

func errorKind(err error) string {
	if domain.IsIntegrityError(err) {
		return ErrorKindIntegrity
	}
	return ErrorKindInfrastructure
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			// Gauge тоже реализует Inc и Add, поэтому отсекается отдельно.
			_, isGauge := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok || isGauge {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
