package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

func counterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func histogramCount(t *testing.T, observer prometheus.Observer) uint64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, observer.(prometheus.Histogram).Write(metric))
	return metric.GetHistogram().GetSampleCount()
}

func TestNewStorageMetricsWithRegisterer(t *testing.T) {
	m := NewStorageMetricsWithRegisterer(prometheus.NewRegistry())

	require.NotNil(t, m.opDuration)
	require.NotNil(t, m.opErrors)
	require.NotNil(t, m.notProvisioned)
}

func TestNewStorageMetricsWithRegisterer_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewStorageMetricsWithRegisterer(reg)
	second := NewStorageMetricsWithRegisterer(reg)

	first.RecordNotProvisioned("orders")
	second.RecordNotProvisioned("orders")

	require.Equal(t, 2.0, counterValue(t, first.notProvisioned.WithLabelValues("orders")))
}

func TestObserveStorageOp_Success(t *testing.T) {
	m := NewStorageMetricsWithRegisterer(prometheus.NewRegistry())

	m.ObserveStorageOp("postgres", "get_product", 3*time.Millisecond, nil)
	m.ObserveStorageOp("postgres", "get_product", 5*time.Millisecond, nil)

	require.Equal(t, uint64(2), histogramCount(t, m.opDuration.WithLabelValues("postgres", "get_product")))
	require.Zero(t, counterValue(t, m.opErrors.WithLabelValues("postgres", "get_product", ErrorKindInfrastructure)))
	require.Zero(t, counterValue(t, m.opErrors.WithLabelValues("postgres", "get_product", ErrorKindIntegrity)))
}

func TestObserveStorageOp_ClassifiesErrors(t *testing.T) {
	m := NewStorageMetricsWithRegisterer(prometheus.NewRegistry())

	m.ObserveStorageOp("document", "put", time.Millisecond, errors.New("connection reset"))
	m.ObserveStorageOp("document", "put", time.Millisecond, fmt.Errorf("coupon SAVE10: %w", domain.ErrDuplicate))
	m.ObserveStorageOp("document", "put", time.Millisecond, fmt.Errorf("product: %w", domain.ErrReferenceNotFound))

	require.Equal(t, uint64(3), histogramCount(t, m.opDuration.WithLabelValues("document", "put")))
	require.Equal(t, 1.0, counterValue(t, m.opErrors.WithLabelValues("document", "put", ErrorKindInfrastructure)))
	require.Equal(t, 2.0, counterValue(t, m.opErrors.WithLabelValues("document", "put", ErrorKindIntegrity)))
}

func TestRecordNotProvisioned(t *testing.T) {
	m := NewStorageMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordNotProvisioned("pixel_events")
	m.RecordNotProvisioned("pixel_events")
	m.RecordNotProvisioned("coupons")

	require.Equal(t, 2.0, counterValue(t, m.notProvisioned.WithLabelValues("pixel_events")))
	require.Equal(t, 1.0, counterValue(t, m.notProvisioned.WithLabelValues("coupons")))
}

func TestRegisterCounter_PanicsOnTypeConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dc_conflicting_metric",
		Help: "Conflicting gauge",
	}))

	require.Panics(t, func() {
		registerCounter(reg, prometheus.CounterOpts{
			Name: "dc_conflicting_metric",
			Help: "Conflicting gauge",
		})
	})
}

func TestRegisterCounter_ReusesRegisteredCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := prometheus.CounterOpts{Name: "dc_reused_total", Help: "Reused counter"}

	first := registerCounter(reg, opts)
	second := registerCounter(reg, opts)
	first.Inc()
	second.Inc()

	require.Equal(t, 2.0, counterValue(t, first))
}

func TestRegisterGauge_PanicsOnTypeConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dc_conflicting_gauge",
		Help: "Conflicting counter",
	}))

	require.Panics(t, func() {
		registerGauge(reg, prometheus.GaugeOpts{
			Name: "dc_conflicting_gauge",
			Help: "Conflicting counter",
		})
	})
}
