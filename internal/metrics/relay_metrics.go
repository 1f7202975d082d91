package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics содержит метрики pixel relay.
type RelayMetrics struct {
	published     prometheus.Counter
	failed        prometheus.Counter
	statusFailed  prometheus.Counter
	batchDuration prometheus.Histogram
	lastBatchSize prometheus.Gauge
}

// NewRelayMetrics создаёт метрики relay в DefaultRegisterer.
func NewRelayMetrics() *RelayMetrics {
	return NewRelayMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewRelayMetricsWithRegisterer создаёт метрики relay в заданном registerer.
func NewRelayMetricsWithRegisterer(registerer prometheus.Registerer) *RelayMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &RelayMetrics{
		published: registerCounter(registerer, prometheus.CounterOpts{
			Name: "dc_pixel_events_published_total",
			Help: "Total number of pixel events published to Kafka",
		}),
		failed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "dc_pixel_events_publish_failed_total",
			Help: "Total number of pixel events that exhausted publish retries",
		}),
		statusFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "dc_pixel_events_status_update_failed_total",
			Help: "Total number of pixel events that could not be marked as sent or failed",
		}),
		batchDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "dc_pixel_relay_batch_duration_seconds",
			Help:    "Duration of a pixel relay batch in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		lastBatchSize: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "dc_pixel_relay_last_batch_size",
			Help: "Number of unsent pixel events fetched by the last batch",
		}),
	}
}

// RecordPublished увеличивает счётчик опубликованных событий.
func (m *RelayMetrics) RecordPublished() {
	m.published.Inc()
}

// RecordPublishFailed увеличивает счётчик событий, не опубликованных после всех попыток.
func (m *RelayMetrics) RecordPublishFailed() {
	m.failed.Inc()
}

// RecordStatusUpdateFailed увеличивает счётчик событий, статус которых не удалось сохранить.
func (m *RelayMetrics) RecordStatusUpdateFailed() {
	m.statusFailed.Inc()
}

// RecordBatch записывает размер и длительность батча.
func (m *RelayMetrics) RecordBatch(size int, duration time.Duration) {
	m.lastBatchSize.Set(float64(size))
	m.batchDuration.Observe(duration.Seconds())
}
