package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRelayMetrics_Counters(t *testing.T) {
	m := NewRelayMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordPublished()
	m.RecordPublished()
	m.RecordPublishFailed()
	m.RecordStatusUpdateFailed()

	require.Equal(t, 2.0, counterValue(t, m.published))
	require.Equal(t, 1.0, counterValue(t, m.failed))
	require.Equal(t, 1.0, counterValue(t, m.statusFailed))
}

func TestRelayMetrics_RecordBatch(t *testing.T) {
	m := NewRelayMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordBatch(7, 100*time.Millisecond)
	m.RecordBatch(3, 500*time.Millisecond)

	gauge := &dto.Metric{}
	require.NoError(t, m.lastBatchSize.Write(gauge))
	require.Equal(t, 3.0, gauge.GetGauge().GetValue())

	histogram := &dto.Metric{}
	require.NoError(t, m.batchDuration.Write(histogram))
	require.Equal(t, uint64(2), histogram.GetHistogram().GetSampleCount())
	require.InDelta(t, 0.6, histogram.GetHistogram().GetSampleSum(), 0.001)
}
