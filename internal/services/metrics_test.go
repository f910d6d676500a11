package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsHubHistory(t *testing.T) {
	t.Parallel()
	hub := NewMetricsHub()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < metricsHistorySize+5; i++ {
		hub.Broadcast(MetricSample{CapturedAt: base.Add(time.Duration(i) * time.Second)})
	}

	all := hub.Recent(0)
	require.Len(t, all, metricsHistorySize)
	require.Equal(t, base.Add(5*time.Second), all[0].CapturedAt)

	last := hub.Recent(3)
	require.Len(t, last, 3)
	require.Equal(t, base.Add(time.Duration(metricsHistorySize+4)*time.Second), last[2].CapturedAt)
}

func TestCaptureMetrics(t *testing.T) {
	t.Parallel()
	sample := CaptureMetrics(t.TempDir())
	require.False(t, sample.CapturedAt.IsZero())
	require.GreaterOrEqual(t, sample.SystemCpuLoad, 0.0)
}
