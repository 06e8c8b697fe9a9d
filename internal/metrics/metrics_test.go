package metrics_test

import (
	"testing"

	"github.com/cwrk-planet/meeting-service/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordSignalBoundsLabels(t *testing.T) {
	offer := testutil.ToFloat64(metrics.SignalsSentTotal.WithLabelValues("offer"))
	other := testutil.ToFloat64(metrics.SignalsSentTotal.WithLabelValues("other"))

	metrics.RecordSignal("offer")
	metrics.RecordSignal("x-custom-1")
	metrics.RecordSignal("x-custom-2")

	require.InDelta(t, offer+1, testutil.ToFloat64(metrics.SignalsSentTotal.WithLabelValues("offer")), 0)
	require.InDelta(t, other+2, testutil.ToFloat64(metrics.SignalsSentTotal.WithLabelValues("other")), 0)
}

func TestRecordPrunedIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(metrics.SignalsPrunedTotal)

	metrics.RecordPruned(0)
	metrics.RecordPruned(3)

	require.InDelta(t, before+3, testutil.ToFloat64(metrics.SignalsPrunedTotal), 0)
}
