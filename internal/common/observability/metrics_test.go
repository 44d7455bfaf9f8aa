package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestObservability_RecordsInstruments(t *testing.T) {
	reader := metric.NewManualReader()
	obs, err := NewWithReader("intake-station-test", reader)
	require.NoError(t, err)
	defer obs.Shutdown()

	ctx := context.Background()
	obs.ObserveRequest(ctx, "create_registration", 201, 120*time.Millisecond)
	obs.ObserveRequest(ctx, "check_identifier", 0, 5*time.Millisecond)
	obs.RecordOutcome(ctx, "intake", "done")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
			if m.Name == "gateway.calls" {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				var total int64
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
				assert.Equal(t, int64(2), total)
			}
		}
	}
	assert.True(t, names["gateway.calls"])
	assert.True(t, names["gateway.duration"])
	assert.True(t, names["flow.outcomes"])
}
