package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("org_id", "123"),
		attribute.String("player_id", "456"),
		attribute.String("outcome", "fulfilled"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("outcome"), attrs[0].Key)
}

func TestRecordFulfillmentExportsCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "sportsfest-test"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordFulfillment(ctx, "fulfilled")
	m.RecordFulfillment(ctx, "fulfilled")
	m.RecordTeamsCreated(ctx, 0)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var found bool
	for _, md := range rm.ScopeMetrics[0].Metrics {
		if md.Name != "sportsfest_fulfillments_total" {
			continue
		}
		sum, ok := md.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		assert.EqualValues(t, 2, sum.DataPoints[0].Value)
		found = true
	}
	assert.True(t, found)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordReconciliation(context.Background(), "fully_paid")
		m.RecordWarningsResolved(context.Background(), 3)
	})
}
