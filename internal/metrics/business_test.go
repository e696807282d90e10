package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine matches a sample by name, a partial label pattern and its value.
// The Prometheus exporter adds otel_scope labels, hence the regex.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func TestBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("storefront")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "storefront")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "orders", "place_order", StatusSuccess)
	bm.RecordOperation(ctx, "orders", "place_order", StatusSuccess)
	bm.RecordOperation(ctx, "orders", "place_order", StatusError)
	bm.RecordOperation(ctx, "inventory", "decrement_stock", StatusSuccess)
	bm.RecordDuration(ctx, "orders", "place_order", 40*time.Millisecond, StatusSuccess)
	bm.RecordDuration(ctx, "orders", "place_order", 60*time.Millisecond, StatusSuccess)
	bm.RecordCompensation(ctx, StatusSuccess)
	bm.RecordCompensation(ctx, StatusError)
	bm.RecordCompensation(ctx, StatusError)

	output := scrape(t, provider)

	assertMetricLine(t, output, `storefront_operations_total`,
		`domain="orders".*operation="place_order".*status="success"`, `2`)
	assertMetricLine(t, output, `storefront_operations_total`,
		`domain="orders".*operation="place_order".*status="error"`, `1`)
	assertMetricLine(t, output, `storefront_operations_total`,
		`domain="inventory".*operation="decrement_stock".*status="success"`, `1`)
	assertMetricLine(t, output, `storefront_operation_duration_seconds_count`,
		`domain="orders".*operation="place_order".*status="success"`, `2`)
	assertMetricLine(t, output, `storefront_saga_compensations_total`, `status="error"`, `2`)
	assertMetricLine(t, output, `storefront_saga_compensations_total`, `status="success"`, `1`)
}

func TestObserve(t *testing.T) {
	provider, err := NewProvider("storefront")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "observe")
	require.NoError(t, err)

	start := time.Now()
	Observe(context.Background(), bm, "outbox", "publish", start, nil)
	Observe(context.Background(), bm, "outbox", "publish", start, assert.AnError)

	output := scrape(t, provider)
	assertMetricLine(t, output, `observe_operations_total`,
		`domain="outbox".*operation="publish".*status="success"`, `1`)
	assertMetricLine(t, output, `observe_operations_total`,
		`domain="outbox".*operation="publish".*status="error"`, `1`)
	assertMetricLine(t, output, `observe_operation_duration_seconds_count`,
		`domain="outbox".*operation="publish".*status="error"`, `1`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusSuccess, StatusFor(nil))
	assert.Equal(t, StatusError, StatusFor(assert.AnError))
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()
	assert.IsType(t, &NoOpBusinessMetrics{}, bm)

	assert.NotPanics(t, func() {
		bm.RecordOperation(context.Background(), "orders", "place_order", StatusSuccess)
		bm.RecordDuration(context.Background(), "orders", "place_order", time.Second, StatusError)
		bm.RecordCompensation(context.Background(), StatusError)
		Observe(context.Background(), bm, "orders", "get_order", time.Now(), nil)
	})
}
