package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

func applicationFrom(ctx context.Context) (*newrelic.Application, bool) {
	nr, ok := ctx.Value(NewRelicContextKey{}).(*newrelic.Application)
	return nr, ok && nr != nil
}

// RecordCount records a custom count metric. It is a no-op without an
// application in ctx.
func RecordCount(ctx context.Context, metricName string, count uint64) {
	if nr, ok := applicationFrom(ctx); ok {
		nr.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records duration in fractional milliseconds.
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if nr, ok := applicationFrom(ctx); ok {
		nr.RecordCustomMetric(metricName, float64(duration)/float64(time.Millisecond))
	}
}
