package metrics

import (
	"context"
)

const (
	ReconcileMismatchEventName  = "ReconcileMismatch"
	DistributorUpdatedEventName = "DistributorUpdated"
)

// RecordEvent records a custom event. It is a no-op without an application in
// ctx.
func RecordEvent(ctx context.Context, eventName string, attributes map[string]interface{}) {
	if nr, ok := applicationFrom(ctx); ok {
		nr.RecordCustomEvent(eventName, attributes)
	}
}
