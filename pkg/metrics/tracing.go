package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

const methodDurationPrefix = "Method/"

// TraceMethodCall starts a segment named "<struct> <method>" in the
// transaction carried by ctx. It returns nil when ctx has no transaction, and
// every MethodTracer method is safe to call on nil.
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		ctx:   ctx,
		name:  structOrPackageName + "/" + methodName,
		start: time.Now(),
		txn:   txn,
		seg:   txn.StartSegment(structOrPackageName + " " + methodName),
	}
}

// MethodTracer is one traced method call.
type MethodTracer struct {
	ctx   context.Context
	name  string
	start time.Time
	txn   *newrelic.Transaction
	seg   *newrelic.Segment
}

func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}
	t.seg.AddAttribute(key, value)
}

func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	if t == nil {
		return
	}
	for key, value := range attributes {
		t.seg.AddAttribute(key, value)
	}
}

// OnError reports err on the enclosing transaction. nil is ignored.
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}
	t.txn.NoticeError(err)
}

// End closes the segment and records the call's duration as
// Method/<struct>/<method>.
func (t *MethodTracer) End() {
	if t == nil {
		return
	}
	t.seg.End()
	RecordDuration(t.ctx, methodDurationPrefix+t.name, time.Since(t.start))
}

// NewGoroutineContext returns a context for use on a new goroutine. When ctx
// carries a transaction it is forked with NewGoroutine, otherwise ctx is
// returned as is.
func NewGoroutineContext(ctx context.Context) context.Context {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return ctx
	}
	return newrelic.NewContext(ctx, txn.NewGoroutine())
}
