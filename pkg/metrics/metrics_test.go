package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabled(t *testing.T) {
	app, err := NewApplication("test", "")
	require.NoError(t, err)
	assert.Nil(t, app)

	ctx, end := StartTransaction(context.Background(), app, "cmd")
	defer end(nil)

	// All helpers are no-ops without an application.
	tracer := TraceMethodCall(ctx, "struct", "Method")
	assert.Nil(t, tracer)
	tracer.AddAttribute("k", "v")
	tracer.AddAttributes(map[string]interface{}{"a": 1})
	tracer.OnError(errors.New("ignored"))
	tracer.End()

	RecordCount(ctx, "count", 1)
	RecordDuration(ctx, "duration", time.Second)
	RecordEvent(ctx, "event", map[string]interface{}{"k": "v"})

	assert.Equal(t, ctx, NewGoroutineContext(ctx))
}

func TestNewGoroutineContext(t *testing.T) {
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName("test"),
		newrelic.ConfigLicense(strings.Repeat("0", 40)),
		newrelic.ConfigEnabled(false),
	)
	require.NoError(t, err)

	ctx, end := StartTransaction(context.Background(), app, "cmd")
	defer end(nil)

	parent := newrelic.FromContext(ctx)
	require.NotNil(t, parent)

	forked := newrelic.FromContext(NewGoroutineContext(ctx))
	require.NotNil(t, forked)
	assert.True(t, parent != forked)
}

func TestForwardedMessage(t *testing.T) {
	entry := logrus.NewEntry(logrus.New())
	entry.Message = "hello"
	assert.Equal(t, "hello", forwardedMessage(entry))

	entry = entry.WithError(errors.New("boom")).WithField("batch", 2)
	entry.Message = "failed"
	assert.Equal(t, `message="failed", error="boom", data={"batch":2}`, forwardedMessage(entry))
}
