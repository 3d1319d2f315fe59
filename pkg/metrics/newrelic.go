package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
)

// NewRelicContextKey holds the *newrelic.Application in a context.
type NewRelicContextKey struct{}

// NewApplication connects to New Relic. Without a license key it returns a
// nil application, which every helper in this package treats as disabled.
func NewApplication(appName, licenseKey string) (*newrelic.Application, error) {
	if len(licenseKey) == 0 {
		return nil, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(appName),
		newrelic.ConfigLicense(licenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to new relic")
	}
	return app, nil
}

// StartTransaction begins a transaction named after the command being run
// and attaches it, and app, to ctx. The returned func ends it.
func StartTransaction(ctx context.Context, app *newrelic.Application, name string) (context.Context, func(err error)) {
	if app == nil {
		return ctx, func(error) {}
	}

	txn := app.StartTransaction(name)
	ctx = newrelic.NewContext(ctx, txn)
	ctx = context.WithValue(ctx, NewRelicContextKey{}, app)

	return ctx, func(err error) {
		if err != nil {
			txn.NoticeError(err)
		}
		txn.End()
	}
}
