package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// Reporter forwards unexpected failures to an error tracker.
type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// NopReporter drops every report.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(context.Context, error, map[string]string) {}

// SentryReporter sends failures to Sentry.
type SentryReporter struct{}

// InitSentry configures the Sentry client. An empty DSN yields a NopReporter.
// The returned flush function should run before the process exits.
func InitSentry(dsn, environment string) (Reporter, func(), error) {
	if dsn == "" {
		return NopReporter{}, func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	}); err != nil {
		return NopReporter{}, func() {}, err
	}
	return SentryReporter{}, func() { sentry.Flush(2 * time.Second) }, nil
}

// Report implements Reporter.
func (SentryReporter) Report(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
	FromContext(ctx).Debug("reported error", zap.Error(err))
}
