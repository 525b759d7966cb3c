package services

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// captureError reports err to Sentry using the request's hub when one is
// attached. It is a no-op when Sentry was never initialized.
func captureError(ctx context.Context, err error, tags map[string]string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

// captureMessage reports a non-error event such as an integrity break
func captureMessage(ctx context.Context, msg string, level sentry.Level, extra map[string]any) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		scope.SetContext("audit", sentry.Context(extra))
		hub.CaptureMessage(msg)
	})
}
