// Package noop provides a reporter that accepts and discards every event.
// Useful for tests and for disabling delivery without rewiring a client.
package noop

import (
	"context"

	"github.com/perimetric/faultline/pkg/faultline"
)

type noopReporter struct{}

// New creates a reporter that succeeds without delivering anything.
func New() faultline.Reporter {
	return noopReporter{}
}

// Send discards the event and reports success.
func (noopReporter) Send(ctx context.Context, event *faultline.Event) bool {
	return true
}
