// sink.go defines the Reporter contract for event delivery targets.

package faultline

import "context"

// Reporter is the destination for finalized events.
// Implementations must be safe for concurrent use and must never panic
// outward: failure is reported via the boolean, not an error or panic.
type Reporter interface {
	// Send attempts delivery of one event and reports success.
	Send(ctx context.Context, event *Event) bool
}

// Sharer is an optional interface for reporters that support user-initiated
// delivery. Reporters that do not implement it are treated as unsupported
// for sharing.
type Sharer interface {
	// Share attempts a user-initiated delivery and reports success.
	Share(ctx context.Context, event *Event) bool
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, event *Event) bool

// Send calls f.
func (f ReporterFunc) Send(ctx context.Context, event *Event) bool {
	return f(ctx, event)
}
