// Package outbox provides the durable, at-least-once delivery queue for
// events that failed immediate delivery.
//
// A queue holds one record per pending event, keyed by event id. Records
// carry the already-sanitized payload, so a flushed record means exactly
// what a live send would have transmitted. Enqueue is idempotent per id,
// Ack tolerates missing records, and corrupt records are deleted during
// listing so a poison record can never block the queue.
package outbox

import (
	"context"

	"go.uber.org/multierr"
)

// Entry is one pending record.
type Entry struct {
	// ID is the event id the record is keyed by.
	ID string

	// Payload is the sanitized event payload as enqueued.
	Payload map[string]any
}

// Queue is a durable pending-event store. Implementations must be safe for
// concurrent callers.
type Queue interface {
	// Enqueue persists the payload under the event id. Retried calls with
	// the same id are idempotent. Storage errors are returned, never
	// panicked; callers may treat durability as best effort.
	Enqueue(id string, payload map[string]any) error

	// Pending lists all records in id order (which follows creation order
	// given time-ordered ids). Records that fail to parse are deleted and
	// never surfaced.
	Pending() ([]Entry, error)

	// Ack deletes the record for a delivered event. A missing record is
	// not an error.
	Ack(id string) error
}

// Flush attempts delivery of every pending entry in order, acking each
// success and leaving failures for a future flush. It returns the number of
// entries still pending and any storage errors encountered, aggregated.
func Flush(ctx context.Context, q Queue, send func(ctx context.Context, e Entry) bool) (int, error) {
	entries, err := q.Pending()
	if err != nil {
		return 0, err
	}

	remaining := 0
	var errs error
	for _, entry := range entries {
		if ctx.Err() != nil {
			remaining++
			continue
		}
		if !send(ctx, entry) {
			remaining++
			continue
		}
		if ackErr := q.Ack(entry.ID); ackErr != nil {
			errs = multierr.Append(errs, ackErr)
		}
	}
	return remaining, errs
}
