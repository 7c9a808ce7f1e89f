// Package multi provides a reporter that fans out to multiple sinks with
// any-success semantics: delivery succeeds when at least one sink succeeds,
// and one sink's failure (or panic) never aborts the others.
package multi

import (
	"context"

	"github.com/perimetric/faultline/pkg/faultline"
)

// multiReporter fans out to an ordered list of sinks.
type multiReporter struct {
	sinks []faultline.Reporter
}

// New creates a reporter that sends to every sink in order. Order matters
// only for side effects; a console sink typically goes before a network one.
func New(sinks ...faultline.Reporter) faultline.Reporter {
	return &multiReporter{sinks: sinks}
}

// Send delivers to all sinks sequentially and reports whether any succeeded.
func (m *multiReporter) Send(ctx context.Context, event *faultline.Event) bool {
	ok := false
	for _, sink := range m.sinks {
		if guard(func() bool { return sink.Send(ctx, event) }) {
			ok = true
		}
	}
	return ok
}

// Share delivers through each sink's share path when it has one, falling
// back to Send otherwise. Any-success, same as Send.
func (m *multiReporter) Share(ctx context.Context, event *faultline.Event) bool {
	ok := false
	for _, sink := range m.sinks {
		sink := sink
		if guard(func() bool {
			if sharer, isSharer := sink.(faultline.Sharer); isSharer {
				return sharer.Share(ctx, event)
			}
			return sink.Send(ctx, event)
		}) {
			ok = true
		}
	}
	return ok
}

// guard isolates one sink call: a panic counts as failure.
func guard(send func() bool) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return send()
}
