// Package faultline provides privacy-safe, size-bounded error-event capture
// with policy gating and crash-durable delivery.
//
// faultline transforms a raised error plus ambient diagnostic context into a
// sanitized payload, decides whether and when to deliver it, and guarantees
// eventual delivery across process restarts and network failures via a
// durable outbox.
//
// # Core Components
//
// The library is organized around these concepts:
//
//   - Event: the canonical error occurrence with exception snapshot, context, and breadcrumbs
//   - Client: the orchestrator that collects context, sanitizes, gates, and delivers
//   - Reporter: destination for finalized events (console, file, webhook, multi, async)
//   - Policy: severity/environment gates plus sampling, rate limiting, and dedupe
//   - Outbox: durable at-least-once queue for events that failed immediate delivery
//
// Sanitization lives in the sanitize subpackage, wildcard path filtering in the
// filter subpackage, and outbox backends in the outbox subpackage.
//
// # Quick Start
//
//	client := faultline.New(
//	    faultline.WithReporter(console.New()),
//	    faultline.WithDefaultSanitizers(),
//	    faultline.WithOutbox(queue),
//	)
//	defer faultline.Recover(ctx, client)
//
//	client.Capture(ctx, faultline.ExceptionSnapshot{
//	    Kind:       faultline.KindStorage,
//	    DevMessage: err.Error(),
//	    Severity:   faultline.SeverityError,
//	}, true)
//
// # Design Principles
//
//   - Nothing here ever surfaces as a fault in the host: every boundary method
//     returns a result value instead of panicking
//   - Sanitizers are total functions: arbitrary input shapes never abort capture
//   - Losing an event is preferable to crashing the host; the outbox is best effort
//   - The sanitized payload, once attached, is authoritative and never re-derived
package faultline
