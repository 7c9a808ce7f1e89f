// Package async provides a fire-and-forget reporter decorator with a
// bounded queue. Send returns true immediately once the event is queued;
// callers do not observe delivery completion or failure. Oldest events are
// dropped when the queue is full.
package async

import (
	"context"
	"sync"
	"time"

	"github.com/perimetric/faultline/pkg/faultline"
)

// Option configures the async reporter.
type Option func(*config)

type config struct {
	queueSize int
	onDropped func(count int)
}

// WithQueueSize sets the maximum number of queued events (default: 1000).
func WithQueueSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithOnDropped sets a callback invoked when events are dropped due to
// queue overflow.
func WithOnDropped(fn func(count int)) Option {
	return func(c *config) { c.onDropped = fn }
}

// Reporter wraps an inner reporter with a bounded queue and a background
// delivery goroutine.
type Reporter struct {
	inner     faultline.Reporter
	queue     chan *faultline.Event
	done      chan struct{}
	closeOnce sync.Once
	closeMu   sync.Mutex
	closed    bool
	wg        sync.WaitGroup
	onDropped func(count int)
}

// New wraps a reporter so sends return immediately.
func New(inner faultline.Reporter, opts ...Option) *Reporter {
	cfg := &config{queueSize: 1000}
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Reporter{
		inner:     inner,
		queue:     make(chan *faultline.Event, cfg.queueSize),
		done:      make(chan struct{}),
		onDropped: cfg.onDropped,
	}

	r.wg.Add(1)
	go r.processLoop()

	return r
}

// processLoop drains the queue into the inner reporter. Delivery outcomes
// are discarded: this decorator is explicitly fire-and-forget.
func (r *Reporter) processLoop() {
	defer r.wg.Done()
	for {
		select {
		case event, ok := <-r.queue:
			if !ok {
				return
			}
			_ = r.inner.Send(context.Background(), event)
		case <-r.done:
			// Drain remaining events.
			for {
				select {
				case event, ok := <-r.queue:
					if !ok {
						return
					}
					_ = r.inner.Send(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Send enqueues the event and returns immediately. When the queue is full
// the oldest event is dropped to make room. Returns false only after Close.
func (r *Reporter) Send(ctx context.Context, event *faultline.Event) bool {
	r.closeMu.Lock()
	if r.closed {
		r.closeMu.Unlock()
		return false
	}
	r.closeMu.Unlock()

	select {
	case r.queue <- event:
		return true
	default:
		r.dropOldestAndEnqueue(event)
		return true
	}
}

func (r *Reporter) dropOldestAndEnqueue(event *faultline.Event) {
	select {
	case <-r.queue:
		if r.onDropped != nil {
			r.onDropped(1)
		}
	default:
		// Queue was emptied by the processor in the meantime.
	}

	select {
	case r.queue <- event:
	default:
		// Still full; the new event is the one dropped.
		if r.onDropped != nil {
			r.onDropped(1)
		}
	}
}

// Drain blocks until the queue is empty or the context expires.
func (r *Reporter) Drain(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if len(r.queue) == 0 {
				// Give the in-flight event a moment to finish.
				time.Sleep(10 * time.Millisecond)
				return nil
			}
		}
	}
}

// Close stops the background processor after draining queued events.
func (r *Reporter) Close() error {
	r.closeOnce.Do(func() {
		r.closeMu.Lock()
		r.closed = true
		r.closeMu.Unlock()

		close(r.done)
		r.wg.Wait()
		close(r.queue)
	})
	return nil
}
