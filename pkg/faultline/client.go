// client.go provides the orchestrator wiring context collection, transforms,
// sanitization, policy gating, delivery, and outbox fallback.

package faultline

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/perimetric/faultline/pkg/faultline/outbox"
	"github.com/perimetric/faultline/pkg/faultline/sanitize"
)

// Transform is a hook applied to an event before sanitization. It must not
// mutate its input; it returns a (possibly copied) event, or nil to drop it.
type Transform func(event *Event) *Event

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	reporter        Reporter
	queue           outbox.Queue
	policy          Policy
	environment     string
	chain           sanitize.Chain
	transforms      []Transform
	providers       []Provider
	logger          zerolog.Logger
	breadcrumbLimit int
}

// WithReporter sets the delivery target. Compose multiple sinks with the
// sinks/multi package.
func WithReporter(r Reporter) Option {
	return func(c *clientConfig) { c.reporter = r }
}

// WithOutbox sets the durable queue used when delivery fails or the rate
// limit defers an event. Without one, such events are dropped.
func WithOutbox(q outbox.Queue) Option {
	return func(c *clientConfig) { c.queue = q }
}

// WithPolicy sets the gating policy.
func WithPolicy(p Policy) Option {
	return func(c *clientConfig) { c.policy = p }
}

// WithEnvironment sets the environment name checked against the policy's
// allow-set.
func WithEnvironment(env string) Option {
	return func(c *clientConfig) { c.environment = env }
}

// WithSanitizers sets the sanitizer chain, replacing any previous one.
func WithSanitizers(chain sanitize.Chain) Option {
	return func(c *clientConfig) { c.chain = chain }
}

// WithDefaultSanitizers enables the production-safe sanitizer chain.
func WithDefaultSanitizers() Option {
	return func(c *clientConfig) { c.chain = sanitize.DefaultChain() }
}

// WithTransform appends an event transform hook. Hooks run in the order
// added, before sanitization.
func WithTransform(t Transform) Option {
	return func(c *clientConfig) { c.transforms = append(c.transforms, t) }
}

// WithProvider registers a context provider.
func WithProvider(p Provider) Option {
	return func(c *clientConfig) { c.providers = append(c.providers, p) }
}

// WithLogger sets the diagnostic logger. Default: no logging.
func WithLogger(l zerolog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// WithBreadcrumbLimit sets the breadcrumb ring capacity.
func WithBreadcrumbLimit(n int) Option {
	return func(c *clientConfig) { c.breadcrumbLimit = n }
}

// Client processes events end to end: collect context, build the event,
// apply transforms and sanitizers, evaluate policy, deliver or enqueue.
// A Client is safe for concurrent use. Construct one per host application;
// there is no process-wide singleton.
type Client struct {
	reporter   Reporter
	queue      outbox.Queue
	gate       *gatekeeper
	chain      sanitize.Chain
	transforms []Transform
	providers  []Provider
	crumbs     *breadcrumbRing
	log        zerolog.Logger
}

// New creates a Client. Without a reporter, events that pass the gate are
// routed straight to the outbox (or dropped when there is none).
func New(opts ...Option) *Client {
	cfg := &clientConfig{
		policy: DefaultPolicy(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{
		reporter:   cfg.reporter,
		queue:      cfg.queue,
		gate:       newGatekeeper(cfg.policy, cfg.environment),
		chain:      cfg.chain,
		transforms: cfg.transforms,
		providers:  cfg.providers,
		crumbs:     newBreadcrumbRing(cfg.breadcrumbLimit),
		log:        cfg.logger,
	}
}

// AddBreadcrumb records application activity onto the bounded trail; the
// trail is attached to every subsequent event.
func (c *Client) AddBreadcrumb(message string, data map[string]any) {
	c.crumbs.Add(message, data)
}

// Capture processes one exception through the full pipeline. It reports
// whether the event was delivered or durably queued; false means the event
// was gated out, dropped, or lost. Capture never panics and never returns an
// error to the host.
func (c *Client) Capture(ctx context.Context, ex ExceptionSnapshot, handled bool) bool {
	return c.process(ctx, ex, handled, false)
}

// CaptureError is a convenience wrapper building a reportable snapshot from
// a plain error.
func (c *Client) CaptureError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	return c.Capture(ctx, ExceptionSnapshot{
		Kind:       KindGeneric,
		DevMessage: err.Error(),
		Severity:   SeverityError,
		Reportable: true,
	}, true)
}

// CaptureBackground captures in a detached goroutine. The caller observes
// neither delivery completion nor failure.
func (c *Client) CaptureBackground(ctx context.Context, ex ExceptionSnapshot, handled bool) {
	go func() {
		defer func() { _ = recover() }()
		c.process(context.WithoutCancel(ctx), ex, handled, false)
	}()
}

// Share performs a user-initiated delivery: manual-only providers are
// consulted, and reporters implementing Sharer use their share path. Policy
// gating still applies.
func (c *Client) Share(ctx context.Context, ex ExceptionSnapshot) bool {
	return c.process(ctx, ex, true, true)
}

func (c *Client) process(ctx context.Context, ex ExceptionSnapshot, handled, manual bool) (accepted bool) {
	// Nothing from the pipeline may surface as a fault in the host.
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn().Interface("panic", r).Msg("capture pipeline panicked")
			accepted = false
		}
	}()

	ev := NewEvent(ex, handled)
	ev.Breadcrumbs = c.crumbs.Snapshot()
	ev.Context = c.collectContext(ctx, manual)

	for _, transform := range c.transforms {
		ev = transform(ev)
		if ev == nil {
			c.log.Debug().Msg("event dropped by transform")
			return false
		}
	}

	if c.chain != nil {
		ev = ev.WithPayload(c.chain.Sanitize(ev.Payload()))
	}

	decision := c.gate.Admit(ev)
	switch decision {
	case DecisionDeliver:
		// Delivery happens outside the policy lock.
		if c.deliver(ctx, ev, manual) {
			return true
		}
		c.log.Warn().Str("event_id", ev.ID).Msg("delivery failed, persisting to outbox")
		return c.enqueue(ev)
	case DecisionRetryLater:
		c.log.Debug().Str("event_id", ev.ID).Msg("rate limited, persisting to outbox")
		return c.enqueue(ev)
	default:
		c.log.Debug().
			Str("event_id", ev.ID).
			Str("decision", decision.String()).
			Msg("event gated out")
		return false
	}
}

// collectContext runs every eligible provider concurrently and gathers the
// valid results. Provider panics and empty results contribute nothing.
func (c *Client) collectContext(ctx context.Context, manual bool) map[string]map[string]any {
	eligible := make([]Provider, 0, len(c.providers))
	for _, p := range c.providers {
		if p.ManualOnly() && !manual {
			continue
		}
		eligible = append(eligible, p)
	}
	if len(eligible) == 0 {
		return nil
	}

	results := make([]map[string]any, len(eligible))
	var wg sync.WaitGroup
	for i, p := range eligible {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			results[i] = safeCollect(ctx, p)
		}(i, p)
	}
	wg.Wait()

	collected := make(map[string]map[string]any, len(eligible))
	for i, p := range eligible {
		if validData(p, results[i]) {
			collected[p.Name()] = results[i]
		}
	}
	if len(collected) == 0 {
		return nil
	}
	return collected
}

// deliver routes the event through the reporter, preferring the share path
// for user-initiated captures.
func (c *Client) deliver(ctx context.Context, ev *Event, manual bool) bool {
	if c.reporter == nil {
		return false
	}
	if manual {
		if sharer, ok := c.reporter.(Sharer); ok {
			return sharer.Share(ctx, ev)
		}
	}
	return c.reporter.Send(ctx, ev)
}

// enqueue persists the event's sanitized payload, best effort. Losing an
// event is preferable to crashing the host.
func (c *Client) enqueue(ev *Event) bool {
	if c.queue == nil {
		return false
	}
	if err := c.queue.Enqueue(ev.ID, ev.Payload()); err != nil {
		c.log.Warn().Err(err).Str("event_id", ev.ID).Msg("outbox enqueue failed, event lost")
		return false
	}
	return true
}

// Flush replays pending outbox entries through the reporter, acknowledging
// each successful delivery. It returns the number of entries still pending.
func (c *Client) Flush(ctx context.Context) (int, error) {
	if c.queue == nil {
		return 0, nil
	}
	remaining, err := outbox.Flush(ctx, c.queue, func(ctx context.Context, entry outbox.Entry) bool {
		if c.reporter == nil {
			return false
		}
		replay := &Event{ID: entry.ID, SanitizedPayload: entry.Payload}
		return c.reporter.Send(ctx, replay)
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("outbox flush reported storage errors")
	}
	return remaining, err
}
