// policy.go implements the policy engine: stateless severity/environment
// gates plus the stateful sampling, dedupe, and rate-limit controls.

package faultline

import (
	"math/rand"
	"sync"
	"time"
)

// RateLimitConfig bounds how many events may be delivered per rolling window.
type RateLimitConfig struct {
	// MaxEvents is the number of events admitted per window.
	MaxEvents int

	// Window is the rolling window length.
	Window time.Duration
}

// DedupeConfig controls fingerprint-based duplicate suppression.
type DedupeConfig struct {
	// Window is how long a fingerprint suppresses repeats after being seen.
	Window time.Duration
}

// Policy is the full gating configuration.
type Policy struct {
	// MinSeverity is the least severe level still reported. An event passes
	// when its severity is at least this severe.
	MinSeverity Severity

	// ReportHandled enables reporting of errors that were caught by calling
	// code. When false, handled events are dropped.
	ReportHandled bool

	// Environments is the allow-set of environment names. Empty means any.
	Environments []string

	// SampleRate is the probability in [0,1] that a gated event is kept.
	// Values >= 1 disable sampling.
	SampleRate float64

	RateLimit RateLimitConfig
	Dedupe    DedupeConfig
}

// DefaultPolicy returns production-safe defaults: report everything at
// warning or more severe, in any environment, including handled errors,
// with no sampling, 50 events per minute, and a 5 minute dedupe window.
func DefaultPolicy() Policy {
	return Policy{
		MinSeverity:   SeverityWarning,
		ReportHandled: true,
		SampleRate:    1.0,
		RateLimit:     RateLimitConfig{MaxEvents: 50, Window: time.Minute},
		Dedupe:        DedupeConfig{Window: 5 * time.Minute},
	}
}

// Decision is the outcome of evaluating an event against the policy.
type Decision int

const (
	// DecisionDeliver admits the event for immediate delivery.
	DecisionDeliver Decision = iota

	// DecisionDropEnvironment rejects: current environment not in the allow-set.
	DecisionDropEnvironment

	// DecisionDropSeverity rejects: below the minimum severity.
	DecisionDropSeverity

	// DecisionDropHandled rejects: handled errors are not reported.
	DecisionDropHandled

	// DecisionDropNotReportable rejects: the exception opted out of reporting.
	DecisionDropNotReportable

	// DecisionDropSampled rejects: lost the sampling draw. A hard drop, not
	// a retry candidate.
	DecisionDropSampled

	// DecisionDropDuplicate rejects: same primary fingerprint seen within
	// the dedupe window.
	DecisionDropDuplicate

	// DecisionRetryLater rejects: the rate limit window is exhausted. The
	// event should be persisted to the outbox for a later flush.
	DecisionRetryLater
)

// String names the decision for logging.
func (d Decision) String() string {
	switch d {
	case DecisionDeliver:
		return "deliver"
	case DecisionDropEnvironment:
		return "drop_environment"
	case DecisionDropSeverity:
		return "drop_severity"
	case DecisionDropHandled:
		return "drop_handled"
	case DecisionDropNotReportable:
		return "drop_not_reportable"
	case DecisionDropSampled:
		return "drop_sampled"
	case DecisionDropDuplicate:
		return "drop_duplicate"
	case DecisionRetryLater:
		return "retry_later"
	}
	return "unknown"
}

// dedupeIndexLimit is the size past which the dedupe index prunes stale
// entries inline, bounding memory without a background task.
const dedupeIndexLimit = 1024

// gatekeeper holds the policy plus its mutable runtime state. All state is
// guarded by mu; Admit never performs I/O, so the lock is never held across
// delivery.
type gatekeeper struct {
	mu     sync.Mutex
	policy Policy
	env    string

	now  func() time.Time
	rand func() float64

	// rate limiter state
	count       int
	windowStart time.Time

	// dedupe index: primary fingerprint -> last seen
	seen map[string]time.Time
}

func newGatekeeper(policy Policy, env string) *gatekeeper {
	return &gatekeeper{
		policy: policy,
		env:    env,
		now:    time.Now,
		rand:   rand.Float64,
		seen:   make(map[string]time.Time),
	}
}

// Admit evaluates the event against the stateless gates, then sampling,
// dedupe, and the rate limit, in that order.
func (g *gatekeeper) Admit(ev *Event) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !ev.Exception.Reportable {
		return DecisionDropNotReportable
	}
	if len(g.policy.Environments) > 0 && !contains(g.policy.Environments, g.env) {
		return DecisionDropEnvironment
	}
	// Lower ordinal = more severe, so passing means sev <= min.
	if ev.Exception.Severity > g.policy.MinSeverity {
		return DecisionDropSeverity
	}
	if ev.Handled && !g.policy.ReportHandled {
		return DecisionDropHandled
	}

	if g.policy.SampleRate < 1.0 && g.rand() >= g.policy.SampleRate {
		return DecisionDropSampled
	}

	now := g.now()

	if fp := ev.PrimaryFingerprint(); fp != "" && g.policy.Dedupe.Window > 0 {
		if last, ok := g.seen[fp]; ok && now.Sub(last) < g.policy.Dedupe.Window {
			return DecisionDropDuplicate
		}
		g.seen[fp] = now
		if len(g.seen) > dedupeIndexLimit {
			g.pruneLocked(now)
		}
	}

	if g.policy.RateLimit.MaxEvents > 0 && g.policy.RateLimit.Window > 0 {
		if now.Sub(g.windowStart) >= g.policy.RateLimit.Window {
			g.windowStart = now
			g.count = 0
		}
		if g.count >= g.policy.RateLimit.MaxEvents {
			// The window is not reset on rejection.
			return DecisionRetryLater
		}
		g.count++
	}

	return DecisionDeliver
}

// pruneLocked drops dedupe entries older than the window. Caller holds mu.
func (g *gatekeeper) pruneLocked(now time.Time) {
	for fp, last := range g.seen {
		if now.Sub(last) >= g.policy.Dedupe.Window {
			delete(g.seen, fp)
		}
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
