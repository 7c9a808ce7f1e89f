package faultline

import (
	"fmt"
	"testing"
	"time"
)

func reportableEvent(sev Severity, handled bool) *Event {
	return NewEvent(ExceptionSnapshot{
		Kind:       KindGeneric,
		DevMessage: "boom",
		Severity:   sev,
		Reportable: true,
	}, handled)
}

// fixedClock returns a controllable now() for gatekeeper tests.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time          { return c.now }
func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGate(p Policy, env string) (*gatekeeper, *fixedClock) {
	g := newGatekeeper(p, env)
	clock := &fixedClock{now: time.Unix(1700000000, 0)}
	g.now = clock.Now
	g.rand = func() float64 { return 0.0 }
	return g, clock
}

func TestGate_EnvironmentAllowSet(t *testing.T) {
	policy := DefaultPolicy()
	policy.Environments = []string{"production", "staging"}

	g, _ := newTestGate(policy, "development")
	if got := g.Admit(reportableEvent(SeverityError, false)); got != DecisionDropEnvironment {
		t.Errorf("Admit() = %v, want drop_environment", got)
	}

	g, _ = newTestGate(policy, "staging")
	if got := g.Admit(reportableEvent(SeverityError, false)); got != DecisionDeliver {
		t.Errorf("Admit() = %v, want deliver", got)
	}
}

func TestGate_EmptyEnvironmentSetAcceptsAll(t *testing.T) {
	g, _ := newTestGate(DefaultPolicy(), "anything")
	if got := g.Admit(reportableEvent(SeverityError, false)); got != DecisionDeliver {
		t.Errorf("Admit() = %v, want deliver", got)
	}
}

func TestGate_SeverityThreshold(t *testing.T) {
	policy := DefaultPolicy()
	policy.MinSeverity = SeverityError

	tests := []struct {
		sev  Severity
		want Decision
	}{
		{SeverityCritical, DecisionDeliver},
		{SeverityError, DecisionDeliver},
		{SeverityWarning, DecisionDropSeverity},
		{SeverityInfo, DecisionDropSeverity},
	}
	for _, tt := range tests {
		t.Run(tt.sev.String(), func(t *testing.T) {
			g, _ := newTestGate(policy, "")
			if got := g.Admit(reportableEvent(tt.sev, false)); got != tt.want {
				t.Errorf("Admit(%v) = %v, want %v", tt.sev, got, tt.want)
			}
		})
	}
}

func TestGate_HandledPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.ReportHandled = false

	g, _ := newTestGate(policy, "")
	if got := g.Admit(reportableEvent(SeverityError, true)); got != DecisionDropHandled {
		t.Errorf("Admit(handled) = %v, want drop_handled", got)
	}
	if got := g.Admit(reportableEvent(SeverityError, false)); got != DecisionDeliver {
		t.Errorf("Admit(unhandled) = %v, want deliver", got)
	}
}

func TestGate_NotReportable(t *testing.T) {
	g, _ := newTestGate(DefaultPolicy(), "")
	ev := NewEvent(ExceptionSnapshot{Severity: SeverityError}, false)
	if got := g.Admit(ev); got != DecisionDropNotReportable {
		t.Errorf("Admit() = %v, want drop_not_reportable", got)
	}
}

func TestGate_SamplingHardDrop(t *testing.T) {
	policy := DefaultPolicy()
	policy.SampleRate = 0.5

	g, _ := newTestGate(policy, "")
	g.rand = func() float64 { return 0.9 }
	if got := g.Admit(reportableEvent(SeverityError, false)); got != DecisionDropSampled {
		t.Errorf("Admit() = %v, want drop_sampled", got)
	}

	g.rand = func() float64 { return 0.1 }
	if got := g.Admit(reportableEvent(SeverityError, false)); got != DecisionDeliver {
		t.Errorf("Admit() = %v, want deliver", got)
	}
}

func TestGate_RateLimiterWindow(t *testing.T) {
	policy := DefaultPolicy()
	policy.RateLimit = RateLimitConfig{MaxEvents: 2, Window: time.Second}
	policy.Dedupe.Window = 0 // isolate the rate limiter

	g, clock := newTestGate(policy, "")

	decisions := make([]Decision, 3)
	for i := range decisions {
		decisions[i] = g.Admit(reportableEvent(SeverityError, false))
	}
	want := []Decision{DecisionDeliver, DecisionDeliver, DecisionRetryLater}
	for i := range want {
		if decisions[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i+1, decisions[i], want[i])
		}
	}

	// Rejection must not reset the window.
	clock.Advance(500 * time.Millisecond)
	if got := g.Admit(reportableEvent(SeverityError, false)); got != DecisionRetryLater {
		t.Errorf("mid-window call = %v, want retry_later", got)
	}

	clock.Advance(600 * time.Millisecond)
	if got := g.Admit(reportableEvent(SeverityError, false)); got != DecisionDeliver {
		t.Errorf("post-window call = %v, want deliver", got)
	}
}

func TestGate_DedupeWindow(t *testing.T) {
	policy := DefaultPolicy()
	policy.Dedupe.Window = time.Minute

	g, clock := newTestGate(policy, "")

	ev := reportableEvent(SeverityError, false)
	dup := reportableEvent(SeverityError, false)
	dup.Fingerprints = append([]string(nil), ev.Fingerprints...)

	if got := g.Admit(ev); got != DecisionDeliver {
		t.Fatalf("first event = %v, want deliver", got)
	}
	if got := g.Admit(dup); got != DecisionDropDuplicate {
		t.Errorf("duplicate within window = %v, want drop_duplicate", got)
	}

	clock.Advance(2 * time.Minute)
	if got := g.Admit(dup); got != DecisionDeliver {
		t.Errorf("duplicate after window = %v, want deliver", got)
	}
}

func TestGate_DedupeIndexSelfPrunes(t *testing.T) {
	policy := DefaultPolicy()
	policy.Dedupe.Window = time.Minute
	policy.RateLimit = RateLimitConfig{} // unconstrained

	g, clock := newTestGate(policy, "")

	for i := 0; i < dedupeIndexLimit; i++ {
		ev := reportableEvent(SeverityError, false)
		ev.Fingerprints = []string{fmt.Sprintf("stale-%d", i)}
		g.Admit(ev)
	}
	if len(g.seen) != dedupeIndexLimit {
		t.Fatalf("index size = %d, want %d", len(g.seen), dedupeIndexLimit)
	}

	// Once the old entries expire, crossing the threshold evicts them all.
	clock.Advance(2 * time.Minute)
	for i := 0; i < 2; i++ {
		ev := reportableEvent(SeverityError, false)
		ev.Fingerprints = []string{fmt.Sprintf("fresh-%d", i)}
		g.Admit(ev)
	}
	if len(g.seen) > 2 {
		t.Errorf("stale entries not pruned, size %d", len(g.seen))
	}
}

func TestGate_EvaluationOrder_SamplingBeforeDedupe(t *testing.T) {
	policy := DefaultPolicy()
	policy.SampleRate = 0.5
	policy.Dedupe.Window = time.Minute

	g, _ := newTestGate(policy, "")
	g.rand = func() float64 { return 0.9 } // always lose the draw

	ev := reportableEvent(SeverityError, false)
	if got := g.Admit(ev); got != DecisionDropSampled {
		t.Fatalf("Admit() = %v, want drop_sampled", got)
	}
	// A sampled-out event must not poison the dedupe index.
	if len(g.seen) != 0 {
		t.Errorf("sampled-out event recorded a fingerprint: %v", g.seen)
	}
}
