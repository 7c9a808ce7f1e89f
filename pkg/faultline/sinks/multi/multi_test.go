package multi

import (
	"context"
	"testing"

	"github.com/perimetric/faultline/pkg/faultline"
)

// stubSink records calls and answers with a scripted result.
type stubSink struct {
	ok        bool
	panicOn   bool
	sendCalls int
}

func (s *stubSink) Send(ctx context.Context, ev *faultline.Event) bool {
	s.sendCalls++
	if s.panicOn {
		panic("sink exploded")
	}
	return s.ok
}

// sharingSink also implements the share path.
type sharingSink struct {
	stubSink
	shareCalls int
}

func (s *sharingSink) Share(ctx context.Context, ev *faultline.Event) bool {
	s.shareCalls++
	return s.ok
}

func testEvent() *faultline.Event {
	return faultline.NewEvent(faultline.ExceptionSnapshot{
		Kind:       faultline.KindGeneric,
		DevMessage: "boom",
		Severity:   faultline.SeverityError,
		Reportable: true,
	}, true)
}

func TestSend_AnySuccess(t *testing.T) {
	tests := []struct {
		name  string
		sinks []*stubSink
		want  bool
	}{
		{"all succeed", []*stubSink{{ok: true}, {ok: true}}, true},
		{"one succeeds", []*stubSink{{ok: false}, {ok: true}}, true},
		{"all fail", []*stubSink{{ok: false}, {ok: false}}, false},
		{"no sinks", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sinks := make([]faultline.Reporter, len(tt.sinks))
			for i, s := range tt.sinks {
				sinks[i] = s
			}
			m := New(sinks...)
			if got := m.Send(context.Background(), testEvent()); got != tt.want {
				t.Errorf("Send() = %v, want %v", got, tt.want)
			}
			for i, s := range tt.sinks {
				if s.sendCalls != 1 {
					t.Errorf("sink %d called %d times, want 1", i, s.sendCalls)
				}
			}
		})
	}
}

func TestSend_PanickingSinkIsolated(t *testing.T) {
	bad := &stubSink{panicOn: true}
	good := &stubSink{ok: true}
	m := New(bad, good)

	if !m.Send(context.Background(), testEvent()) {
		t.Error("Send() = false, the healthy sink should carry the delivery")
	}
	if good.sendCalls != 1 {
		t.Errorf("healthy sink called %d times, want 1", good.sendCalls)
	}
}

func TestShare_PrefersSharePathFallsBackToSend(t *testing.T) {
	sharer := &sharingSink{stubSink: stubSink{ok: true}}
	plain := &stubSink{ok: false}

	m := New(sharer, plain).(faultline.Sharer)
	if !m.Share(context.Background(), testEvent()) {
		t.Error("Share() = false, want true")
	}
	if sharer.shareCalls != 1 || sharer.sendCalls != 0 {
		t.Errorf("sharer share=%d send=%d, want share path only", sharer.shareCalls, sharer.sendCalls)
	}
	if plain.sendCalls != 1 {
		t.Errorf("plain sink send=%d, want fallback to Send", plain.sendCalls)
	}
}
