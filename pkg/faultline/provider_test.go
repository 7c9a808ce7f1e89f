package faultline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewProvider(t *testing.T) {
	p := NewProvider("runtime", true, func(ctx context.Context) map[string]any {
		return map[string]any{"goroutines": 12}
	})
	if p.Name() != "runtime" {
		t.Errorf("Name() = %q, want runtime", p.Name())
	}
	if !p.ManualOnly() {
		t.Error("ManualOnly() = false, want true")
	}
	data := p.Collect(context.Background())
	if data["goroutines"] != 12 {
		t.Errorf("Collect() = %v", data)
	}
}

func TestSafeCollect_PanicYieldsNil(t *testing.T) {
	p := NewProvider("bad", false, func(ctx context.Context) map[string]any {
		panic("collector exploded")
	})
	if data := safeCollect(context.Background(), p); data != nil {
		t.Errorf("safeCollect() = %v, want nil", data)
	}
}

type vetoProvider struct{ Provider }

func (vetoProvider) Valid(data map[string]any) bool { return false }

func TestValidData(t *testing.T) {
	plain := NewProvider("plain", false, nil)
	if validData(plain, nil) {
		t.Error("empty data should be invalid by default")
	}
	if !validData(plain, map[string]any{"k": "v"}) {
		t.Error("non-empty data should be valid by default")
	}
	if validData(vetoProvider{plain}, map[string]any{"k": "v"}) {
		t.Error("a Validator veto must win over the default check")
	}
}

func TestCached_TTL(t *testing.T) {
	var calls atomic.Int64
	inner := NewProvider("host", false, func(ctx context.Context) map[string]any {
		calls.Add(1)
		return map[string]any{"hostname": "web-1"}
	})
	p := Cached(inner, 50*time.Millisecond)

	for i := 0; i < 5; i++ {
		data := p.Collect(context.Background())
		if data["hostname"] != "web-1" {
			t.Fatalf("Collect() = %v", data)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("inner called %d times within TTL, want 1", got)
	}

	time.Sleep(60 * time.Millisecond)
	p.Collect(context.Background())
	if got := calls.Load(); got != 2 {
		t.Errorf("inner called %d times after TTL expiry, want 2", got)
	}
}

func TestCached_EmptyResultNotCached(t *testing.T) {
	var calls atomic.Int64
	inner := NewProvider("flaky", false, func(ctx context.Context) map[string]any {
		if calls.Add(1) == 1 {
			return nil
		}
		return map[string]any{"ok": true}
	})
	p := Cached(inner, time.Minute)

	if data := p.Collect(context.Background()); data != nil {
		t.Fatalf("first Collect() = %v, want nil", data)
	}
	if data := p.Collect(context.Background()); data["ok"] != true {
		t.Errorf("second Collect() = %v, an empty result must not be cached", data)
	}
}

func TestCached_ConcurrentCollectsCollapse(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	inner := NewProvider("slow", false, func(ctx context.Context) map[string]any {
		calls.Add(1)
		<-release
		return map[string]any{"v": 1}
	})
	p := Cached(inner, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Collect(context.Background())
		}()
	}
	// Give the goroutines time to pile onto the in-flight fetch.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("inner called %d times concurrently, want 1", got)
	}
}

func TestCached_PanicNotCached(t *testing.T) {
	var calls atomic.Int64
	inner := NewProvider("crashy", false, func(ctx context.Context) map[string]any {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return map[string]any{"recovered": true}
	})
	p := Cached(inner, time.Minute)

	if data := p.Collect(context.Background()); data != nil {
		t.Fatalf("panicking Collect() = %v, want nil", data)
	}
	if data := p.Collect(context.Background()); data["recovered"] != true {
		t.Errorf("second Collect() = %v, a panic must not be cached", data)
	}
}
