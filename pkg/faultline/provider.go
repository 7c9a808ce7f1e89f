// provider.go defines the context provider contract and the caching
// decorator used for expensive collectors.

package faultline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Provider supplies a named map of diagnostic data for an event.
// Collect must never panic outward; an empty or nil map signals "no data".
type Provider interface {
	// Name is the namespacing key for this provider's data in the event context.
	Name() string

	// ManualOnly excludes the provider from automatic collection; it is
	// consulted only for user-initiated captures.
	ManualOnly() bool

	// Collect produces the diagnostic data. Implementations may block;
	// they should honor ctx cancellation.
	Collect(ctx context.Context) map[string]any
}

// Validator is an optional interface a Provider may implement to veto its
// own output. The default check accepts any non-empty map.
type Validator interface {
	Valid(data map[string]any) bool
}

// funcProvider adapts a collect function to the Provider interface.
type funcProvider struct {
	name       string
	manualOnly bool
	collect    func(ctx context.Context) map[string]any
}

// NewProvider builds a Provider from a collect function.
func NewProvider(name string, manualOnly bool, collect func(ctx context.Context) map[string]any) Provider {
	return &funcProvider{name: name, manualOnly: manualOnly, collect: collect}
}

func (p *funcProvider) Name() string     { return p.name }
func (p *funcProvider) ManualOnly() bool { return p.manualOnly }

func (p *funcProvider) Collect(ctx context.Context) map[string]any {
	return p.collect(ctx)
}

// safeCollect invokes the provider, converting a panic into an empty result.
// Collection failures contribute nothing; they never abort a capture.
func safeCollect(ctx context.Context, p Provider) (data map[string]any) {
	defer func() {
		if recover() != nil {
			data = nil
		}
	}()
	return p.Collect(ctx)
}

// validData applies the provider's own Validator when present, otherwise
// the default non-empty check.
func validData(p Provider, data map[string]any) bool {
	if v, ok := p.(Validator); ok {
		return v.Valid(data)
	}
	return len(data) > 0
}

// cachedProvider decorates a Provider with a TTL-gated cache cell and an
// in-flight deduplicator: concurrent collections for the same provider
// collapse into a single underlying fetch.
type cachedProvider struct {
	inner Provider
	ttl   time.Duration

	group singleflight.Group

	mu        sync.Mutex
	cached    map[string]any
	fetchedAt time.Time
}

// Cached wraps a provider so its data is fetched at most once per ttl, with
// concurrent in-flight fetches deduplicated. Panics in the inner provider
// yield an empty result and are not cached.
func Cached(inner Provider, ttl time.Duration) Provider {
	return &cachedProvider{inner: inner, ttl: ttl}
}

func (c *cachedProvider) Name() string     { return c.inner.Name() }
func (c *cachedProvider) ManualOnly() bool { return c.inner.ManualOnly() }

func (c *cachedProvider) Collect(ctx context.Context) map[string]any {
	c.mu.Lock()
	if c.cached != nil && time.Since(c.fetchedAt) < c.ttl {
		data := c.cached
		c.mu.Unlock()
		return data
	}
	c.mu.Unlock()

	result, _, _ := c.group.Do(c.inner.Name(), func() (any, error) {
		data := safeCollect(ctx, c.inner)
		if len(data) > 0 {
			c.mu.Lock()
			c.cached = data
			c.fetchedAt = time.Now()
			c.mu.Unlock()
		}
		return data, nil
	})

	data, _ := result.(map[string]any)
	return data
}
