// breadcrumbs.go implements the bounded breadcrumb trail.

package faultline

import (
	"sync"
	"time"
)

// DefaultBreadcrumbLimit is the ring capacity used when none is configured.
const DefaultBreadcrumbLimit = 30

// breadcrumbRing is a fixed-capacity ring buffer of breadcrumbs. When full,
// the oldest entry is evicted. Safe for concurrent use.
type breadcrumbRing struct {
	mu    sync.Mutex
	buf   []Breadcrumb
	start int
	size  int
}

func newBreadcrumbRing(capacity int) *breadcrumbRing {
	if capacity <= 0 {
		capacity = DefaultBreadcrumbLimit
	}
	return &breadcrumbRing{buf: make([]Breadcrumb, capacity)}
}

// Add appends a breadcrumb, evicting the oldest entry when full.
func (r *breadcrumbRing) Add(message string, data map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := (r.start + r.size) % len(r.buf)
	r.buf[idx] = Breadcrumb{Timestamp: time.Now().UTC(), Message: message, Data: data}
	if r.size < len(r.buf) {
		r.size++
	} else {
		r.start = (r.start + 1) % len(r.buf)
	}
}

// Snapshot returns the current entries, oldest first.
func (r *breadcrumbRing) Snapshot() []Breadcrumb {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Breadcrumb, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
