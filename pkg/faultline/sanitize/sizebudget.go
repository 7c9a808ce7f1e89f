// sizebudget.go enforces a serialized-size ceiling on the payload.

package sanitize

import (
	"encoding/json"
	"sort"
)

// SizeBudgetConfig bounds the serialized payload size.
type SizeBudgetConfig struct {
	// MaxBytes is the serialized size ceiling.
	MaxBytes int

	// PinnedKeys are top-level keys redacted only as a last resort, after
	// every non-pinned key has been redacted.
	PinnedKeys []string
}

// DefaultSizeBudgetConfig pins the identity and exception fields.
func DefaultSizeBudgetConfig() SizeBudgetConfig {
	return SizeBudgetConfig{
		MaxBytes:   256 * 1024,
		PinnedKeys: []string{"id", "timestamp", "handled", "exception"},
	}
}

// SizeBudget iteratively redacts the largest top-level entries until the
// serialized payload fits the budget. Non-pinned keys go first, in
// descending approximate-size order; pinned keys are sacrificed only when
// nothing else remains.
type SizeBudget struct {
	maxBytes int
	pinned   map[string]bool
}

// NewSizeBudget builds a size-budget sanitizer.
func NewSizeBudget(cfg SizeBudgetConfig) *SizeBudget {
	pinned := make(map[string]bool, len(cfg.PinnedKeys))
	for _, k := range cfg.PinnedKeys {
		pinned[k] = true
	}
	return &SizeBudget{maxBytes: cfg.MaxBytes, pinned: pinned}
}

// Sanitize returns a new map whose serialization fits the budget, or the
// smallest achievable map when even full redaction cannot fit.
func (b *SizeBudget) Sanitize(data map[string]any) map[string]any {
	out := copyMap(data)
	if b.maxBytes <= 0 || fits(out, b.maxBytes) {
		return out
	}

	for _, key := range b.redactionOrder(out, false) {
		out[key] = SizeBudgetMarker
		if fits(out, b.maxBytes) {
			return out
		}
	}
	// Last resort: redact pinned keys too.
	for _, key := range b.redactionOrder(out, true) {
		out[key] = SizeBudgetMarker
		if fits(out, b.maxBytes) {
			return out
		}
	}
	return out
}

// redactionOrder lists candidate keys by descending approximate size,
// skipping already-redacted entries. Ties break lexicographically so the
// order is deterministic.
func (b *SizeBudget) redactionOrder(m map[string]any, pinned bool) []string {
	type cand struct {
		key  string
		size int
	}
	var cands []cand
	for k, v := range m {
		if b.pinned[k] != pinned {
			continue
		}
		if s, ok := v.(string); ok && s == SizeBudgetMarker {
			continue
		}
		cands = append(cands, cand{key: k, size: approxSize(v)})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].size != cands[j].size {
			return cands[i].size > cands[j].size
		}
		return cands[i].key < cands[j].key
	})
	keys := make([]string, len(cands))
	for i, c := range cands {
		keys[i] = c.key
	}
	return keys
}

// approxSize is a cheap size heuristic: character length for strings,
// element/entry count for containers, a small constant for scalars.
func approxSize(v any) int {
	switch val := v.(type) {
	case string:
		return len(val)
	case map[string]any:
		return len(val)
	case []any:
		return len(val)
	default:
		return 1
	}
}

func fits(m map[string]any, maxBytes int) bool {
	raw, err := json.Marshal(m)
	if err != nil {
		// Unserializable payloads cannot be measured; treat as over budget
		// so redaction keeps shrinking them.
		return false
	}
	return len(raw) <= maxBytes
}
