// Package sanitize implements the ordered, non-mutating transform pipeline
// applied to event payloads before delivery: key/content masking, regex
// rewriting, depth pruning, truncation, and size-budget enforcement.
//
// Every sanitizer is a total function over arbitrary input shapes: malformed
// or unexpected values degrade to stringification, never to a panic. No
// sanitizer mutates its input; each stage builds new containers.
package sanitize

import "fmt"

// Redaction and truncation markers. Kept short and grep-able.
const (
	RedactedMarker   = "[REDACTED]"
	TruncatedMarker  = "...[TRUNCATED]"
	DepthMarker      = "[REDACTED:MAX_DEPTH]"
	SizeBudgetMarker = "[REDACTED:SIZE_BUDGET]"
)

// Sanitizer transforms a nested JSON-like map into a new map.
type Sanitizer interface {
	Sanitize(data map[string]any) map[string]any
}

// Chain applies sanitizers strictly in order, feeding each stage's output to
// the next.
type Chain []Sanitizer

// Sanitize runs the chain. A nil input is treated as an empty map. A nil
// chain is the identity (modulo copying).
func (c Chain) Sanitize(data map[string]any) map[string]any {
	out := copyMap(data)
	for _, s := range c {
		out = s.Sanitize(out)
		if out == nil {
			out = map[string]any{}
		}
	}
	return out
}

// DefaultChain returns the production-safe pipeline: sensitive key and
// content masking, depth pruning, truncation, and a size budget, in that
// order.
func DefaultChain() Chain {
	return Chain{
		NewMasker(DefaultMaskerConfig()),
		NewMaxDepth(DefaultMaxDepth),
		NewTruncation(DefaultTruncationConfig()),
		NewSizeBudget(DefaultSizeBudgetConfig()),
	}
}

// normalizeValue coerces unexpected Go values into the JSON-like domain the
// sanitizers operate on. Scalars pass through; anything else degrades to its
// string form.
func normalizeValue(v any) any {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		map[string]any, []any:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// copyMap deep-copies a JSON-like map, normalizing foreign values on the way.
func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := normalizeValue(v).(type) {
	case map[string]any:
		return copyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = copyValue(elem)
		}
		return out
	default:
		return val
	}
}
