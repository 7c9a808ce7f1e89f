// limits.go implements the regex rewrite, depth pruning, and truncation
// sanitizers.

package sanitize

import (
	"fmt"
	"regexp"
	"sort"
)

// RewriteRule is one ordered pattern -> replacement rule.
type RewriteRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Rewriter applies an ordered set of regex rules to every string leaf.
type Rewriter struct {
	rules []RewriteRule
}

// NewRewriter builds a regex rewrite sanitizer. Rules run in the order given.
func NewRewriter(rules ...RewriteRule) *Rewriter {
	return &Rewriter{rules: rules}
}

// Sanitize returns a new map with every string leaf rewritten.
func (r *Rewriter) Sanitize(data map[string]any) map[string]any {
	out, _ := r.rewrite(data).(map[string]any)
	if out == nil {
		return map[string]any{}
	}
	return out
}

func (r *Rewriter) rewrite(v any) any {
	switch val := normalizeValue(v).(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = r.rewrite(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = r.rewrite(elem)
		}
		return out
	case string:
		s := val
		for _, rule := range r.rules {
			s = rule.Pattern.ReplaceAllString(s, rule.Replacement)
		}
		return s
	default:
		return val
	}
}

// DefaultMaxDepth is the nesting depth beyond which subtrees are redacted.
const DefaultMaxDepth = 8

// MaxDepth replaces any subtree nested deeper than the limit with a marker.
type MaxDepth struct {
	limit int
}

// NewMaxDepth builds a depth-limiting sanitizer. Limits <= 0 use the default.
func NewMaxDepth(limit int) *MaxDepth {
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	return &MaxDepth{limit: limit}
}

// Sanitize returns a new map with over-deep subtrees replaced by DepthMarker.
func (d *MaxDepth) Sanitize(data map[string]any) map[string]any {
	out, _ := d.prune(data, 0).(map[string]any)
	if out == nil {
		return map[string]any{}
	}
	return out
}

func (d *MaxDepth) prune(v any, depth int) any {
	switch val := normalizeValue(v).(type) {
	case map[string]any:
		if depth >= d.limit {
			return DepthMarker
		}
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = d.prune(child, depth+1)
		}
		return out
	case []any:
		if depth >= d.limit {
			return DepthMarker
		}
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = d.prune(elem, depth+1)
		}
		return out
	default:
		return val
	}
}

// TruncationConfig caps string lengths, list lengths, and map entry counts.
type TruncationConfig struct {
	MaxStringLen  int
	MaxListLen    int
	MaxMapEntries int
}

// DefaultTruncationConfig returns the production caps.
func DefaultTruncationConfig() TruncationConfig {
	return TruncationConfig{
		MaxStringLen:  4096,
		MaxListLen:    100,
		MaxMapEntries: 100,
	}
}

// truncatedKey is the synthetic entry added to maps that lost entries.
const truncatedKey = "__truncated__"

// Truncation enforces the configured caps. Cut strings gain a trailing
// marker, cut lists a summary element, cut maps a synthetic marker entry.
type Truncation struct {
	cfg TruncationConfig
}

// NewTruncation builds a truncation sanitizer.
func NewTruncation(cfg TruncationConfig) *Truncation {
	return &Truncation{cfg: cfg}
}

// Sanitize returns a new map with all caps enforced recursively.
func (t *Truncation) Sanitize(data map[string]any) map[string]any {
	out, _ := t.truncate(data).(map[string]any)
	if out == nil {
		return map[string]any{}
	}
	return out
}

func (t *Truncation) truncate(v any) any {
	switch val := normalizeValue(v).(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		// Map iteration order is randomized; sort so "first N entries" is
		// deterministic.
		sort.Strings(keys)

		kept := keys
		omitted := 0
		if t.cfg.MaxMapEntries > 0 && len(keys) > t.cfg.MaxMapEntries {
			kept = keys[:t.cfg.MaxMapEntries]
			omitted = len(keys) - t.cfg.MaxMapEntries
		}
		out := make(map[string]any, len(kept)+1)
		for _, k := range kept {
			out[k] = t.truncate(val[k])
		}
		if omitted > 0 {
			out[truncatedKey] = fmt.Sprintf("%d entries omitted", omitted)
		}
		return out
	case []any:
		elems := val
		omitted := 0
		if t.cfg.MaxListLen > 0 && len(val) > t.cfg.MaxListLen {
			elems = val[:t.cfg.MaxListLen]
			omitted = len(val) - t.cfg.MaxListLen
		}
		out := make([]any, 0, len(elems)+1)
		for _, elem := range elems {
			out = append(out, t.truncate(elem))
		}
		if omitted > 0 {
			out = append(out, fmt.Sprintf("[+%d more]", omitted))
		}
		return out
	case string:
		return truncateString(val, t.cfg.MaxStringLen)
	default:
		return val
	}
}

// truncateString cuts s to maxLen and appends the truncation marker.
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= len(TruncatedMarker) {
		return TruncatedMarker[:maxLen]
	}
	return s[:maxLen-len(TruncatedMarker)] + TruncatedMarker
}
