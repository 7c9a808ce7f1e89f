// Package filter evaluates dotted wildcard path expressions against nested
// maps and lists.
//
// A path is a sequence of segments separated by dots. A segment matches a
// literal key, "*" matches exactly one key at that depth, and "**" matches
// zero or more keys (recursive descent). Allow filters keep only the matched
// subtree; deny filters remove every match. Filters never mutate their
// input; they always return new structures.
package filter

import "strings"

// defaultMaxDepth bounds recursion so pathological nesting combined with
// "**" branching cannot blow up the walk.
const defaultMaxDepth = 64

const (
	segmentAny  = "*"
	segmentDeep = "**"
)

// parsePath splits a dotted expression into segments. An empty expression
// yields nil, which callers treat as a no-op.
func parsePath(expr string) []string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil
	}
	return strings.Split(expr, ".")
}

// Option configures a filter.
type Option func(*options)

type options struct {
	maxDepth  int
	keepEmpty bool
}

// WithMaxDepth overrides the recursion ceiling. Values <= 0 keep the default.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithKeepEmpty retains empty maps and lists produced by non-matching
// branches instead of pruning them.
func WithKeepEmpty() Option {
	return func(o *options) { o.keepEmpty = true }
}

func buildOptions(opts []Option) options {
	o := options{maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Allow keeps only the branches reachable by at least one path expression.
type Allow struct {
	paths [][]string
	opts  options
}

// NewAllow builds an allow filter from dotted path expressions.
func NewAllow(exprs []string, opts ...Option) *Allow {
	f := &Allow{opts: buildOptions(opts)}
	for _, expr := range exprs {
		if p := parsePath(expr); p != nil {
			f.paths = append(f.paths, p)
		}
	}
	return f
}

// Apply returns the subtree of data matched by any of the filter's paths.
// The input is never mutated. With no usable paths the input is returned
// structurally copied (identity no-op).
func (f *Allow) Apply(data map[string]any) map[string]any {
	if len(f.paths) == 0 {
		return copyMap(data)
	}
	kept, _ := f.allowValue(f.paths, data, 0)
	m, ok := kept.(map[string]any)
	if !ok || m == nil {
		return map[string]any{}
	}
	return m
}

// allowValue walks the pending expression suffixes alongside the value.
// It reports the matched portion of v and whether anything matched.
func (f *Allow) allowValue(exprs [][]string, v any, depth int) (any, bool) {
	if depth > f.opts.maxDepth {
		return nil, false
	}

	// A fully consumed expression keeps the value wholly, whatever it is.
	for _, expr := range exprs {
		if len(expr) == 0 {
			return copyValue(v), true
		}
	}

	// "**" may consume zero levels: its suffix also applies right here.
	exprs = expandDeep(exprs)
	for _, expr := range exprs {
		if len(expr) == 0 {
			return copyValue(v), true
		}
	}

	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any)
		for key, child := range val {
			var next [][]string
			for _, expr := range exprs {
				switch expr[0] {
				case segmentDeep:
					// Consume one level for this child, "**" stays pending.
					next = append(next, expr)
				case segmentAny:
					next = append(next, expr[1:])
				case key:
					next = append(next, expr[1:])
				}
			}
			if len(next) == 0 {
				continue
			}
			kept, matched := f.allowValue(next, child, depth+1)
			if !matched {
				continue
			}
			if f.opts.keepEmpty || !isEmptyContainer(kept) {
				out[key] = kept
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	case []any:
		out := make([]any, 0, len(val))
		for _, elem := range val {
			kept, matched := f.allowValue(exprs, elem, depth+1)
			if matched && (f.opts.keepEmpty || !isEmptyContainer(kept)) {
				out = append(out, kept)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	default:
		// A leaf cannot satisfy a deeper path.
		return nil, false
	}
}

// Deny removes every branch reachable by any path expression.
type Deny struct {
	paths [][]string
	opts  options
}

// NewDeny builds a deny filter from dotted path expressions.
func NewDeny(exprs []string, opts ...Option) *Deny {
	f := &Deny{opts: buildOptions(opts)}
	for _, expr := range exprs {
		if p := parsePath(expr); p != nil {
			f.paths = append(f.paths, p)
		}
	}
	return f
}

// Apply returns data with all denied branches removed and newly-empty
// containers pruned (unless configured otherwise). The input is never
// mutated. With no usable paths the input is returned structurally copied.
func (f *Deny) Apply(data map[string]any) map[string]any {
	if len(f.paths) == 0 {
		return copyMap(data)
	}
	out, _ := f.denyValue(f.paths, data, 0)
	m, ok := out.(map[string]any)
	if !ok || m == nil {
		return map[string]any{}
	}
	return m
}

// denyValue walks the data removing matches. The second result reports
// whether the value survives.
func (f *Deny) denyValue(exprs [][]string, v any, depth int) (any, bool) {
	if depth > f.opts.maxDepth {
		return copyValue(v), true
	}

	exprs = expandDeep(exprs)

	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, child := range val {
			removed := false
			var next [][]string
			for _, expr := range exprs {
				if len(expr) == 0 {
					continue
				}
				seg := expr[0]
				switch {
				case seg == segmentDeep:
					// Deletions may occur at any depth below.
					next = append(next, expr)
				case seg == segmentAny || seg == key:
					if len(expr) == 1 {
						removed = true
					} else {
						next = append(next, expr[1:])
					}
				}
			}
			if removed {
				continue
			}
			if len(next) == 0 {
				out[key] = copyValue(child)
				continue
			}
			kept, ok := f.denyValue(next, child, depth+1)
			if !ok {
				continue
			}
			out[key] = kept
		}
		if len(out) == 0 && !f.opts.keepEmpty {
			return nil, false
		}
		return out, true
	case []any:
		out := make([]any, 0, len(val))
		for _, elem := range val {
			kept, ok := f.denyValue(exprs, elem, depth+1)
			if !ok {
				continue
			}
			out = append(out, kept)
		}
		if len(out) == 0 && !f.opts.keepEmpty {
			return nil, false
		}
		return out, true
	default:
		return copyValue(v), true
	}
}

// expandDeep adds, for every expression starting with "**", its suffix as a
// sibling alternative (the zero-consume branch). The "**" expression itself
// stays in the set so it can keep descending. Expansion runs to a fixpoint
// so consecutive "**" segments are handled.
func expandDeep(exprs [][]string) [][]string {
	expanded := false
	for _, expr := range exprs {
		if len(expr) > 0 && expr[0] == segmentDeep {
			expanded = true
			break
		}
	}
	if !expanded {
		return exprs
	}

	out := make([][]string, 0, len(exprs)*2)
	queue := append([][]string(nil), exprs...)
	seen := make(map[string]bool)
	for len(queue) > 0 {
		expr := queue[0]
		queue = queue[1:]
		key := strings.Join(expr, ".")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, expr)
		if len(expr) > 0 && expr[0] == segmentDeep {
			queue = append(queue, expr[1:])
		}
	}
	return out
}

func isEmptyContainer(v any) bool {
	switch val := v.(type) {
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	}
	return false
}

// copyValue deep-copies maps and lists; scalars are returned as-is.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = copyValue(elem)
		}
		return out
	default:
		return v
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}
