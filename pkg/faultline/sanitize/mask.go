// mask.go implements the character-preserving masking strategy and the
// key/content masking sanitizer.

package sanitize

import (
	"regexp"
	"strings"
)

// MaskStrategy redacts the interior of a string while preserving its edges.
type MaskStrategy struct {
	// KeepStart is the number of leading characters preserved.
	KeepStart int

	// KeepEnd is the number of trailing characters preserved.
	KeepEnd int

	// MinMasked is the minimum number of mask characters emitted.
	MinMasked int

	// MaskChar is the masking rune. Zero value masks with '*'.
	MaskChar rune
}

// DefaultMaskStrategy keeps one character on each edge.
func DefaultMaskStrategy() MaskStrategy {
	return MaskStrategy{KeepStart: 1, KeepEnd: 1, MinMasked: 2, MaskChar: '*'}
}

// Mask redacts the interior of s. When the string is too short to keep both
// edges, it is masked entirely.
func (m MaskStrategy) Mask(s string) string {
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return s
	}
	mask := m.MaskChar
	if mask == 0 {
		mask = '*'
	}
	if m.KeepStart+m.KeepEnd >= n {
		return strings.Repeat(string(mask), n)
	}
	masked := n - m.KeepStart - m.KeepEnd
	if masked < m.MinMasked {
		masked = m.MinMasked
	}
	return string(r[:m.KeepStart]) + strings.Repeat(string(mask), masked) + string(r[n-m.KeepEnd:])
}

// MaskCard redacts a card-like number, keeping only the last four digits.
// Non-digit separators are dropped; the mask run preserves the overall digit
// count.
func MaskCard(s string, mask rune) string {
	if mask == 0 {
		mask = '*'
	}
	var digits []rune
	for _, c := range s {
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	n := len(digits)
	if n <= 4 {
		return strings.Repeat(string(mask), n)
	}
	return strings.Repeat(string(mask), n-4) + string(digits[n-4:])
}

// Content heuristics for values whose keys are not themselves sensitive.
var (
	jwtPattern    = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*$`)
	awsKeyPattern = regexp.MustCompile(`^(AKIA|ASIA)[0-9A-Z]{16}$`)
	tokenPattern  = regexp.MustCompile(`^[A-Za-z0-9_\-+/=.]{24,}$`)
	bearerPattern = regexp.MustCompile(`^Bearer\s+\S+`)
	cardPattern   = regexp.MustCompile(`^(?:\d[ -]?){12,18}\d$`)
)

// defaultSensitiveKeys is the normalized sensitive-key set. Keys are
// compared after lower-casing and stripping '-', '_', and whitespace.
var defaultSensitiveKeys = []string{
	"token",
	"accesstoken",
	"refreshtoken",
	"apikey",
	"secret",
	"password",
	"passwd",
	"credential",
	"credentials",
	"auth",
	"authorization",
	"sessionid",
	"cookie",
	"privatekey",
	"cardnumber",
	"cvv",
	"ssn",
}

// MaskerConfig controls the key/content masking sanitizer.
type MaskerConfig struct {
	// SensitiveKeys is the set of key names (normalized) whose string values
	// are always masked. Nil selects the default set.
	SensitiveKeys []string

	// Strategy masks values flagged by key or generic content heuristics.
	Strategy MaskStrategy

	// MaskChar is used for the card-number mask run.
	MaskChar rune
}

// DefaultMaskerConfig returns the production-safe masking configuration.
func DefaultMaskerConfig() MaskerConfig {
	return MaskerConfig{
		SensitiveKeys: defaultSensitiveKeys,
		Strategy:      DefaultMaskStrategy(),
		MaskChar:      '*',
	}
}

// Masker masks string leaves whose key path contains a sensitive segment,
// and otherwise applies content heuristics (JWTs, AWS access key ids, long
// opaque tokens, bearer prefixes, card numbers).
type Masker struct {
	keys     map[string]bool
	strategy MaskStrategy
	maskChar rune
}

// NewMasker builds the masking sanitizer.
func NewMasker(cfg MaskerConfig) *Masker {
	keys := cfg.SensitiveKeys
	if keys == nil {
		keys = defaultSensitiveKeys
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[normalizeKey(k)] = true
	}
	mask := cfg.MaskChar
	if mask == 0 {
		mask = '*'
	}
	return &Masker{keys: set, strategy: cfg.Strategy, maskChar: mask}
}

// Sanitize returns a new map with sensitive string leaves masked.
func (m *Masker) Sanitize(data map[string]any) map[string]any {
	out, _ := m.maskValue(data, false).(map[string]any)
	if out == nil {
		return map[string]any{}
	}
	return out
}

func (m *Masker) maskValue(v any, sensitive bool) any {
	switch val := normalizeValue(v).(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = m.maskValue(child, sensitive || m.keys[normalizeKey(k)])
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = m.maskValue(elem, sensitive)
		}
		return out
	case string:
		return m.maskString(val, sensitive)
	case nil:
		// Null leaves behave as empty strings for masking checks.
		if sensitive {
			return m.maskString("", true)
		}
		return nil
	default:
		return val
	}
}

func (m *Masker) maskString(s string, sensitive bool) string {
	if sensitive {
		return m.strategy.Mask(s)
	}
	switch {
	case cardPattern.MatchString(s):
		return MaskCard(s, m.maskChar)
	case bearerPattern.MatchString(s):
		return "Bearer " + m.strategy.Mask(strings.TrimSpace(s[len("Bearer"):]))
	case jwtPattern.MatchString(s), awsKeyPattern.MatchString(s), tokenPattern.MatchString(s):
		return m.strategy.Mask(s)
	}
	return s
}

// normalizeKey lower-cases a key and strips '-', '_', and whitespace so
// "Api-Key", "api_key", and "APIKEY" compare equal.
func normalizeKey(k string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(k) {
		switch c {
		case '-', '_', ' ', '\t':
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
