// fingerprint.go derives stable grouping tokens from an exception.

package faultline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Stack frame lines carry addresses and offsets that vary between runs;
// strip them before the line contributes to a fingerprint.
var (
	memAddrPattern = regexp.MustCompile(`0x[0-9a-fA-F]+`)
	offsetPattern  = regexp.MustCompile(`\+0x[0-9a-fA-F]+`)
)

// Fingerprints derives the ordered grouping tokens for an exception:
//
//   - the exception kind identifier (always present)
//   - "src:<source>" when Metadata carries a source entry
//   - "frame:<top frame>" from the first non-empty stack line
//   - "msg:<hash>" over the developer message (always present)
//
// The first token is the primary fingerprint used for dedupe. The result is
// never empty.
func Fingerprints(ex ExceptionSnapshot) []string {
	fps := []string{ex.TypeName()}

	if src, ok := ex.Metadata["source"].(string); ok && src != "" {
		fps = append(fps, "src:"+src)
	}
	if frame := topStackFrame(ex.StackTrace); frame != "" {
		fps = append(fps, "frame:"+frame)
	}
	fps = append(fps, fmt.Sprintf("msg:%016x", xxhash.Sum64String(ex.DevMessage)))

	return fps
}

// topStackFrame returns the first non-empty line of the stack trace,
// normalized: addresses and offsets removed, goroutine headers skipped.
func topStackFrame(trace string) string {
	if trace == "" {
		return ""
	}
	for _, line := range strings.Split(trace, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "goroutine ") {
			continue
		}
		line = offsetPattern.ReplaceAllString(line, "")
		line = memAddrPattern.ReplaceAllString(line, "")
		return strings.TrimSpace(line)
	}
	return ""
}
