// Package console provides a reporter that prints events to stderr in
// human-readable form. Useful for development and as the first sink in a
// fan-out, so something is visible even when network delivery fails.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/perimetric/faultline/pkg/faultline"
)

// Option configures the console reporter.
type Option func(*consoleReporter)

// WithVerbose enables full event details including the stack trace.
func WithVerbose() Option {
	return func(c *consoleReporter) { c.verbose = true }
}

// WithWriter redirects output. Default: stderr.
func WithWriter(w io.Writer) Option {
	return func(c *consoleReporter) { c.out = w }
}

type consoleReporter struct {
	out     io.Writer
	verbose bool
}

// New creates a console reporter.
func New(opts ...Option) faultline.Reporter {
	c := &consoleReporter{out: os.Stderr}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send formats and prints the event. It only fails when the writer does.
func (c *consoleReporter) Send(ctx context.Context, event *faultline.Event) bool {
	ex := event.Exception
	header := fmt.Sprintf("[FAULTLINE] %s %s %s",
		event.Timestamp.Format(time.RFC3339),
		strings.ToUpper(ex.Severity.String()),
		ex.TypeName(),
	)
	if !event.Handled {
		header += " (unhandled)"
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	if ex.DevMessage != "" {
		fmt.Fprintf(&b, "        Message: %s\n", ex.DevMessage)
	}
	if fp := event.PrimaryFingerprint(); fp != "" {
		fmt.Fprintf(&b, "        Fingerprint: %s\n", fp)
	}
	if ex.Cause != "" {
		fmt.Fprintf(&b, "        Cause: %s\n", ex.Cause)
	}
	if c.verbose && ex.StackTrace != "" {
		b.WriteString("        Stack trace:\n")
		for _, line := range strings.Split(ex.StackTrace, "\n") {
			fmt.Fprintf(&b, "          %s\n", line)
		}
	}

	_, err := io.WriteString(c.out, b.String())
	return err == nil
}
