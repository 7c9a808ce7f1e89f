// Package file provides a reporter that appends events as NDJSON to a local
// file. It doubles as the user-initiated share target: Share writes the same
// record, so a shared event is byte-identical to a sent one.
package file

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/perimetric/faultline/pkg/faultline"
)

const defaultBufSize = 64 * 1024 // 64KB

// Option configures a file reporter.
type Option func(*Reporter)

// WithBufSize sets the bufio.Writer buffer size. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(f *Reporter) { f.bufSize = bytes }
}

// Reporter writes one JSON payload per line, flushing after every event
// so a crash loses at most the event being written.
type Reporter struct {
	mu      sync.Mutex
	w       *bufio.Writer
	f       *os.File
	bufSize int
}

// New creates a file reporter appending to path.
func New(path string, opts ...Option) (*Reporter, error) {
	fr := &Reporter{bufSize: defaultBufSize}
	for _, opt := range opts {
		opt(fr)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("file reporter: open: %w", err)
	}
	fr.f = f
	fr.w = bufio.NewWriterSize(f, fr.bufSize)
	return fr, nil
}

// Send appends the event payload as one NDJSON line.
func (f *Reporter) Send(ctx context.Context, event *faultline.Event) bool {
	data, err := event.EncodeJSON()
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.w.Write(append(data, '\n')); err != nil {
		return false
	}
	return f.w.Flush() == nil
}

// Share writes the same record as Send; sharing to a file is just an append.
func (f *Reporter) Share(ctx context.Context, event *faultline.Event) bool {
	return f.Send(ctx, event)
}

// Close flushes buffered data and closes the file.
func (f *Reporter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.w.Flush(); err != nil {
		f.f.Close()
		return err
	}
	return f.f.Close()
}
