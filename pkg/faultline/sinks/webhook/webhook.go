// Package webhook provides a reporter that POSTs each event payload as JSON
// to an HTTP endpoint. Any 2xx response counts as delivered. Failed sends
// are not retried here; the outbox owns retry.
package webhook

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/perimetric/faultline/pkg/faultline"
)

const defaultTimeout = 10 * time.Second

// Option configures a webhook reporter.
type Option func(*webhookReporter)

// WithHeaders sets custom HTTP headers sent with every POST.
func WithHeaders(h map[string]string) Option {
	return func(w *webhookReporter) { w.headers = h }
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(w *webhookReporter) { w.client.Timeout = d }
}

// WithClient replaces the HTTP client entirely.
func WithClient(c *http.Client) Option {
	return func(w *webhookReporter) { w.client = c }
}

type webhookReporter struct {
	client  *http.Client
	url     string
	headers map[string]string
}

// New creates a webhook reporter targeting the given URL.
func New(url string, opts ...Option) faultline.Reporter {
	w := &webhookReporter{
		client: &http.Client{Timeout: defaultTimeout},
		url:    url,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Send POSTs the event payload. Transport errors and non-2xx statuses are
// failures; no retry happens here.
func (w *webhookReporter) Send(ctx context.Context, event *faultline.Event) bool {
	data, err := event.EncodeJSON()
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
