package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultWebhookTimeout = 5 * time.Second

// WebhookOption configures a [Webhook].
type WebhookOption func(*Webhook)

// WithTimeout bounds each delivery. Default: 5s.
func WithTimeout(d time.Duration) WebhookOption {
	return func(w *Webhook) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithHeaders adds static headers (for example an Authorization token) to
// every request.
func WithHeaders(h map[string]string) WebhookOption {
	return func(w *Webhook) {
		for k, v := range h {
			w.headers.Set(k, v)
		}
	}
}

// WithHTTPClient replaces the HTTP client. The client's transport is used
// as is, without trace propagation.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) {
		w.client = c
	}
}

// Webhook POSTs the message as JSON to a URL. Any 2xx response counts as
// accepted.
type Webhook struct {
	name    string
	url     string
	timeout time.Duration
	headers http.Header
	client  *http.Client
}

// NewWebhook returns a Webhook target posting to url.
func NewWebhook(name, url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		name:    name,
		url:     url,
		timeout: defaultWebhookTimeout,
		headers: make(http.Header),
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Name implements [Target].
func (w *Webhook) Name() string { return w.name }

// Send implements [Target].
func (w *Webhook) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("webhook %s: encode: %w", w.name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %s: build request: %w", w.name, err)
	}
	for k, vs := range w.headers {
		req.Header[k] = vs
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", msg.ID)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: post: %w", w.name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s: %w: status %d", w.name, ErrRejected, resp.StatusCode)
	}
	return nil
}
