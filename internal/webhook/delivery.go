package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout     = 30 * time.Second
	maxResponseSnippet = 512
)

type DeliveryRequest struct {
	URL     string
	Body    []byte
	Headers map[string]string
}

// DeliveryResult describes one POST. StatusCode is nil when no HTTP response
// came back (DNS, connect, timeout).
type DeliveryResult struct {
	StatusCode *int
	Snippet    string
	Latency    time.Duration
	Err        error
}

func (r DeliveryResult) Succeeded() bool {
	return r.Err == nil && r.StatusCode != nil && *r.StatusCode == http.StatusOK
}

// Client performs single delivery attempts; it never retries.
type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

func (c *Client) Post(ctx context.Context, req DeliveryRequest) DeliveryResult {
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return DeliveryResult{Err: fmt.Errorf("build request: %w", err), Latency: time.Since(start)}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return DeliveryResult{Err: err, Latency: time.Since(start)}
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSnippet))
	// drain so the connection can be reused
	io.Copy(io.Discard, resp.Body)

	status := resp.StatusCode
	result := DeliveryResult{
		StatusCode: &status,
		Snippet:    string(snippet),
		Latency:    time.Since(start),
	}
	if status != http.StatusOK {
		result.Err = fmt.Errorf("unexpected status %d", status)
	}
	return result
}
