// Package httpclient is a fluent, retrying client for outgoing HTTP calls
// (the payment webhook notifier).
//
//	resp, err := c.Post(url).
//	    Header("X-Storefront-Event", "payment.settled").
//	    Body(evt).
//	    Retry(3, 500*time.Millisecond).
//	    Send(ctx)
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Client issues requests through an *http.Client. The zero value is not
// usable; use New.
type Client struct {
	hc *http.Client
}

// New returns a Client on a pooled transport. Pass nil to use the default.
func New(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		}}
	}
	return &Client{hc: hc}
}

// Request is a fluent request builder.
type Request struct {
	c         *Client
	method    string
	url       string
	headers   http.Header
	body      any
	timeout   time.Duration
	attempts  int
	retryWait time.Duration
}

func (c *Client) Get(url string) *Request  { return c.newRequest(http.MethodGet, url) }
func (c *Client) Post(url string) *Request { return c.newRequest(http.MethodPost, url) }
func (c *Client) Put(url string) *Request  { return c.newRequest(http.MethodPut, url) }

func (c *Client) newRequest(method, url string) *Request {
	h := http.Header{}
	h.Set("Accept", "application/json")
	return &Request{
		c:         c,
		method:    method,
		url:       url,
		headers:   h,
		timeout:   10 * time.Second,
		attempts:  1,
		retryWait: 500 * time.Millisecond,
	}
}

func (r *Request) Header(key, value string) *Request {
	r.headers.Set(key, value)
	return r
}

func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// Body sets the payload. Strings and byte slices are sent raw; anything
// else is JSON encoded.
func (r *Request) Body(v any) *Request {
	r.body = v
	return r
}

// Timeout bounds each attempt.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry sets the total number of attempts and the initial backoff, which
// doubles after each failure. Transport errors and 5xx/429 responses are
// retried.
func (r *Request) Retry(attempts int, wait time.Duration) *Request {
	if attempts > 0 {
		r.attempts = attempts
	}
	r.retryWait = wait
	return r
}

// Send performs the request. A non-nil Response is returned for any
// completed exchange, including non-2xx ones.
func (r *Request) Send(ctx context.Context) (*Response, error) {
	body, ct, err := r.encode()
	if err != nil {
		return nil, err
	}

	var (
		resp    *Response
		lastErr error
	)
	wait := r.retryWait
	for attempt := 1; attempt <= r.attempts; attempt++ {
		resp, lastErr = r.do(ctx, body, ct)
		if lastErr == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		}
		if attempt == r.attempts {
			break
		}
		logger.WithCtx(ctx).Warn("httpclient: attempt failed, retrying",
			"url", r.url, "attempt", attempt, "backoff", wait, "error", lastErr)
		select {
		case <-ctx.Done():
			return resp, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	if resp != nil {
		return resp, nil
	}
	return nil, fmt.Errorf("httpclient: %s %s failed after %d attempts: %w", r.method, r.url, r.attempts, lastErr)
}

func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

func (r *Request) do(ctx context.Context, body []byte, ct string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, rd)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	req.Header = r.headers.Clone()
	if ct != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", ct)
	}

	res, err := r.c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: send: %w", err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}
	return &Response{StatusCode: res.StatusCode, Headers: res.Header, Raw: raw}, nil
}

func (r *Request) encode() ([]byte, string, error) {
	switch v := r.body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(v), "text/plain", nil
	case []byte:
		return v, "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("httpclient: marshal body: %w", err)
		}
		return b, "application/json", nil
	}
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Raw        []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

func (r *Response) JSON(dest any) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("httpclient: decode JSON: %w", err)
	}
	return nil
}

// Throw converts a non-2xx response into an error.
func (r *Response) Throw() error {
	if !r.OK() {
		return fmt.Errorf("httpclient: status %d: %s", r.StatusCode, r.Raw)
	}
	return nil
}
