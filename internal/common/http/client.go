package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader correlates a call with backend logs.
const RequestIDHeader = "X-Request-ID"

// Observer is told about every request the client performs. status is 0
// when no response was received.
type Observer interface {
	ObserveRequest(ctx context.Context, operation string, status int, duration time.Duration)
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	observers  []Observer
}

type Option func(*Client)

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithHTTPClient replaces the underlying client; its Timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req bound to ctx, stamping a request ID and user agent.
func (c *Client) Do(ctx context.Context, operation string, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	status := 0
	if err == nil {
		status = resp.StatusCode
	}
	for _, o := range c.observers {
		o.ObserveRequest(ctx, operation, status, time.Since(start))
	}
	return resp, err
}
