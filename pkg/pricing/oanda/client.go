package oanda

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fxfeed/pkg/pricing"
)

const (
	pricesPath            = "/v1/prices"
	defaultConnectTimeout = 10 * time.Second
	datetimeHeader        = "X-Accept-Datetime-Format"
)

var streamDomains = map[string]string{
	"live":     "stream-fxtrade.oanda.com",
	"practice": "stream-fxpractice.oanda.com",
	"sandbox":  "stream-sandbox.oanda.com",
}

// StreamDomain maps an account environment to its streaming host.
func StreamDomain(environment string) (string, error) {
	env := strings.ToLower(strings.TrimSpace(environment))
	if env == "" {
		env = "practice"
	}
	domain, ok := streamDomains[env]
	if !ok {
		return "", fmt.Errorf("oanda: unknown environment %q", environment)
	}
	return domain, nil
}

// Client opens price streams against one OANDA endpoint.
type Client struct {
	baseURL        string
	accessToken    string
	accountID      string
	datetimeFormat string
	connectTimeout time.Duration
	httpClient     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client. Stream clients must not set an
// overall Timeout since the response body stays open indefinitely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the scheme and host derived from the domain.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithConnectTimeout bounds the wait for response headers.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithDatetimeFormat requests RFC3339 or UNIX timestamps.
func WithDatetimeFormat(format string) Option {
	return func(c *Client) {
		c.datetimeFormat = strings.ToUpper(strings.TrimSpace(format))
	}
}

// NewClient builds a client for domain authenticated with accessToken.
func NewClient(domain, accessToken, accountID string, opts ...Option) *Client {
	c := &Client{
		baseURL:        "https://" + domain,
		accessToken:    accessToken,
		accountID:      accountID,
		connectTimeout: defaultConnectTimeout,
		httpClient:     &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// streamURL renders the prices endpoint for pairs in broker notation.
func (c *Client) streamURL(pairs []string) string {
	instruments := make([]string, len(pairs))
	for i, p := range pairs {
		instruments[i] = pricing.BrokerInstrument(p)
	}
	q := url.Values{}
	q.Set("instruments", strings.Join(instruments, ","))
	if c.accountID != "" {
		q.Set("accountId", c.accountID)
	}
	return c.baseURL + pricesPath + "?" + q.Encode()
}

// Open starts a price stream for pairs. The body lives until ctx is cancelled
// or the returned reader is closed, so ctx should outlive the call. Only the
// wait for response headers is bounded by the connect timeout.
func (c *Client) Open(ctx context.Context, pairs []string) (io.ReadCloser, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.streamURL(pairs), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("oanda: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if c.datetimeFormat != "" {
		req.Header.Set(datetimeHeader, c.datetimeFormat)
	}

	timer := time.AfterFunc(c.connectTimeout, cancel)
	resp, err := c.httpClient.Do(req)
	timedOut := !timer.Stop()
	if err != nil {
		cancel()
		if timedOut {
			return nil, fmt.Errorf("%w: no response within %s", pricing.ErrConnectionFailed, c.connectTimeout)
		}
		return nil, fmt.Errorf("%w: %v", pricing.ErrConnectionFailed, err)
	}
	if timedOut {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: no response within %s", pricing.ErrConnectionFailed, c.connectTimeout)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: status %d: %s", pricing.ErrConnectionFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return &streamBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

type streamBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *streamBody) Close() error {
	b.cancel()
	return b.ReadCloser.Close()
}
