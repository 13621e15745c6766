// Package portal provides a client for a carrier's destination autocomplete
// endpoint. Sessions satisfy resolver.CandidateSource.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/freight-cli/internal/resolver"
)

// ErrUnknownLabel is returned when Select names an option the last listing
// did not contain.
var ErrUnknownLabel = eris.New("portal: label not among listed options")

// Option is one autocomplete entry as served by the portal.
type Option struct {
	Label        string `json:"label"`
	LocationCode string `json:"locationCode"`
	NoRates      bool   `json:"noRates,omitempty"`
}

type listResponse struct {
	Options []Option `json:"options"`
}

type selectRequest struct {
	Label        string `json:"label"`
	LocationCode string `json:"locationCode"`
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit shared by all sessions.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout sets the per-request timeout. A client passed to
// WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithBreaker sets how many consecutive failures make the client fail fast
// with ErrUnavailable, and for how long.
func WithBreaker(threshold int, cooldown time.Duration) ClientOption {
	return func(c *Client) {
		c.breaker = newBreaker(threshold, cooldown)
	}
}

// Client talks to the portal's autocomplete API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *breaker
	timeout time.Duration
}

// NewClient creates a portal client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(2, 2),
		breaker: newBreaker(0, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// Session returns a fresh search form. Each concurrent resolution needs its
// own session.
func (c *Client) Session() *Session {
	return &Session{client: c}
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			// The limiter refuses up front to wait past the deadline.
			err = context.DeadlineExceeded
		}
		return nil, 0, eris.Wrap(err, "portal: rate limit wait")
	}
	if err := c.breaker.allow(); err != nil {
		return nil, 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			c.breaker.record(true)
		} else {
			c.breaker.release()
		}
		return nil, 0, eris.Wrapf(err, "portal: %s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close() //nolint:errcheck
	c.breaker.record(resp.StatusCode >= http.StatusInternalServerError)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "portal: read body")
	}
	return body, resp.StatusCode, nil
}

// List returns the options the portal shows for prefix. A 204 or 202
// response means the list has not materialized yet.
func (c *Client) List(ctx context.Context, prefix string) ([]Option, error) {
	u := fmt.Sprintf("%s/api/locations?prefix=%s", c.baseURL, url.QueryEscape(prefix))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "portal: create list request")
	}
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNoContent || status == http.StatusAccepted:
		return nil, resolver.ErrNotReady
	case status != http.StatusOK:
		return nil, eris.Errorf("portal: list %q status %d: %s", prefix, status, truncate(body, 200))
	}

	var lr listResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, eris.Wrap(err, "portal: decode list")
	}
	return lr.Options, nil
}

// Commit tells the portal which option was chosen.
func (c *Client) Commit(ctx context.Context, opt Option) error {
	payload, err := json.Marshal(selectRequest{Label: opt.Label, LocationCode: opt.LocationCode})
	if err != nil {
		return eris.Wrap(err, "portal: marshal selection")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/selection", bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "portal: create select request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return eris.Errorf("portal: select %q status %d: %s", opt.Label, status, truncate(body, 200))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// Session is one search form: it remembers the options it last listed so a
// selection can be committed by label.
type Session struct {
	client *Client

	mu       sync.Mutex
	listed   []Option
	selected *Option
}

// ListCandidates implements resolver.CandidateSource.
func (s *Session) ListCandidates(ctx context.Context, prefix string) ([]resolver.Candidate, error) {
	opts, err := s.client.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.listed = opts
	s.selected = nil
	s.mu.Unlock()

	out := make([]resolver.Candidate, len(opts))
	for i, o := range opts {
		out[i] = resolver.Candidate{Label: o.Label, Unavailable: o.NoRates}
	}
	zap.L().Debug("portal: listed options", zap.String("prefix", prefix), zap.Int("count", len(out)))
	return out, nil
}

// Select implements resolver.CandidateSource. Labels are compared without
// surrounding whitespace; the portal's own label is committed.
func (s *Session) Select(ctx context.Context, label string) error {
	label = strings.TrimSpace(label)
	s.mu.Lock()
	var found *Option
	for i := range s.listed {
		if strings.TrimSpace(s.listed[i].Label) == label {
			found = &s.listed[i]
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		return eris.Wrapf(ErrUnknownLabel, "portal: select %q", label)
	}

	if err := s.client.Commit(ctx, *found); err != nil {
		return err
	}
	s.mu.Lock()
	opt := *found
	s.selected = &opt
	s.mu.Unlock()
	return nil
}

// Selection returns the committed option, if any.
func (s *Session) Selection() (Option, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return Option{}, false
	}
	return *s.selected, true
}
