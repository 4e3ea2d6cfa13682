package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"

	"github.com/st-keller/inspection/errors"
	"github.com/st-keller/inspection/snapshot"
)

// Backoff steps in seconds, capped at the last entry.
var backoffPrimes = []int{1, 2, 3, 5, 11, 23, 47, 61}

// BackoffDuration returns the wait before retry attempt n (0-based).
func BackoffDuration(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	if n >= len(backoffPrimes) {
		n = len(backoffPrimes) - 1
	}
	return time.Duration(backoffPrimes[n]) * time.Second
}

// CallTracker records the outcome of every request.
type CallTracker interface {
	TrackSuccess(latency time.Duration)
	TrackFailure(latency time.Duration, msg string)
}

// Client talks to a snapshot server over HTTP/2.
type Client struct {
	base    string
	http    *http.Client
	log     zerolog.Logger
	tracker CallTracker
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithClientLogger sets the client's logger.
func WithClientLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = logger }
}

// WithTracker records request outcomes in t.
func WithTracker(t CallTracker) ClientOption {
	return func(c *Client) { c.tracker = t }
}

// NewClient creates a client for baseURL. Without TLS config the
// connection uses cleartext HTTP/2.
func NewClient(baseURL string, tlsConfig *tls.Config, opts ...ClientOption) *Client {
	var rt *http2.Transport
	if tlsConfig != nil {
		rt = &http2.Transport{TLSClientConfig: tlsConfig}
	} else {
		rt = &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		}
	}

	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Transport: rt, Timeout: 30 * time.Second},
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Targets lists the published target names.
func (c *Client) Targets(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/targets", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Targets []string `json:"targets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, errors.ErrTransport, "decoding target list")
	}
	return body.Targets, nil
}

// Fetch returns the snapshot of name. When checksum matches the server's
// current checksum, changed is false and the snapshot is empty.
func (c *Client) Fetch(ctx context.Context, name, checksum string) (snap snapshot.Snapshot, changed bool, err error) {
	header := http.Header{}
	if checksum != "" {
		header.Set("If-None-Match", `"`+checksum+`"`)
	}
	resp, err := c.do(ctx, http.MethodGet, "/targets/"+url.PathEscape(name), nil, header)
	if err != nil {
		return snapshot.Snapshot{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return snapshot.Snapshot{}, false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snapshot.Snapshot{}, false, errors.Wrap(err, errors.ErrTransport, "decoding snapshot")
	}
	return snap, true, nil
}

// Edit writes value to the attribute at index of group and returns the
// resulting snapshot.
func (c *Client) Edit(ctx context.Context, name string, req EditRequest) (snapshot.Snapshot, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return snapshot.Snapshot{}, errors.Wrap(err, errors.ErrInternal, "encoding edit request")
	}
	header := http.Header{"Content-Type": []string{"application/json"}}
	resp, err := c.do(ctx, http.MethodPost, "/targets/"+url.PathEscape(name)+"/edit", bytes.NewReader(data), header)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	defer resp.Body.Close()

	var snap snapshot.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snapshot.Snapshot{}, errors.Wrap(err, errors.ErrTransport, "decoding snapshot")
	}
	return snap, nil
}

// Watch polls name every interval and calls fn whenever the snapshot
// changes. Failures back off along the prime sequence; Watch returns when
// ctx is done.
func (c *Client) Watch(ctx context.Context, name string, interval time.Duration, fn func(snapshot.Snapshot)) error {
	var checksum string
	failures := 0
	for {
		wait := interval
		snap, changed, err := c.Fetch(ctx, name, checksum)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			wait = BackoffDuration(failures)
			failures++
			c.log.Warn().Err(err).
				Str("target", name).
				Dur("retry_in", wait).
				Msg("Fetch failed, retrying with backoff")
		default:
			failures = 0
			if changed {
				checksum = snap.Checksum
				fn(snap)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "building request")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.trackFailure(latency, err.Error())
		return nil, errors.Wrapf(err, errors.ErrTransport, "%s %s", method, path)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		c.trackFailure(latency, resp.Status)
	} else if c.tracker != nil {
		c.tracker.TrackSuccess(latency)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", latency).
		Msg("Request completed")

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		var e ErrorResponse
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &e) == nil && e.Code != "" {
			return nil, errors.New(errors.ErrorCode(e.Code), e.Message).
				WithDetail("status", resp.StatusCode)
		}
		return nil, errors.Newf(errors.ErrTransport, "HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return resp, nil
}

func (c *Client) trackFailure(latency time.Duration, msg string) {
	if c.tracker != nil {
		c.tracker.TrackFailure(latency, msg)
	}
}

// String implements fmt.Stringer.
func (c *Client) String() string { return fmt.Sprintf("transport.Client(%s)", c.base) }
