// Package http provides an HTTP-based implementation of locmirror.Fetcher.
package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/fwojciec/locmirror"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// DefaultUserAgent identifies the mirror to the sites it visits.
const DefaultUserAgent = "locmirror/1.0"

// Ensure Fetcher implements locmirror.Fetcher at compile time.
var _ locmirror.Fetcher = (*Fetcher)(nil)

// Fetcher issues plain HTTP GET requests and returns raw response bytes.
// Non-2xx responses are returned as responses, not errors; the caller
// decides what a status code means.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithClient replaces the underlying HTTP client. The timeout option is
// ignored when a client is supplied.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
		}
	}

	return f
}

// Fetch performs a GET request and reads the whole body.
// Transport errors are returned as locmirror errors coded ETIMEOUT,
// ECONNRESET, or EINTERNAL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*locmirror.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, locmirror.Errorf(locmirror.EINVALID, "invalid request for %s: %v", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, transportError(url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(url, err)
	}

	return &locmirror.Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// transportError codes err by the failure it represents.
func transportError(url string, err error) error {
	return locmirror.Errorf(transportCode(err), "GET %s: %v", url, err)
}

func transportCode(err error) string {
	if errors.Is(err, syscall.ECONNRESET) {
		return locmirror.ECONNRESET
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return locmirror.ETIMEOUT
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return locmirror.ETIMEOUT
	}
	return locmirror.EINTERNAL
}
