// Package httputil builds the HTTP clients dumpbot uses.
//
// Two flavours exist. API clients talk to GitHub and Telegram: TLS is
// verified, redirects must stay on HTTPS and never land on private or
// loopback addresses. Probe clients talk to arbitrary archive hosts named
// by users: certificate checks are skipped and redirects are followed as-is,
// because the only thing read back is a Content-Type header.
package httputil

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// ClientOptions configures an API client.
type ClientOptions struct {
	// Timeout is the overall request timeout. Default: 30s.
	Timeout time.Duration

	// DialTimeout is the TCP dial timeout. Default: 10s.
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the TLS handshake timeout. Default: 10s.
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout is the time to wait for response headers.
	// Default: 0 (bounded by Timeout only), since Telegram long polling
	// holds headers back for the whole poll.
	ResponseHeaderTimeout time.Duration

	// MaxRedirects is the maximum redirect depth. Default: 5.
	MaxRedirects int

	// MaxIdleConns is the maximum number of idle connections. Default: 10.
	MaxIdleConns int

	// IdleConnTimeout is how long idle connections stay open. Default: 90s.
	IdleConnTimeout time.Duration
}

// DefaultOptions returns the API client defaults.
func DefaultOptions() ClientOptions {
	return ClientOptions{
		Timeout:             30 * time.Second,
		DialTimeout:         10 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxRedirects:        5,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// NewAPIClient creates the client used for GitHub and Telegram API calls.
//
// Redirects are only followed to HTTPS targets whose addresses are public
// (see ValidateIP), and at most MaxRedirects deep.
func NewAPIClient(opts ClientOptions) *http.Client {
	def := DefaultOptions()
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = def.DialTimeout
	}
	if opts.TLSHandshakeTimeout == 0 {
		opts.TLSHandshakeTimeout = def.TLSHandshakeTimeout
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = def.MaxRedirects
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = def.MaxIdleConns
	}
	if opts.IdleConnTimeout == 0 {
		opts.IdleConnTimeout = def.IdleConnTimeout
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   opts.DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   opts.TLSHandshakeTimeout,
			ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          opts.MaxIdleConns,
			IdleConnTimeout:       opts.IdleConnTimeout,
		},
		CheckRedirect: makeRedirectChecker(opts.MaxRedirects, net.LookupIP),
	}
}

// makeRedirectChecker creates a redirect validation function. lookup
// resolves redirect hostnames so every resulting address can be checked.
func makeRedirectChecker(maxRedirects int, lookup func(string) ([]net.IP, error)) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if req.URL.Scheme != "https" {
			return fmt.Errorf("redirect to non-HTTPS URL is not allowed: %s", req.URL)
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return checkHost(req.URL.Hostname(), lookup)
	}
}
