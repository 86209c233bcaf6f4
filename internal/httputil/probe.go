package httputil

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// DefaultProbeTimeout bounds a single probe request.
const DefaultProbeTimeout = 10 * time.Second

// NewProbeClient creates the client used to look at user-supplied archive
// URLs.
//
// Certificate chains and hostnames are not verified: archive mirrors are
// often self-signed or misconfigured, and nothing sensitive is sent to them.
// Redirects follow net/http's default policy (10 hops, any scheme).
func NewProbeClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // only headers are read from archive hosts
			},
			TLSHandshakeTimeout: timeout,
			DisableCompression:  true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}
