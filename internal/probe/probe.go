// Package probe decides whether a user-supplied URL looks like an archive
// the dump workflow can download.
//
// The check is advisory. It only reads the Content-Type header of the
// first response it can get, trying a short list of request shapes in
// order because archive mirrors differ in what they accept: some refuse
// HEAD, some refuse unfamiliar user agents, many have broken TLS.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tsukumogami/dumpbot/internal/httputil"
	"github.com/tsukumogami/dumpbot/internal/log"
)

// Reason tells why a URL was accepted or rejected.
type Reason int

const (
	// ReasonArchive: a response was obtained and its Content-Type is an archive type.
	ReasonArchive Reason = iota
	// ReasonNotArchive: a response was obtained with a non-archive Content-Type.
	ReasonNotArchive
	// ReasonNoContentType: a response was obtained without a Content-Type header.
	ReasonNoContentType
	// ReasonMalformed: the string could not be parsed as a URL.
	ReasonMalformed
	// ReasonScheme: the scheme is not http or https.
	ReasonScheme
	// ReasonHost: the host is empty or has no dot.
	ReasonHost
	// ReasonUnreachable: every attempt failed before producing a usable response.
	ReasonUnreachable
)

func (r Reason) String() string {
	switch r {
	case ReasonArchive:
		return "archive"
	case ReasonNotArchive:
		return "not-archive"
	case ReasonNoContentType:
		return "no-content-type"
	case ReasonMalformed:
		return "malformed"
	case ReasonScheme:
		return "bad-scheme"
	case ReasonHost:
		return "bad-host"
	case ReasonUnreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Attempt describes one request shape in the fallback chain.
type Attempt struct {
	Name      string
	Method    string
	UserAgent string
	Headers   map[string]string
}

// User agents used by DefaultAttempts.
const (
	MobileUserAgent = "Mozilla/5.0 (Linux; Android 11; Pixel 5 Build/RQ3A.210705.001; wv) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 " +
		"Chrome/91.0.4472.120 Mobile Safari/537.36"
	CurlUserAgent = "curl/7.68.0"
)

// DefaultAttempts returns the fallback chain: HEAD then GET as a mobile
// browser, then HEAD then GET as curl.
func DefaultAttempts() []Attempt {
	mobile := map[string]string{"Accept": "*/*", "Connection": "keep-alive"}
	curl := map[string]string{"Accept": "*/*"}
	return []Attempt{
		{Name: "HEAD", Method: http.MethodHead, UserAgent: MobileUserAgent, Headers: mobile},
		{Name: "GET", Method: http.MethodGet, UserAgent: MobileUserAgent, Headers: mobile},
		{Name: "curl HEAD", Method: http.MethodHead, UserAgent: CurlUserAgent, Headers: curl},
		{Name: "curl GET", Method: http.MethodGet, UserAgent: CurlUserAgent, Headers: curl},
	}
}

// AttemptError records why one attempt produced no usable response.
type AttemptError struct {
	Attempt string
	Err     error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s %v", e.Attempt, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// StatusError is returned for responses outside the 2xx range. Such
// responses do not end the fallback chain.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Result is the outcome of Validate.
type Result struct {
	// Valid is true only when the Content-Type names an archive type.
	Valid bool

	// ContentType is the lower-cased Content-Type of the deciding response,
	// or "" when there was none.
	ContentType string

	// Reason classifies the outcome.
	Reason Reason

	// Attempt names the attempt that produced the deciding response.
	Attempt string

	// Failures lists the attempts that failed before a decision was made.
	// When Reason is ReasonUnreachable it holds one entry per attempt.
	Failures []*AttemptError
}

// Err joins the attempt failures, or returns nil if there were none.
func (r Result) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Validator runs the fallback chain against archive hosts. It is safe for
// concurrent use.
type Validator struct {
	client   *http.Client
	attempts []Attempt
	timeout  time.Duration
	logger   log.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithClient replaces the probe HTTP client.
func WithClient(c *http.Client) Option {
	return func(v *Validator) {
		v.client = c
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		v.timeout = d
	}
}

// WithAttempts replaces the fallback chain.
func WithAttempts(a []Attempt) Option {
	return func(v *Validator) {
		v.attempts = a
	}
}

// WithLogger sets the logger used for attempt diagnostics.
func WithLogger(l log.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

// New creates a Validator using an insecure probe client and the default
// fallback chain.
func New(opts ...Option) *Validator {
	v := &Validator{
		attempts: DefaultAttempts(),
		timeout:  httputil.DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.client == nil {
		v.client = httputil.NewProbeClient(v.timeout)
	}
	if v.logger == nil {
		v.logger = log.Default()
	}
	return v
}

// Validate classifies raw. Scheme and host checks happen before any network
// traffic; then the attempts run in order and the first one that yields a
// 2xx response decides the result.
func (v *Validator) Validate(ctx context.Context, raw string) Result {
	u, res, ok := checkTarget(raw)
	if !ok {
		v.logger.Debug("url rejected before probing", "url", raw, "reason", res.Reason)
		return res
	}

	var failures []*AttemptError
	for _, a := range v.attempts {
		contentType, err := v.try(ctx, u, a)
		if err != nil {
			v.logger.Debug("probe attempt failed", "url", raw, "attempt", a.Name, "error", err)
			failures = append(failures, &AttemptError{Attempt: a.Name, Err: err})
			if ctx.Err() != nil {
				break
			}
			continue
		}

		res := Result{ContentType: contentType, Attempt: a.Name, Failures: failures}
		switch {
		case contentType == "":
			res.Reason = ReasonNoContentType
		case IsArchiveContentType(contentType):
			res.Valid = true
			res.Reason = ReasonArchive
		default:
			res.Reason = ReasonNotArchive
		}
		v.logger.Debug("probe decided", "url", raw, "attempt", a.Name, "content_type", contentType, "reason", res.Reason)
		return res
	}

	res = Result{Reason: ReasonUnreachable, Failures: failures}
	v.logger.Warn("archive host unreachable", "url", raw, "error", joinFailures(failures))
	return res
}

// try runs one attempt and returns the lower-cased Content-Type.
func (v *Validator) try(ctx context.Context, u *url.URL, a Attempt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, a.Method, u.String(), nil)
	if err != nil {
		return "", err
	}
	for k, val := range a.Headers {
		req.Header.Set(k, val)
	}
	req.Header.Set("User-Agent", a.UserAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", err
	}
	// GET bodies may be whole archives; drain a little so the connection
	// can be reused, then drop the rest.
	_, _ = io.CopyN(io.Discard, resp.Body, 4096)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}
	return strings.ToLower(resp.Header.Get("Content-Type")), nil
}

// checkTarget applies the offline checks. ok is false when res is final.
func checkTarget(raw string) (u *url.URL, res Result, ok bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, Result{Reason: ReasonMalformed}, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, Result{Reason: ReasonScheme}, false
	}
	host, _, _ := strings.Cut(u.Host, ":")
	host = strings.ToLower(host)
	if host == "" || !strings.Contains(host, ".") {
		return nil, Result{Reason: ReasonHost}, false
	}
	return u, Result{}, true
}

// joinFailures renders failures as "HEAD <err>, GET <err>, ..." for logs.
func joinFailures(failures []*AttemptError) string {
	parts := make([]string, len(failures))
	for i, f := range failures {
		parts[i] = f.Error()
	}
	return strings.Join(parts, ", ")
}
