package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
)

// ErrorKind classifies workflow API failures.
type ErrorKind int

const (
	// KindTransport is the fallback: network failures and unexpected API responses.
	KindTransport ErrorKind = iota
	// KindNotFound means the API answered 404 for the repository, workflow or run.
	KindNotFound
	// KindRateLimit means the primary or secondary rate limit was hit.
	KindRateLimit
	// KindNoRuns means the run listing succeeded but was empty.
	KindNoRuns
	// KindInvalidRunID means a run id was not a positive decimal number.
	KindInvalidRunID
	// KindDecode means the response body could not be decoded.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindNotFound:
		return "not found"
	case KindRateLimit:
		return "rate limited"
	case KindNoRuns:
		return "no runs"
	case KindInvalidRunID:
		return "invalid run id"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every Client operation that talks to the API.
type Error struct {
	Kind ErrorKind
	Op   string // dispatch, list runs, get run, cancel run
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("workflow %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("workflow %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var wfErr *Error
	return errors.As(err, &wfErr) && wfErr.Kind == kind
}

// isAccepted reports whether err only signals a 202 response.
func isAccepted(err error) bool {
	var accepted *github.AcceptedError
	return errors.As(err, &accepted)
}

// wrapError classifies a go-github error.
func wrapError(op string, err error) *Error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &Error{Kind: KindRateLimit, Op: op, Err: err}
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &Error{Kind: KindRateLimit, Op: op, Err: err}
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound {
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &Error{Kind: KindDecode, Op: op, Err: err}
	}
	return &Error{Kind: KindTransport, Op: op, Err: err}
}
