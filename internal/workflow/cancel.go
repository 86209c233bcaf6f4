package workflow

import (
	"context"
	"strconv"
)

// CancelOutcome is the user-facing result of a cancel request.
type CancelOutcome int

const (
	// CancelInvalidID: the id was not all digits. No API call was made.
	CancelInvalidID CancelOutcome = iota
	// CancelNotFound: the run lookup failed. The cancel endpoint was not called.
	CancelNotFound
	// CancelInitiated: the cancel endpoint was called. Its own result is in Err.
	CancelInitiated
)

// Message returns the reply text for the outcome.
func (o CancelOutcome) Message() string {
	switch o {
	case CancelInvalidID:
		return "Invalid run ID"
	case CancelNotFound:
		return "Run ID not found"
	case CancelInitiated:
		return "Cancellation initiated"
	default:
		return "Unknown cancel outcome"
	}
}

// CancelResult is returned by Cancel.
type CancelResult struct {
	Outcome CancelOutcome
	RunID   int64
	// Err holds the lookup error for CancelNotFound, or the cancel call's
	// error for CancelInitiated, which is still reported as initiated.
	Err error
}

// Message returns the reply text for the result.
func (r CancelResult) Message() string {
	return r.Outcome.Message()
}

// Cancel requests cancellation of the run with the given id. The id must be
// a non-empty string of ASCII digits.
func (c *Client) Cancel(ctx context.Context, runID string) CancelResult {
	if !isDigits(runID) {
		return CancelResult{Outcome: CancelInvalidID, Err: &Error{Kind: KindInvalidRunID, Op: "cancel run"}}
	}
	id, err := strconv.ParseInt(runID, 10, 64)
	if err != nil {
		// All digits but out of range: no such run can exist.
		return CancelResult{Outcome: CancelNotFound, Err: &Error{Kind: KindInvalidRunID, Op: "cancel run", Err: err}}
	}

	if _, err := c.GetRun(ctx, id); err != nil {
		c.logger.Info("cancel target not found", "repo", c.Repo(), "run_id", id, "error", err)
		return CancelResult{Outcome: CancelNotFound, RunID: id, Err: err}
	}

	res := CancelResult{Outcome: CancelInitiated, RunID: id}
	if _, err := c.gh.Actions.CancelWorkflowRunByID(ctx, c.owner, c.repo, id); err != nil && !isAccepted(err) {
		res.Err = wrapError("cancel run", err)
		c.logger.Warn("workflow cancel failed", "repo", c.Repo(), "run_id", id, "error", res.Err)
	} else {
		c.logger.Info("workflow cancel requested", "repo", c.Repo(), "run_id", id)
	}
	return res
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
