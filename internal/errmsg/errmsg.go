// Package errmsg formats CLI errors with likely causes and next steps.
package errmsg

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tsukumogami/dumpbot/internal/workflow"
)

// ErrorContext carries optional details used in suggestions.
type ErrorContext struct {
	Repo string // owner/name of the workflow repository
}

// Format returns err's message followed by possible causes and suggestions
// when the error is recognized. ctx may be nil.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}

	var wfErr *workflow.Error
	if errors.As(err, &wfErr) {
		return formatWorkflowError(err, wfErr.Kind, ctx)
	}

	msg := err.Error()
	if isRateLimitError(msg) {
		return withHints(msg,
			[]string{"Too many requests to the GitHub API", "Unauthenticated requests have lower limits"},
			[]string{"Set GITHUB_TOKEN or run 'dumpbot config set-secret github_token'", "Wait a few minutes before retrying"},
		)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetworkError(msg, netErr.Timeout())
	}
	if isNetworkError(msg) {
		return formatNetworkError(msg, false)
	}

	if isPermissionError(msg) {
		return withHints(msg,
			[]string{"Insufficient permissions on the $DUMPBOT_HOME directory"},
			[]string{"Check permissions on ~/.dumpbot", "Point DUMPBOT_HOME at a directory you own"},
		)
	}

	return msg
}

func formatWorkflowError(err error, kind workflow.ErrorKind, ctx *ErrorContext) string {
	repo := "<owner/name>"
	if ctx != nil && ctx.Repo != "" {
		repo = ctx.Repo
	}

	switch kind {
	case workflow.KindRateLimit:
		return withHints(err.Error(),
			[]string{"GitHub API rate limit exceeded"},
			[]string{"Use a token with a higher rate limit", "Wait for the limit to reset before retrying"},
		)
	case workflow.KindNotFound:
		return withHints(err.Error(),
			[]string{
				fmt.Sprintf("Repository %s, the workflow, or the run does not exist", repo),
				"The token cannot see the repository",
			},
			[]string{
				"Check 'dumpbot config get repo' and 'dumpbot config get workflow'",
				"Make sure the token has the actions scope on " + repo,
			},
		)
	case workflow.KindNoRuns:
		return withHints(err.Error(),
			[]string{"The dispatch was not registered yet", "The workflow lacks a workflow_dispatch trigger"},
			[]string{"Increase DUMPBOT_SETTLE_DELAY", fmt.Sprintf("Check https://github.com/%s/actions", repo)},
		)
	case workflow.KindInvalidRunID:
		return withHints(err.Error(), nil, []string{"Run ids are the digits at the end of the run URL"})
	case workflow.KindDecode:
		return withHints(err.Error(),
			[]string{"Unexpected response from the API endpoint"},
			[]string{"Check that the API base URL points at a GitHub API"},
		)
	default:
		return formatNetworkError(err.Error(), false)
	}
}

func formatNetworkError(msg string, timeout bool) string {
	causes := []string{"Network connectivity issue", "Service temporarily unavailable"}
	suggestions := []string{"Check your internet connection", "Try again in a few minutes"}
	if timeout {
		causes = []string{"Request timed out", "Slow or unstable network connection"}
		suggestions = append(suggestions, "Raise DUMPBOT_API_TIMEOUT or DUMPBOT_PROBE_TIMEOUT")
	}
	return withHints(msg, causes, suggestions)
}

func withHints(msg string, causes, suggestions []string) string {
	var sb strings.Builder
	sb.WriteString(msg)
	sb.WriteString("\n")
	if len(causes) > 0 {
		sb.WriteString("\nPossible causes:\n")
		for _, c := range causes {
			sb.WriteString("  - " + c + "\n")
		}
	}
	if len(suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		for _, s := range suggestions {
			sb.WriteString("  - " + s + "\n")
		}
	}
	return sb.String()
}

func isRateLimitError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate-limit") ||
		strings.Contains(lower, "too many requests")
}

func isNetworkError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "network is unreachable") ||
		strings.Contains(lower, "dial tcp") ||
		strings.Contains(lower, "i/o timeout")
}

func isPermissionError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "operation not permitted")
}
