package main

import (
	"errors"
	"os"

	"github.com/tsukumogami/dumpbot/internal/workflow"
)

// Exit codes let scripts tell failure modes apart.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitConfig indicates missing or invalid configuration or secrets
	ExitConfig = 3

	// ExitNotFound indicates the repository, workflow or run was not found
	ExitNotFound = 4

	// ExitNetwork indicates a network or API error
	ExitNetwork = 5

	// ExitRejected indicates the URL did not pass the archive check
	ExitRejected = 6
)

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}

// exitCodeFor maps an error to the closest exit code.
func exitCodeFor(err error) int {
	var wfErr *workflow.Error
	if !errors.As(err, &wfErr) {
		return ExitGeneral
	}
	switch wfErr.Kind {
	case workflow.KindNotFound, workflow.KindNoRuns:
		return ExitNotFound
	case workflow.KindInvalidRunID:
		return ExitUsage
	default:
		return ExitNetwork
	}
}
