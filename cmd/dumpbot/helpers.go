package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tsukumogami/dumpbot/internal/config"
	"github.com/tsukumogami/dumpbot/internal/errmsg"
	"github.com/tsukumogami/dumpbot/internal/log"
	"github.com/tsukumogami/dumpbot/internal/probe"
	"github.com/tsukumogami/dumpbot/internal/progress"
	"github.com/tsukumogami/dumpbot/internal/secrets"
	"github.com/tsukumogami/dumpbot/internal/userconfig"
	"github.com/tsukumogami/dumpbot/internal/workflow"
)

// loadDotEnv loads ./.env and $DUMPBOT_HOME/.env. Variables already in
// the environment are not overridden.
func loadDotEnv() {
	files := []string{".env"}
	if cfg, err := config.DefaultConfig(); err == nil {
		files = append(files, cfg.EnvFile)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: ignoring %s: %v\n", f, err)
		}
	}
}

// loadSettings reads config.toml, applies environment overrides and
// validates the result.
func loadSettings() (*userconfig.Config, error) {
	cfg, err := userconfig.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// mustSettings is loadSettings for commands that cannot continue without it.
func mustSettings() *userconfig.Config {
	cfg, err := loadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "\nRun 'dumpbot config list' to see the current settings.")
		exitWithCode(ExitConfig)
	}
	return cfg
}

// newWorkflowClient builds the Actions client from settings and the
// github_token secret.
func newWorkflowClient(cfg *userconfig.Config) (*workflow.Client, error) {
	token, err := secrets.Get(secrets.GitHubToken)
	if err != nil {
		return nil, err
	}
	return workflow.New(cfg.Repo, cfg.Workflow,
		workflow.WithToken(token),
		workflow.WithRef(cfg.Ref),
		workflow.WithBaseURL(config.GetGitHubAPIURL()),
		workflow.WithWebURL(config.GetGitHubWebURL()),
		workflow.WithLogger(log.Default()),
	)
}

func mustWorkflowClient(cfg *userconfig.Config) *workflow.Client {
	c, err := newWorkflowClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitWithCode(ExitConfig)
	}
	return c
}

func newValidator() *probe.Validator {
	return probe.New(
		probe.WithTimeout(config.GetProbeTimeout()),
		probe.WithLogger(log.Default()),
	)
}

// startSpinner shows msg on stderr until the spinner is stopped. Quiet
// mode suppresses it.
func startSpinner(msg string) *progress.Spinner {
	var out io.Writer = os.Stderr
	if quietFlag {
		out = io.Discard
	}
	s := progress.NewSpinner(out)
	s.Start(msg)
	return s
}

// fail prints err with hints and exits with the matching code.
func fail(err error, cfg *userconfig.Config) {
	ctx := &errmsg.ErrorContext{}
	if cfg != nil {
		ctx.Repo = cfg.Repo
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", strings.TrimRight(errmsg.Format(err, ctx), "\n"))
	exitWithCode(exitCodeFor(err))
}
