// Package bot turns chat commands into URL checks and workflow calls and
// composes the replies. It knows nothing about the chat transport.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tsukumogami/dumpbot/internal/log"
	"github.com/tsukumogami/dumpbot/internal/probe"
	"github.com/tsukumogami/dumpbot/internal/workflow"
)

// Command names.
const (
	CommandDump   = "dump"
	CommandCancel = "cancel"
)

// Reply texts.
const (
	MsgProvideURL     = "Please provide a URL"
	MsgInvalidURL     = "Invalid or unreachable URL"
	MsgDispatchFailed = "Failed to start workflow"
	MsgProvideRunID   = "Please provide a run ID"
)

// URLValidator decides whether a URL points at an archive.
type URLValidator interface {
	Validate(ctx context.Context, raw string) probe.Result
}

// RunController starts and cancels workflow runs.
type RunController interface {
	Dispatch(ctx context.Context, rawURL string) (*workflow.Run, error)
	Cancel(ctx context.Context, runID string) workflow.CancelResult
	RunURL(id int64) string
}

// Command is one incoming chat command.
type Command struct {
	Name   string
	Caller int64
	Args   []string
}

// Reply is the text to send back.
type Reply struct {
	Text string
	// Markdown selects Telegram's legacy Markdown parse mode.
	Markdown bool
	// DisablePreview suppresses link previews.
	DisablePreview bool
}

// CommandInfo is a command as registered with the chat platform.
type CommandInfo struct {
	Name        string
	Description string
}

// Router handles commands. It is safe for concurrent use.
type Router struct {
	allow     AllowList
	validator URLValidator
	runs      RunController
	logger    log.Logger
	newID     func() string
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// WithInvocationIDs replaces the per-invocation id generator.
func WithInvocationIDs(f func() string) Option {
	return func(r *Router) {
		r.newID = f
	}
}

// NewRouter creates a Router. The allow list is fixed for its lifetime.
func NewRouter(allow AllowList, validator URLValidator, runs RunController, opts ...Option) *Router {
	r := &Router{
		allow:     allow,
		validator: validator,
		runs:      runs,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// Commands lists the commands to register with the chat platform.
func (r *Router) Commands() []CommandInfo {
	return []CommandInfo{
		{Name: CommandDump, Description: "you should know"},
		{Name: CommandCancel, Description: "you should know"},
	}
}

// Handle routes cmd by name. ok is false when nothing should be sent back,
// either because the caller is not allowed or the command is unknown.
func (r *Router) Handle(ctx context.Context, cmd Command) (Reply, bool) {
	switch strings.ToLower(cmd.Name) {
	case CommandDump:
		return r.Dump(ctx, cmd.Caller, cmd.Args)
	case CommandCancel:
		return r.Cancel(ctx, cmd.Caller, cmd.Args)
	default:
		return Reply{}, false
	}
}

// Dump validates the URL formed by args joined with spaces and, if it is
// an archive, dispatches the workflow.
func (r *Router) Dump(ctx context.Context, caller int64, args []string) (Reply, bool) {
	logger := r.logger.With("invocation", r.newID(), "command", CommandDump, "caller", caller)
	if !r.allow.Allowed(caller) {
		logger.Info("ignoring unauthorized caller")
		return Reply{}, false
	}

	raw := strings.TrimSpace(strings.Join(args, " "))
	if raw == "" {
		return Reply{Text: MsgProvideURL}, true
	}

	res := r.validator.Validate(ctx, raw)
	if !res.Valid {
		logger.Info("url rejected", "url", raw, "reason", res.Reason, "content_type", res.ContentType)
		text := MsgInvalidURL
		if res.ContentType != "" {
			text += "\nContent-Type: " + res.ContentType
		}
		return Reply{Text: text}, true
	}

	run, err := r.runs.Dispatch(ctx, raw)
	if err != nil {
		logger.Error("dispatch failed", "url", raw, "error", err)
		return Reply{Text: MsgDispatchFailed}, true
	}

	logger.Info("dump started", "url", raw, "run_id", run.ID)
	return Reply{
		Text:           fmt.Sprintf("Dump started!\nTrack: [here](%s)\nCancel: `/cancel %d`", r.runs.RunURL(run.ID), run.ID),
		Markdown:       true,
		DisablePreview: true,
	}, true
}

// Cancel requests cancellation of the run named by the first argument and
// relays the outcome.
func (r *Router) Cancel(ctx context.Context, caller int64, args []string) (Reply, bool) {
	logger := r.logger.With("invocation", r.newID(), "command", CommandCancel, "caller", caller)
	if !r.allow.Allowed(caller) {
		logger.Info("ignoring unauthorized caller")
		return Reply{}, false
	}
	if len(args) == 0 || args[0] == "" {
		return Reply{Text: MsgProvideRunID}, true
	}

	res := r.runs.Cancel(ctx, args[0])
	logger.Info("cancel handled", "run_id", args[0], "outcome", res.Message(), "error", res.Err)
	return Reply{Text: res.Message()}, true
}
