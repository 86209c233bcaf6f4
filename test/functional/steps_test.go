package functional

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsukumogami/dumpbot/internal/bot"
	"github.com/tsukumogami/dumpbot/internal/log"
	"github.com/tsukumogami/dumpbot/internal/probe"
	"github.com/tsukumogami/dumpbot/internal/workflow"
)

func theAdminsAre(ctx context.Context, id int64) (context.Context, error) {
	state := getState(ctx)
	state.admins = append(state.admins, id)
	return ctx, nil
}

func iAmUser(ctx context.Context, id int64) (context.Context, error) {
	getState(ctx).caller = id
	return ctx, nil
}

func theArchiveIsServedAs(ctx context.Context, path, contentType string) (context.Context, error) {
	getState(ctx).archive.set(path, contentType)
	return ctx, nil
}

func theLatestWorkflowRunIs(ctx context.Context, id int64) (context.Context, error) {
	getState(ctx).github.setLatest(id)
	return ctx, nil
}

func workflowRunExists(ctx context.Context, id int64) (context.Context, error) {
	getState(ctx).github.addRun(id)
	return ctx, nil
}

// newRouter wires the real validator and workflow client to the mock hosts.
func (s *testState) newRouter() (*bot.Router, error) {
	quiet := log.NewNoop()
	wf, err := workflow.New("acme/dumps", "dump.yml",
		workflow.WithBaseURL(s.githubSrv.URL),
		workflow.WithDelays(0, 0),
		workflow.WithLogger(quiet),
	)
	if err != nil {
		return nil, err
	}
	return bot.NewRouter(bot.NewAllowList(s.admins...), probe.New(probe.WithLogger(quiet)), wf, bot.WithLogger(quiet)), nil
}

// iSend delivers a command message such as "/cancel 42" from the current user.
func iSend(ctx context.Context, text string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ctx, fmt.Errorf("not a command: %q", text)
	}

	r, err := state.newRouter()
	if err != nil {
		return ctx, fmt.Errorf("building router: %w", err)
	}

	reply, ok := r.Handle(context.Background(), bot.Command{
		Name:   strings.TrimPrefix(fields[0], "/"),
		Caller: state.caller,
		Args:   fields[1:],
	})
	state.reply = reply.Text
	state.replied = ok
	return ctx, nil
}

// iSendWithTheArchive appends the mock archive URL for path to the command.
func iSendWithTheArchive(ctx context.Context, text, path string) (context.Context, error) {
	state := getState(ctx)
	return iSend(ctx, text+" "+state.archiveURL(path))
}

func (s *testState) archiveURL(path string) string {
	return s.archiveSrv.URL + "/" + strings.TrimPrefix(path, "/")
}

func theBotReplies(ctx context.Context, expected string) error {
	state := getState(ctx)
	if !state.replied {
		return fmt.Errorf("expected reply %q, bot stayed silent", expected)
	}
	if state.reply != expected {
		return fmt.Errorf("expected reply %q, got %q", expected, state.reply)
	}
	return nil
}

func theReplyContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !state.replied {
		return fmt.Errorf("expected reply containing %q, bot stayed silent", text)
	}
	if !strings.Contains(state.reply, text) {
		return fmt.Errorf("expected reply to contain %q, got:\n%s", text, state.reply)
	}
	return nil
}

func theBotDoesNotReply(ctx context.Context) error {
	state := getState(ctx)
	if state.replied {
		return fmt.Errorf("expected no reply, got %q", state.reply)
	}
	return nil
}

func workflowsWereDispatched(ctx context.Context, n int) error {
	if got := getState(ctx).github.dispatchCount(); got != n {
		return fmt.Errorf("expected %d dispatches, got %d", n, got)
	}
	return nil
}

func cancellationsWereRequested(ctx context.Context, n int) error {
	if got := getState(ctx).github.cancelCount(); got != n {
		return fmt.Errorf("expected %d cancellations, got %d", n, got)
	}
	return nil
}

func theDispatchInputPointsAt(ctx context.Context, input, path string) error {
	state := getState(ctx)
	body := state.github.lastDispatch()
	if body == nil {
		return fmt.Errorf("no dispatch recorded")
	}
	inputs, _ := body["inputs"].(map[string]any)
	got, _ := inputs[input].(string)
	if want := state.archiveURL(path); got != want {
		return fmt.Errorf("expected input %s=%q, got %q", input, want, got)
	}
	return nil
}
