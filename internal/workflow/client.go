// Package workflow triggers and cancels runs of a GitHub Actions workflow.
//
// The dispatch API is asynchronous and returns no run id, so Dispatch waits
// for the run to be indexed and then reads the most recent run of the
// repository. There are no retries anywhere in this package.
package workflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/tsukumogami/dumpbot/internal/config"
	"github.com/tsukumogami/dumpbot/internal/httputil"
	"github.com/tsukumogami/dumpbot/internal/log"
)

const (
	// DefaultRef is the branch the workflow is dispatched on.
	DefaultRef = "master"
	// DefaultInput is the workflow_dispatch input that receives the URL.
	DefaultInput = "urls"
	// DefaultWebURL is the base of run tracking links.
	DefaultWebURL = "https://github.com"
)

// Run is a workflow run as reported by the API.
type Run struct {
	ID         int64
	Name       string
	Status     string
	Conclusion string
	HTMLURL    string
	CreatedAt  time.Time
}

func runFromGitHub(r *github.WorkflowRun) *Run {
	return &Run{
		ID:         r.GetID(),
		Name:       r.GetName(),
		Status:     r.GetStatus(),
		Conclusion: r.GetConclusion(),
		HTMLURL:    r.GetHTMLURL(),
		CreatedAt:  r.GetCreatedAt().Time,
	}
}

// Client talks to the Actions API of a single repository.
type Client struct {
	gh            *github.Client
	owner         string
	repo          string
	workflow      string
	ref           string
	input         string
	dispatchDelay time.Duration
	settleDelay   time.Duration
	webURL        string
	logger        log.Logger

	httpClient *http.Client
	token      string
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets the transport used for API calls. The token, if any,
// is layered on top of it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL points the client at a different API root, such as a GitHub
// Enterprise server or a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithWebURL sets the base of run tracking links. Empty keeps the default.
func WithWebURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.webURL = strings.TrimRight(u, "/")
		}
	}
}

// WithRef sets the git ref the workflow is dispatched on.
func WithRef(ref string) Option {
	return func(c *Client) {
		c.ref = ref
	}
}

// WithInputName sets the workflow input that receives the URL.
func WithInputName(name string) Option {
	return func(c *Client) {
		c.input = name
	}
}

// WithDelays sets the wait before the dispatch call and the wait between
// dispatch and the run lookup.
func WithDelays(dispatch, settle time.Duration) Option {
	return func(c *Client) {
		c.dispatchDelay = dispatch
		c.settleDelay = settle
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// ParseRepo splits "owner/name".
func ParseRepo(s string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/name", s)
	}
	return owner, name, nil
}

// New creates a Client for repo ("owner/name") and workflow, which is either
// a numeric workflow id or a workflow file name such as "dump.yml".
func New(repo, workflow string, opts ...Option) (*Client, error) {
	owner, name, err := ParseRepo(repo)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(workflow) == "" {
		return nil, fmt.Errorf("workflow is required")
	}

	c := &Client{
		owner:         owner,
		repo:          name,
		workflow:      strings.TrimSpace(workflow),
		ref:           DefaultRef,
		input:         DefaultInput,
		dispatchDelay: config.GetDispatchDelay(),
		settleDelay:   config.GetSettleDelay(),
		webURL:        DefaultWebURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}

	hc := c.httpClient
	if hc == nil {
		o := httputil.DefaultOptions()
		o.Timeout = config.GetAPITimeout()
		hc = httputil.NewAPIClient(o)
	}
	if c.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
		hc = oauth2.NewClient(context.WithValue(context.Background(), oauth2.HTTPClient, hc), ts)
	}
	c.gh = github.NewClient(hc)

	if c.baseURL != "" {
		base := c.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL: %w", err)
		}
		c.gh.BaseURL = u
	}
	return c, nil
}

// Repo returns "owner/name".
func (c *Client) Repo() string {
	return c.owner + "/" + c.repo
}

// RunURL returns the tracking link for a run.
func (c *Client) RunURL(id int64) string {
	return fmt.Sprintf("%s/%s/%s/actions/runs/%d", c.webURL, c.owner, c.repo, id)
}

// Dispatch starts the workflow with rawURL as its input and returns the
// most recent run once the provider has had time to index it.
//
// A failed dispatch call is logged but does not stop the run lookup.
func (c *Client) Dispatch(ctx context.Context, rawURL string) (*Run, error) {
	if err := sleep(ctx, c.dispatchDelay); err != nil {
		return nil, &Error{Kind: KindTransport, Op: "dispatch", Err: err}
	}

	event := github.CreateWorkflowDispatchEventRequest{
		Ref:    c.ref,
		Inputs: map[string]interface{}{c.input: rawURL},
	}
	var err error
	if id, convErr := strconv.ParseInt(c.workflow, 10, 64); convErr == nil {
		_, err = c.gh.Actions.CreateWorkflowDispatchEventByID(ctx, c.owner, c.repo, id, event)
	} else {
		_, err = c.gh.Actions.CreateWorkflowDispatchEventByFileName(ctx, c.owner, c.repo, c.workflow, event)
	}
	if err != nil && !isAccepted(err) {
		c.logger.Warn("workflow dispatch failed", "repo", c.Repo(), "workflow", c.workflow, "error", wrapError("dispatch", err))
	} else {
		c.logger.Debug("workflow dispatched", "repo", c.Repo(), "workflow", c.workflow, "ref", c.ref)
	}

	if err := sleep(ctx, c.settleDelay); err != nil {
		return nil, &Error{Kind: KindTransport, Op: "dispatch", Err: err}
	}
	return c.LatestRun(ctx)
}

// LatestRun returns the most recent run of the repository.
func (c *Client) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := c.Runs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, &Error{Kind: KindNoRuns, Op: "list runs"}
	}
	return runs[0], nil
}

// Runs returns up to n of the most recent runs, newest first.
func (c *Client) Runs(ctx context.Context, n int) ([]*Run, error) {
	opts := &github.ListWorkflowRunsOptions{ListOptions: github.ListOptions{PerPage: n}}
	result, _, err := c.gh.Actions.ListRepositoryWorkflowRuns(ctx, c.owner, c.repo, opts)
	if err != nil {
		wfErr := wrapError("list runs", err)
		c.logger.Warn("listing workflow runs failed", "repo", c.Repo(), "error", wfErr)
		return nil, wfErr
	}
	runs := make([]*Run, 0, len(result.WorkflowRuns))
	for _, r := range result.WorkflowRuns {
		runs = append(runs, runFromGitHub(r))
	}
	return runs, nil
}

// GetRun fetches one run by id.
func (c *Client) GetRun(ctx context.Context, id int64) (*Run, error) {
	r, _, err := c.gh.Actions.GetWorkflowRunByID(ctx, c.owner, c.repo, id)
	if err != nil {
		return nil, wrapError("get run", err)
	}
	return runFromGitHub(r), nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
