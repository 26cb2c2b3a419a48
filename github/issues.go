package github

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

// Issue is an issue or, when PullRequest is set, a pull request.
type Issue struct {
	ID          int64          `json:"id"`
	NodeID      string         `json:"node_id"`
	Number      int            `json:"number"`
	Title       string         `json:"title"`
	Body        lenient.String `json:"body"`
	State       string         `json:"state"`
	StateReason lenient.String `json:"state_reason"`
	Locked      bool           `json:"locked"`
	User        *User          `json:"user"`
	Labels      []Label        `json:"labels"`
	Assignees   []*User        `json:"assignees"`
	Milestone   *Milestone     `json:"milestone"`
	Comments    int            `json:"comments"`
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request,omitempty"`
	HTMLURL   string       `json:"html_url"`
	CreatedAt lenient.Time `json:"created_at"`
	UpdatedAt lenient.Time `json:"updated_at"`
	ClosedAt  lenient.Time `json:"closed_at"`
}

// IsPullRequest reports whether the issue is a pull request. The issues
// endpoints return both.
func (i *Issue) IsPullRequest() bool {
	return i.PullRequest != nil
}

type Label struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Color       string         `json:"color"`
	Description lenient.String `json:"description"`
}

type Milestone struct {
	ID     int64        `json:"id"`
	Number int          `json:"number"`
	Title  string       `json:"title"`
	State  string       `json:"state"`
	DueOn  lenient.Time `json:"due_on"`
}

// IssueRequest creates or edits an issue. Nil fields are left unchanged on
// edit.
type IssueRequest struct {
	Title       *string   `json:"title,omitempty"`
	Body        *string   `json:"body,omitempty"`
	State       *string   `json:"state,omitempty"`
	StateReason *string   `json:"state_reason,omitempty"`
	Labels      *[]string `json:"labels,omitempty"`
	Assignees   *[]string `json:"assignees,omitempty"`
	Milestone   *int      `json:"milestone,omitempty"`
}

// ListIssuesOptions filters a repository's issues.
type ListIssuesOptions struct {
	// State is open, closed or all. The API default is open.
	State     string
	Labels    []string
	Assignee  string
	Creator   string
	Mentioned string
	Milestone string
	Since     time.Time
	Sort      string
	Direction string
	ListOptions
}

func (o ListIssuesOptions) params() rest.Params {
	p := rest.NewParams().
		Set("state", o.State).
		Join("labels", o.Labels).
		Set("assignee", o.Assignee).
		Set("creator", o.Creator).
		Set("mentioned", o.Mentioned).
		Set("milestone", o.Milestone).
		SetTime("since", o.Since, time.RFC3339).
		Set("sort", o.Sort).
		Set("direction", o.Direction)
	o.ListOptions.apply(p)
	return p
}

// IssuesService handles the issues of a repository.
type IssuesService struct {
	c *Client
}

// List returns one page of issues.
func (s *IssuesService) List(ctx context.Context, owner, repo string, opts ListIssuesOptions) ([]*Issue, *Response, error) {
	if err := rest.Require("owner", owner, "repo", repo); err != nil {
		return nil, nil, err
	}
	return list[*Issue](ctx, s.c, repoPath(owner, repo, "/issues"), opts.params().Values(), "")
}

// ListAll follows the Link header through every page.
func (s *IssuesService) ListAll(ctx context.Context, owner, repo string, opts ListIssuesOptions) ([]*Issue, error) {
	if err := rest.Require("owner", owner, "repo", repo); err != nil {
		return nil, err
	}
	return listAll[*Issue](ctx, s.c, repoPath(owner, repo, "/issues"), opts.params().Values())
}

// Get returns an issue by number.
func (s *IssuesService) Get(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	if err := rest.Require("owner", owner, "repo", repo); err != nil {
		return nil, err
	}
	var issue Issue
	if _, err := s.c.rest.Get(ctx, issuePath(owner, repo, number), nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Create opens an issue.
func (s *IssuesService) Create(ctx context.Context, owner, repo string, req *IssueRequest) (*Issue, error) {
	if err := rest.Require("owner", owner, "repo", repo); err != nil {
		return nil, err
	}
	if req == nil || req.Title == nil || *req.Title == "" {
		return nil, errors.New(`missing required parameter "title"`)
	}
	var issue Issue
	if _, err := s.c.rest.Post(ctx, repoPath(owner, repo, "/issues"), req, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Edit updates the fields of req that are set.
func (s *IssuesService) Edit(ctx context.Context, owner, repo string, number int, req *IssueRequest) (*Issue, error) {
	if err := rest.Require("owner", owner, "repo", repo); err != nil {
		return nil, err
	}
	if req == nil {
		req = &IssueRequest{}
	}
	var issue Issue
	if _, err := s.c.rest.Patch(ctx, issuePath(owner, repo, number), req, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func issuePath(owner, repo string, number int) string {
	return repoPath(owner, repo, "/issues/"+strconv.Itoa(number))
}

// String returns a pointer to s, for IssueRequest fields.
func String(s string) *string { return &s }

// Strings returns a pointer to ss, for IssueRequest list fields.
func Strings(ss ...string) *[]string {
	if ss == nil {
		ss = []string{}
	}
	return &ss
}

// Int returns a pointer to n.
func Int(n int) *int { return &n }
