package github

import (
	"context"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

type Repository struct {
	ID              int64          `json:"id"`
	NodeID          string         `json:"node_id"`
	Name            string         `json:"name"`
	FullName        string         `json:"full_name"`
	Owner           *User          `json:"owner"`
	Private         bool           `json:"private"`
	Visibility      string         `json:"visibility"`
	Description     lenient.String `json:"description"`
	Fork            bool           `json:"fork"`
	Archived        bool           `json:"archived"`
	DefaultBranch   string         `json:"default_branch"`
	Language        lenient.String `json:"language"`
	Topics          []string       `json:"topics"`
	HTMLURL         string         `json:"html_url"`
	CloneURL        string         `json:"clone_url"`
	StargazersCount int            `json:"stargazers_count"`
	ForksCount      int            `json:"forks_count"`
	OpenIssuesCount int            `json:"open_issues_count"`
	CreatedAt       lenient.Time   `json:"created_at"`
	UpdatedAt       lenient.Time   `json:"updated_at"`
	PushedAt        lenient.Time   `json:"pushed_at"`
}

// ListForOrgOptions filters an organization's repositories.
type ListForOrgOptions struct {
	// Type is all, public, private, forks, sources or member.
	Type      string
	Sort      string
	Direction string
	ListOptions
}

func (o ListForOrgOptions) params() rest.Params {
	p := rest.NewParams().
		Set("type", o.Type).
		Set("sort", o.Sort).
		Set("direction", o.Direction)
	o.ListOptions.apply(p)
	return p
}

// RepositoriesService handles repositories.
type RepositoriesService struct {
	c *Client
}

// ListForOrg returns one page of an organization's repositories.
func (s *RepositoriesService) ListForOrg(ctx context.Context, org string, opts ListForOrgOptions) ([]*Repository, *Response, error) {
	if err := rest.Require("org", org); err != nil {
		return nil, nil, err
	}
	return list[*Repository](ctx, s.c, orgReposPath(org), opts.params().Values(), "")
}

// ListAllForOrg follows the Link header through every page.
func (s *RepositoriesService) ListAllForOrg(ctx context.Context, org string, opts ListForOrgOptions) ([]*Repository, error) {
	if err := rest.Require("org", org); err != nil {
		return nil, err
	}
	return listAll[*Repository](ctx, s.c, orgReposPath(org), opts.params().Values())
}

// Get returns a repository.
func (s *RepositoriesService) Get(ctx context.Context, owner, repo string) (*Repository, error) {
	if err := rest.Require("owner", owner, "repo", repo); err != nil {
		return nil, err
	}
	var r Repository
	if _, err := s.c.rest.Get(ctx, repoPath(owner, repo, ""), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func orgReposPath(org string) string {
	return rest.Expand("orgs/{org}/repos", map[string]string{"org": org})
}

func repoPath(owner, repo, suffix string) string {
	return rest.Expand("repos/{owner}/{repo}", map[string]string{"owner": owner, "repo": repo}) + suffix
}
