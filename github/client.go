// Package github is a client for the repository and issue endpoints of the
// GitHub REST API.
package github

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lkretschmer/apiclients/rest"
)

const (
	DefaultBaseURL = "https://api.github.com/"
	// APIVersion is sent in X-GitHub-Api-Version.
	APIVersion = "2022-11-28"
	// EnvToken holds the token read by NewClientFromEnv.
	EnvToken = "GITHUB_TOKEN"

	mediaType = "application/vnd.github+json"
)

// Client is a GitHub REST client.
type Client struct {
	rest *rest.Client

	repositories *RepositoriesService
	issues       *IssuesService
}

// NewClient returns a client authenticated with a personal access or
// installation token. An empty token makes unauthenticated requests.
func NewClient(token string, opts ...rest.Option) *Client {
	base := []rest.Option{
		rest.WithHeader("Accept", mediaType),
		rest.WithHeader("X-GitHub-Api-Version", APIVersion),
	}
	if token != "" {
		base = append(base, rest.WithAuthenticator(rest.BearerToken(token)))
	}
	c := &Client{rest: rest.New(DefaultBaseURL, append(base, opts...)...)}
	c.repositories = &RepositoriesService{c: c}
	c.issues = &IssuesService{c: c}
	return c
}

// NewClientFromEnv reads the token from GITHUB_TOKEN. A missing token is not
// an error.
func NewClientFromEnv(opts ...rest.Option) *Client {
	return NewClient(strings.TrimSpace(os.Getenv(EnvToken)), opts...)
}

// Repositories returns the repositories service.
func (c *Client) Repositories() *RepositoriesService { return c.repositories }

// Issues returns the issues service.
func (c *Client) Issues() *IssuesService { return c.issues }

// Response carries the pagination and rate limit headers of a list call.
type Response struct {
	// NextPage is the URL of the next page, empty on the last page.
	NextPage string
	Rate     Rate
}

// Rate is the rate limit state reported with every response.
type Rate struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

func newResponse(res *rest.Response) *Response {
	if res == nil {
		return &Response{}
	}
	r := &Response{NextPage: rest.NextLink(res.Header)}
	r.Rate.Limit, _ = strconv.Atoi(res.Header.Get("X-RateLimit-Limit"))
	r.Rate.Remaining, _ = strconv.Atoi(res.Header.Get("X-RateLimit-Remaining"))
	if sec, err := strconv.ParseInt(res.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		r.Rate.Reset = time.Unix(sec, 0)
	}
	return r
}

// ListOptions selects a page of a list endpoint.
type ListOptions struct {
	PerPage int
	Page    int
}

func (o ListOptions) apply(p rest.Params) {
	p.SetInt("per_page", int64(o.PerPage)).SetInt("page", int64(o.Page))
}

// list fetches one page. A non-empty next URL replaces path and query.
func list[T any](ctx context.Context, c *Client, path string, q url.Values, next string) ([]T, *Response, error) {
	req := &rest.Request{Method: http.MethodGet, Path: path, Query: q}
	if next != "" {
		req.Path, req.Query = next, nil
	}
	var items []T
	res, err := c.rest.Do(ctx, req, &items)
	if err != nil {
		return nil, newResponse(res), err
	}
	return items, newResponse(res), nil
}

// listAll follows rel="next" links until the last page.
func listAll[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	return rest.Collect(ctx, func(ctx context.Context, cursor string) (rest.Page[T], error) {
		items, resp, err := list[T](ctx, c, path, q, cursor)
		if err != nil {
			return rest.Page[T]{}, err
		}
		return rest.Page[T]{Items: items, Next: resp.NextPage}, nil
	})
}

// User is the abbreviated account object embedded in other resources.
type User struct {
	ID      int64  `json:"id"`
	Login   string `json:"login"`
	Type    string `json:"type"`
	HTMLURL string `json:"html_url"`
}
