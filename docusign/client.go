// Package docusign is a client for the DocuSign eSignature REST API v2.1:
// envelopes, recipients and templates, authenticated with the JWT grant.
package docusign

import (
	"context"
	"strconv"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the production REST root. Accounts may live on
	// another host; use Account.RestBaseURL from UserInfo.
	DefaultBaseURL = "https://www.docusign.net/restapi/"
	// DemoBaseURL is the developer sandbox REST root.
	DemoBaseURL = "https://demo.docusign.net/restapi/"
)

var statusMessages = map[int]string{
	401: "The access token is missing, expired or lacks the signature scope.",
	429: "The hourly API call limit for the account has been reached.",
}

// Client is a DocuSign eSignature client bound to one account.
type Client struct {
	rest      *rest.Client
	accountID string

	envelopes *EnvelopesService
	templates *TemplatesService
}

// NewClient returns a client for accountID authenticated with ts.
func NewClient(ts oauth2.TokenSource, accountID string, opts ...rest.Option) *Client {
	base := []rest.Option{
		rest.WithAuthenticator(rest.TokenSource(ts)),
		rest.WithStatusMessages(statusMessages),
	}
	c := &Client{
		rest:      rest.New(DefaultBaseURL, append(base, opts...)...),
		accountID: accountID,
	}
	c.envelopes = &EnvelopesService{c: c}
	c.templates = &TemplatesService{c: c}
	return c
}

// AccountID returns the account every request is scoped to.
func (c *Client) AccountID() string { return c.accountID }

// Envelopes returns the envelopes service.
func (c *Client) Envelopes() *EnvelopesService { return c.envelopes }

// Templates returns the templates service.
func (c *Client) Templates() *TemplatesService { return c.templates }

// path expands an account-scoped path template.
func (c *Client) path(template string, vars map[string]string) string {
	params := map[string]string{"accountId": c.accountID}
	for k, v := range vars {
		params[k] = v
	}
	return rest.Expand("v2.1/accounts/{accountId}/"+template, params)
}

// Paging is the result-set block every list response carries.
type Paging struct {
	ResultSetSize lenient.Int64 `json:"resultSetSize"`
	StartPosition lenient.Int64 `json:"startPosition"`
	EndPosition   lenient.Int64 `json:"endPosition"`
	TotalSetSize  lenient.Int64 `json:"totalSetSize"`
	NextURI       string        `json:"nextUri,omitempty"`
}

// next returns the start position of the following page, or "" after the
// last one.
func (p Paging) next(items int) string {
	if items == 0 {
		return ""
	}
	end := int64(p.EndPosition)
	if end+1 >= int64(p.TotalSetSize) {
		return ""
	}
	return strconv.FormatInt(end+1, 10)
}

// collect pages through a start_position/count list.
func collect[T any](ctx context.Context, start int, fetch func(ctx context.Context, start int) ([]T, Paging, error)) ([]T, error) {
	return rest.Collect(ctx, func(ctx context.Context, cursor string) (rest.Page[T], error) {
		pos := start
		if cursor != "" {
			n, err := strconv.Atoi(cursor)
			if err != nil {
				return rest.Page[T]{}, err
			}
			pos = n
		}
		items, paging, err := fetch(ctx, pos)
		if err != nil {
			return rest.Page[T]{}, err
		}
		return rest.Page[T]{Items: items, Next: paging.next(len(items))}, nil
	})
}

// ErrorDetails is attached to objects that failed in a bulk operation.
type ErrorDetails struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}
