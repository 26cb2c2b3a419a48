// Package googleadmin is a client for the Google Workspace Admin SDK
// Directory API: users, groups and group members.
//
// Requests are authorized with an oauth2.TokenSource. For service accounts
// with domain-wide delegation use NewClientFromServiceAccount and pass the
// admin user to impersonate as subject.
package googleadmin

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/lkretschmer/apiclients/rest"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultBaseURL is the Directory API root.
const DefaultBaseURL = "https://admin.googleapis.com/admin/directory/v1/"

// OAuth2 scopes understood by the Directory API.
const (
	ScopeUser                = "https://www.googleapis.com/auth/admin.directory.user"
	ScopeUserReadonly        = "https://www.googleapis.com/auth/admin.directory.user.readonly"
	ScopeGroup               = "https://www.googleapis.com/auth/admin.directory.group"
	ScopeGroupReadonly       = "https://www.googleapis.com/auth/admin.directory.group.readonly"
	ScopeGroupMember         = "https://www.googleapis.com/auth/admin.directory.group.member"
	ScopeGroupMemberReadonly = "https://www.googleapis.com/auth/admin.directory.group.member.readonly"
)

// DefaultScopes are requested when a service account client is built
// without explicit scopes.
var DefaultScopes = []string{ScopeUser, ScopeGroup, ScopeGroupMember}

// Environment variables read by NewClientFromEnv.
const (
	EnvKeyEncoded = "GOOGLE_KEY_ENCODED"
	EnvSubject    = "GOOGLE_ADMIN_SUBJECT"
)

// myCustomer addresses the customer the authenticated admin belongs to.
const myCustomer = "my_customer"

// Client is a Directory API client.
type Client struct {
	rest *rest.Client

	users   *UsersService
	groups  *GroupsService
	members *MembersService
}

// NewClient returns a client authorized by ts.
func NewClient(ts oauth2.TokenSource, opts ...rest.Option) *Client {
	base := []rest.Option{rest.WithAuthenticator(rest.TokenSource(ts))}
	c := &Client{rest: rest.New(DefaultBaseURL, append(base, opts...)...)}
	c.users = &UsersService{c: c}
	c.groups = &GroupsService{c: c}
	c.members = &MembersService{c: c}
	return c
}

// ServiceAccountTokenSource returns a token source for a service account key
// that impersonates subject through domain-wide delegation.
func ServiceAccountTokenSource(ctx context.Context, keyJSON []byte, subject string, scopes ...string) (oauth2.TokenSource, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	cfg, err := google.JWTConfigFromJSON(keyJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	cfg.Subject = subject
	return oauth2.ReuseTokenSource(nil, cfg.TokenSource(ctx)), nil
}

// NewClientFromServiceAccount returns a client for a service account key
// impersonating subject.
func NewClientFromServiceAccount(ctx context.Context, keyJSON []byte, subject string, scopes ...string) (*Client, error) {
	ts, err := ServiceAccountTokenSource(ctx, keyJSON, subject, scopes...)
	if err != nil {
		return nil, err
	}
	return NewClient(ts), nil
}

// NewClientFromEnv reads a base64 encoded service account key from
// GOOGLE_KEY_ENCODED and the admin to impersonate from GOOGLE_ADMIN_SUBJECT.
func NewClientFromEnv(ctx context.Context, opts ...rest.Option) (*Client, error) {
	encoded := strings.TrimSpace(os.Getenv(EnvKeyEncoded))
	subject := strings.TrimSpace(os.Getenv(EnvSubject))

	var result *multierror.Error
	if encoded == "" {
		result = multierror.Append(result, fmt.Errorf("%s is not set", EnvKeyEncoded))
	}
	if subject == "" {
		result = multierror.Append(result, fmt.Errorf("%s is not set", EnvSubject))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	keyJSON, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", EnvKeyEncoded, err)
	}
	ts, err := ServiceAccountTokenSource(ctx, keyJSON, subject)
	if err != nil {
		return nil, err
	}
	return NewClient(ts, opts...), nil
}

// Users returns the users resource.
func (c *Client) Users() *UsersService { return c.users }

// Groups returns the groups resource.
func (c *Client) Groups() *GroupsService { return c.groups }

// Members returns the group members resource.
func (c *Client) Members() *MembersService { return c.members }

// customerOrDomain fills the customer parameter that list calls require
// unless a domain is given.
func customerOrDomain(p rest.Params, customer, domain string) {
	switch {
	case customer != "":
		p.Set("customer", customer)
	case domain != "":
		p.Set("domain", domain)
	default:
		p.Set("customer", myCustomer)
	}
}
