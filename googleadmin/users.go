package googleadmin

import (
	"context"
	"errors"
	"fmt"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

// ErrSchemaNotSet is returned by User.CustomSchema when the user has no
// values for the requested schema.
var ErrSchemaNotSet = errors.New("custom schema not set")

// User is a Directory user account.
type User struct {
	ID                        string                     `json:"id,omitempty"`
	PrimaryEmail              string                     `json:"primaryEmail,omitempty"`
	Name                      *UserName                  `json:"name,omitempty"`
	Password                  string                     `json:"password,omitempty"`
	HashFunction              string                     `json:"hashFunction,omitempty"`
	ChangePasswordAtNextLogin *bool                      `json:"changePasswordAtNextLogin,omitempty"`
	Suspended                 *bool                      `json:"suspended,omitempty"`
	SuspensionReason          string                     `json:"suspensionReason,omitempty"`
	Archived                  *bool                      `json:"archived,omitempty"`
	IsAdmin                   lenient.Bool               `json:"isAdmin,omitempty"`
	IsDelegatedAdmin          lenient.Bool               `json:"isDelegatedAdmin,omitempty"`
	IsEnrolledIn2Sv           lenient.Bool               `json:"isEnrolledIn2Sv,omitempty"`
	OrgUnitPath               string                     `json:"orgUnitPath,omitempty"`
	CustomerID                string                     `json:"customerId,omitempty"`
	Aliases                   []string                   `json:"aliases,omitempty"`
	Emails                    lenient.List[UserEmail]    `json:"emails,omitempty"`
	Phones                    lenient.List[UserPhone]    `json:"phones,omitempty"`
	Organizations             lenient.List[UserOrg]      `json:"organizations,omitempty"`
	ExternalIDs               lenient.List[ExternalID]   `json:"externalIds,omitempty"`
	Relations                 lenient.List[UserRelation] `json:"relations,omitempty"`
	CustomSchemas             map[string]map[string]any  `json:"customSchemas,omitempty"`
	CreationTime              lenient.Time               `json:"creationTime,omitzero"`
	LastLoginTime             lenient.Time               `json:"lastLoginTime,omitzero"`
	DeletionTime              lenient.Time               `json:"deletionTime,omitzero"`
	Kind                      string                     `json:"kind,omitempty"`
	Etag                      string                     `json:"etag,omitempty"`
}

type UserName struct {
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
	FullName   string `json:"fullName,omitempty"`
}

type UserEmail struct {
	Address string       `json:"address"`
	Type    string       `json:"type,omitempty"`
	Primary lenient.Bool `json:"primary,omitempty"`
}

type UserPhone struct {
	Value   string       `json:"value"`
	Type    string       `json:"type,omitempty"`
	Primary lenient.Bool `json:"primary,omitempty"`
}

type UserOrg struct {
	Name        string       `json:"name,omitempty"`
	Title       string       `json:"title,omitempty"`
	Department  string       `json:"department,omitempty"`
	CostCenter  string       `json:"costCenter,omitempty"`
	Description string       `json:"description,omitempty"`
	Primary     lenient.Bool `json:"primary,omitempty"`
}

type ExternalID struct {
	Value      string `json:"value"`
	Type       string `json:"type,omitempty"`
	CustomType string `json:"customType,omitempty"`
}

type UserRelation struct {
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// CustomSchema decodes the values of the named custom schema into out,
// matching `json` tags and converting scalars weakly.
func (u *User) CustomSchema(name string, out any) error {
	values, ok := u.CustomSchemas[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSchemaNotSet, name)
	}
	return lenient.Decode(values, out)
}

// ListUsersOptions are the query parameters of users.list. Customer
// defaults to the admin's own customer unless Domain is set.
type ListUsersOptions struct {
	Customer        string
	Domain          string
	Query           string
	OrderBy         string // email, familyName or givenName
	SortOrder       string // ASCENDING or DESCENDING
	Projection      string // basic, custom or full
	CustomFieldMask string
	ViewType        string // admin_view or domain_public
	ShowDeleted     bool
	MaxResults      int
	PageToken       string
}

func (o ListUsersOptions) params() rest.Params {
	p := rest.NewParams()
	customerOrDomain(p, o.Customer, o.Domain)
	p.Set("query", o.Query).
		Set("orderBy", o.OrderBy).
		Set("sortOrder", o.SortOrder).
		Set("projection", o.Projection).
		Set("customFieldMask", o.CustomFieldMask).
		Set("viewType", o.ViewType).
		SetInt("maxResults", int64(o.MaxResults)).
		Set("pageToken", o.PageToken)
	if o.ShowDeleted {
		p.Set("showDeleted", "true")
	}
	return p
}

// UsersPage is one page of users.list.
type UsersPage struct {
	Users         []*User `json:"users"`
	NextPageToken string  `json:"nextPageToken"`
	Kind          string  `json:"kind"`
	Etag          string  `json:"etag"`
}

// UsersService handles the users resource.
type UsersService struct {
	c *Client
}

// List returns one page of users.
func (s *UsersService) List(ctx context.Context, opts ListUsersOptions) (*UsersPage, error) {
	var page UsersPage
	if _, err := s.c.rest.Get(ctx, "users", opts.params().Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll follows nextPageToken and returns every user.
func (s *UsersService) ListAll(ctx context.Context, opts ListUsersOptions) ([]*User, error) {
	return rest.Collect(ctx, func(ctx context.Context, cursor string) (rest.Page[*User], error) {
		opts.PageToken = cursor
		page, err := s.List(ctx, opts)
		if err != nil {
			return rest.Page[*User]{}, err
		}
		return rest.Page[*User]{Items: page.Users, Next: page.NextPageToken}, nil
	})
}

// Get returns a user by primary email, alias or ID.
func (s *UsersService) Get(ctx context.Context, userKey string) (*User, error) {
	if err := rest.Require("userKey", userKey); err != nil {
		return nil, err
	}
	var u User
	if _, err := s.c.rest.Get(ctx, userPath(userKey), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Insert creates a user.
func (s *UsersService) Insert(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	var out User
	if _, err := s.c.rest.Post(ctx, "users", user, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a user. Fields left empty are cleared.
func (s *UsersService) Update(ctx context.Context, userKey string, user *User) (*User, error) {
	if err := rest.Require("userKey", userKey); err != nil {
		return nil, err
	}
	var out User
	if _, err := s.c.rest.Put(ctx, userPath(userKey), user, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Patch updates only the fields set on user.
func (s *UsersService) Patch(ctx context.Context, userKey string, user *User) (*User, error) {
	if err := rest.Require("userKey", userKey); err != nil {
		return nil, err
	}
	var out User
	if _, err := s.c.rest.Patch(ctx, userPath(userKey), user, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete deletes a user.
func (s *UsersService) Delete(ctx context.Context, userKey string) error {
	if err := rest.Require("userKey", userKey); err != nil {
		return err
	}
	_, err := s.c.rest.Delete(ctx, userPath(userKey), nil)
	return err
}

// MakeAdmin grants or revokes super admin privileges.
func (s *UsersService) MakeAdmin(ctx context.Context, userKey string, status bool) error {
	if err := rest.Require("userKey", userKey); err != nil {
		return err
	}
	body := struct {
		Status bool `json:"status"`
	}{status}
	_, err := s.c.rest.Post(ctx, userPath(userKey)+"/makeAdmin", body, nil)
	return err
}

func userPath(userKey string) string {
	return rest.Expand("users/{userKey}", map[string]string{"userKey": userKey})
}
