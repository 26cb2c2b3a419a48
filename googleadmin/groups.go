package googleadmin

import (
	"context"
	"errors"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

// Group is a Directory group.
type Group struct {
	ID                 string        `json:"id,omitempty"`
	Email              string        `json:"email,omitempty"`
	Name               string        `json:"name,omitempty"`
	Description        string        `json:"description,omitempty"`
	DirectMembersCount lenient.Int64 `json:"directMembersCount,omitempty"`
	AdminCreated       lenient.Bool  `json:"adminCreated,omitempty"`
	Aliases            []string      `json:"aliases,omitempty"`
	NonEditableAliases []string      `json:"nonEditableAliases,omitempty"`
	Kind               string        `json:"kind,omitempty"`
	Etag               string        `json:"etag,omitempty"`
}

// ListGroupsOptions are the query parameters of groups.list. With UserKey
// set only that user's groups are returned.
type ListGroupsOptions struct {
	Customer   string
	Domain     string
	UserKey    string
	Query      string
	OrderBy    string
	SortOrder  string
	MaxResults int
	PageToken  string
}

func (o ListGroupsOptions) params() rest.Params {
	p := rest.NewParams()
	if o.UserKey != "" {
		p.Set("userKey", o.UserKey).Set("customer", o.Customer).Set("domain", o.Domain)
	} else {
		customerOrDomain(p, o.Customer, o.Domain)
	}
	return p.Set("query", o.Query).
		Set("orderBy", o.OrderBy).
		Set("sortOrder", o.SortOrder).
		SetInt("maxResults", int64(o.MaxResults)).
		Set("pageToken", o.PageToken)
}

// GroupsPage is one page of groups.list.
type GroupsPage struct {
	Groups        []*Group `json:"groups"`
	NextPageToken string   `json:"nextPageToken"`
}

// GroupsService handles the groups resource.
type GroupsService struct {
	c *Client
}

// List returns one page of groups.
func (s *GroupsService) List(ctx context.Context, opts ListGroupsOptions) (*GroupsPage, error) {
	var page GroupsPage
	if _, err := s.c.rest.Get(ctx, "groups", opts.params().Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll pages through every group matching opts.
func (s *GroupsService) ListAll(ctx context.Context, opts ListGroupsOptions) ([]*Group, error) {
	return rest.Collect(ctx, func(ctx context.Context, cursor string) (rest.Page[*Group], error) {
		opts.PageToken = cursor
		page, err := s.List(ctx, opts)
		if err != nil {
			return rest.Page[*Group]{}, err
		}
		return rest.Page[*Group]{Items: page.Groups, Next: page.NextPageToken}, nil
	})
}

// Get returns a group by email, alias or ID.
func (s *GroupsService) Get(ctx context.Context, groupKey string) (*Group, error) {
	if err := rest.Require("groupKey", groupKey); err != nil {
		return nil, err
	}
	var g Group
	if _, err := s.c.rest.Get(ctx, groupPath(groupKey), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Insert creates a group.
func (s *GroupsService) Insert(ctx context.Context, group *Group) (*Group, error) {
	if group == nil {
		return nil, errors.New("group is nil")
	}
	var out Group
	if _, err := s.c.rest.Post(ctx, "groups", group, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a group.
func (s *GroupsService) Update(ctx context.Context, groupKey string, group *Group) (*Group, error) {
	if err := rest.Require("groupKey", groupKey); err != nil {
		return nil, err
	}
	var out Group
	if _, err := s.c.rest.Put(ctx, groupPath(groupKey), group, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete deletes a group.
func (s *GroupsService) Delete(ctx context.Context, groupKey string) error {
	if err := rest.Require("groupKey", groupKey); err != nil {
		return err
	}
	_, err := s.c.rest.Delete(ctx, groupPath(groupKey), nil)
	return err
}

func groupPath(groupKey string) string {
	return rest.Expand("groups/{groupKey}", map[string]string{"groupKey": groupKey})
}
