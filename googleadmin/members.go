package googleadmin

import (
	"context"
	"errors"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

// Member roles.
const (
	RoleOwner   = "OWNER"
	RoleManager = "MANAGER"
	RoleMember  = "MEMBER"
)

// Member is a user or group inside a group.
type Member struct {
	ID               string `json:"id,omitempty"`
	Email            string `json:"email,omitempty"`
	Role             string `json:"role,omitempty"`
	Type             string `json:"type,omitempty"` // USER, GROUP, CUSTOMER or EXTERNAL
	Status           string `json:"status,omitempty"`
	DeliverySettings string `json:"delivery_settings,omitempty"`
	Kind             string `json:"kind,omitempty"`
	Etag             string `json:"etag,omitempty"`
}

// ListMembersOptions are the query parameters of members.list.
type ListMembersOptions struct {
	Roles                    []string
	IncludeDerivedMembership bool
	MaxResults               int
	PageToken                string
}

func (o ListMembersOptions) params() rest.Params {
	p := rest.NewParams().
		Join("roles", o.Roles).
		SetInt("maxResults", int64(o.MaxResults)).
		Set("pageToken", o.PageToken)
	if o.IncludeDerivedMembership {
		p.Set("includeDerivedMembership", "true")
	}
	return p
}

// MembersPage is one page of members.list.
type MembersPage struct {
	Members       []*Member `json:"members"`
	NextPageToken string    `json:"nextPageToken"`
}

// MembersService handles the members of groups.
type MembersService struct {
	c *Client
}

// List returns one page of the group's members.
func (s *MembersService) List(ctx context.Context, groupKey string, opts ListMembersOptions) (*MembersPage, error) {
	if err := rest.Require("groupKey", groupKey); err != nil {
		return nil, err
	}
	var page MembersPage
	if _, err := s.c.rest.Get(ctx, groupPath(groupKey)+"/members", opts.params().Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll pages through every member of the group.
func (s *MembersService) ListAll(ctx context.Context, groupKey string, opts ListMembersOptions) ([]*Member, error) {
	return rest.Collect(ctx, func(ctx context.Context, cursor string) (rest.Page[*Member], error) {
		opts.PageToken = cursor
		page, err := s.List(ctx, groupKey, opts)
		if err != nil {
			return rest.Page[*Member]{}, err
		}
		return rest.Page[*Member]{Items: page.Members, Next: page.NextPageToken}, nil
	})
}

// Get returns one member of the group.
func (s *MembersService) Get(ctx context.Context, groupKey, memberKey string) (*Member, error) {
	if err := rest.Require("groupKey", groupKey, "memberKey", memberKey); err != nil {
		return nil, err
	}
	var m Member
	if _, err := s.c.rest.Get(ctx, memberPath(groupKey, memberKey), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Insert adds member to the group. Role defaults to MEMBER on the server.
func (s *MembersService) Insert(ctx context.Context, groupKey string, member *Member) (*Member, error) {
	if err := rest.Require("groupKey", groupKey); err != nil {
		return nil, err
	}
	if member == nil {
		return nil, errors.New("member is nil")
	}
	var out Member
	if _, err := s.c.rest.Post(ctx, groupPath(groupKey)+"/members", member, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a member's role or delivery settings.
func (s *MembersService) Update(ctx context.Context, groupKey, memberKey string, member *Member) (*Member, error) {
	if err := rest.Require("groupKey", groupKey, "memberKey", memberKey); err != nil {
		return nil, err
	}
	var out Member
	if _, err := s.c.rest.Put(ctx, memberPath(groupKey, memberKey), member, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a member from the group.
func (s *MembersService) Delete(ctx context.Context, groupKey, memberKey string) error {
	if err := rest.Require("groupKey", groupKey, "memberKey", memberKey); err != nil {
		return err
	}
	_, err := s.c.rest.Delete(ctx, memberPath(groupKey, memberKey), nil)
	return err
}

// HasMember reports whether memberKey belongs to the group, directly or
// through a nested group.
func (s *MembersService) HasMember(ctx context.Context, groupKey, memberKey string) (bool, error) {
	if err := rest.Require("groupKey", groupKey, "memberKey", memberKey); err != nil {
		return false, err
	}
	var out struct {
		IsMember lenient.Bool `json:"isMember"`
	}
	path := rest.Expand("groups/{groupKey}/hasMember/{memberKey}", map[string]string{
		"groupKey":  groupKey,
		"memberKey": memberKey,
	})
	if _, err := s.c.rest.Get(ctx, path, nil, &out); err != nil {
		return false, err
	}
	return bool(out.IsMember), nil
}

func memberPath(groupKey, memberKey string) string {
	return rest.Expand("groups/{groupKey}/members/{memberKey}", map[string]string{
		"groupKey":  groupKey,
		"memberKey": memberKey,
	})
}
