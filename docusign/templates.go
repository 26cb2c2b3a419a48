package docusign

import (
	"context"
	"net/url"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

// Template is a reusable envelope template.
type Template struct {
	TemplateID   string        `json:"templateId"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Shared       lenient.Bool  `json:"shared"`
	FolderID     string        `json:"folderId"`
	FolderName   string        `json:"folderName"`
	Owner        *UserRef      `json:"owner,omitempty"`
	PageCount    lenient.Int64 `json:"pageCount"`
	EmailSubject string        `json:"emailSubject"`
	Created      lenient.Time  `json:"created"`
	LastModified lenient.Time  `json:"lastModified"`
	LastUsed     lenient.Time  `json:"lastUsed"`
	Documents    []Document    `json:"documents,omitempty"`
	Recipients   *Recipients   `json:"recipients,omitempty"`
}

type ListTemplatesOptions struct {
	SearchText    string
	FolderIDs     []string
	Include       []string
	Shared        *bool
	Count         int
	StartPosition int
}

func (o ListTemplatesOptions) params() url.Values {
	shared := ""
	if o.Shared != nil {
		shared = "false"
		if *o.Shared {
			shared = "true"
		}
	}
	return rest.NewParams().
		Set("search_text", o.SearchText).
		Join("folder_ids", o.FolderIDs).
		Join("include", o.Include).
		Set("shared_by_me", shared).
		SetInt("count", int64(o.Count)).
		SetInt("start_position", int64(o.StartPosition)).
		Values()
}

// TemplatesPage is one page of List.
type TemplatesPage struct {
	Paging
	EnvelopeTemplates lenient.List[Template] `json:"envelopeTemplates"`
}

// TemplatesService handles the templates of the account.
type TemplatesService struct {
	c *Client
}

// List returns one page of templates starting at opts.StartPosition.
func (s *TemplatesService) List(ctx context.Context, opts ListTemplatesOptions) (*TemplatesPage, error) {
	var page TemplatesPage
	if _, err := s.c.rest.Get(ctx, s.c.path("templates", nil), opts.params(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll pages through every template matching opts.
func (s *TemplatesService) ListAll(ctx context.Context, opts ListTemplatesOptions) ([]Template, error) {
	return collect(ctx, opts.StartPosition, func(ctx context.Context, start int) ([]Template, Paging, error) {
		o := opts
		o.StartPosition = start
		page, err := s.List(ctx, o)
		if err != nil {
			return nil, Paging{}, err
		}
		return page.EnvelopeTemplates, page.Paging, nil
	})
}

// Get returns a template by ID.
func (s *TemplatesService) Get(ctx context.Context, templateID string) (*Template, error) {
	if err := rest.Require("templateId", templateID); err != nil {
		return nil, err
	}
	var tmpl Template
	if _, err := s.c.rest.Get(ctx, s.c.path("templates/{templateId}", map[string]string{"templateId": templateID}), nil, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}
