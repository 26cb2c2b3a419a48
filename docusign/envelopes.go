package docusign

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

// Envelope statuses.
const (
	StatusCreated   = "created"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusCompleted = "completed"
	StatusDeclined  = "declined"
	StatusVoided    = "voided"
)

// Envelope is an envelope as returned by Get and List.
type Envelope struct {
	EnvelopeID                  string        `json:"envelopeId"`
	Status                      string        `json:"status"`
	EmailSubject                string        `json:"emailSubject"`
	EmailBlurb                  string        `json:"emailBlurb"`
	Sender                      *UserRef      `json:"sender,omitempty"`
	TemplatesURI                string        `json:"templatesUri"`
	RecipientsURI               string        `json:"recipientsUri"`
	Recipients                  *Recipients   `json:"recipients,omitempty"`
	IsSignatureProviderEnvelope lenient.Bool  `json:"isSignatureProviderEnvelope"`
	CreatedDateTime             lenient.Time  `json:"createdDateTime"`
	SentDateTime                lenient.Time  `json:"sentDateTime"`
	DeliveredDateTime           lenient.Time  `json:"deliveredDateTime"`
	CompletedDateTime           lenient.Time  `json:"completedDateTime"`
	VoidedDateTime              lenient.Time  `json:"voidedDateTime"`
	StatusChangedDateTime       lenient.Time  `json:"statusChangedDateTime"`
	VoidedReason                string        `json:"voidedReason"`
	PurgeState                  string        `json:"purgeState"`
	ErrorDetails                *ErrorDetails `json:"errorDetails,omitempty"`
}

type UserRef struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
}

// EnvelopeDefinition creates an envelope, either from documents and
// recipients or from a template and its roles. Status "sent" sends it right
// away, "created" saves a draft.
type EnvelopeDefinition struct {
	EmailSubject  string         `json:"emailSubject,omitempty"`
	EmailBlurb    string         `json:"emailBlurb,omitempty"`
	Status        string         `json:"status,omitempty"`
	Documents     []Document     `json:"documents,omitempty"`
	Recipients    *Recipients    `json:"recipients,omitempty"`
	TemplateID    string         `json:"templateId,omitempty"`
	TemplateRoles []TemplateRole `json:"templateRoles,omitempty"`
}

// Document is an envelope document. DocumentBase64 carries the content.
type Document struct {
	DocumentID     string `json:"documentId"`
	Name           string `json:"name"`
	FileExtension  string `json:"fileExtension,omitempty"`
	DocumentBase64 string `json:"documentBase64,omitempty"`
	Order          string `json:"order,omitempty"`
}

// TemplateRole fills a role of the template an envelope is created from.
type TemplateRole struct {
	RoleName string `json:"roleName"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Recipients groups the recipients of an envelope by type.
type Recipients struct {
	Signers             lenient.List[Signer]     `json:"signers,omitempty"`
	CarbonCopies        lenient.List[CarbonCopy] `json:"carbonCopies,omitempty"`
	RecipientCount      lenient.Int64            `json:"recipientCount,omitempty"`
	CurrentRoutingOrder lenient.Int64            `json:"currentRoutingOrder,omitempty"`
}

// Signer is a recipient who signs. RoutingOrder and RecipientID are
// strings on the wire in both directions.
type Signer struct {
	RecipientID       string        `json:"recipientId"`
	RecipientIDGUID   string        `json:"recipientIdGuid,omitempty"`
	Name              string        `json:"name"`
	Email             string        `json:"email"`
	RoutingOrder      string        `json:"routingOrder,omitempty"`
	RoleName          string        `json:"roleName,omitempty"`
	Status            string        `json:"status,omitempty"`
	Tabs              *Tabs         `json:"tabs,omitempty"`
	SignedDateTime    lenient.Time  `json:"signedDateTime,omitzero"`
	DeliveredDateTime lenient.Time  `json:"deliveredDateTime,omitzero"`
	DeclinedReason    string        `json:"declinedReason,omitempty"`
	ErrorDetails      *ErrorDetails `json:"errorDetails,omitempty"`
}

// CarbonCopy is a recipient who receives a copy.
type CarbonCopy struct {
	RecipientID  string `json:"recipientId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	RoutingOrder string `json:"routingOrder,omitempty"`
	Status       string `json:"status,omitempty"`
}

// Tabs places fields on documents for a signer.
type Tabs struct {
	SignHereTabs   []Tab `json:"signHereTabs,omitempty"`
	DateSignedTabs []Tab `json:"dateSignedTabs,omitempty"`
	TextTabs       []Tab `json:"textTabs,omitempty"`
}

// Tab is positioned either by anchor string or by page coordinates.
type Tab struct {
	TabLabel      string `json:"tabLabel,omitempty"`
	Value         string `json:"value,omitempty"`
	DocumentID    string `json:"documentId,omitempty"`
	PageNumber    string `json:"pageNumber,omitempty"`
	XPosition     string `json:"xPosition,omitempty"`
	YPosition     string `json:"yPosition,omitempty"`
	AnchorString  string `json:"anchorString,omitempty"`
	AnchorXOffset string `json:"anchorXOffset,omitempty"`
	AnchorYOffset string `json:"anchorYOffset,omitempty"`
	AnchorUnits   string `json:"anchorUnits,omitempty"`
}

// EnvelopeSummary is returned by Create.
type EnvelopeSummary struct {
	EnvelopeID     string       `json:"envelopeId"`
	Status         string       `json:"status"`
	StatusDateTime lenient.Time `json:"statusDateTime"`
	URI            string       `json:"uri"`
}

// EnvelopeUpdateSummary is returned by Void.
type EnvelopeUpdateSummary struct {
	EnvelopeID   string        `json:"envelopeId"`
	ErrorDetails *ErrorDetails `json:"errorDetails,omitempty"`
}

// ListEnvelopesOptions filters envelope status changes. DocuSign requires
// FromDate unless EnvelopeIDs or FolderIDs is set.
type ListEnvelopesOptions struct {
	FromDate      time.Time
	ToDate        time.Time
	Status        []string
	EnvelopeIDs   []string
	FolderIDs     []string
	SearchText    string
	Include       []string
	Count         int
	StartPosition int
}

func (o ListEnvelopesOptions) params(start int) (url.Values, error) {
	if o.FromDate.IsZero() && len(o.EnvelopeIDs) == 0 && len(o.FolderIDs) == 0 {
		return nil, errors.New(`missing required parameter "from_date"`)
	}
	p := rest.NewParams().
		SetTime("from_date", o.FromDate, time.RFC3339).
		SetTime("to_date", o.ToDate, time.RFC3339).
		Join("status", o.Status).
		Join("envelope_ids", o.EnvelopeIDs).
		Join("folder_ids", o.FolderIDs).
		Set("search_text", o.SearchText).
		Join("include", o.Include).
		SetInt("count", int64(o.Count)).
		SetInt("start_position", int64(start))
	return p.Values(), nil
}

// EnvelopesPage is one page of List.
type EnvelopesPage struct {
	Paging
	Envelopes lenient.List[Envelope] `json:"envelopes"`
}

// EnvelopesService handles the envelopes of the account.
type EnvelopesService struct {
	c *Client
}

// Create creates an envelope and sends it when def.Status is "sent".
func (s *EnvelopesService) Create(ctx context.Context, def *EnvelopeDefinition) (*EnvelopeSummary, error) {
	if def == nil {
		return nil, errors.New("docusign: envelope definition is nil")
	}
	if def.TemplateID == "" && len(def.Documents) == 0 {
		return nil, errors.New("docusign: envelope needs documents or a template")
	}
	var sum EnvelopeSummary
	if _, err := s.c.rest.Post(ctx, s.c.path("envelopes", nil), def, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Get returns an envelope by ID.
func (s *EnvelopesService) Get(ctx context.Context, envelopeID string) (*Envelope, error) {
	if err := rest.Require("envelopeId", envelopeID); err != nil {
		return nil, err
	}
	var env Envelope
	if _, err := s.c.rest.Get(ctx, s.c.path("envelopes/{envelopeId}", map[string]string{"envelopeId": envelopeID}), nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// List returns one page of envelopes starting at opts.StartPosition.
func (s *EnvelopesService) List(ctx context.Context, opts ListEnvelopesOptions) (*EnvelopesPage, error) {
	q, err := opts.params(opts.StartPosition)
	if err != nil {
		return nil, err
	}
	var page EnvelopesPage
	if _, err := s.c.rest.Get(ctx, s.c.path("envelopes", nil), q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll pages through every envelope matching opts.
func (s *EnvelopesService) ListAll(ctx context.Context, opts ListEnvelopesOptions) ([]Envelope, error) {
	return collect(ctx, opts.StartPosition, func(ctx context.Context, start int) ([]Envelope, Paging, error) {
		o := opts
		o.StartPosition = start
		page, err := s.List(ctx, o)
		if err != nil {
			return nil, Paging{}, err
		}
		return page.Envelopes, page.Paging, nil
	})
}

// Void voids a sent envelope that is not yet completed.
func (s *EnvelopesService) Void(ctx context.Context, envelopeID, reason string) (*EnvelopeUpdateSummary, error) {
	if err := rest.Require("envelopeId", envelopeID, "voidedReason", reason); err != nil {
		return nil, err
	}
	body := struct {
		Status       string `json:"status"`
		VoidedReason string `json:"voidedReason"`
	}{StatusVoided, reason}

	var sum EnvelopeUpdateSummary
	if _, err := s.c.rest.Put(ctx, s.c.path("envelopes/{envelopeId}", map[string]string{"envelopeId": envelopeID}), body, &sum); err != nil {
		return nil, err
	}
	if sum.ErrorDetails != nil && sum.ErrorDetails.ErrorCode != "" {
		return &sum, errors.New("docusign: void failed: " + sum.ErrorDetails.ErrorCode + ": " + sum.ErrorDetails.Message)
	}
	return &sum, nil
}

// ListRecipients returns the recipients of an envelope and their status.
func (s *EnvelopesService) ListRecipients(ctx context.Context, envelopeID string) (*Recipients, error) {
	if err := rest.Require("envelopeId", envelopeID); err != nil {
		return nil, err
	}
	var r Recipients
	if _, err := s.c.rest.Get(ctx, s.c.path("envelopes/{envelopeId}/recipients", map[string]string{"envelopeId": envelopeID}), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
