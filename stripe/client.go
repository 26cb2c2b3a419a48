// Package stripe is a client for a subset of the Stripe API: customers,
// charges, events, balance and webhook signature verification.
//
// Request bodies are form encoded with Stripe's bracket notation and every
// POST carries an idempotency key, so retried writes are applied once.
package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/lkretschmer/apiclients/rest"
)

const (
	// DefaultBaseURL is the Stripe API root.
	DefaultBaseURL = "https://api.stripe.com/"

	// EnvAPIKey holds the secret key read by NewClientFromEnv.
	EnvAPIKey = "STRIPE_API_KEY"

	maxPageSize = 100
)

// statusMessages follow Stripe's documented error codes.
var statusMessages = map[int]string{
	402: "The parameters were valid but the request failed.",
	409: "The request conflicts with another request, possibly due to using the same idempotent key.",
	424: "An external dependency failed.",
}

// Client is a Stripe API client.
type Client struct {
	rest *rest.Client

	customers *CustomersService
	charges   *ChargesService
	events    *EventsService
	balance   *BalanceService
}

// NewClient returns a client authenticated with a secret or restricted key.
func NewClient(apiKey string, opts ...rest.Option) *Client {
	base := []rest.Option{
		rest.WithAuthenticator(rest.BearerToken(apiKey)),
		rest.WithStatusMessages(statusMessages),
	}
	c := &Client{rest: rest.New(DefaultBaseURL, append(base, opts...)...)}
	c.customers = &CustomersService{c: c}
	c.charges = &ChargesService{c: c}
	c.events = &EventsService{c: c}
	c.balance = &BalanceService{c: c}
	return c
}

// NewClientFromEnv reads the key from STRIPE_API_KEY.
func NewClientFromEnv(opts ...rest.Option) (*Client, error) {
	key := strings.TrimSpace(os.Getenv(EnvAPIKey))
	if key == "" {
		return nil, errors.New(EnvAPIKey + " is not set")
	}
	return NewClient(key, opts...), nil
}

// WithAPIVersion pins the API version with the Stripe-Version header.
func WithAPIVersion(version string) rest.Option {
	return rest.WithHeader("Stripe-Version", version)
}

// Customers returns the customers service.
func (c *Client) Customers() *CustomersService { return c.customers }

// Charges returns the charges service.
func (c *Client) Charges() *ChargesService { return c.charges }

// Events returns the events service.
func (c *Client) Events() *EventsService { return c.events }

// Balance returns the balance service.
func (c *Client) Balance() *BalanceService { return c.balance }

// post sends a form encoded POST. The idempotency key is generated when
// empty and stays the same across retries of this call.
func (c *Client) post(ctx context.Context, path string, form url.Values, idempotencyKey string, out any) error {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	if form == nil {
		form = url.Values{}
	}
	_, err := c.rest.Do(ctx, &rest.Request{
		Method: http.MethodPost,
		Path:   path,
		Form:   form,
		Header: http.Header{"Idempotency-Key": {idempotencyKey}},
	}, out)
	return err
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	_, err := c.rest.Get(ctx, path, q, out)
	return err
}

// ListParams are the cursor parameters shared by every list endpoint.
type ListParams struct {
	Limit         int
	StartingAfter string
	EndingBefore  string
	Expand        []string
	Created       *RangeQuery
}

// RangeQuery filters a timestamp field, e.g. created[gte]=1700000000.
type RangeQuery struct {
	GT, GTE, LT, LTE int64
}

func (lp *ListParams) apply(p rest.Params) {
	if lp == nil {
		return
	}
	limit := int64(lp.Limit)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	p.SetInt("limit", limit).
		Set("starting_after", lp.StartingAfter).
		Set("ending_before", lp.EndingBefore).
		Add("expand[]", lp.Expand...)
	if r := lp.Created; r != nil {
		p.SetInt("created[gt]", r.GT).
			SetInt("created[gte]", r.GTE).
			SetInt("created[lt]", r.LT).
			SetInt("created[lte]", r.LTE)
	}
}

// List is one page of a list endpoint.
type List[T any] struct {
	Object  string `json:"object"`
	Data    []T    `json:"data"`
	HasMore bool   `json:"has_more"`
	URL     string `json:"url"`
}

// listAll pages through a list endpoint with starting_after set to the ID
// of the last object on the previous page.
func listAll[T any](ctx context.Context, c *Client, path string, p rest.Params, id func(T) string) ([]T, error) {
	return rest.Collect(ctx, func(ctx context.Context, cursor string) (rest.Page[T], error) {
		q := rest.NewParams()
		for k, vs := range p {
			q[k] = vs
		}
		q.Set("starting_after", cursor)

		var page List[T]
		if err := c.get(ctx, path, q.Values(), &page); err != nil {
			return rest.Page[T]{}, err
		}
		next := ""
		if page.HasMore && len(page.Data) > 0 {
			next = id(page.Data[len(page.Data)-1])
		}
		return rest.Page[T]{Items: page.Data, Next: next}, nil
	})
}

// Address is a postal address.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

func (a *Address) apply(p rest.Params, prefix string) {
	if a == nil {
		return
	}
	p.Set(prefix+"[line1]", a.Line1).
		Set(prefix+"[line2]", a.Line2).
		Set(prefix+"[city]", a.City).
		Set(prefix+"[state]", a.State).
		Set(prefix+"[postal_code]", a.PostalCode).
		Set(prefix+"[country]", a.Country)
}

func objectPath(collection, id string) string {
	return rest.Expand("v1/"+collection+"/{id}", map[string]string{"id": id})
}
