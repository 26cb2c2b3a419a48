package stripe

import (
	"context"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

// Customer is a Stripe customer.
type Customer struct {
	ID            string            `json:"id"`
	Object        string            `json:"object"`
	Email         string            `json:"email"`
	Name          string            `json:"name"`
	Phone         string            `json:"phone"`
	Description   string            `json:"description"`
	Balance       int64             `json:"balance"`
	Currency      string            `json:"currency"`
	Delinquent    lenient.Bool      `json:"delinquent"`
	Address       *Address          `json:"address"`
	Metadata      map[string]string `json:"metadata"`
	InvoicePrefix string            `json:"invoice_prefix"`
	Livemode      bool              `json:"livemode"`
	Created       lenient.Time      `json:"created"`
	Deleted       bool              `json:"deleted,omitempty"`
}

// CustomerParams are the fields sent on create and update. Empty fields
// are not sent.
type CustomerParams struct {
	Email          string
	Name           string
	Phone          string
	Description    string
	Balance        int64
	Address        *Address
	Metadata       map[string]string
	Expand         []string
	IdempotencyKey string
}

func (cp *CustomerParams) form() rest.Params {
	p := rest.NewParams()
	if cp == nil {
		return p
	}
	p.Set("email", cp.Email).
		Set("name", cp.Name).
		Set("phone", cp.Phone).
		Set("description", cp.Description).
		SetInt("balance", cp.Balance).
		SetMap("metadata", cp.Metadata).
		Add("expand[]", cp.Expand...)
	cp.Address.apply(p, "address")
	return p
}

func (cp *CustomerParams) idempotencyKey() string {
	if cp == nil {
		return ""
	}
	return cp.IdempotencyKey
}

// CustomerListParams filters customers.list.
type CustomerListParams struct {
	ListParams
	Email string
}

func (lp *CustomerListParams) query() rest.Params {
	p := rest.NewParams()
	if lp != nil {
		lp.ListParams.apply(p)
		p.Set("email", lp.Email)
	}
	return p
}

// CustomersService handles customers.
type CustomersService struct {
	c *Client
}

// Create creates a customer.
func (s *CustomersService) Create(ctx context.Context, params *CustomerParams) (*Customer, error) {
	var cu Customer
	if err := s.c.post(ctx, "v1/customers", params.form().Values(), params.idempotencyKey(), &cu); err != nil {
		return nil, err
	}
	return &cu, nil
}

// Get returns a customer by ID.
func (s *CustomersService) Get(ctx context.Context, id string) (*Customer, error) {
	if err := rest.Require("id", id); err != nil {
		return nil, err
	}
	var cu Customer
	if err := s.c.get(ctx, objectPath("customers", id), nil, &cu); err != nil {
		return nil, err
	}
	return &cu, nil
}

// Update sets the fields of params that are non-empty.
func (s *CustomersService) Update(ctx context.Context, id string, params *CustomerParams) (*Customer, error) {
	if err := rest.Require("id", id); err != nil {
		return nil, err
	}
	var cu Customer
	if err := s.c.post(ctx, objectPath("customers", id), params.form().Values(), params.idempotencyKey(), &cu); err != nil {
		return nil, err
	}
	return &cu, nil
}

// Delete permanently deletes a customer. The returned object only carries
// the ID and Deleted.
func (s *CustomersService) Delete(ctx context.Context, id string) (*Customer, error) {
	if err := rest.Require("id", id); err != nil {
		return nil, err
	}
	var cu Customer
	if _, err := s.c.rest.Delete(ctx, objectPath("customers", id), &cu); err != nil {
		return nil, err
	}
	return &cu, nil
}

// List returns one page of customers.
func (s *CustomersService) List(ctx context.Context, params *CustomerListParams) (*List[*Customer], error) {
	var page List[*Customer]
	if err := s.c.get(ctx, "v1/customers", params.query().Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll pages through every customer matching params.
func (s *CustomersService) ListAll(ctx context.Context, params *CustomerListParams) ([]*Customer, error) {
	return listAll(ctx, s.c, "v1/customers", params.query(), func(cu *Customer) string { return cu.ID })
}
