package stripe

import (
	"context"
	"strconv"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

// Charge is a payment attempt on a card or other source.
type Charge struct {
	ID                  string            `json:"id"`
	Object              string            `json:"object"`
	Amount              int64             `json:"amount"`
	AmountCaptured      int64             `json:"amount_captured"`
	AmountRefunded      int64             `json:"amount_refunded"`
	Currency            string            `json:"currency"`
	Customer            Expandable        `json:"customer"`
	PaymentIntent       Expandable        `json:"payment_intent"`
	Description         string            `json:"description"`
	ReceiptEmail        string            `json:"receipt_email"`
	StatementDescriptor string            `json:"statement_descriptor"`
	Status              string            `json:"status"` // succeeded, pending or failed
	Paid                lenient.Bool      `json:"paid"`
	Captured            lenient.Bool      `json:"captured"`
	Refunded            lenient.Bool      `json:"refunded"`
	FailureCode         string            `json:"failure_code"`
	FailureMessage      string            `json:"failure_message"`
	Metadata            map[string]string `json:"metadata"`
	Livemode            bool              `json:"livemode"`
	Created             lenient.Time      `json:"created"`
}

// ChargeParams creates a charge. Amount is in the currency's smallest unit.
type ChargeParams struct {
	Amount              int64
	Currency            string
	Customer            string
	Source              string
	Description         string
	ReceiptEmail        string
	StatementDescriptor string
	// Capture set to false only authorizes the charge.
	Capture        *bool
	Metadata       map[string]string
	Expand         []string
	IdempotencyKey string
}

func (cp *ChargeParams) form() rest.Params {
	return rest.NewParams().
		SetInt("amount", cp.Amount).
		Set("currency", cp.Currency).
		Set("customer", cp.Customer).
		Set("source", cp.Source).
		Set("description", cp.Description).
		Set("receipt_email", cp.ReceiptEmail).
		Set("statement_descriptor", cp.StatementDescriptor).
		SetBool("capture", cp.Capture).
		SetMap("metadata", cp.Metadata).
		Add("expand[]", cp.Expand...)
}

// CaptureParams captures an authorized charge. A zero Amount captures the
// full authorization.
type CaptureParams struct {
	Amount         int64
	ReceiptEmail   string
	IdempotencyKey string
}

// ChargeListParams filters charges.list.
type ChargeListParams struct {
	ListParams
	Customer      string
	PaymentIntent string
}

func (lp *ChargeListParams) query() rest.Params {
	p := rest.NewParams()
	if lp != nil {
		lp.ListParams.apply(p)
		p.Set("customer", lp.Customer).Set("payment_intent", lp.PaymentIntent)
	}
	return p
}

// ChargesService handles charges.
type ChargesService struct {
	c *Client
}

// Create creates a charge.
func (s *ChargesService) Create(ctx context.Context, params *ChargeParams) (*Charge, error) {
	if params == nil {
		params = &ChargeParams{}
	}
	if err := rest.Require("amount", amountString(params.Amount), "currency", params.Currency); err != nil {
		return nil, err
	}
	var ch Charge
	if err := s.c.post(ctx, "v1/charges", params.form().Values(), params.IdempotencyKey, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// Get returns a charge by ID.
func (s *ChargesService) Get(ctx context.Context, id string) (*Charge, error) {
	if err := rest.Require("id", id); err != nil {
		return nil, err
	}
	var ch Charge
	if err := s.c.get(ctx, objectPath("charges", id), nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// Capture captures an uncaptured charge.
func (s *ChargesService) Capture(ctx context.Context, id string, params *CaptureParams) (*Charge, error) {
	if err := rest.Require("id", id); err != nil {
		return nil, err
	}
	form := rest.NewParams()
	key := ""
	if params != nil {
		form.SetInt("amount", params.Amount).Set("receipt_email", params.ReceiptEmail)
		key = params.IdempotencyKey
	}
	var ch Charge
	if err := s.c.post(ctx, objectPath("charges", id)+"/capture", form.Values(), key, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// List returns one page of charges.
func (s *ChargesService) List(ctx context.Context, params *ChargeListParams) (*List[*Charge], error) {
	var page List[*Charge]
	if err := s.c.get(ctx, "v1/charges", params.query().Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll pages through every charge matching params.
func (s *ChargesService) ListAll(ctx context.Context, params *ChargeListParams) ([]*Charge, error) {
	return listAll(ctx, s.c, "v1/charges", params.query(), func(ch *Charge) string { return ch.ID })
}

func amountString(amount int64) string {
	if amount <= 0 {
		return ""
	}
	return strconv.FormatInt(amount, 10)
}
