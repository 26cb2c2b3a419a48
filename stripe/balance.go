package stripe

import "context"

// Balance is the account balance by currency.
type Balance struct {
	Object    string   `json:"object"`
	Available []Amount `json:"available"`
	Pending   []Amount `json:"pending"`
	Livemode  bool     `json:"livemode"`
}

type Amount struct {
	Amount      int64            `json:"amount"`
	Currency    string           `json:"currency"`
	SourceTypes map[string]int64 `json:"source_types,omitempty"`
}

// AvailableIn returns the available amount for currency, or 0.
func (b *Balance) AvailableIn(currency string) int64 {
	for _, a := range b.Available {
		if a.Currency == currency {
			return a.Amount
		}
	}
	return 0
}

// BalanceService reads the account balance.
type BalanceService struct {
	c *Client
}

// Get returns the current balance.
func (s *BalanceService) Get(ctx context.Context) (*Balance, error) {
	var b Balance
	if err := s.c.get(ctx, "v1/balance", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
