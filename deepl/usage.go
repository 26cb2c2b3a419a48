package deepl

import (
	"context"
	"net/http"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

// Usage reports consumption for the current billing period. The product
// breakdown and API key counters are only sent for Pro accounts.
type Usage struct {
	CharacterCount    int64 `json:"character_count"`
	CharacterLimit    int64 `json:"character_limit"`
	DocumentCount     int64 `json:"document_count,omitempty"`
	DocumentLimit     int64 `json:"document_limit,omitempty"`
	TeamDocumentCount int64 `json:"team_document_count,omitempty"`
	TeamDocumentLimit int64 `json:"team_document_limit,omitempty"`

	Products             []ProductUsage `json:"products,omitempty"`
	APIKeyCharacterCount *int64         `json:"api_key_character_count,omitempty"`
	APIKeyCharacterLimit *int64         `json:"api_key_character_limit,omitempty"`
	StartTime            lenient.Time   `json:"start_time,omitzero"`
	EndTime              lenient.Time   `json:"end_time,omitzero"`
}

// ProductUsage is the usage of one product, e.g. "translate" or "write".
type ProductUsage struct {
	ProductType          string `json:"product_type"`
	APIKeyCharacterCount int64  `json:"api_key_character_count"`
	CharacterCount       int64  `json:"character_count"`
}

// LimitReached reports whether the character quota is used up. A zero
// limit means unlimited.
func (u *Usage) LimitReached() bool {
	return u.CharacterLimit > 0 && u.CharacterCount >= u.CharacterLimit
}

func (c *Client) GetUsage() (*Usage, error) {
	return c.GetUsageWithContext(context.Background())
}

func (c *Client) GetUsageWithContext(ctx context.Context) (*Usage, error) {
	var res Usage
	if _, err := c.rest.Do(ctx, &rest.Request{Method: http.MethodPost, Path: "v2/usage", Idempotent: true}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
