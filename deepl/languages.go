package deepl

import (
	"context"
	"net/http"
	"net/url"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

// Language represents a language supported by the DeepL API, including its code, display name, and formality support.
type Language struct {
	Language          string       `json:"language"`           // Language code, e.g. "EN", "DE"
	Name              string       `json:"name"`               // Full language name, e.g. "English"
	SupportsFormality lenient.Bool `json:"supports_formality"` // Only reported for target languages
}

// GetTargetLanguages retrieves the list of target languages supported by DeepL.
func (c *Client) GetTargetLanguages() ([]*Language, error) {
	return c.GetTargetLanguagesWithContext(context.Background())
}

// GetSourceLanguages retrieves the list of source languages supported by DeepL.
func (c *Client) GetSourceLanguages() ([]*Language, error) {
	return c.GetSourceLanguagesWithContext(context.Background())
}

// GetTargetLanguagesWithContext retrieves the list of target languages supported by DeepL,
// respecting the provided context for cancellation and timeouts.
func (c *Client) GetTargetLanguagesWithContext(ctx context.Context) ([]*Language, error) {
	return c.getLanguages(ctx, "target")
}

// GetSourceLanguagesWithContext retrieves the list of source languages supported by DeepL,
// respecting the provided context for cancellation and timeouts.
func (c *Client) GetSourceLanguagesWithContext(ctx context.Context) ([]*Language, error) {
	return c.getLanguages(ctx, "source")
}

func (c *Client) getLanguages(ctx context.Context, kind string) ([]*Language, error) {
	languages := make([]*Language, 0)
	_, err := c.rest.Do(ctx, &rest.Request{
		Method:     http.MethodPost,
		Path:       "v2/languages",
		Query:      url.Values{"type": {kind}},
		Idempotent: true,
	}, &languages)
	if err != nil {
		return nil, err
	}
	return languages, nil
}
