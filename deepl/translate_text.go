package deepl

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
)

// TranslateTextOptions is the request body of /v2/translate.
type TranslateTextOptions struct {
	Text                 []string `json:"text"`
	SourceLang           string   `json:"source_lang,omitempty"`
	TargetLang           string   `json:"target_lang"`
	Context              string   `json:"context,omitempty"`
	ShowBilledCharacters *bool    `json:"show_billed_characters,omitempty"`
	SplitSentences       string   `json:"split_sentences,omitempty"`
	PreserveFormatting   *bool    `json:"preserve_formatting,omitempty"`
	Formality            string   `json:"formality,omitempty"`
	ModelType            string   `json:"model_type,omitempty"`
	GlossaryID           string   `json:"glossary_id,omitempty"`
	TagHandling          string   `json:"tag_handling,omitempty"`
	OutlineDetection     *bool    `json:"outline_detection,omitempty"`
	NonSplittingTags     []string `json:"non_splitting_tags,omitempty"`
	SplittingTags        []string `json:"splitting_tags,omitempty"`
	IgnoreTags           []string `json:"ignore_tags,omitempty"`
}

// Translation is one translated text. BilledCharacters is only sent when
// ShowBilledCharacters was requested.
type Translation struct {
	DetectedSourceLanguage string        `json:"detected_source_language"`
	Text                   string        `json:"text"`
	BilledCharacters       lenient.Int64 `json:"billed_characters"`
	ModelTypeUsed          string        `json:"model_type_used"`
}

type TranslationsResponse struct {
	Translations []*Translation `json:"translations"`
}

func (c *Client) TranslateText(text, targetLanguage string) (*Translation, error) {
	return c.TranslateTextWithContext(context.Background(), text, targetLanguage)
}

func (c *Client) TranslateTextWithContext(ctx context.Context, text, targetLanguage string) (*Translation, error) {
	o := TranslateTextOptions{
		Text:       []string{text},
		TargetLang: targetLanguage,
	}
	t, err := c.TranslateTextWithOptions(ctx, o)
	if err != nil {
		return nil, err
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("no translation returned")
	}
	return t[0], nil
}

func (c *Client) TranslateTextWithOptions(ctx context.Context, o TranslateTextOptions) ([]*Translation, error) {
	if o.TargetLang == "" {
		return nil, errors.New("target language is required")
	}
	if len(o.Text) == 0 {
		return nil, errors.New("no text to translate")
	}
	var response TranslationsResponse
	req := &rest.Request{Method: http.MethodPost, Path: "v2/translate", Body: o, Idempotent: true}
	if _, err := c.rest.Do(ctx, req, &response); err != nil {
		return nil, err
	}
	return response.Translations, nil
}
