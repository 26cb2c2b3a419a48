package deepl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lkretschmer/apiclients/rest"
)

// WritingStyle represents the desired style in which the text should be rephrased.
// The `prefer_` prefix allows falling back to the default style if the language
// does not yet support specific styles.
type WritingStyle int8

const (
	WritingStyleUnset WritingStyle = iota
	WritingStyleAcademic
	WritingStyleBusiness
	WritingStyleCasual
	WritingStyleDefault
	WritingStyleSimple
	WritingStylePreferAcademic
	WritingStylePreferBusiness
	WritingStylePreferCasual
	WritingStylePreferSimple
)

var writingStyles = [...]string{
	"", "academic", "business", "casual", "default", "simple",
	"prefer_academic", "prefer_business", "prefer_casual", "prefer_simple",
}

// String returns the wire name of the style.
func (ws WritingStyle) String() string {
	if ws < 0 || int(ws) >= len(writingStyles) {
		return fmt.Sprintf("WritingStyle(%d)", ws)
	}
	return writingStyles[ws]
}

// MarshalJSON serializes the WritingStyle value as its wire name.
func (ws WritingStyle) MarshalJSON() ([]byte, error) {
	if ws < 0 || int(ws) >= len(writingStyles) {
		return nil, fmt.Errorf("invalid writing style %d", ws)
	}
	return json.Marshal(ws.String())
}

// WritingTone specifies the desired tone for the text.
// The `prefer_` prefix allows falling back to the default tone if the language
// does not yet support specific tones.
type WritingTone int8

const (
	WritingToneUnset WritingTone = iota
	WritingToneConfident
	WritingToneDefault
	WritingToneDiplomatic
	WritingToneEnthusiastic
	WritingToneFriendly
	WritingTonePreferConfident
	WritingTonePreferDiplomatic
	WritingTonePreferEnthusiastic
	WritingTonePreferFriendly
)

var writingTones = [...]string{
	"", "confident", "default", "diplomatic", "enthusiastic", "friendly",
	"prefer_confident", "prefer_diplomatic", "prefer_enthusiastic", "prefer_friendly",
}

// String returns the wire name of the tone.
func (wt WritingTone) String() string {
	if wt < 0 || int(wt) >= len(writingTones) {
		return fmt.Sprintf("WritingTone(%d)", wt)
	}
	return writingTones[wt]
}

// MarshalJSON serializes the WritingTone value as its wire name.
func (wt WritingTone) MarshalJSON() ([]byte, error) {
	if wt < 0 || int(wt) >= len(writingTones) {
		return nil, fmt.Errorf("invalid writing tone %d", wt)
	}
	return json.Marshal(wt.String())
}

// RephraseOptions represents the payload for the rephrase API call.
// Only one of WritingStyle or Tone can be set.
type RephraseOptions struct {
	Text         []string     `json:"text"`
	TargetLang   string       `json:"target_lang,omitempty"`
	WritingStyle WritingStyle `json:"writing_style,omitempty"`
	Tone         WritingTone  `json:"tone,omitempty"`
}

// Improvement contains a single rephrased result along with detected language info.
type Improvement struct {
	DetectedSourceLanguage string `json:"detected_source_language"`
	Text                   string `json:"text"`
	TargetLanguage         string `json:"target_language,omitempty"`
}

// RephraseResponse models the response from the rephrase endpoint.
type RephraseResponse struct {
	Improvements []*Improvement `json:"improvements"`
}

// Rephrase is a convenience method to rephrase a single string using background context.
func (c *Client) Rephrase(text string) (*Improvement, error) {
	return c.RephraseWithContext(context.Background(), text)
}

// RephraseWithContext rephrases text with the provided context for timeout or cancellation.
func (c *Client) RephraseWithContext(ctx context.Context, text string) (*Improvement, error) {
	improvements, err := c.RephraseWithOptions(ctx, RephraseOptions{Text: []string{text}})
	if err != nil {
		return nil, err
	}
	if len(improvements) == 0 {
		return nil, errors.New("no improvements returned")
	}
	return improvements[0], nil
}

// RephraseWithOptions performs the rephrase request with complete options and returns improvements.
func (c *Client) RephraseWithOptions(ctx context.Context, opts RephraseOptions) ([]*Improvement, error) {
	if opts.WritingStyle != WritingStyleUnset && opts.Tone != WritingToneUnset {
		return nil, errors.New("only one of WritingStyle or Tone can be set")
	}
	if len(opts.Text) == 0 {
		return nil, errors.New("no text to rephrase")
	}
	var response RephraseResponse
	req := &rest.Request{Method: http.MethodPost, Path: "v2/write/rephrase", Body: opts, Idempotent: true}
	if _, err := c.rest.Do(ctx, req, &response); err != nil {
		return nil, err
	}
	return response.Improvements, nil
}
