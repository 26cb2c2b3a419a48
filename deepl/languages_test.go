package deepl

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestGetSourceLanguages(t *testing.T) {
	expectedLanguages := []*Language{
		{Language: "EN", Name: "English", SupportsFormality: false},
		{Language: "DE", Name: "German", SupportsFormality: true},
	}

	client := NewTestClient(func(req *http.Request) *http.Response {
		if req.Method != http.MethodPost {
			t.Errorf("expected POST request, got %s", req.Method)
		}

		url := req.URL.String()
		if !strings.Contains(url, "/v2/languages") || !strings.Contains(url, "type=source") {
			t.Errorf("unexpected URL: %s", url)
		}

		return MockResponse(200, expectedLanguages)
	})

	languages, err := client.GetSourceLanguages()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(languages) != len(expectedLanguages) {
		t.Fatalf("expected %d languages, got %d", len(expectedLanguages), len(languages))
	}

	for i, lang := range languages {
		if *lang != *expectedLanguages[i] {
			t.Errorf("language at index %d differs from expected", i)
		}
	}
}

func TestGetTargetLanguages(t *testing.T) {
	expectedLanguages := []*Language{
		{Language: "EN-GB", Name: "English (British)", SupportsFormality: false},
		{Language: "DE", Name: "German", SupportsFormality: true},
		{Language: "FR", Name: "French", SupportsFormality: true},
	}

	client := NewTestClient(func(req *http.Request) *http.Response {
		if req.URL.Query().Get("type") != "target" {
			t.Errorf("unexpected URL: %s", req.URL)
		}
		return MockResponse(200, expectedLanguages)
	})

	languages, err := client.GetTargetLanguagesWithContext(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(languages) != len(expectedLanguages) {
		t.Fatalf("expected %d languages, got %d", len(expectedLanguages), len(languages))
	}
	if languages[0].Language != "EN-GB" || !languages[2].SupportsFormality {
		t.Errorf("unexpected languages: %+v", languages)
	}
}

func TestGetLanguagesNullBody(t *testing.T) {
	client := NewTestClient(func(req *http.Request) *http.Response {
		return MockResponse(200, nil)
	})

	languages, err := client.GetSourceLanguages()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if languages == nil || len(languages) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", languages)
	}
}

func TestGetLanguagesError(t *testing.T) {
	client := NewTestClient(func(req *http.Request) *http.Response {
		return &http.Response{
			StatusCode: 403,
			Body:       nil,
			Header:     make(http.Header),
		}
	})

	_, err := client.GetSourceLanguages()
	if err == nil {
		t.Error("expected error from GetSourceLanguages, got nil")
	}

	_, err = client.GetTargetLanguages()
	if err == nil {
		t.Error("expected error from GetTargetLanguages, got nil")
	}
}

func TestLooselyEncodedFields(t *testing.T) {
	client := NewTestClient(func(req *http.Request) *http.Response {
		if strings.Contains(req.URL.Path, "/v2/translate") {
			return MockResponse(200, json.RawMessage(`{"translations":[{"text":"Hallo","billed_characters":"5"}]}`))
		}
		return MockResponse(200, json.RawMessage(`[{"language":"DE","name":"German","supports_formality":"true"},{"language":"JA","name":"Japanese","supports_formality":null}]`))
	})

	languages, err := client.GetTargetLanguages()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(languages) != 2 || !languages[0].SupportsFormality || languages[1].SupportsFormality {
		t.Errorf("unexpected languages: %+v", languages)
	}

	translation, err := client.TranslateText("Hello", "DE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if translation.BilledCharacters != 5 {
		t.Errorf("expected 5 billed characters, got %d", translation.BilledCharacters)
	}
}
