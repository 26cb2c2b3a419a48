package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Authenticator attaches credentials to an outgoing request. It runs once
// per attempt, so token based authenticators can refresh between retries.
type Authenticator func(ctx context.Context, req *http.Request) error

// BearerToken sends "Authorization: Bearer <token>".
func BearerToken(token string) Authenticator {
	return HeaderAuth("Authorization", "Bearer "+token)
}

// BasicAuth sends HTTP basic credentials.
func BasicAuth(username, password string) Authenticator {
	return func(_ context.Context, req *http.Request) error {
		req.SetBasicAuth(username, password)
		return nil
	}
}

// HeaderAuth sends a fixed header, e.g. "Authorization: DeepL-Auth-Key <key>".
func HeaderAuth(name, value string) Authenticator {
	return func(_ context.Context, req *http.Request) error {
		req.Header.Set(name, value)
		return nil
	}
}

// QueryAuth appends a credential as a query parameter.
func QueryAuth(name, value string) Authenticator {
	return func(_ context.Context, req *http.Request) error {
		q := req.URL.Query()
		q.Set(name, value)
		req.URL.RawQuery = q.Encode()
		return nil
	}
}

// TokenSource authenticates with tokens from an OAuth2 token source. Wrap the
// source in oauth2.ReuseTokenSource to avoid fetching a token per request.
func TokenSource(ts oauth2.TokenSource) Authenticator {
	return func(_ context.Context, req *http.Request) error {
		if ts == nil {
			return errors.New("nil token source")
		}
		tok, err := ts.Token()
		if err != nil {
			return fmt.Errorf("failed to obtain token: %w", err)
		}
		tok.SetAuthHeader(req)
		return nil
	}
}
