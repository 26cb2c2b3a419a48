// Package deepl is a client for the DeepL translation API.
package deepl

import (
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/lkretschmer/apiclients/rest"
)

const (
	baseURL     = "https://api.deepl.com"
	baseURLFree = "https://api-free.deepl.com"
	userAgent   = "deepl-go/" + rest.Version
)

// statusMessages are DeepL specific descriptions layered over the generic
// table in rest.
var statusMessages = map[int]string{
	403: "Authorization failed. Please supply a valid auth_key parameter.",
	414: "The request URL is too long. You can avoid this error by using a POST request instead of a GET request, and sending the parameters in the HTTP body.",
	456: "Quota exceeded. The character limit has been reached.",
	529: "Too many requests. Please wait and resend your request.",
}

// Client represents a DeepL API client.
type Client struct {
	apiKey string       // API authentication key
	rest   *rest.Client // Request plumbing bound to the key's endpoint
}

// Option configures the underlying rest.Client.
type Option = rest.Option

// NewClient creates and returns a new DeepL API client with the given API key and optional configurations.
// Free API keys (ending with ":fx") are routed to the free endpoint.
func NewClient(apiKey string, opts ...Option) *Client {
	base := []Option{
		rest.WithUserAgent(userAgent),
		rest.WithAuthenticator(rest.HeaderAuth("Authorization", "DeepL-Auth-Key "+apiKey)),
		rest.WithStatusMessages(statusMessages),
	}
	return &Client{
		apiKey: apiKey,
		rest:   rest.New(getBaseURL(apiKey), append(base, opts...)...),
	}
}

// WithUserAgent returns an Option that sets the User-Agent header for HTTP requests.
func WithUserAgent(ua string) Option {
	return rest.WithUserAgent(ua)
}

// WithProxy returns an Option that configures the client to use the specified proxy URL.
func WithProxy(proxy url.URL) Option {
	return rest.WithProxy(proxy)
}

// WithRetryPolicy returns an Option that sets the maximum retry attempts and maximum delay for retrying failed requests.
func WithRetryPolicy(maxRetryAttempts, maxDelaySeconds int) Option {
	return rest.WithRetryPolicy(maxRetryAttempts, maxDelaySeconds)
}

// WithTrace returns an Option that logs every request and response through
// logger at trace level.
func WithTrace(logger hclog.Logger) Option {
	return func(c *rest.Client) {
		rest.WithLogger(logger)(c)
		rest.WithTrace()(c)
	}
}

// WithBaseURL points the client at another server, such as a local mock.
func WithBaseURL(u string) Option {
	return rest.WithBaseURL(u)
}

// getBaseURL returns the appropriate API base URL based on the API key type.
func getBaseURL(apiKey string) string {
	if strings.HasSuffix(apiKey, ":fx") {
		return baseURLFree
	}
	return baseURL
}

// BoolPtr is a helper function that returns a pointer to a bool value.
func BoolPtr(b bool) *bool {
	return &b
}
