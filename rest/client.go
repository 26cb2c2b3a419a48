// Package rest holds the request plumbing shared by every API binding in
// this module: base URL resolution, credential injection, JSON and form
// bodies, retries, error decoding, tracing, metrics and pagination.
//
// A binding wraps a *Client and adds one method per endpoint:
//
//	c := rest.New("https://api.example.com/", rest.WithAuthenticator(rest.BearerToken(tok)))
//	var out Widget
//	_, err := c.Get(ctx, rest.Expand("v1/widgets/{id}", map[string]string{"id": id}), nil, &out)
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// Version is sent in the default User-Agent.
	Version = "0.3.0"

	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "apiclients-go/" + Version

	// maxResponseSize bounds how much of a response body is buffered.
	maxResponseSize = 32 << 20
)

// Client performs HTTP requests against a single API. It is safe for
// concurrent use once constructed.
type Client struct {
	baseURL     string            // Base URL for API endpoints, always ending in "/"
	auth        Authenticator     // Injects credentials into each attempt
	userAgent   string            // User-Agent header value sent with requests
	header      http.Header       // Headers added to every request
	httpClient  *http.Client      // Underlying HTTP client used for requests
	retryPolicy RetryPolicy       // Retry configuration for transient failures
	logger      hclog.Logger      // Structured logger, silent by default
	messages    map[int]string    // Status code fallbacks for error messages
	decodeError ErrorDecoder      // Extracts message and code from error bodies
	proxy       *url.URL          // Optional proxy applied to the transport
	timeout     time.Duration     // Per-attempt timeout, zero keeps the HTTP client's
	trace       bool              // Dump requests and responses at trace level
	metrics     *transportMetrics // Optional Prometheus instrumentation
}

// Option configures a Client.
type Option func(c *Client)

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     normalizeBase(baseURL),
		userAgent:   defaultUserAgent,
		header:      make(http.Header),
		httpClient:  &http.Client{Timeout: defaultTimeout},
		retryPolicy: DefaultRetryPolicy,
		logger:      hclog.NewNullLogger(),
		messages:    httpStatusMessages,
		decodeError: DefaultErrorDecoder,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = c.buildHTTPClient()
	return c
}

// WithBaseURL overrides the base URL, typically to point at a sandbox or a
// test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = normalizeBase(baseURL)
	}
}

// WithUserAgent sets the User-Agent header for HTTP requests.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithProxy routes requests through the given proxy.
func WithProxy(proxy url.URL) Option {
	return func(c *Client) {
		c.proxy = &proxy
	}
}

// WithHTTPClient replaces the underlying HTTP client. The client is copied,
// so wrapping transports added by other options never leak into it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-attempt timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetryPolicy sets the maximum number of attempts and the maximum delay
// between them.
func WithRetryPolicy(maxRetryAttempts, maxDelaySeconds int) Option {
	return func(c *Client) {
		c.retryPolicy = RetryPolicy{
			MaxRetries:  maxRetryAttempts,
			MaxDelay:    time.Duration(maxDelaySeconds) * time.Second,
			BackoffBase: DefaultRetryPolicy.BackoffBase,
		}
	}
}

// WithRetry sets the full retry policy.
func WithRetry(p RetryPolicy) Option {
	return func(c *Client) {
		c.retryPolicy = p
	}
}

// WithTrace logs redacted dumps of every request and response at trace level.
func WithTrace() Option {
	return func(c *Client) {
		c.trace = true
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Set(key, value)
	}
}

// WithAuthenticator sets how credentials are attached to requests.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) {
		c.auth = a
	}
}

// WithStatusMessages merges API specific status code descriptions over the
// generic ones.
func WithStatusMessages(messages map[int]string) Option {
	return func(c *Client) {
		merged := make(map[int]string, len(c.messages)+len(messages))
		for k, v := range c.messages {
			merged[k] = v
		}
		for k, v := range messages {
			merged[k] = v
		}
		c.messages = merged
	}
}

// WithErrorDecoder sets how the message and code are read from error bodies.
func WithErrorDecoder(d ErrorDecoder) Option {
	return func(c *Client) {
		if d != nil {
			c.decodeError = d
		}
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Logger returns the client's logger.
func (c *Client) Logger() hclog.Logger {
	return c.logger
}

// HTTPClient returns the configured HTTP client, including any tracing or
// metrics transports.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Request describes one API call.
type Request struct {
	Method string
	// Path is resolved against the base URL. Absolute URLs are accepted when
	// they point at the same scheme and host, as pagination links do.
	Path  string
	Query url.Values
	// Header is merged over the client's default headers.
	Header http.Header
	// Body is JSON-encoded unless it is an io.Reader or []byte, which are
	// sent unchanged.
	Body any
	// Form, when set, is sent as an application/x-www-form-urlencoded body.
	Form url.Values
	// Idempotent marks a POST or PATCH that is safe to repeat after a 5xx or
	// network error, such as a read or a stateless computation.
	Idempotent bool
}

// Response carries the parts of the HTTP response that callers may need
// after the body has been decoded.
type Response struct {
	StatusCode int
	Header     http.Header
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, q url.Values, out any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: q}, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path}, out)
}

// Do sends the request, retrying transient failures, and decodes a
// successful response body into out. Non-2xx responses are returned as
// *Error together with the Response.
func (c *Client) Do(ctx context.Context, r *Request, out any) (*Response, error) {
	req, body, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, data, err := c.send(ctx, req, body, r.Idempotent || isIdempotent(req))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("request completed",
		"method", req.Method,
		"url", redactURL(req.URL),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	res := &Response{StatusCode: resp.StatusCode, Header: resp.Header}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return res, c.newError(resp, data)
	}
	if err := decodeBody(data, out); err != nil {
		return res, fmt.Errorf("failed to decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return res, nil
}

// URL resolves path against the base URL and merges q into its query.
func (c *Client) URL(path string, q url.Values) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}

	var u *url.URL
	if ref.IsAbs() {
		if ref.Scheme != base.Scheme || ref.Host != base.Host {
			return "", fmt.Errorf("refusing to follow %s: host differs from %s", redactURL(ref), base.Host)
		}
		u = ref
	} else {
		ref.Path = strings.TrimPrefix(ref.Path, "/")
		ref.RawPath = strings.TrimPrefix(ref.RawPath, "/")
		u = base.ResolveReference(ref)
	}

	if len(q) > 0 {
		merged := u.Query()
		for k, vs := range q {
			for _, v := range vs {
				merged.Add(k, v)
			}
		}
		u.RawQuery = merged.Encode()
	}
	return u.String(), nil
}

// newRequest builds the template request; the body is returned separately
// so every attempt can replay it.
func (c *Client) newRequest(ctx context.Context, r *Request) (*http.Request, []byte, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	u, err := c.URL(r.Path, r.Query)
	if err != nil {
		return nil, nil, err
	}

	var body []byte
	contentType := ""
	switch {
	case r.Form != nil:
		body = []byte(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.Body != nil:
		switch b := r.Body.(type) {
		case []byte:
			body = b
			contentType = "application/json"
		case io.Reader:
			if body, err = io.ReadAll(b); err != nil {
				return nil, nil, fmt.Errorf("failed to read request body: %w", err)
			}
			contentType = "application/octet-stream"
		default:
			if body, err = json.Marshal(b); err != nil {
				return nil, nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			contentType = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range c.header {
		req.Header[k] = append([]string(nil), vs...)
	}
	for k, vs := range r.Header {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	return req, body, nil
}

// decodeBody decodes JSON into out. Empty bodies and a literal null leave
// out untouched.
func decodeBody(data []byte, out any) error {
	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	return json.Unmarshal(trimmed, out)
}

// readBody drains and closes the response body.
func readBody(res *http.Response) ([]byte, error) {
	if res.Body == nil {
		return nil, nil
	}
	defer res.Body.Close()
	return io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
}

func normalizeBase(u string) string {
	if u != "" && !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

func (c *Client) buildHTTPClient() *http.Client {
	hc := *c.httpClient
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	transport := hc.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if c.proxy != nil {
		t, ok := transport.(*http.Transport)
		if ok {
			t = t.Clone()
		} else {
			t = http.DefaultTransport.(*http.Transport).Clone()
		}
		t.Proxy = http.ProxyURL(c.proxy)
		transport = t
	}
	if c.metrics != nil {
		transport = c.metrics.instrument(transport)
	}
	if c.trace {
		transport = &loggingRoundTripper{Proxied: transport, Logger: c.logger}
	}
	if transport != http.DefaultTransport {
		hc.Transport = transport
	}
	return &hc
}
