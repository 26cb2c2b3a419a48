package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// sensitiveHeaders are replaced before requests and responses are dumped.
var sensitiveHeaders = []string{"Authorization", "Proxy-Authorization", "Cookie", "Set-Cookie", "X-Api-Key"}

// sensitiveFields are query parameters, form fields and JSON keys that carry
// credentials.
var sensitiveFields = []string{
	"key", "api_key", "auth_key", "token", "password",
	"access_token", "refresh_token", "id_token",
	"assertion", "client_assertion", "client_secret",
}

const redacted = "REDACTED"

// credentials names the headers and query parameters an Authenticator set on
// one attempt.
type credentials struct {
	headers []string
	params  []string
}

type credentialsKey struct{}

func withCredentials(ctx context.Context, cr credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, cr)
}

func credentialsFrom(ctx context.Context) credentials {
	cr, _ := ctx.Value(credentialsKey{}).(credentials)
	return cr
}

// addedCredentials diffs a request against its headers and query from before
// authentication.
func addedCredentials(header http.Header, rawQuery string, req *http.Request) credentials {
	var cr credentials
	for name, vs := range req.Header {
		if !equalValues(header[name], vs) {
			cr.headers = append(cr.headers, name)
		}
	}
	if req.URL.RawQuery != rawQuery {
		before, _ := url.ParseQuery(rawQuery)
		for name, vs := range req.URL.Query() {
			if !equalValues(before[name], vs) {
				cr.params = append(cr.params, name)
			}
		}
	}
	return cr
}

func equalValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// loggingRoundTripper is an http.RoundTripper that logs HTTP requests and responses.
type loggingRoundTripper struct {
	Proxied http.RoundTripper
	Logger  hclog.Logger
}

// RoundTrip logs the outgoing HTTP request and the incoming HTTP response,
// with credentials removed.
func (lrt *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cr := credentialsFrom(req.Context())
	if lrt.Logger.IsTrace() {
		lrt.dumpRequest(req, cr)
	}

	res, err := lrt.Proxied.RoundTrip(req)
	if err != nil {
		lrt.Logger.Trace("error during round trip", "url", redactURL(req.URL, cr.params...), "error", err)
		return nil, err
	}

	if lrt.Logger.IsTrace() {
		lrt.dumpResponse(res)
	}
	return res, nil
}

func (lrt *loggingRoundTripper) dumpRequest(req *http.Request, cr credentials) {
	clone := req.Clone(req.Context())
	clone.URL, _ = url.Parse(redactURL(req.URL, cr.params...))
	redactHeaders(clone.Header, cr.headers)

	// Dump a copy of the body so the original stays readable.
	clone.Body = nil
	if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			data, err := io.ReadAll(body)
			body.Close()
			if err == nil {
				data = redactBody(clone.Header.Get("Content-Type"), data)
				clone.Body = io.NopCloser(bytes.NewReader(data))
				clone.ContentLength = int64(len(data))
			}
		}
	}

	reqDump, err := httputil.DumpRequestOut(clone, clone.Body != nil)
	if err != nil {
		lrt.Logger.Trace("error dumping request", "error", err)
		return
	}
	lrt.Logger.Trace("HTTP request", "dump", string(reqDump))
}

func (lrt *loggingRoundTripper) dumpResponse(res *http.Response) {
	var data []byte
	if res.Body != nil {
		var err error
		data, err = io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			res.Body = io.NopCloser(io.MultiReader(bytes.NewReader(data), errReader{err}))
			lrt.Logger.Trace("error dumping response", "error", err)
			return
		}
		res.Body = io.NopCloser(bytes.NewReader(data))
	}

	cp := *res
	cp.Header = res.Header.Clone()
	redactHeaders(cp.Header, nil)
	head, err := httputil.DumpResponse(&cp, false)
	if err != nil {
		lrt.Logger.Trace("error dumping response", "error", err)
		return
	}
	body := redactBody(res.Header.Get("Content-Type"), data)
	lrt.Logger.Trace("HTTP response", "dump", string(head)+string(body))
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func redactHeaders(h http.Header, extra []string) {
	for _, names := range [][]string{sensitiveHeaders, extra} {
		for _, name := range names {
			if h.Get(name) != "" {
				h.Set(name, redacted)
			}
		}
	}
}

func isSensitiveField(name string, extra []string) bool {
	for _, names := range [][]string{sensitiveFields, extra} {
		for _, s := range names {
			if strings.EqualFold(name, s) {
				return true
			}
		}
	}
	return false
}

// redactURL renders u with credential query parameters masked.
func redactURL(u *url.URL, extra ...string) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	changed := false
	for key := range q {
		if isSensitiveField(key, extra) {
			q.Set(key, redacted)
			changed = true
		}
	}
	if !changed {
		return u.Redacted()
	}
	cp := *u
	cp.RawQuery = q.Encode()
	return cp.Redacted()
}

// redactBody masks credential fields of form and JSON bodies. Other bodies
// and bodies that fail to parse are returned unchanged.
func redactBody(contentType string, body []byte) []byte {
	if len(body) == 0 {
		return body
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body
	}

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return body
		}
		changed := false
		for key := range form {
			if isSensitiveField(key, nil) {
				form.Set(key, redacted)
				changed = true
			}
		}
		if !changed {
			return body
		}
		return []byte(form.Encode())

	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil || !redactJSON(v) {
			return body
		}
		out, err := json.Marshal(v)
		if err != nil {
			return body
		}
		return out
	}
	return body
}

func redactJSON(v any) bool {
	changed := false
	switch t := v.(type) {
	case map[string]any:
		for key, child := range t {
			if isSensitiveField(key, nil) {
				t[key] = redacted
				changed = true
				continue
			}
			if redactJSON(child) {
				changed = true
			}
		}
	case []any:
		for _, child := range t {
			if redactJSON(child) {
				changed = true
			}
		}
	}
	return changed
}
