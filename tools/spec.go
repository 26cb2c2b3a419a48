package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/lkretschmer/apiclients/rest"
	"gopkg.in/yaml.v3"
)

// OpenAPI document
// ----------------------------------------------------------------------------

// OpenAPISpec is the part of an OpenAPI 3 document the report needs.
type OpenAPISpec struct {
	Info struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"info"`
	Paths map[string]PathItem `yaml:"paths"`
}

// PathItem holds the operations of one path.
type PathItem struct {
	Get    *Operation `yaml:"get,omitempty"`
	Post   *Operation `yaml:"post,omitempty"`
	Put    *Operation `yaml:"put,omitempty"`
	Patch  *Operation `yaml:"patch,omitempty"`
	Delete *Operation `yaml:"delete,omitempty"`
}

// Operation is a single HTTP method on a path.
type Operation struct {
	OperationID string   `yaml:"operationId"`
	Summary     string   `yaml:"summary"`
	Tags        []string `yaml:"tags,omitempty"`
	Deprecated  bool     `yaml:"deprecated,omitempty"`
}

type methodOperation struct {
	method string
	op     *Operation
}

// operations returns the path's operations in a fixed method order.
func (p PathItem) operations() []methodOperation {
	all := []methodOperation{
		{http.MethodGet, p.Get},
		{http.MethodPost, p.Post},
		{http.MethodPut, p.Put},
		{http.MethodPatch, p.Patch},
		{http.MethodDelete, p.Delete},
	}
	out := all[:0]
	for _, o := range all {
		if o.op != nil {
			out = append(out, o)
		}
	}
	return out
}

// parseOpenAPISpec parses a YAML (or JSON) OpenAPI document.
func parseOpenAPISpec(content []byte) (*OpenAPISpec, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	var spec OpenAPISpec
	if err := yaml.Unmarshal(content, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if spec.Info.Title == "" {
		return nil, fmt.Errorf("missing required field: info.title")
	}
	if spec.Paths == nil {
		spec.Paths = make(map[string]PathItem)
	}
	return &spec, nil
}

// extractEndpoints flattens the document into endpoints sorted by path.
func extractEndpoints(api string, spec *OpenAPISpec) []Endpoint {
	if spec == nil {
		return nil
	}

	paths := make([]string, 0, len(spec.Paths))
	for path := range spec.Paths {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var endpoints []Endpoint
	for _, path := range paths {
		for _, o := range spec.Paths[path].operations() {
			e := Endpoint{
				API:         api,
				Path:        path,
				HTTPMethod:  o.method,
				OperationID: o.op.OperationID,
				Summary:     o.op.Summary,
				Deprecated:  o.op.Deprecated,
			}
			e.Category = categorize(e, o.op.Tags)
			endpoints = append(endpoints, e)
		}
	}
	return endpoints
}

// Fetching and caching
// ----------------------------------------------------------------------------

// SpecSource provides the OpenAPI document of one API.
type SpecSource interface {
	Fetch(ctx context.Context) (*OpenAPISpec, error)
}

// SpecFetcher reads a cached document and refreshes it from URL once the
// cache is older than MaxAge.
type SpecFetcher struct {
	URL       string        // Refresh source; empty means cache only
	CachePath string        // Local copy under tools/testdata
	MaxAge    time.Duration // Cache lifetime before a refresh is attempted
	Offline   bool          // Never refresh
	Options   []rest.Option // Extra options for the download client
	Logger    hclog.Logger
}

// Fetch returns the cached document when it is fresh enough, refreshing it
// otherwise. A failed refresh falls back to a stale cache.
func (f *SpecFetcher) Fetch(ctx context.Context) (*OpenAPISpec, error) {
	logger := f.logger()

	cached, age, cacheErr := f.readCache()
	if cacheErr == nil && (f.Offline || f.URL == "" || age < f.MaxAge) {
		logger.Debug("using cached document", "path", f.CachePath, "age", age.Round(time.Second))
		return parseOpenAPISpec(cached)
	}
	if f.Offline || f.URL == "" {
		return nil, fmt.Errorf("no cached document: %w", cacheErr)
	}

	content, err := f.download(ctx)
	if err != nil {
		if cacheErr == nil {
			logger.Warn("refresh failed, using stale cache", "url", f.URL, "error", err)
			return parseOpenAPISpec(cached)
		}
		return nil, err
	}
	logger.Info("downloaded document", "url", f.URL, "bytes", len(content))

	spec, err := parseOpenAPISpec(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.URL, err)
	}
	if err := os.WriteFile(f.CachePath, content, 0o644); err != nil {
		logger.Warn("failed to cache document", "path", f.CachePath, "error", err)
	}
	return spec, nil
}

func (f *SpecFetcher) readCache() ([]byte, time.Duration, error) {
	info, err := os.Stat(f.CachePath)
	if err != nil {
		return nil, 0, err
	}
	content, err := os.ReadFile(f.CachePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read cached document: %w", err)
	}
	return content, time.Since(info.ModTime()), nil
}

func (f *SpecFetcher) download(ctx context.Context) ([]byte, error) {
	u, err := url.Parse(f.URL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid document URL %q", f.URL)
	}

	opts := []rest.Option{
		rest.WithUserAgent(userAgent),
		rest.WithTimeout(httpTimeout),
		rest.WithLogger(f.logger()),
	}
	client := rest.New(u.Scheme+"://"+u.Host, append(opts, f.Options...)...)

	var content []byte
	_, err = client.Do(ctx, &rest.Request{
		Path:   f.URL,
		Header: http.Header{"Accept": {"application/yaml, text/yaml, */*"}},
	}, &content)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", f.URL, err)
	}
	if len(content) > maxSpecSize {
		return nil, fmt.Errorf("document from %s exceeds %d bytes", f.URL, maxSpecSize)
	}
	return content, nil
}

func (f *SpecFetcher) logger() hclog.Logger {
	if f.Logger == nil {
		return hclog.NewNullLogger()
	}
	return f.Logger
}
