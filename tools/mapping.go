package main

import (
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
)

// Implementation priorities of missing endpoints.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

var versionSegment = regexp.MustCompile(`^v\d+(\.\d+)?$`)

// Endpoint is one operation of an API and the method implementing it.
type Endpoint struct {
	API         string    // API name from the target list
	Path        string    // Path template, e.g. "/v1/customers/{customer}"
	HTTPMethod  string    // GET, POST, ...
	OperationID string    // OpenAPI operation ID
	Summary     string    // Human-readable description
	Category    string    // First tag, or the resource segment
	Priority    string    // High, Medium or Low
	Deprecated  bool      // Marked deprecated in the document
	GoMethod    *GoMethod // Implementing method, nil when missing
}

// Implemented reports whether a method was matched.
func (e Endpoint) Implemented() bool { return e.GoMethod != nil }

// route is the shape of a path template after dropping version segments.
type route struct {
	resource string // last literal segment
	parent   string // literal before resource, if any
	item     bool   // path ends in a parameter
}

func parseRoute(path string) route {
	var (
		r        route
		literals []string
	)
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		switch {
		case seg == "" || versionSegment.MatchString(seg):
			continue
		case strings.HasPrefix(seg, "{"):
			r.item = true
		default:
			literals = append(literals, seg)
			r.item = false
		}
	}
	if n := len(literals); n > 0 {
		r.resource = literals[n-1]
		if n > 1 {
			r.parent = literals[n-2]
		}
	}
	return r
}

// categorize prefers the document's own tag.
func categorize(e Endpoint, tags []string) string {
	if len(tags) > 0 && tags[0] != "" {
		return tags[0]
	}
	if r := parseRoute(e.Path); r.resource != "" {
		return r.resource
	}
	return "other"
}

// operationIDToMethodName converts an operation ID such as "getUsage",
// "directory.users.list" or "issues/list-for-repo" to a Go method name.
func operationIDToMethodName(operationID string) string {
	if operationID == "" {
		return ""
	}
	return strcase.ToCamel(strings.ReplaceAll(operationID, "/", "_"))
}

// verbsFor lists the method names that conventionally implement an HTTP
// method on a route, most specific first.
func verbsFor(httpMethod string, r route) []string {
	switch httpMethod {
	case http.MethodGet:
		if r.item || !strings.HasSuffix(r.resource, "s") {
			return []string{"Get"}
		}
		return []string{"List", "ListAll"}
	case http.MethodPost:
		if r.item {
			return []string{"Update"}
		}
		return []string{"Create", "Insert"}
	case http.MethodPut:
		return []string{"Update"}
	case http.MethodPatch:
		return []string{"Patch", "Edit", "Update"}
	case http.MethodDelete:
		return []string{"Delete"}
	}
	return nil
}

// resourceMatches compares a service name with a path segment, allowing
// abbreviations such as "repos" for Repositories.
func resourceMatches(resource, segment string) bool {
	a, b := strings.ToLower(resource), strings.ToLower(segment)
	if a == "" || b == "" {
		return false
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

func verbMatches(name, verb string) bool {
	return name == verb || strings.HasPrefix(name, verb+"For")
}

// matchByOperationID finds the method named after the operation ID, either
// directly or as its resource-qualified suffix.
func matchByOperationID(operationID string, methods []GoMethod) *GoMethod {
	want := operationIDToMethodName(operationID)
	if want == "" {
		return nil
	}
	for i := range methods {
		m := &methods[i]
		if m.baseName() == want {
			return m
		}
		if m.Resource != "" && strings.HasSuffix(want, m.Resource+m.baseName()) {
			return m
		}
	}
	return nil
}

// matchByPath applies the resource and verb conventions of the bindings.
func matchByPath(e Endpoint, methods []GoMethod) *GoMethod {
	r := parseRoute(e.Path)
	if r.resource == "" {
		return nil
	}
	action := strcase.ToCamel(r.resource)

	// Client methods carry the resource in their name.
	for i := range methods {
		m := &methods[i]
		if m.Resource == "" && strings.Contains(m.baseName(), action) {
			return m
		}
	}

	verbs := verbsFor(e.HTTPMethod, r)
	for _, verb := range verbs {
		for i := range methods {
			m := &methods[i]
			if resourceMatches(m.Resource, r.resource) && verbMatches(m.baseName(), verb) {
				return m
			}
		}
	}

	// Sub-resources and actions live on the parent's service.
	if r.parent == "" {
		return nil
	}
	for i := range methods {
		m := &methods[i]
		if !resourceMatches(m.Resource, r.parent) {
			continue
		}
		if m.baseName() == action {
			return m
		}
		for _, verb := range verbs {
			if m.baseName() == verb+action {
				return m
			}
		}
	}
	return nil
}

// matchMethodToEndpoint tries the operation ID first, then the path.
func matchMethodToEndpoint(e Endpoint, methods []GoMethod) *GoMethod {
	if m := matchByOperationID(e.OperationID, methods); m != nil {
		return m
	}
	return matchByPath(e, methods)
}

// createEndpointMappings matches every endpoint and assigns priorities.
func createEndpointMappings(endpoints []Endpoint, methods []GoMethod) []Endpoint {
	mappings := make([]Endpoint, len(endpoints))
	copy(mappings, endpoints)
	for i := range mappings {
		mappings[i].GoMethod = matchMethodToEndpoint(mappings[i], methods)
		mappings[i].Priority = determinePriority(mappings[i])
	}
	return mappings
}

// determinePriority ranks reads and creates above updates, and deletes and
// deprecated operations last.
func determinePriority(e Endpoint) string {
	switch {
	case e.Deprecated, e.HTTPMethod == http.MethodDelete:
		return PriorityLow
	case e.HTTPMethod == http.MethodGet:
		return PriorityHigh
	case e.HTTPMethod == http.MethodPost && !parseRoute(e.Path).item:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Coverage calculation
// ----------------------------------------------------------------------------

// calculateCoverage returns implemented, total and the percentage.
func calculateCoverage(mappings []Endpoint) (int, int, float64) {
	if len(mappings) == 0 {
		return 0, 0, 0
	}
	implemented := 0
	for _, m := range mappings {
		if m.Implemented() {
			implemented++
		}
	}
	return implemented, len(mappings), float64(implemented) / float64(len(mappings)) * 100
}

// categorizeEndpoints groups endpoints by category.
func categorizeEndpoints(mappings []Endpoint) map[string][]Endpoint {
	categories := make(map[string][]Endpoint)
	for _, m := range mappings {
		categories[m.Category] = append(categories[m.Category], m)
	}
	return categories
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
