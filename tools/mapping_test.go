package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationIDToMethodName(t *testing.T) {
	tests := map[string]string{
		"":                       "",
		"translateText":          "TranslateText",
		"getUsage":               "GetUsage",
		"directory.users.list":   "DirectoryUsersList",
		"issues/list-for-repo":   "IssuesListForRepo",
		"Envelopes_GetEnvelopes": "EnvelopesGetEnvelopes",
		"PostCustomersCustomer":  "PostCustomersCustomer",
	}
	for id, want := range tests {
		assert.Equal(t, want, operationIDToMethodName(id), id)
	}
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		path string
		want route
	}{
		{"/v1/customers", route{resource: "customers"}},
		{"/v1/customers/{customer}", route{resource: "customers", item: true}},
		{"/v1/charges/{charge}/capture", route{resource: "capture", parent: "charges"}},
		{"/v2.1/accounts/{accountId}/envelopes/{envelopeId}", route{resource: "envelopes", parent: "accounts", item: true}},
		{"/admin/directory/v1/groups/{groupKey}/members", route{resource: "members", parent: "groups"}},
		{"/repos/{owner}/{repo}", route{resource: "repos", item: true}},
		{"/", route{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseRoute(tt.path), tt.path)
	}
}

func bindingMethods() []GoMethod {
	return []GoMethod{
		{Name: "TranslateTextWithContext"},
		{Name: "GetUsageWithContext"},
		{Name: "List", Resource: "Customers"},
		{Name: "ListAll", Resource: "Customers"},
		{Name: "Get", Resource: "Customers"},
		{Name: "Update", Resource: "Customers"},
		{Name: "Delete", Resource: "Customers"},
		{Name: "Capture", Resource: "Charges"},
		{Name: "Get", Resource: "Balance"},
		{Name: "ListRecipients", Resource: "Envelopes"},
		{Name: "ListAllForOrg", Resource: "Repositories"},
		{Name: "ListForOrg", Resource: "Repositories"},
		{Name: "Get", Resource: "Repositories"},
		{Name: "Edit", Resource: "Issues"},
		{Name: "HasMember", Resource: "Members"},
		{Name: "MakeAdmin", Resource: "Users"},
	}
}

func TestMatchMethodToEndpoint(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		operationID string
		want        string
	}{
		{"operation ID on Client", "POST", "/v2/translate", "translateText", "TranslateTextWithContext"},
		{"operation ID ignores WithContext", "GET", "/v2/usage", "getUsage", "GetUsageWithContext"},
		{"collection read", "GET", "/v1/customers", "GetCustomers", "Customers().List"},
		{"item read", "GET", "/v1/customers/{customer}", "GetCustomersCustomer", "Customers().Get"},
		{"item update by POST", "POST", "/v1/customers/{customer}", "PostCustomersCustomer", "Customers().Update"},
		{"item delete", "DELETE", "/v1/customers/{customer}", "", "Customers().Delete"},
		{"collection create missing", "POST", "/v1/customers", "PostCustomers", ""},
		{"unknown sub-path", "GET", "/v1/customers/search", "GetCustomersSearch", ""},
		{"action on parent", "POST", "/v1/charges/{charge}/capture", "PostChargesChargeCapture", "Charges().Capture"},
		{"singleton", "GET", "/v1/balance", "GetBalance", "Balance().Get"},
		{"sub-collection on parent", "GET", "/v2.1/accounts/{accountId}/envelopes/{envelopeId}/recipients", "", "Envelopes().ListRecipients"},
		{"abbreviated resource", "GET", "/orgs/{org}/repos", "repos/list-for-org", "Repositories().ListForOrg"},
		{"patch by edit", "PATCH", "/repos/{owner}/{repo}/issues/{issue_number}", "issues/update", "Issues().Edit"},
		{"qualified operation ID", "GET", "/admin/directory/v1/groups/{groupKey}/hasMember/{memberKey}", "directory.members.hasMember", "Members().HasMember"},
		{"camel-cased action", "POST", "/admin/directory/v1/users/{userKey}/makeAdmin", "", "Users().MakeAdmin"},
		{"unknown resource", "GET", "/v2/glossaries", "listGlossaries", ""},
	}

	methods := bindingMethods()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchMethodToEndpoint(Endpoint{
				Path:        tt.path,
				HTTPMethod:  tt.method,
				OperationID: tt.operationID,
			}, methods)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.want, got.QualifiedName())
			}
		})
	}
}

func TestDeterminePriority(t *testing.T) {
	tests := []struct {
		endpoint Endpoint
		want     string
	}{
		{Endpoint{HTTPMethod: "GET", Path: "/v1/customers"}, PriorityHigh},
		{Endpoint{HTTPMethod: "POST", Path: "/v1/customers"}, PriorityHigh},
		{Endpoint{HTTPMethod: "POST", Path: "/v1/customers/{customer}"}, PriorityMedium},
		{Endpoint{HTTPMethod: "PATCH", Path: "/repos/{owner}/{repo}"}, PriorityMedium},
		{Endpoint{HTTPMethod: "DELETE", Path: "/v1/customers/{customer}"}, PriorityLow},
		{Endpoint{HTTPMethod: "GET", Path: "/v1/gadgets", Deprecated: true}, PriorityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, determinePriority(tt.endpoint), tt.endpoint.HTTPMethod+" "+tt.endpoint.Path)
	}
}

func TestCalculateCoverage(t *testing.T) {
	implemented, total, coverage := calculateCoverage(nil)
	assert.Equal(t, 0, implemented)
	assert.Equal(t, 0, total)
	assert.Zero(t, coverage)

	m := &GoMethod{Name: "List"}
	implemented, total, coverage = calculateCoverage([]Endpoint{{GoMethod: m}, {}, {GoMethod: m}, {}})
	assert.Equal(t, 2, implemented)
	assert.Equal(t, 4, total)
	assert.InDelta(t, 50.0, coverage, 0.001)
}

func TestCreateEndpointMappings(t *testing.T) {
	endpoints := []Endpoint{
		{HTTPMethod: "GET", Path: "/v1/customers", Category: "Customers"},
		{HTTPMethod: "DELETE", Path: "/v1/refunds/{refund}", Category: "Refunds"},
	}
	mappings := createEndpointMappings(endpoints, bindingMethods())

	assert.True(t, mappings[0].Implemented())
	assert.Equal(t, PriorityHigh, mappings[0].Priority)
	assert.False(t, mappings[1].Implemented())
	assert.Equal(t, PriorityLow, mappings[1].Priority)
	assert.Nil(t, endpoints[0].GoMethod, "input is not modified")

	categories := categorizeEndpoints(mappings)
	assert.Equal(t, []string{"Customers", "Refunds"}, sortedKeys(categories))
}
