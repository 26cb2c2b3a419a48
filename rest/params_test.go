package rest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParams(t *testing.T) {
	yes := true
	p := NewParams().
		Set("query", "name:jane").
		Set("empty", "").
		SetInt("limit", 25).
		SetInt("zero", 0).
		SetBool("showDeleted", &yes).
		SetBool("unset", nil).
		SetTime("from_date", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2006-01-02").
		SetTime("to_date", time.Time{}, "2006-01-02").
		Join("expand", []string{"customer", "invoice"}).
		Join("none", nil).
		Add("status", "sent", "", "delivered")

	assert.Equal(t,
		"expand=customer%2Cinvoice&from_date=2024-03-01&limit=25&query=name%3Ajane&showDeleted=true&status=sent&status=delivered",
		p.Values().Encode(),
	)
}

func TestParamsSetMap(t *testing.T) {
	p := NewParams().SetMap("metadata", map[string]string{"plan": "pro", "seats": "3"})
	assert.Equal(t, "pro", p.Values().Get("metadata[plan]"))
	assert.Equal(t, "3", p.Values().Get("metadata[seats]"))
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   map[string]string
		want     string
	}{
		{
			name:     "escapes values",
			template: "groups/{groupKey}/members/{memberKey}",
			params:   map[string]string{"groupKey": "staff@example.com", "memberKey": "a b/c"},
			want:     "groups/staff@example.com/members/a%20b%2Fc",
		},
		{
			name:     "unknown placeholder kept",
			template: "v2.1/accounts/{accountId}/envelopes/{envelopeId}",
			params:   map[string]string{"accountId": "123"},
			want:     "v2.1/accounts/123/envelopes/{envelopeId}",
		},
		{
			name:     "no params",
			template: "v1/balance",
			want:     "v1/balance",
		},
		{
			name:     "unterminated",
			template: "v1/items/{id",
			params:   map[string]string{"id": "x"},
			want:     "v1/items/{id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.template, tt.params))
		})
	}
}
