package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/lkretschmer/apiclients/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, setup func(r *mux.Router)) *Client {
	t.Helper()
	router := mux.NewRouter()
	api := router.PathPrefix("/v1").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
			assert.Equal(t, "2024-06-20", r.Header.Get("Stripe-Version"))
			next.ServeHTTP(w, r)
		})
	})
	setup(api)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL)
		http.NotFound(w, r)
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return NewClient("sk_test_123",
		rest.WithBaseURL(server.URL),
		WithAPIVersion("2024-06-20"),
		rest.WithRetry(rest.RetryPolicy{MaxRetries: 2, BackoffBase: time.Millisecond, MaxDelay: time.Millisecond}),
	)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func readForm(t *testing.T, r *http.Request) url.Values {
	t.Helper()
	assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
	require.NoError(t, r.ParseForm())
	return r.PostForm
}

func TestCustomersCreate(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/customers", func(w http.ResponseWriter, r *http.Request) {
			form := readForm(t, r)
			assert.Equal(t, "ada@example.com", form.Get("email"))
			assert.Equal(t, "Ada Lovelace", form.Get("name"))
			assert.Equal(t, "pro", form.Get("metadata[plan]"))
			assert.Equal(t, "London", form.Get("address[city]"))
			assert.Equal(t, "GB", form.Get("address[country]"))
			assert.Empty(t, form.Get("address[line2]"))
			assert.Equal(t, []string{"default_source"}, form["expand[]"])
			assert.False(t, form.Has("phone"), "empty fields are not sent")
			assert.Equal(t, "create-ada", r.Header.Get("Idempotency-Key"))

			writeJSON(w, 200, `{"id":"cus_1","object":"customer","email":"ada@example.com","name":"Ada Lovelace",
				"created":1700000000,"delinquent":null,"metadata":{"plan":"pro"},"address":{"city":"London","country":"GB"}}`)
		}).Methods(http.MethodPost)
	})

	cu, err := c.Customers().Create(context.Background(), &CustomerParams{
		Email:          "ada@example.com",
		Name:           "Ada Lovelace",
		Address:        &Address{City: "London", Country: "GB"},
		Metadata:       map[string]string{"plan": "pro"},
		Expand:         []string{"default_source"},
		IdempotencyKey: "create-ada",
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_1", cu.ID)
	assert.False(t, bool(cu.Delinquent))
	assert.Equal(t, int64(1700000000), cu.Created.Unix())
	assert.Equal(t, "pro", cu.Metadata["plan"])
	require.NotNil(t, cu.Address)
	assert.Equal(t, "London", cu.Address.City)
}

func TestIdempotencyKeyStableAcrossRetries(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/customers", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			keys = append(keys, r.Header.Get("Idempotency-Key"))
			n := len(keys)
			mu.Unlock()
			if n == 1 {
				writeJSON(w, 503, `{"error":{"message":"try again"}}`)
				return
			}
			writeJSON(w, 200, `{"id":"cus_2"}`)
		}).Methods(http.MethodPost)
	})

	cu, err := c.Customers().Create(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "cus_2", cu.ID)

	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])
	assert.Len(t, keys[0], 36, "generated keys are UUIDs")
}

func TestCustomersGetUpdateDelete(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/customers/{id}", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "cus_1", mux.Vars(r)["id"])
			switch r.Method {
			case http.MethodGet:
				writeJSON(w, 200, `{"id":"cus_1","email":"ada@example.com"}`)
			case http.MethodPost:
				form := readForm(t, r)
				assert.Equal(t, "VIP", form.Get("description"))
				writeJSON(w, 200, `{"id":"cus_1","description":"VIP"}`)
			case http.MethodDelete:
				writeJSON(w, 200, `{"id":"cus_1","object":"customer","deleted":true}`)
			}
		})
	})
	ctx := context.Background()

	got, err := c.Customers().Get(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	updated, err := c.Customers().Update(ctx, "cus_1", &CustomerParams{Description: "VIP"})
	require.NoError(t, err)
	assert.Equal(t, "VIP", updated.Description)

	deleted, err := c.Customers().Delete(ctx, "cus_1")
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	_, err = c.Customers().Get(ctx, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required parameter "id"`)
}

func TestCustomersListAll(t *testing.T) {
	var calls int32
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/customers", func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			q := r.URL.Query()
			assert.Equal(t, "100", q.Get("limit"), "limit is capped")
			assert.Equal(t, "ada@example.com", q.Get("email"))
			assert.Equal(t, "1700000000", q.Get("created[gte]"))

			switch q.Get("starting_after") {
			case "":
				writeJSON(w, 200, `{"object":"list","url":"/v1/customers","has_more":true,
					"data":[{"id":"cus_1"},{"id":"cus_2"}]}`)
			case "cus_2":
				writeJSON(w, 200, `{"object":"list","has_more":false,"data":[{"id":"cus_3"}]}`)
			default:
				t.Errorf("unexpected cursor %q", q.Get("starting_after"))
			}
		}).Methods(http.MethodGet)
	})

	all, err := c.Customers().ListAll(context.Background(), &CustomerListParams{
		ListParams: ListParams{Limit: 500, Created: &RangeQuery{GTE: 1700000000}},
		Email:      "ada@example.com",
	})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "cus_3", all[2].ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCustomersListSinglePage(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/customers", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "cus_9", r.URL.Query().Get("ending_before"))
			writeJSON(w, 200, `{"object":"list","has_more":true,"data":[{"id":"cus_8"}]}`)
		})
	})

	page, err := c.Customers().List(context.Background(), &CustomerListParams{ListParams: ListParams{EndingBefore: "cus_9"}})
	require.NoError(t, err)
	assert.True(t, page.HasMore)
	require.Len(t, page.Data, 1)
}

func TestChargesCreateAndCapture(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/charges", func(w http.ResponseWriter, r *http.Request) {
			form := readForm(t, r)
			assert.Equal(t, "2000", form.Get("amount"))
			assert.Equal(t, "usd", form.Get("currency"))
			assert.Equal(t, "cus_1", form.Get("customer"))
			assert.Equal(t, "false", form.Get("capture"))
			writeJSON(w, 200, `{"id":"ch_1","amount":2000,"currency":"usd","customer":"cus_1","captured":false,"status":"succeeded"}`)
		}).Methods(http.MethodPost)
		r.HandleFunc("/charges/{id}/capture", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "ch_1", mux.Vars(r)["id"])
			form := readForm(t, r)
			assert.Equal(t, "1500", form.Get("amount"))
			writeJSON(w, 200, `{"id":"ch_1","amount_captured":1500,"captured":true,
				"customer":{"id":"cus_1","object":"customer","email":"ada@example.com"}}`)
		}).Methods(http.MethodPost)
	})
	ctx := context.Background()
	capture := false

	ch, err := c.Charges().Create(ctx, &ChargeParams{Amount: 2000, Currency: "usd", Customer: "cus_1", Capture: &capture})
	require.NoError(t, err)
	assert.Equal(t, "cus_1", ch.Customer.ID)
	assert.False(t, ch.Customer.Expanded())
	assert.False(t, bool(ch.Captured))

	captured, err := c.Charges().Capture(ctx, "ch_1", &CaptureParams{Amount: 1500})
	require.NoError(t, err)
	assert.True(t, bool(captured.Captured))
	assert.Equal(t, int64(1500), captured.AmountCaptured)
	require.True(t, captured.Customer.Expanded())
	assert.Equal(t, "cus_1", captured.Customer.ID)

	var cu Customer
	require.NoError(t, captured.Customer.Decode(&cu))
	assert.Equal(t, "ada@example.com", cu.Email)
}

func TestChargesCreateRequiresAmountAndCurrency(t *testing.T) {
	c := NewClient("sk_test_123")
	_, err := c.Charges().Create(context.Background(), &ChargeParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"amount"`)
	assert.Contains(t, err.Error(), `"currency"`)
}

func TestChargesError(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/charges/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 404, `{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such charge: 'ch_x'"}}`)
		})
	})

	_, err := c.Charges().Get(context.Background(), "ch_x")
	require.Error(t, err)
	assert.True(t, rest.IsNotFound(err))

	var apiErr *rest.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "No such charge: 'ch_x'", apiErr.Message)
	assert.Equal(t, "resource_missing", apiErr.Code)
}

func TestChargesListAllByCustomer(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/charges", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "cus_1", r.URL.Query().Get("customer"))
			writeJSON(w, 200, `{"object":"list","has_more":false,"data":[{"id":"ch_1"},{"id":"ch_2"}]}`)
		})
	})

	all, err := c.Charges().ListAll(context.Background(), &ChargeListParams{Customer: "cus_1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEvents(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, []string{"charge.succeeded", "charge.failed"}, q["types[]"])
			assert.False(t, q.Has("type"))
			writeJSON(w, 200, `{"object":"list","has_more":false,"data":[
				{"id":"evt_1","type":"charge.succeeded","created":1700000000,"pending_webhooks":"2",
				 "data":{"object":{"id":"ch_1","object":"charge","amount":500}},
				 "request":{"id":"req_1","idempotency_key":"k1"}}]}`)
		})
		r.HandleFunc("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, `{"id":"evt_2","type":"customer.updated",
				"data":{"object":{"id":"cus_1","object":"customer"},"previous_attributes":{"email":"old@example.com"}}}`)
		})
	})
	ctx := context.Background()

	events, err := c.Events().ListAll(ctx, &EventListParams{Type: "ignored", Types: []string{"charge.succeeded", "charge.failed"}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, int64(2), int64(ev.PendingWebhooks))
	assert.Equal(t, "charge", ev.ObjectType())
	require.NotNil(t, ev.Request)
	assert.Equal(t, "k1", ev.Request.IdempotencyKey)

	var ch Charge
	require.NoError(t, ev.DecodeObject(&ch))
	assert.Equal(t, int64(500), ch.Amount)

	got, err := c.Events().Get(ctx, "evt_2")
	require.NoError(t, err)
	assert.Equal(t, "customer", got.ObjectType())
	assert.Equal(t, "old@example.com", got.Data.PreviousAttributes["email"])
}

func TestEventObjectTypeWithoutObject(t *testing.T) {
	for _, raw := range []string{``, `null`, `"ch_1"`, `{"object":5}`, `{"id":"ch_1"}`} {
		ev := &Event{Data: EventData{Object: json.RawMessage(raw)}}
		assert.Empty(t, ev.ObjectType(), raw)
	}
}

func TestBalanceGet(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/balance", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, `{"object":"balance","available":[{"amount":1200,"currency":"usd"},{"amount":30,"currency":"eur"}],
				"pending":[{"amount":50,"currency":"usd","source_types":{"card":50}}]}`)
		}).Methods(http.MethodGet)
	})

	b, err := c.Balance().Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1200), b.AvailableIn("usd"))
	assert.Equal(t, int64(30), b.AvailableIn("eur"))
	assert.Zero(t, b.AvailableIn("gbp"))
	require.Len(t, b.Pending, 1)
	assert.Equal(t, int64(50), b.Pending[0].SourceTypes["card"])
}

func TestNewClientFromEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	_, err := NewClientFromEnv()
	require.Error(t, err)

	t.Setenv(EnvAPIKey, " sk_test_env ")
	c, err := NewClientFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.rest.BaseURL())
}

func TestExpandableNull(t *testing.T) {
	var ch Charge
	require.NoError(t, ch.Customer.UnmarshalJSON([]byte("null")))
	assert.Empty(t, ch.Customer.ID)
	require.Error(t, ch.Customer.UnmarshalJSON([]byte("42")))
	require.Error(t, ch.Customer.Decode(&Customer{}))
}
