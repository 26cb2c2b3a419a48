package docusign

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/lkretschmer/apiclients/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testAccountID = "acc-123"

func newTestServer(t *testing.T, setup func(r *mux.Router)) *Client {
	t.Helper()
	router := mux.NewRouter()
	api := router.PathPrefix("/restapi/v2.1/accounts/{accountId}").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, testAccountID, mux.Vars(r)["accountId"])
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

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token", TokenType: "Bearer"})
	return NewClient(ts, testAccountID,
		rest.WithBaseURL(server.URL+"/restapi/"),
		rest.WithRetry(rest.RetryPolicy{MaxRetries: 2, BackoffBase: time.Millisecond, MaxDelay: time.Millisecond}),
	)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestEnvelopesCreate(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/envelopes", func(w http.ResponseWriter, r *http.Request) {
			var def EnvelopeDefinition
			require.NoError(t, json.NewDecoder(r.Body).Decode(&def))
			assert.Equal(t, StatusSent, def.Status)
			require.Len(t, def.Documents, 1)
			assert.Equal(t, "contract.pdf", def.Documents[0].Name)
			require.NotNil(t, def.Recipients)
			require.Len(t, def.Recipients.Signers, 1)
			assert.Equal(t, "1", def.Recipients.Signers[0].RoutingOrder)
			writeJSON(w, 201, `{"envelopeId":"env-1","status":"sent","statusDateTime":"2024-03-01T10:00:00.0000000Z","uri":"/envelopes/env-1"}`)
		}).Methods(http.MethodPost)
	})

	sum, err := c.Envelopes().Create(context.Background(), &EnvelopeDefinition{
		EmailSubject: "Please sign",
		Status:       StatusSent,
		Documents:    []Document{{DocumentID: "1", Name: "contract.pdf", FileExtension: "pdf", DocumentBase64: "JVBERi0="}},
		Recipients: &Recipients{Signers: []Signer{{
			RecipientID:  "1",
			Name:         "Ada Lovelace",
			Email:        "ada@example.com",
			RoutingOrder: "1",
			Tabs:         &Tabs{SignHereTabs: []Tab{{AnchorString: "/sig/", AnchorUnits: "pixels"}}},
		}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "env-1", sum.EnvelopeID)
	assert.Equal(t, 2024, sum.StatusDateTime.Year())
}

func TestEnvelopesCreateValidation(t *testing.T) {
	c := NewClient(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"}), testAccountID)

	_, err := c.Envelopes().Create(context.Background(), nil)
	assert.Error(t, err)

	_, err = c.Envelopes().Create(context.Background(), &EnvelopeDefinition{EmailSubject: "empty"})
	assert.ErrorContains(t, err, "documents or a template")
}

func TestEnvelopesGetWithLenientFields(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/envelopes/{envelopeId}", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "env-1", mux.Vars(r)["envelopeId"])
			writeJSON(w, 200, `{"envelopeId":"env-1","status":"completed",
				"isSignatureProviderEnvelope":"false",
				"createdDateTime":"2024-03-01T10:00:00.0000000Z",
				"completedDateTime":null,
				"recipients":{"recipientCount":"2","signers":{"recipientId":"1","name":"Ada","status":"completed"}}}`)
		}).Methods(http.MethodGet)
	})

	env, err := c.Envelopes().Get(context.Background(), "env-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, env.Status)
	assert.False(t, bool(env.IsSignatureProviderEnvelope))
	assert.False(t, env.CreatedDateTime.IsZero())
	assert.True(t, env.CompletedDateTime.IsZero())
	require.NotNil(t, env.Recipients)
	assert.Equal(t, int64(2), int64(env.Recipients.RecipientCount))
	require.Len(t, env.Recipients.Signers, 1, "a lone signer object becomes a list")
	assert.Empty(t, env.Recipients.CarbonCopies)
}

func TestEnvelopesListAll(t *testing.T) {
	var calls int32
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/envelopes", func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			q := r.URL.Query()
			assert.Equal(t, "2024-01-01T00:00:00Z", q.Get("from_date"))
			assert.Equal(t, "sent,delivered", q.Get("status"))
			assert.Equal(t, "2", q.Get("count"))

			switch q.Get("start_position") {
			case "":
				writeJSON(w, 200, `{"resultSetSize":"2","startPosition":"0","endPosition":"1","totalSetSize":"3",
					"envelopes":[{"envelopeId":"env-1"},{"envelopeId":"env-2"}]}`)
			case "2":
				writeJSON(w, 200, `{"resultSetSize":"1","startPosition":"2","endPosition":"2","totalSetSize":"3",
					"envelopes":[{"envelopeId":"env-3"}]}`)
			default:
				t.Errorf("unexpected start_position %q", q.Get("start_position"))
			}
		}).Methods(http.MethodGet)
	})

	envs, err := c.Envelopes().ListAll(context.Background(), ListEnvelopesOptions{
		FromDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:   []string{StatusSent, StatusDelivered},
		Count:    2,
	})
	require.NoError(t, err)
	require.Len(t, envs, 3)
	assert.Equal(t, "env-3", envs[2].EnvelopeID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestEnvelopesListEmpty(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/envelopes", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, `{"resultSetSize":"0","totalSetSize":"0","envelopes":null}`)
		})
	})

	envs, err := c.Envelopes().ListAll(context.Background(), ListEnvelopesOptions{FolderIDs: []string{"sentitems"}})
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestEnvelopesListRequiresFromDate(t *testing.T) {
	c := NewClient(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"}), testAccountID)
	_, err := c.Envelopes().List(context.Background(), ListEnvelopesOptions{})
	assert.ErrorContains(t, err, "from_date")
}

func TestEnvelopesVoidAndRecipients(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/envelopes/{envelopeId}", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]string{"status": "voided", "voidedReason": "sent in error"}, body)
			writeJSON(w, 200, `{"envelopeId":"env-1"}`)
		}).Methods(http.MethodPut)
		r.HandleFunc("/envelopes/{envelopeId}/recipients", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, `{"recipientCount":"2","currentRoutingOrder":"1",
				"signers":[{"recipientId":"1","email":"ada@example.com","status":"sent","routingOrder":"1"}],
				"carbonCopies":[{"recipientId":"2","email":"grace@example.com","routingOrder":"2"}]}`)
		}).Methods(http.MethodGet)
	})
	ctx := context.Background()

	sum, err := c.Envelopes().Void(ctx, "env-1", "sent in error")
	require.NoError(t, err)
	assert.Equal(t, "env-1", sum.EnvelopeID)

	_, err = c.Envelopes().Void(ctx, "env-1", "")
	assert.ErrorContains(t, err, "voidedReason")

	rcpts, err := c.Envelopes().ListRecipients(ctx, "env-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), int64(rcpts.CurrentRoutingOrder))
	require.Len(t, rcpts.Signers, 1)
	require.Len(t, rcpts.CarbonCopies, 1)
	assert.Equal(t, "grace@example.com", rcpts.CarbonCopies[0].Email)
}

func TestEnvelopesVoidErrorDetails(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/envelopes/{envelopeId}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, `{"envelopeId":"env-1","errorDetails":{"errorCode":"ENVELOPE_CANNOT_VOID_INVALID_STATE","message":"Only sent or delivered envelopes may be voided."}}`)
		}).Methods(http.MethodPut)
	})

	sum, err := c.Envelopes().Void(context.Background(), "env-1", "late")
	assert.ErrorContains(t, err, "ENVELOPE_CANNOT_VOID_INVALID_STATE")
	require.NotNil(t, sum)
}

func TestEnvelopesGetError(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/envelopes/{envelopeId}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 400, `{"errorCode":"ENVELOPE_DOES_NOT_EXIST","message":"The envelope specified either does not exist or you have no rights to it."}`)
		})
	})

	_, err := c.Envelopes().Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, 400, rest.StatusCode(err))
	assert.Contains(t, err.Error(), "ENVELOPE_DOES_NOT_EXIST")
}

func TestTemplates(t *testing.T) {
	c := newTestServer(t, func(r *mux.Router) {
		r.HandleFunc("/templates", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "NDA", q.Get("search_text"))
			assert.Equal(t, "true", q.Get("shared_by_me"))
			writeJSON(w, 200, `{"resultSetSize":"1","startPosition":"0","endPosition":"0","totalSetSize":"1",
				"envelopeTemplates":[{"templateId":"tpl-1","name":"NDA","shared":"true","pageCount":"3","created":"2023-05-01T08:00:00.0000000Z"}]}`)
		}).Methods(http.MethodGet)
		r.HandleFunc("/templates/{templateId}", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "tpl-1", mux.Vars(r)["templateId"])
			writeJSON(w, 200, `{"templateId":"tpl-1","name":"NDA","recipients":{"signers":[{"recipientId":"1","roleName":"Signer"}]}}`)
		}).Methods(http.MethodGet)
	})
	ctx := context.Background()
	shared := true

	tmpls, err := c.Templates().ListAll(ctx, ListTemplatesOptions{SearchText: "NDA", Shared: &shared})
	require.NoError(t, err)
	require.Len(t, tmpls, 1)
	assert.True(t, bool(tmpls[0].Shared))
	assert.Equal(t, int64(3), int64(tmpls[0].PageCount))
	assert.Equal(t, 2023, tmpls[0].Created.Year())

	tmpl, err := c.Templates().Get(ctx, "tpl-1")
	require.NoError(t, err)
	require.NotNil(t, tmpl.Recipients)
	assert.Equal(t, "Signer", tmpl.Recipients.Signers[0].RoleName)

	_, err = c.Templates().Get(ctx, "")
	assert.ErrorContains(t, err, "templateId")
}

func testPrivateKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

func TestJWTConfigTokenSource(t *testing.T) {
	key, pemKey := testPrivateKey(t)

	var tokenCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			atomic.AddInt32(&tokenCalls, 1)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, jwtBearerGrant, r.PostForm.Get("grant_type"))

			token, err := jwt.Parse(r.PostForm.Get("assertion"), func(tok *jwt.Token) (any, error) {
				return &key.PublicKey, nil
			}, jwt.WithValidMethods([]string{"RS256"}))
			require.NoError(t, err)
			claims := token.Claims.(jwt.MapClaims)
			assert.Equal(t, "integration-key", claims["iss"])
			assert.Equal(t, "user-guid", claims["sub"])
			assert.Equal(t, "127.0.0.1", claims["aud"])
			assert.Equal(t, "signature impersonation", claims["scope"])

			writeJSON(w, 200, `{"access_token":"eyJ0eXAi.docusign","token_type":"Bearer","expires_in":"3600"}`)
		case "/oauth/userinfo":
			assert.Equal(t, "Bearer eyJ0eXAi.docusign", r.Header.Get("Authorization"))
			writeJSON(w, 200, `{"sub":"user-guid","name":"Ada Lovelace","email":"ada@example.com","accounts":[
				{"account_id":"acc-1","account_name":"Sandbox","is_default":"false","base_uri":"https://demo.docusign.net"},
				{"account_id":"acc-2","account_name":"Main","is_default":true,"base_uri":"https://na3.docusign.net/"}]}`)
		default:
			t.Errorf("unexpected request %s", r.URL)
		}
	}))
	defer server.Close()

	cfg := &JWTConfig{
		IntegrationKey: "integration-key",
		UserID:         "user-guid",
		PrivateKey:     pemKey,
		AuthServer:     server.URL,
	}
	ctx := context.Background()
	ts, err := cfg.TokenSource(ctx)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		tok, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "eyJ0eXAi.docusign", tok.AccessToken)
		assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Expiry, time.Minute)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls), "tokens are reused until they expire")

	info, err := GetUserInfo(ctx, ts, server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", info.Email)
	acct, ok := info.DefaultAccount()
	require.True(t, ok)
	assert.Equal(t, "acc-2", acct.AccountID)
	assert.Equal(t, "https://na3.docusign.net/restapi/", acct.RestBaseURL())
}

func TestJWTConfigTokenSourceTraceHidesCredentials(t *testing.T) {
	_, pemKey := testPrivateKey(t)

	var assertion atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			assert.NoError(t, r.ParseForm())
			assertion.Store(r.PostForm.Get("assertion"))
			writeJSON(w, 200, `{"access_token":"SECRET-ACCESS-TOKEN","token_type":"Bearer","expires_in":3600}`)
		case "/oauth/userinfo":
			writeJSON(w, 200, `{"sub":"user-guid","accounts":[]}`)
		}
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Trace})
	opts := []rest.Option{rest.WithLogger(logger), rest.WithTrace()}

	cfg := &JWTConfig{
		IntegrationKey: "integration-key",
		UserID:         "user-guid",
		PrivateKey:     pemKey,
		AuthServer:     server.URL,
		Options:        opts,
	}
	ctx := context.Background()
	ts, err := cfg.TokenSource(ctx)
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "SECRET-ACCESS-TOKEN", tok.AccessToken)

	_, err = GetUserInfo(ctx, ts, server.URL, opts...)
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, "HTTP request")
	assert.Contains(t, logs, "/oauth/token")
	assert.NotContains(t, logs, "SECRET-ACCESS-TOKEN")
	signed, _ := assertion.Load().(string)
	require.NotEmpty(t, signed)
	assert.NotContains(t, logs, signed)
}

func TestJWTConfigTokenSourceErrors(t *testing.T) {
	_, pemKey := testPrivateKey(t)
	ctx := context.Background()

	_, err := (&JWTConfig{PrivateKey: pemKey}).TokenSource(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integration key")
	assert.Contains(t, err.Error(), "user ID")

	_, err = (&JWTConfig{IntegrationKey: "k", UserID: "u"}).TokenSource(ctx)
	assert.ErrorContains(t, err, "private key is empty")

	_, err = (&JWTConfig{IntegrationKey: "k", UserID: "u", PrivateKey: []byte("not a key")}).TokenSource(ctx)
	assert.ErrorContains(t, err, "failed to parse private key")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 400, `{"error":"consent_required"}`)
	}))
	defer server.Close()

	ts, err := (&JWTConfig{IntegrationKey: "k", UserID: "u", PrivateKey: pemKey, AuthServer: server.URL}).TokenSource(ctx)
	require.NoError(t, err)
	_, err = ts.Token()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "consent_required"), err.Error())
}

func TestAuthServerURL(t *testing.T) {
	base, aud, err := authServerURL(AuthServerDemo)
	require.NoError(t, err)
	assert.Equal(t, "https://account-d.docusign.com/", base)
	assert.Equal(t, "account-d.docusign.com", aud)

	base, aud, err = authServerURL("")
	require.NoError(t, err)
	assert.Equal(t, "https://account.docusign.com/", base)
	assert.Equal(t, "account.docusign.com", aud)
}
