package docusign

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lkretschmer/apiclients/lenient"
	"github.com/lkretschmer/apiclients/rest"
	"golang.org/x/oauth2"
)

const (
	// AuthServerProduction and AuthServerDemo are the OAuth hosts.
	AuthServerProduction = "account.docusign.com"
	AuthServerDemo       = "account-d.docusign.com"

	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	defaultExpires = time.Hour
)

// DefaultScopes are requested when JWTConfig.Scopes is empty.
var DefaultScopes = []string{"signature", "impersonation"}

// JWTConfig holds the settings of the JWT grant. The integration key must
// have been granted consent by UserID.
type JWTConfig struct {
	IntegrationKey string
	// UserID is the GUID of the impersonated user.
	UserID string
	// PrivateKey is the PEM encoded RSA key of the integration.
	PrivateKey []byte
	// AuthServer is a host such as AuthServerDemo. A full URL is accepted.
	AuthServer string
	Scopes     []string
	// Expires is the assertion lifetime, one hour when zero.
	Expires time.Duration
	// Options configure the client that calls the token endpoint.
	Options []rest.Option
}

// TokenSource returns a token source that performs the JWT grant and
// reuses each token until it expires.
func (cfg *JWTConfig) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if err := rest.Require("integration key", cfg.IntegrationKey, "user ID", cfg.UserID); err != nil {
		return nil, err
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, errors.New("docusign: private key is empty")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("docusign: failed to parse private key: %w", err)
	}
	base, host, err := authServerURL(cfg.AuthServer)
	if err != nil {
		return nil, err
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	expires := cfg.Expires
	if expires <= 0 {
		expires = defaultExpires
	}

	src := &jwtSource{
		ctx:    ctx,
		cfg:    cfg,
		signer: func(claims jwt.Claims) (string, error) { return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key) },
		aud:    host,
		scope:  strings.Join(scopes, " "),
		ttl:    expires,
		rest:   rest.New(base, cfg.Options...),
	}
	return oauth2.ReuseTokenSource(nil, src), nil
}

type jwtSource struct {
	ctx    context.Context
	cfg    *JWTConfig
	signer func(jwt.Claims) (string, error)
	aud    string
	scope  string
	ttl    time.Duration
	rest   *rest.Client
}

type tokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   lenient.Int64 `json:"expires_in"`
}

func (s *jwtSource) Token() (*oauth2.Token, error) {
	now := time.Now()
	assertion, err := s.signer(jwt.MapClaims{
		"iss":   s.cfg.IntegrationKey,
		"sub":   s.cfg.UserID,
		"aud":   s.aud,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
		"scope": s.scope,
	})
	if err != nil {
		return nil, fmt.Errorf("docusign: failed to sign assertion: %w", err)
	}

	var tr tokenResponse
	_, err = s.rest.Do(s.ctx, &rest.Request{
		Method:     http.MethodPost,
		Path:       "oauth/token",
		Form:       url.Values{"grant_type": {jwtBearerGrant}, "assertion": {assertion}},
		Idempotent: true,
	}, &tr)
	if err != nil {
		return nil, fmt.Errorf("docusign: JWT grant failed: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, errors.New("docusign: token response has no access_token")
	}

	tok := &oauth2.Token{AccessToken: tr.AccessToken, TokenType: tr.TokenType}
	if tr.ExpiresIn > 0 {
		tok.Expiry = now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// authServerURL returns the base URL of the OAuth host and the host name
// used as the assertion audience.
func authServerURL(server string) (string, string, error) {
	if server == "" {
		server = AuthServerProduction
	}
	if !strings.Contains(server, "://") {
		server = "https://" + server
	}
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return "", "", fmt.Errorf("docusign: invalid auth server %q", server)
	}
	return u.Scheme + "://" + u.Host + "/", u.Hostname(), nil
}

// UserInfo is the response of the OAuth userinfo endpoint.
type UserInfo struct {
	Sub        string    `json:"sub"`
	Name       string    `json:"name"`
	GivenName  string    `json:"given_name"`
	FamilyName string    `json:"family_name"`
	Email      string    `json:"email"`
	Accounts   []Account `json:"accounts"`
}

// Account is one account the user can act in.
type Account struct {
	AccountID   string       `json:"account_id"`
	AccountName string       `json:"account_name"`
	IsDefault   lenient.Bool `json:"is_default"`
	BaseURI     string       `json:"base_uri"`
}

// RestBaseURL returns the eSignature REST root for the account.
func (a Account) RestBaseURL() string {
	return strings.TrimSuffix(a.BaseURI, "/") + "/restapi/"
}

// DefaultAccount returns the default account, or the first one.
func (u *UserInfo) DefaultAccount() (Account, bool) {
	for _, a := range u.Accounts {
		if a.IsDefault {
			return a, true
		}
	}
	if len(u.Accounts) > 0 {
		return u.Accounts[0], true
	}
	return Account{}, false
}

// GetUserInfo calls the userinfo endpoint of authServer with a token from
// ts. It is how the account ID and base URI are discovered after the JWT
// grant.
func GetUserInfo(ctx context.Context, ts oauth2.TokenSource, authServer string, opts ...rest.Option) (*UserInfo, error) {
	base, _, err := authServerURL(authServer)
	if err != nil {
		return nil, err
	}
	c := rest.New(base, append([]rest.Option{rest.WithAuthenticator(rest.TokenSource(ts))}, opts...)...)

	var info UserInfo
	if _, err := c.Get(ctx, "oauth/userinfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
