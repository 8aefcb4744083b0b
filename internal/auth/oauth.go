// Package auth implements the OAuth2 authorization-code flow against the
// 37signals Launchpad provider: the loopback callback server, token
// exchange, account listing, and the login orchestration on top.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/version"
)

// Endpoints are the Launchpad URLs, overridable in tests.
type Endpoints struct {
	AuthURL          string
	TokenURL         string
	AuthorizationURL string
}

// DefaultEndpoints returns the production Launchpad endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		AuthURL:          "https://launchpad.37signals.com/authorization/new",
		TokenURL:         "https://launchpad.37signals.com/authorization/token",
		AuthorizationURL: "https://launchpad.37signals.com/authorization.json",
	}
}

// TokenBundle is a complete token pair. Launchpad always issues a refresh
// token with the authorization-code grant; a response without one is an
// error, never a partial bundle.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
}

// Account is one entry from Launchpad's authorization.json.
type Account struct {
	ID      AccountID `json:"id"`
	Name    string    `json:"name"`
	Href    string    `json:"href"`
	Product string    `json:"product"`
}

// AccountID tolerates Launchpad serializing ids as numbers or strings.
type AccountID int64

func (a *AccountID) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = AccountID(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("account id is neither number nor string: %s", data)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("account id %q is not numeric", s)
	}
	*a = AccountID(n)
	return nil
}

type authorizationEnvelope struct {
	Accounts []Account `json:"accounts"`
}

// Client drives the Launchpad OAuth flow for one registered integration.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	endpoints    Endpoints
}

// NewClient creates an OAuth client with the production endpoints.
func NewClient(clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		endpoints:    DefaultEndpoints(),
	}
}

// WithEndpoints swaps the Launchpad URLs, for tests against local fakes.
func (c *Client) WithEndpoints(eps Endpoints) *Client {
	c.endpoints = eps
	return c
}

func (c *Client) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURL:  c.redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.endpoints.AuthURL,
			TokenURL: c.endpoints.TokenURL,
			// Launchpad wants client credentials in the POST body, not
			// basic auth.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// GenerateState returns a fresh CSRF token for one login attempt.
func GenerateState() (string, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", output.ErrOAuth(fmt.Sprintf("Failed to generate OAuth state: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// AuthorizationURL builds the browser URL for the given CSRF state.
func (c *Client) AuthorizationURL(state string) string {
	return c.oauthConfig().AuthCodeURL(state, oauth2.SetAuthURLParam("type", "web_server"))
}

// ExchangeCode trades the authorization code for a token bundle. The
// exchange uses an HTTP client that refuses redirects: a token endpoint
// that redirects is misconfigured or hostile, and following it could leak
// credentials.
func (c *Client) ExchangeCode(ctx context.Context, code string) (TokenBundle, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, noRedirectClient())

	token, err := c.oauthConfig().Exchange(ctx, code, oauth2.SetAuthURLParam("type", "web_server"))
	if err != nil {
		return TokenBundle{}, output.ErrOAuth(fmt.Sprintf("OAuth token exchange failed: %v", err))
	}
	return bundleFromToken(token)
}

// RefreshAccessToken performs the refresh grant. Nothing calls this
// automatically; expired sessions are renewed by logging in again or by an
// explicit caller.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (TokenBundle, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, noRedirectClient())

	src := c.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return TokenBundle{}, output.ErrOAuth(fmt.Sprintf("OAuth token refresh failed: %v", err))
	}
	// Launchpad may omit refresh_token on refresh; the old one stays valid.
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return bundleFromToken(token)
}

// FetchAuthorization lists the accounts the access token can reach.
func (c *Client) FetchAuthorization(ctx context.Context, accessToken string) ([]Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.AuthorizationURL, nil)
	if err != nil {
		return nil, output.ErrGenericf("Failed to build authorization.json request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", version.UserAgent())

	httpClient := &http.Client{Timeout: 30 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, output.ErrGenericf("Failed to request authorization.json: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, output.ErrOAuthHint("Basecamp rejected the access token.", "Run `basecamp login` again")
	case resp.StatusCode == http.StatusForbidden:
		return nil, output.ErrOAuth("Basecamp denied access to authorization.json for this token.")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, output.ErrGenericf("Basecamp authorization.json failed with status %d.", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, output.ErrGenericf("Failed to read authorization.json response: %v", err)
	}
	var envelope authorizationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, output.ErrGenericf("Failed to decode authorization.json response: %v", err)
	}
	return envelope.Accounts, nil
}

func bundleFromToken(token *oauth2.Token) (TokenBundle, error) {
	if token.AccessToken == "" {
		return TokenBundle{}, output.ErrOAuth("OAuth token response did not include access_token.")
	}
	if token.RefreshToken == "" {
		return TokenBundle{}, output.ErrOAuth("OAuth token response did not include refresh_token.")
	}
	return TokenBundle{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken}, nil
}

func noRedirectClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
