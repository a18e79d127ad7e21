package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
)

// ClientCredentialsProvider acquires bearer tokens with the OAuth2 client
// credentials grant against the AAD v2 token endpoint. Tokens are cached per
// scope and renewed when close to expiry, so callers can request a token
// before every wire request without paying a network round trip each time.
type ClientCredentialsProvider struct {
	tenantID     string
	clientID     string
	clientSecret string
	authority    string
	httpClient   *http.Client
	store        *tokenStore
}

// ClientCredentialsConfig configures a ClientCredentialsProvider.
type ClientCredentialsConfig struct {
	// TenantID is the tenant the credentials belong to.
	TenantID string

	// ClientID and ClientSecret are the confidential client credentials.
	ClientID     string
	ClientSecret string

	// Authority overrides the token issuer. Defaults to the public cloud.
	Authority string

	// HTTPClient overrides the transport used for token requests.
	HTTPClient *http.Client
}

// NewClientCredentialsProvider creates a provider from config.
func NewClientCredentialsProvider(config *ClientCredentialsConfig) *ClientCredentialsProvider {
	authority := config.Authority
	if authority == "" {
		authority = constants.DefaultAuthority
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.TokenHTTPTimeout}
	}

	return &ClientCredentialsProvider{
		tenantID:     config.TenantID,
		clientID:     config.ClientID,
		clientSecret: config.ClientSecret,
		authority:    strings.TrimSuffix(authority, "/"),
		httpClient:   httpClient,
		store:        newTokenStore(),
	}
}

// TenantID reports the tenant the credentials belong to.
func (p *ClientCredentialsProvider) TenantID() string {
	return p.tenantID
}

// GetToken returns a valid bearer token for scope, renewing when needed.
func (p *ClientCredentialsProvider) GetToken(ctx context.Context, scope string) (string, error) {
	token := p.store.get(scope)
	if token.Valid() {
		return token.AccessToken, nil
	}

	token, err := p.fetchToken(ctx, scope)
	if err != nil {
		return "", err
	}

	p.store.set(scope, token)

	return token.AccessToken, nil
}

// RefreshToken discards the cached token for scope and acquires a fresh one.
func (p *ClientCredentialsProvider) RefreshToken(ctx context.Context, scope string) error {
	p.store.drop(scope)

	token, err := p.fetchToken(ctx, scope)
	if err != nil {
		return err
	}

	p.store.set(scope, token)

	return nil
}

// fetchToken performs one client_credentials grant.
func (p *ClientCredentialsProvider) fetchToken(ctx context.Context, scope string) (*Token, error) {
	tokenURL := fmt.Sprintf("%s/%s/oauth2/v2.0/token", p.authority, p.tenantID)

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("scope", scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting token: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", constants.ErrTokenRequestFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var token Token

	err = json.Unmarshal(body, &token)
	if err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}

	if token.AccessToken == "" {
		return nil, constants.ErrInvalidTokenResponse
	}

	token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)

	return &token, nil
}
