package optimizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// AuthConfig represents the OAuth2 client credentials used to reach the optimizer.
type AuthConfig struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	TokenURL     string   `json:"token_url"`
	Scopes       []string `json:"scopes"`
}

// Validate checks mandatory fields.
func (c AuthConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.TokenURL == "" {
		return errors.New("optimizer: auth requires client_id, client_secret and token_url")
	}
	return nil
}

func (c AuthConfig) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
	}
}

// ClientCred caches a client credentials token and refreshes it when expired.
type ClientCred struct {
	conf  clientcredentials.Config
	http  *http.Client
	mu    sync.Mutex
	token *oauth2.Token
}

// NewClientCred returns a ClientCred. hc is used for token requests; nil
// selects http.DefaultClient.
func NewClientCred(conf AuthConfig, hc *http.Client) *ClientCred {
	return &ClientCred{conf: conf.toOauth2Config(), http: hc}
}

// Token returns a valid access token, requesting a new one when needed.
func (c *ClientCred) Token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != nil && c.token.Valid() {
		return c.token, nil
	}
	if c.http != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	}
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return tok, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (c *ClientCred) Invalidate() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}

// SetAuthHeader adds the bearer token to r.
func (c *ClientCred) SetAuthHeader(ctx context.Context, r *http.Request) error {
	tok, err := c.Token(ctx)
	if err != nil {
		return err
	}
	tok.SetAuthHeader(r)
	return nil
}
