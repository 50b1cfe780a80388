package commerce

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"telegram-storefront/internal/infra/metrics"
)

// TokenFetcher obtains a fresh token on every call.
// *clientcredentials.Config satisfies it.
type TokenFetcher interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// TokenCache holds the single process-wide access token. Refresh happens under
// the mutex, so concurrent callers that find no valid token trigger one fetch.
type TokenCache struct {
	mu      sync.Mutex
	fetcher TokenFetcher
	tok     *oauth2.Token
	leeway  time.Duration
	now     func() time.Time
}

func NewTokenCache(fetcher TokenFetcher, leeway time.Duration) *TokenCache {
	return &TokenCache{fetcher: fetcher, leeway: leeway, now: time.Now}
}

// NewClientCredentials builds the fetcher for the backend's
// POST {base}/oauth/access_token client-credentials exchange.
func NewClientCredentials(baseURL, clientID, clientSecret string, httpClient *http.Client) TokenFetcher {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     baseURL + "/oauth/access_token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return &contextualFetcher{cfg: cfg, httpClient: httpClient}
}

type contextualFetcher struct {
	cfg        *clientcredentials.Config
	httpClient *http.Client
}

func (f *contextualFetcher) Token(ctx context.Context) (*oauth2.Token, error) {
	if f.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	}
	return f.cfg.Token(ctx)
}

// AccessToken returns a cached token, fetching a new one when absent or within
// leeway of its expiry.
func (c *TokenCache) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.validLocked() {
		return c.tok.AccessToken, nil
	}
	tok, err := c.fetcher.Token(ctx)
	metrics.IncTokenFetch(err == nil)
	if err != nil {
		return "", err
	}
	if tok == nil || tok.AccessToken == "" {
		return "", errors.New("commerce: empty access token")
	}
	c.tok = tok
	return tok.AccessToken, nil
}

// Invalidate drops the cached token if it is still stale, so the next call
// fetches a new one. A token another caller already refreshed is kept.
func (c *TokenCache) Invalidate(stale string) {
	c.mu.Lock()
	if c.tok != nil && c.tok.AccessToken == stale {
		c.tok = nil
	}
	c.mu.Unlock()
}

func (c *TokenCache) validLocked() bool {
	if c.tok == nil || c.tok.AccessToken == "" {
		return false
	}
	if c.tok.Expiry.IsZero() {
		return true
	}
	return c.now().Add(c.leeway).Before(c.tok.Expiry)
}
