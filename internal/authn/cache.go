// Package authn resolves and memoizes bearer tokens for the identities a
// scenario can run under. Tokens are opaque: the cache never parses or
// refreshes them. An expired token surfacing as 401 downstream is itself a
// testable state, not a cache concern.
package authn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// corruptSuffix is appended to a valid token to derive one that is still
// shaped like a bearer token but fails server-side verification.
const corruptSuffix = "xpto"

// Credentials identify one resource-owner on the authorization server.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Config locates the authorization endpoint and the fixed client pair used
// for HTTP Basic framing of the token request.
type Config struct {
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Cache memoizes one token per (username, password) pair.
//
// Resolution is safe under concurrent first use: distinct credentials
// resolve independently, and concurrent callers for the same credentials
// share a single token request.
type Cache struct {
	cfg    Config
	client *http.Client

	mu      sync.Mutex
	entries map[Credentials]*entry
}

type entry struct {
	once  sync.Once
	token string
	err   error
}

// NewCache creates a cache issuing token requests through client.
// The client's timeout bounds every authorization call.
func NewCache(cfg Config, client *http.Client) *Cache {
	if client == nil {
		client = http.DefaultClient
	}
	return &Cache{
		cfg:     cfg,
		client:  client,
		entries: make(map[Credentials]*entry),
	}
}

// Token resolves the bearer token for creds, issuing the password-grant
// request on first use and returning the memoized value afterwards.
//
// Any non-200 response is a fatal setup failure: the caller must abort the
// dependent scenario rather than proceed with an empty token, which would
// turn an infrastructure problem into a misleading assertion failure.
func (c *Cache) Token(ctx context.Context, creds Credentials) (string, error) {
	c.mu.Lock()
	e, ok := c.entries[creds]
	if !ok {
		e = &entry{}
		c.entries[creds] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.token, e.err = c.fetch(ctx, creds)
	})
	return e.token, e.err
}

// Corrupt derives a deterministic invalid token from a valid one. The
// result keeps the bearer shape but cannot pass verification.
func Corrupt(token string) string {
	return token + corruptSuffix
}

func (c *Cache) fetch(ctx context.Context, creds Credentials) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request for %s: %w", creds.Username, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response for %s: %w", creds.Username, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request for %s returned %d: %s",
			creds.Username, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("parse token response for %s: %w", creds.Username, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response for %s has no access_token", creds.Username)
	}

	return tr.AccessToken, nil
}
