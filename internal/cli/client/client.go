// Package client is the HTTP client for the dairychain API. Every request
// goes through a single chokepoint that attaches the bearer token and, on a
// 401, refreshes the access token and retries the request exactly once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dairychain-dev/dairychain/internal/cli/tokenstore"
)

// ErrSessionExpired signals that the stored session could not be renewed and
// the user has to log in again. The tokens have already been cleared when
// this error is returned.
var ErrSessionExpired = errors.New("session expired, please run 'dairychain login'")

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// outcome classifies a single request attempt. The retry decision is carried
// in the return value; the request itself is never mutated or flagged.
type outcome int

const (
	outcomeOK    outcome = iota // success, response decoded
	outcomeRetry                // 401 on the first attempt, refresh and retry
	outcomeFail                 // terminal failure, propagate
)

// Client is an HTTP client for a single dairychain server
type Client struct {
	baseURL    string
	server     string // token store key
	httpClient *http.Client
	tokens     tokenstore.Store

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	body    []byte
	fetched time.Time
}

// cacheTTL bounds how long read-mostly endpoints (dashboard, dev
// credentials) are served from memory
const cacheTTL = 30 * time.Second

// New creates a client for the given server base URL. Tokens are keyed by
// the same URL in the store.
func New(baseURL string, tokens tokenstore.Store) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL: baseURL,
		server:  baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
		cache:  make(map[string]cacheEntry),
	}
}

// BaseURL returns the server base URL this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// InvalidateCache drops all cached responses. Called on login/logout so a
// new session never sees the previous user's data.
func (c *Client) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

func (c *Client) cachedGet(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || time.Since(entry.fetched) > cacheTTL {
		return nil, false
	}
	return entry.body, true
}

func (c *Client) cachePut(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{body: body, fetched: time.Now()}
}

func (c *Client) cacheEncode(key string, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.cachePut(key, body)
}

func decodeCached(body []byte, out interface{}) error {
	return json.Unmarshal(body, out)
}

// do is the single request chokepoint. It builds the request, attaches the
// stored access token, and on a 401 refreshes the token and retries once.
// If the refresh fails (or no refresh token exists) it clears the stored
// tokens and returns ErrSessionExpired wrapping the original failure.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	outc, err := c.attempt(ctx, method, path, query, payload, out)
	if outc != outcomeRetry {
		return err
	}
	original := err

	// First 401: renew the access token and replay the request once
	if refreshErr := c.refreshAccessToken(ctx); refreshErr != nil {
		// Clearing is best effort; the session is dead either way
		_ = c.tokens.Clear(c.server)
		return fmt.Errorf("%w: %w", ErrSessionExpired, original)
	}

	outc, err = c.attempt(ctx, method, path, query, payload, out)
	if outc == outcomeRetry {
		// Fresh token was rejected too; give up on the session
		_ = c.tokens.Clear(c.server)
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return err
}

// doPublic is the request path for unauthenticated endpoints (login,
// dev login, dev credentials). A 401 here is a credential rejection, not an
// expired session: no refresh, no retry, and the stored tokens are left
// untouched.
func (c *Client) doPublic(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	_, err := c.attempt(ctx, method, path, query, payload, out)
	return err
}

// attempt performs one HTTP round trip. The error is nil for outcomeOK and
// the classified failure otherwise.
func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte, out interface{}) (outcome, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return outcomeFail, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	tokens, err := c.tokens.Load(c.server)
	if err != nil {
		return outcomeFail, fmt.Errorf("failed to load tokens: %w", err)
	}
	if tokens.Access != "" {
		req.Header.Set("Authorization", "Bearer "+tokens.Access)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return outcomeFail, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcomeFail, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return outcomeFail, fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return outcomeOK, nil
	}

	apiErr := &APIError{Status: resp.StatusCode, Message: extractMessage(respBody)}
	if resp.StatusCode == http.StatusUnauthorized {
		return outcomeRetry, apiErr
	}
	return outcomeFail, apiErr
}

// extractMessage pulls a human-readable message out of an error response.
// The server uses the "error" key; "message" is accepted for compatibility.
func extractMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	return parsed.Message
}

// refreshAccessToken exchanges the stored refresh token for a new access
// token and persists only the access token. The refresh token is never
// rewritten here.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	tokens, err := c.tokens.Load(c.server)
	if err != nil {
		return fmt.Errorf("failed to load tokens: %w", err)
	}
	if tokens.Refresh == "" {
		return errors.New("no refresh token stored")
	}

	payload, err := json.Marshal(map[string]string{"refresh_token": tokens.Refresh})
	if err != nil {
		return fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: extractMessage(respBody)}
	}

	var refreshed RefreshResponse
	if err := json.Unmarshal(respBody, &refreshed); err != nil {
		return fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if refreshed.AccessToken == "" {
		return errors.New("refresh response missing access token")
	}

	return c.tokens.SaveAccess(c.server, refreshed.AccessToken)
}
