// Package snov provides a client for the Snov.io email finder API.
package snov

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Snov.io operations used by enrichment.
type Client interface {
	// FindEmail looks up a work email for a person at a domain. Returns an
	// empty string when Snov has no email for the combination.
	FindEmail(ctx context.Context, firstName, lastName, domain string) (string, error)
}

// FoundEmail is one email candidate returned by the finder.
type FoundEmail struct {
	Email       string `json:"email"`
	EmailStatus string `json:"emailStatus"`
}

type findResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Emails []FoundEmail `json:"emails"`
	} `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Option configures the Snov client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	http         *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a Snov.io client using OAuth client credentials.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	c := &httpClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      "https://api.snov.io",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// token returns a cached access token, refreshing it when within a minute of
// expiry.
func (c *httpClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "snov: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "snov: token request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "snov: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("snov: token status %d: %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", eris.Wrap(err, "snov: unmarshal token response")
	}
	if tok.AccessToken == "" {
		return "", eris.New("snov: empty access token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes a form POST with exponential backoff on transient
// failures. The form is re-encoded per attempt so the body is fresh.
func (c *httpClient) retryDo(ctx context.Context, path string, form url.Values) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+path, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, 0, eris.Wrap(err, "snov: create request")
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "snov: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("snov: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) FindEmail(ctx context.Context, firstName, lastName, domain string) (string, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"access_token": {tok},
		"firstName":    {firstName},
		"lastName":     {lastName},
		"domain":       {domain},
	}

	// The finder is asynchronous: the name must be registered before results
	// are available.
	if _, _, err := c.retryDo(ctx, "/v1/add-names-to-find-emails", form); err != nil {
		return "", eris.Wrap(err, "snov: register name")
	}

	body, statusCode, err := c.retryDo(ctx, "/v1/get-emails-from-names", form)
	if err != nil {
		return "", eris.Wrap(err, "snov: get emails")
	}
	if statusCode != http.StatusOK {
		return "", eris.Errorf("snov: unexpected status %d: %s", statusCode, string(body))
	}

	var result findResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", eris.Wrap(err, "snov: unmarshal response")
	}

	// Prefer verified addresses, fall back to the first candidate.
	for _, e := range result.Data.Emails {
		if e.EmailStatus == "valid" {
			return e.Email, nil
		}
	}
	if len(result.Data.Emails) > 0 {
		return result.Data.Emails[0].Email, nil
	}
	return "", nil
}
