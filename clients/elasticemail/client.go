// Package elasticemail is a thin client for the Elastic Email HTTP API,
// covering transactional sending (v4) and the SMTP relay account endpoints
// (v3).
package elasticemail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL serves the v4 transactional API.
	DefaultBaseURL = "https://api.elasticemail.com/v4"
	// DefaultRelayBaseURL serves the v3 SMTP relay account API.
	DefaultRelayBaseURL = "https://api.smtprelay.co"
	// DefaultTokenBaseURL mints SMTP credentials; this lives on the main
	// domain even for relay accounts.
	DefaultTokenBaseURL = "https://api.elasticemail.com"

	apiKeyHeader = "X-ElasticEmail-ApiKey"

	defaultTimeout = 30 * time.Second
	maxAttempts    = 3
)

// Client talks to the Elastic Email API on behalf of one API key.
type Client struct {
	apiKey       string
	baseURL      string
	relayBaseURL string
	tokenBaseURL string
	httpClient   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the v4 API endpoint (tests, regional endpoints).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithRelayBaseURL overrides the v3 relay account endpoint.
func WithRelayBaseURL(url string) Option {
	return func(c *Client) { c.relayBaseURL = url }
}

// WithTokenBaseURL overrides the credential minting endpoint.
func WithTokenBaseURL(url string) Option {
	return func(c *Client) { c.tokenBaseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the given API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	c := &Client{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		relayBaseURL: DefaultRelayBaseURL,
		tokenBaseURL: DefaultTokenBaseURL,
		httpClient:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request performs one authenticated call and decodes the JSON response into
// out (when non-nil). 5xx and transport failures are retried with
// exponential backoff; 4xx failures are permanent and mapped onto the error
// taxonomy.
func (c *Client) request(ctx context.Context, method, url string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(apiKeyHeader, c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &NetworkError{Endpoint: url, Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &NetworkError{Endpoint: url, Err: err}
		}

		if resp.StatusCode >= 500 {
			log.Warn().Int("status", resp.StatusCode).Str("url", url).
				Msg("Elastic Email transient failure, retrying")
			var errBody apiErrorBody
			_ = json.Unmarshal(data, &errBody)
			return nil, parseAPIError(resp.StatusCode, errBody)
		}
		if resp.StatusCode >= 400 {
			var errBody apiErrorBody
			_ = json.Unmarshal(data, &errBody)
			return nil, backoff.Permanent(parseAPIError(resp.StatusCode, errBody))
		}
		return data, nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond

	data, err := backoff.Retry(ctx, operation, backoff.WithBackOff(exp), backoff.WithMaxTries(maxAttempts))
	if err != nil {
		return err
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", url, err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	return c.request(ctx, http.MethodGet, c.baseURL+endpoint, nil, out)
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	return c.request(ctx, http.MethodPost, c.baseURL+endpoint, payload, out)
}
