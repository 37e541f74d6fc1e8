package legifrance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// Config holds the settings needed to reach the PISTE Légifrance API.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	MaxRetries   int
}

// Client is an HTTP client for the DILA Légifrance API on PISTE.
// OAuth2 client-credentials token refresh is handled by the underlying
// transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("legifrance API error (status %d): %s", e.Status, e.Message)
}

// New creates a Légifrance client. Credentials come from Config; token
// acquisition happens lazily on first request.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("legifrance client credentials are required (LEGIFRANCE_CLIENT_ID / LEGIFRANCE_CLIENT_SECRET)")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("legifrance base URL is required")
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	httpClient := cc.Client(context.Background())
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	} else {
		httpClient.Timeout = 30 * time.Second
	}

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		maxRetries: retries,
	}, nil
}

// NewWithHTTPClient creates a client around an existing http.Client.
// Used in tests with httptest servers.
func NewWithHTTPClient(baseURL string, httpClient *http.Client, maxRetries int) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
	}
}

// post sends a JSON POST to the given API path and decodes the response
// into a generic document. 429 and 5xx responses are retried with
// exponential backoff (1s, 2s, 4s).
func (c *Client) post(ctx context.Context, path string, body any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshalling request for %s: %w", path, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			log.Printf("legifrance: retrying %s in %s (attempt %d/%d)", path, backoff, attempt, c.maxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		doc, retryable, err := c.doOnce(ctx, path, payload)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, path string, payload []byte) (doc map[string]any, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("creating request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport errors (timeouts, refused connections) are worth retrying.
		return nil, true, fmt.Errorf("legifrance request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("reading response from %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode, Message: string(respBody)}
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, apiErr
	}

	if err := json.Unmarshal(respBody, &doc); err != nil {
		return nil, false, fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return doc, false, nil
}

// Ping checks API reachability.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.post(ctx, "/consult/ping", map[string]any{})
	return err
}
