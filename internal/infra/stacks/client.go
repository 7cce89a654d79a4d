package stacks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/r0zar/innkeeper/internal/core/domain"
	"github.com/r0zar/innkeeper/internal/metrics"
)

// Config holds upstream indexing API settings.
type Config struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
}

// Client is a typed, retrying HTTP client for the blockchain indexing API.
// Every call is a fresh network round trip bounded by the retry policy; there
// is no caching and no circuit breaker at this layer.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// RequestFailedError is returned after retry exhaustion and carries the last cause.
type RequestFailedError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("request to %s failed after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *RequestFailedError) Unwrap() error { return e.Err }

// envelope is the {status, data, meta?} response shape shared by all endpoints.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Meta   *Meta           `json:"meta,omitempty"`
}

// Meta carries pagination info when the endpoint provides it.
type Meta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// NewClient creates a new indexing API client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = 100 * time.Millisecond
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// ContractSwaps fetches swap transactions for a token contract within a time
// window. A zero start or end leaves that bound open.
func (c *Client) ContractSwaps(ctx context.Context, contractID string, start, end time.Time, limit int) ([]domain.Transaction, error) {
	params := url.Values{}
	params.Set("contract_id", contractID)
	setWindow(params, start, end)
	if limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	var txs []domain.Transaction
	if err := c.get(ctx, "swaps/contract", params, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// AddressSwaps fetches swap transactions submitted by an address.
func (c *Client) AddressSwaps(ctx context.Context, address string, start, end time.Time, limit int) ([]domain.Transaction, error) {
	params := url.Values{}
	params.Set("address", address)
	setWindow(params, start, end)
	if limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	var txs []domain.Transaction
	if err := c.get(ctx, "swaps/address", params, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// RecentSwaps fetches the most recent swap transactions across all contracts.
func (c *Client) RecentSwaps(ctx context.Context, limit int) ([]domain.Transaction, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	var txs []domain.Transaction
	if err := c.get(ctx, "swaps/recent", params, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// TokenTransfers fetches token-transfer transactions touching an address for
// a given asset identifier. Callers must treat an empty result as normal.
func (c *Client) TokenTransfers(ctx context.Context, address, assetID string) ([]domain.Transaction, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("asset_identifier", assetID)
	var txs []domain.Transaction
	if err := c.get(ctx, "tokens/transfers", params, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// LatestPrices fetches the latest USD price table, keyed by asset identifier.
// With a non-empty assets filter only those entries are requested.
func (c *Client) LatestPrices(ctx context.Context, assets ...string) (map[string]float64, error) {
	body := map[string]any{}
	if len(assets) > 0 {
		body["assets"] = assets
	}
	var prices map[string]float64
	if err := c.post(ctx, "prices/latest", body, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

func setWindow(params url.Values, start, end time.Time) {
	// Dates go over the wire as ISO-8601 in UTC.
	if !start.IsZero() {
		params.Set("start_time", start.UTC().Format(time.RFC3339))
	}
	if !end.IsZero() {
		params.Set("end_time", end.UTC().Format(time.RFC3339))
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := fmt.Sprintf("%s/%s", c.cfg.BaseURL, endpoint)
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}
	return c.do(ctx, http.MethodGet, endpoint, u, nil, out)
}

func (c *Client) post(ctx context.Context, endpoint string, body any, out any) error {
	u := fmt.Sprintf("%s/%s", c.cfg.BaseURL, endpoint)
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, u, payload, out)
}

// do executes one logical query with exponential backoff. Each attempt builds
// a fresh request bounded by the per-request timeout; a timed-out attempt is
// aborted and counted as failed.
func (c *Client) do(ctx context.Context, method, endpoint, fullURL string, payload []byte, out any) error {
	operation := func() (json.RawMessage, error) {
		return c.roundTrip(ctx, method, endpoint, fullURL, payload)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryBaseDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0

	data, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries)))
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues(endpoint).Inc()
		return &RequestFailedError{Endpoint: endpoint, Attempts: c.cfg.MaxRetries, Err: err}
	}

	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", endpoint, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint, fullURL string, payload []byte) (json.RawMessage, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("x-api-key", c.cfg.APIKey)
	}

	start := time.Now()
	metrics.APICallsTotal.WithLabelValues(endpoint).Inc()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return env.Data, nil
}
