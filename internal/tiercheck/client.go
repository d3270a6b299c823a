package tiercheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the tier service over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Health checks that the service answers GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	body, status, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check failed with status %d: %s", status, truncate(body))
	}
	return nil
}

// Tiers fetches the configured tier table.
func (c *Client) Tiers(ctx context.Context) ([]Tier, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/tiers", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("GET /tiers returned %d: %s", status, truncate(body))
	}
	var out struct {
		Tiers []Tier `json:"tiers"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode tiers: %w", err)
	}
	return out.Tiers, nil
}

// CalculateTiers submits set and returns the results keyed by handle.
func (c *Client) CalculateTiers(ctx context.Context, set ScoreSet) (map[string]Result, error) {
	payload, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal score set: %w", err)
	}
	body, status, err := c.do(ctx, http.MethodPost, "/calculate-tiers", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("POST /calculate-tiers returned %d: %s", status, truncate(body))
	}
	var out map[string]Result
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func truncate(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
