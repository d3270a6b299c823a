package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBodyBytes  = 512
)

// HTTPLedger relays status updates to a remote ledger service as JSON.
type HTTPLedger struct {
	endpoint string
	token    string
	timeout  time.Duration
	client   *http.Client
}

// HTTPOption configures an HTTPLedger.
type HTTPOption func(*HTTPLedger)

// WithToken sends token as a bearer credential.
func WithToken(token string) HTTPOption {
	return func(h *HTTPLedger) {
		h.token = token
	}
}

// WithTimeout bounds every request. It applies to a copy of the client, so a
// shared client passed through WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPLedger) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPLedger) {
		if c != nil {
			h.client = c
		}
	}
}

// NewHTTPLedger creates a ledger that POSTs to endpoint.
func NewHTTPLedger(endpoint string, opts ...HTTPOption) (*HTTPLedger, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid endpoint %q", ErrConfig, endpoint)
	}

	h := &HTTPLedger{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.timeout > 0 {
		c := *h.client
		c.Timeout = h.timeout
		h.client = &c
	}
	return h, nil
}

// statusRequest is the body sent to the remote ledger.
type statusRequest struct {
	Handle            string `json:"handle"`
	Score             int64  `json:"score"`
	TierID            int    `json:"tier_id"`
	MetadataReference string `json:"metadata_reference,omitempty"`
}

// Name implements Updater.
func (h *HTTPLedger) Name() string { return DriverHTTP }

// UpdateStatus implements Updater. Any non-2xx response is an error.
func (h *HTTPLedger) UpdateStatus(ctx context.Context, handle string, score int64, tierID int, metadataReference string) error {
	body, err := json.Marshal(statusRequest{
		Handle:            handle,
		Score:             score,
		TierID:            tierID,
		MetadataReference: metadataReference,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal status update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
