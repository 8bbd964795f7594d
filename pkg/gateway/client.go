package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds what the HTTP client needs to reach the gateway.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client implements Gateway over the gateway's v2 payments API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a client for cfg. A zero timeout means 30 seconds.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Make sure we conform to the interface
var _ Gateway = (*Client)(nil)

type apiError struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"error_message"`
}

// Verify fetches GET /v2/payments/{id}.
func (c *Client) Verify(ctx context.Context, paymentID string) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, http.MethodGet, paymentPath(paymentID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Approve calls POST /v2/payments/{id}/approve.
func (c *Client) Approve(ctx context.Context, paymentID string) error {
	return c.do(ctx, http.MethodPost, paymentPath(paymentID)+"/approve", nil, nil)
}

// Complete calls POST /v2/payments/{id}/complete with the settlement txid.
func (c *Client) Complete(ctx context.Context, paymentID, txid string) error {
	body := map[string]string{"txid": txid}
	return c.do(ctx, http.MethodPost, paymentPath(paymentID)+"/complete", body, nil)
}

// CreatePayout calls POST /v2/payments to start an app-to-user payment.
func (c *Client) CreatePayout(ctx context.Context, req PayoutRequest) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, http.MethodPost, "/v2/payments", map[string]PayoutRequest{"payment": req}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// IncompletePayouts calls GET /v2/payments/incomplete_server_payments.
func (c *Client) IncompletePayouts(ctx context.Context) ([]Payment, error) {
	var out struct {
		Payments []Payment `json:"incomplete_server_payments"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/payments/incomplete_server_payments", nil, &out); err != nil {
		return nil, err
	}
	return out.Payments, nil
}

func paymentPath(paymentID string) string {
	return "/v2/payments/" + url.PathEscape(paymentID)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrTransient, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: %w: failed to read response: %v", method, path, ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrPaymentNotFound)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s %s returned %d: %w", method, path, resp.StatusCode, ErrTransient)
	case resp.StatusCode >= 400:
		var apiErr apiError
		_ = json.Unmarshal(respBody, &apiErr)
		// Repeating approve or complete is how callers retry.
		if strings.HasPrefix(apiErr.Error, "already_") {
			return nil
		}
		return fmt.Errorf("%s %s returned %d: %s %s", method, path, resp.StatusCode, apiErr.Error, apiErr.ErrorMessage)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
