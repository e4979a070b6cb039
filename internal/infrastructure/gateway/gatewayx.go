// Package gateway implements the outbound client for the crypto payment
// gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	appPayment "github.com/vetiver-net/vetiver/internal/application/payment"
	apperrors "github.com/vetiver-net/vetiver/internal/shared/errors"
)

// Client talks to the GatewayX invoice API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option is a function that configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ appPayment.GatewayClient = (*Client)(nil)

type createChargeRequest struct {
	OrderID     string `json:"order_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
	CallbackURL string `json:"callback_url"`
}

type createChargeResponse struct {
	PayURL    string `json:"pay_url"`
	InvoiceID string `json:"invoice_id"`
}

// CreateCharge opens a remote invoice keyed by our tracking id.
func (c *Client) CreateCharge(ctx context.Context, req appPayment.CreateChargeRequest) (*appPayment.CreateChargeResponse, error) {
	data, err := json.Marshal(createChargeRequest{
		OrderID:     req.TrackingID,
		Amount:      req.Amount,
		Description: req.Description,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/invoices", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var netErr net.Error
		if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewUpstreamError("gateway request timed out", true, err.Error())
		}
		return nil, apperrors.NewUpstreamError("gateway unreachable", true, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to read gateway response", true, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode >= 500
		return nil, apperrors.NewUpstreamError(
			fmt.Sprintf("gateway error: status=%d body=%s", resp.StatusCode, string(respBody)), retryable)
	}

	var charge createChargeResponse
	if err := json.Unmarshal(respBody, &charge); err != nil {
		return nil, apperrors.NewUpstreamError("failed to decode gateway response", false, err.Error())
	}
	if charge.PayURL == "" {
		return nil, apperrors.NewUpstreamError("gateway returned no payment url", false)
	}

	return &appPayment.CreateChargeResponse{
		PayURL:     charge.PayURL,
		GatewayRef: charge.InvoiceID,
	}, nil
}
