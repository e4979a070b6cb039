// Package nodeagent implements the HTTP client for the node-agent control
// API. Timeouts and 5xx answers map to retryable upstream errors because the
// agent did not acknowledge the operation; 4xx answers are terminal.
package nodeagent

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

	"github.com/vetiver-net/vetiver/internal/application/remote"
	apperrors "github.com/vetiver-net/vetiver/internal/shared/errors"
)

// Client is the node-agent API client. One client serves every node; the
// target agent is addressed per call through remote.NodeRef.
type Client struct {
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

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ remote.NodeAgentClient = (*Client)(nil)

type provisionRequest struct {
	InstanceID  uint   `json:"instance_id"`
	UserID      uint   `json:"user_id"`
	PanelURL    string `json:"panel_url"`
	XrayPort    int    `json:"xray_port"`
	APIPort     int    `json:"api_port"`
	InboundPort int    `json:"inbound_port"`
}

type provisionResponse struct {
	ContainerID           string `json:"container_id"`
	ProvisionedInstanceID string `json:"provisioned_instance_id"`
}

func (c *Client) ProvisionContainer(ctx context.Context, ref remote.NodeRef, spec remote.ProvisionSpec) (*remote.ProvisionResult, error) {
	var resp provisionResponse
	err := c.doRequest(ctx, ref, http.MethodPost, "/api/v1/containers", provisionRequest{
		InstanceID:  spec.InstanceID,
		UserID:      spec.UserID,
		PanelURL:    spec.PanelURL,
		XrayPort:    spec.XrayPort,
		APIPort:     spec.APIPort,
		InboundPort: spec.InboundPort,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ContainerID == "" {
		return nil, apperrors.NewUpstreamError("agent returned no container id", false)
	}
	return &remote.ProvisionResult{
		ContainerID:           resp.ContainerID,
		ProvisionedInstanceID: resp.ProvisionedInstanceID,
	}, nil
}

func (c *Client) PauseContainer(ctx context.Context, ref remote.NodeRef, containerID string) error {
	path := fmt.Sprintf("/api/v1/containers/%s/pause", containerID)
	return c.doRequest(ctx, ref, http.MethodPost, path, nil, nil)
}

func (c *Client) ResumeContainer(ctx context.Context, ref remote.NodeRef, containerID string) error {
	path := fmt.Sprintf("/api/v1/containers/%s/resume", containerID)
	return c.doRequest(ctx, ref, http.MethodPost, path, nil, nil)
}

func (c *Client) DeprovisionInstance(ctx context.Context, ref remote.NodeRef, provisionedInstanceID string) error {
	path := fmt.Sprintf("/api/v1/instances/%s", provisionedInstanceID)
	return c.doRequest(ctx, ref, http.MethodDelete, path, nil, nil)
}

func (c *Client) GetUsage(ctx context.Context, ref remote.NodeRef) ([]remote.UsageSample, error) {
	var samples []remote.UsageSample
	if err := c.doRequest(ctx, ref, http.MethodGet, "/api/v1/usage", nil, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

func (c *Client) Ping(ctx context.Context, ref remote.NodeRef) error {
	return c.doRequest(ctx, ref, http.MethodGet, "/api/v1/ping", nil, nil)
}

// doRequest performs an HTTP request and decodes the response.
func (c *Client) doRequest(ctx context.Context, ref remote.NodeRef, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, ref.Addr+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Node-Token", ref.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewUpstreamError("failed to read agent response", true, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatusError(resp.StatusCode, respBody)
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return apperrors.NewUpstreamError("failed to decode agent response", false, err.Error())
	}
	return nil
}

// classifyTransportError maps connection and timeout failures. The agent may
// or may not have acted, but nothing was committed locally, so retry is safe.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewUpstreamError("agent request timed out", true, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewUpstreamError("agent request timed out", true, err.Error())
	}
	return apperrors.NewUpstreamError("agent unreachable", true, err.Error())
}

func classifyStatusError(status int, body []byte) error {
	msg := fmt.Sprintf("agent error: status=%d body=%s", status, string(body))
	if status >= 500 {
		return apperrors.NewUpstreamError(msg, true)
	}
	return apperrors.NewUpstreamError(msg, false)
}
