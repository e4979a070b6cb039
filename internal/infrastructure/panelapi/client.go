// Package panelapi implements the HTTP client for the upstream panel
// control-plane. Tokens are cached in redis; any 401 triggers one
// re-login-and-retry before the error surfaces.
package panelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	appPanel "github.com/vetiver-net/vetiver/internal/application/panel"
	"github.com/vetiver-net/vetiver/internal/application/remote"
	panelDomain "github.com/vetiver-net/vetiver/internal/domain/panel"
	"github.com/vetiver-net/vetiver/internal/infrastructure/cache"
	apperrors "github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// errUnauthorized is the internal signal that the cached token was rejected.
var errUnauthorized = errors.New("panel rejected access token")

// Client talks to upstream panels.
type Client struct {
	httpClient *http.Client
	tokens     *cache.PanelTokenStore
	sealer     appPanel.CredentialSealer
	logger     logger.Interface
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

func NewClient(tokens *cache.PanelTokenStore, sealer appPanel.CredentialSealer, logger logger.Interface, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		tokens: tokens,
		sealer: sealer,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ remote.PanelClient = (*Client)(nil)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login authenticates with raw credentials and returns an access token.
func (c *Client) Login(ctx context.Context, url, username, password string) (string, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, url+"/api/admin/token", "", loginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		if errors.Is(err, errUnauthorized) {
			return "", apperrors.NewUnauthorizedError("panel rejected the credentials")
		}
		return "", err
	}
	if resp.Token == "" {
		return "", apperrors.NewUpstreamError("panel returned an empty token", false)
	}
	return resp.Token, nil
}

type settingResponse struct {
	CertificateKey string `json:"certificate_key"`
}

// GetFingerprint fetches the panel's certificate key.
func (c *Client) GetFingerprint(ctx context.Context, url, token string) (string, error) {
	var resp settingResponse
	if err := c.do(ctx, http.MethodGet, url+"/api/setting", token, nil, &resp); err != nil {
		if errors.Is(err, errUnauthorized) {
			return "", apperrors.NewUnauthorizedError("panel rejected the access token")
		}
		return "", err
	}
	if resp.CertificateKey == "" {
		return "", apperrors.NewUpstreamError("panel returned no certificate key", false)
	}
	return resp.CertificateKey, nil
}

func (c *Client) AddHost(ctx context.Context, p *panelDomain.Panel, entry remote.HostEntry) error {
	return c.withAuth(ctx, p, func(token string) error {
		return c.do(ctx, http.MethodPost, p.URL()+"/api/hosts", token, entry, nil)
	})
}

func (c *Client) RemoveHost(ctx context.Context, p *panelDomain.Panel, entry remote.HostEntry) error {
	return c.withAuth(ctx, p, func(token string) error {
		return c.do(ctx, http.MethodDelete, p.URL()+"/api/hosts", token, entry, nil)
	})
}

func (c *Client) GetCoreConfig(ctx context.Context, p *panelDomain.Panel) (map[string]interface{}, error) {
	var cfg map[string]interface{}
	err := c.withAuth(ctx, p, func(token string) error {
		return c.do(ctx, http.MethodGet, p.URL()+"/api/core/config", token, nil, &cfg)
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Client) UpdateCoreConfig(ctx context.Context, p *panelDomain.Panel, cfg map[string]interface{}) error {
	return c.withAuth(ctx, p, func(token string) error {
		return c.do(ctx, http.MethodPut, p.URL()+"/api/core/config", token, cfg, nil)
	})
}

func (c *Client) DeleteUpstreamNode(ctx context.Context, p *panelDomain.Panel, nodeHandle string) error {
	return c.withAuth(ctx, p, func(token string) error {
		return c.do(ctx, http.MethodDelete, p.URL()+"/api/nodes/"+nodeHandle, token, nil, nil)
	})
}

// withAuth runs fn with a valid token, re-logging-in and retrying exactly once
// when the panel answers 401.
func (c *Client) withAuth(ctx context.Context, p *panelDomain.Panel, fn func(token string) error) error {
	token, err := c.token(ctx, p, false)
	if err != nil {
		return err
	}

	err = fn(token)
	if !errors.Is(err, errUnauthorized) {
		return err
	}

	c.logger.Debugw("panel token rejected, refreshing", "panel_id", p.ID())
	token, err = c.token(ctx, p, true)
	if err != nil {
		return err
	}

	if err := fn(token); err != nil {
		if errors.Is(err, errUnauthorized) {
			return apperrors.NewUnauthorizedError("panel rejected refreshed token")
		}
		return err
	}
	return nil
}

// token returns a cached token, or logs in with the sealed credentials when
// the cache misses or force is set.
func (c *Client) token(ctx context.Context, p *panelDomain.Panel, force bool) (string, error) {
	if !force {
		token, err := c.tokens.Get(ctx, p.ID())
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, cache.ErrTokenNotCached) {
			c.logger.Warnw("panel token cache read failed, falling back to login",
				"panel_id", p.ID(), "error", err)
		}
	}

	username, password, err := c.unsealCredentials(p)
	if err != nil {
		return "", err
	}

	token, err := c.Login(ctx, p.URL(), username, password)
	if err != nil {
		return "", err
	}

	if err := c.tokens.Set(ctx, p.ID(), token); err != nil {
		c.logger.Warnw("failed to cache panel token", "panel_id", p.ID(), "error", err)
	}
	return token, nil
}

func (c *Client) unsealCredentials(p *panelDomain.Panel) (string, string, error) {
	plain, err := c.sealer.Open(p.SealedCredentials())
	if err != nil {
		return "", "", apperrors.NewInternalError("failed to unseal panel credentials", err.Error())
	}
	username, password, ok := strings.Cut(string(plain), ":")
	if !ok {
		return "", "", apperrors.NewInternalError("corrupt panel credentials")
	}
	return username, password, nil
}

// do performs one HTTP call. 401 maps to errUnauthorized for the retry logic;
// other failures map straight into the error taxonomy.
func (c *Client) do(ctx context.Context, method, url, token string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewUpstreamError("panel request timed out", true, err.Error())
		}
		return apperrors.NewUpstreamError("panel unreachable", true, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewUpstreamError("failed to read panel response", true, err.Error())
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return errUnauthorized
	case resp.StatusCode >= 500:
		return apperrors.NewUpstreamError(
			fmt.Sprintf("panel error: status=%d body=%s", resp.StatusCode, string(respBody)), true)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return apperrors.NewUpstreamError(
			fmt.Sprintf("panel error: status=%d body=%s", resp.StatusCode, string(respBody)), false)
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return apperrors.NewUpstreamError("failed to decode panel response", false, err.Error())
	}
	return nil
}
