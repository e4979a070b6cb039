package remote

import (
	"context"

	"github.com/vetiver-net/vetiver/internal/domain/panel"
)

// HostEntry is one inbound host row on the upstream panel.
type HostEntry struct {
	Remark  string `json:"remark"`
	Address string `json:"address"`
	Port    int    `json:"port"`
}

// PanelClient is the contract of the upstream panel control-plane. Calls that
// take a *panel.Panel must refresh the access token and retry once whenever
// the panel answers with an auth error.
type PanelClient interface {
	// Login authenticates against a panel with raw credentials and returns
	// an access token. Used during registration, before a Panel exists.
	Login(ctx context.Context, url, username, password string) (string, error)

	// GetFingerprint returns the panel's certificate key, the uniqueness
	// fingerprint preventing duplicate registration.
	GetFingerprint(ctx context.Context, url, token string) (string, error)

	AddHost(ctx context.Context, p *panel.Panel, entry HostEntry) error
	RemoveHost(ctx context.Context, p *panel.Panel, entry HostEntry) error
	GetCoreConfig(ctx context.Context, p *panel.Panel) (map[string]interface{}, error)
	UpdateCoreConfig(ctx context.Context, p *panel.Panel, cfg map[string]interface{}) error
	DeleteUpstreamNode(ctx context.Context, p *panel.Panel, nodeHandle string) error
}
