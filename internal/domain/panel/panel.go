package panel

import (
	"fmt"
	"strings"
	"time"

	"github.com/vetiver-net/vetiver/internal/shared/biztime"
)

// PortAssignment is the triple of node-side ports allocated to a panel.
// Convention: xray < api < inbound, which the allocator guarantees by
// sorting ascending before assignment.
type PortAssignment struct {
	XrayPort    int
	APIPort     int
	InboundPort int
}

// NewPortAssignment validates that the three ports are distinct and ordered.
func NewPortAssignment(xray, api, inbound int) (PortAssignment, error) {
	for _, p := range []int{xray, api, inbound} {
		if p <= 0 || p > 65535 {
			return PortAssignment{}, fmt.Errorf("port out of range: %d", p)
		}
	}
	if xray >= api || api >= inbound {
		return PortAssignment{}, fmt.Errorf("ports must be distinct and ascending: %d, %d, %d", xray, api, inbound)
	}
	return PortAssignment{XrayPort: xray, APIPort: api, InboundPort: inbound}, nil
}

// All returns the three ports in ascending order.
func (p PortAssignment) All() []int {
	return []int{p.XrayPort, p.APIPort, p.InboundPort}
}

// Panel is an upstream control-plane endpoint registered by a user. The
// certificate key fingerprints the upstream panel so the same one cannot be
// registered twice. Credentials are stored sealed; only the panel client
// unseals them for login.
type Panel struct {
	id     uint
	userID uint
	url    string

	sealedCredentials []byte
	accessToken       string
	certificateKey    string

	ports PortAssignment

	createdAt time.Time
	updatedAt time.Time
}

func NewPanel(userID uint, url string, sealedCredentials []byte, certificateKey string, ports PortAssignment) (*Panel, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" {
		return nil, fmt.Errorf("panel URL is required")
	}
	if len(sealedCredentials) == 0 {
		return nil, fmt.Errorf("sealed credentials are required")
	}
	if certificateKey == "" {
		return nil, fmt.Errorf("certificate key is required")
	}

	now := biztime.NowUTC()
	return &Panel{
		userID:            userID,
		url:               url,
		sealedCredentials: sealedCredentials,
		certificateKey:    certificateKey,
		ports:             ports,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// SetAccessToken caches the last login token issued by the upstream panel.
func (p *Panel) SetAccessToken(token string) {
	p.accessToken = token
	p.updatedAt = biztime.NowUTC()
}

func (p *Panel) ID() uint                  { return p.id }
func (p *Panel) UserID() uint              { return p.userID }
func (p *Panel) URL() string               { return p.url }
func (p *Panel) SealedCredentials() []byte { return p.sealedCredentials }
func (p *Panel) AccessToken() string       { return p.accessToken }
func (p *Panel) CertificateKey() string    { return p.certificateKey }
func (p *Panel) Ports() PortAssignment     { return p.ports }
func (p *Panel) CreatedAt() time.Time      { return p.createdAt }
func (p *Panel) UpdatedAt() time.Time      { return p.updatedAt }

// SetID sets the panel ID after persistence (used by repository after Create)
func (p *Panel) SetID(id uint) {
	p.id = id
}

func ReconstructPanel(
	id uint,
	userID uint,
	url string,
	sealedCredentials []byte,
	accessToken, certificateKey string,
	ports PortAssignment,
	createdAt, updatedAt time.Time,
) *Panel {
	return &Panel{
		id:                id,
		userID:            userID,
		url:               url,
		sealedCredentials: sealedCredentials,
		accessToken:       accessToken,
		certificateKey:    certificateKey,
		ports:             ports,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}
