// Package panel holds the panel registration and removal use cases.
package panel

import (
	"context"
	"fmt"

	"github.com/vetiver-net/vetiver/internal/application/panel/portalloc"
	"github.com/vetiver-net/vetiver/internal/application/remote"
	panelDomain "github.com/vetiver-net/vetiver/internal/domain/panel"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// CredentialSealer encrypts panel credentials at rest. Only the panel API
// client unseals them, at login time.
type CredentialSealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// RegisterPanelCommand carries the user's panel endpoint and credentials.
type RegisterPanelCommand struct {
	UserID   uint
	URL      string
	Username string
	Password string
}

// RegisterPanelResult returns the new panel and its port assignment.
type RegisterPanelResult struct {
	PanelID     uint `json:"panel_id"`
	XrayPort    int  `json:"xray_port"`
	APIPort     int  `json:"api_port"`
	InboundPort int  `json:"inbound_port"`
}

// RegisterPanelUseCase validates the upstream panel, fingerprints it so the
// same panel cannot be registered twice, allocates the port triple, and stores
// the credentials sealed.
type RegisterPanelUseCase struct {
	panels    panelDomain.Repository
	panelAPI  remote.PanelClient
	allocator *portalloc.Allocator
	sealer    CredentialSealer
	logger    logger.Interface
}

func NewRegisterPanelUseCase(
	panels panelDomain.Repository,
	panelAPI remote.PanelClient,
	allocator *portalloc.Allocator,
	sealer CredentialSealer,
	logger logger.Interface,
) *RegisterPanelUseCase {
	return &RegisterPanelUseCase{
		panels:    panels,
		panelAPI:  panelAPI,
		allocator: allocator,
		sealer:    sealer,
		logger:    logger,
	}
}

func (uc *RegisterPanelUseCase) Execute(ctx context.Context, cmd RegisterPanelCommand) (*RegisterPanelResult, error) {
	if cmd.URL == "" || cmd.Username == "" || cmd.Password == "" {
		return nil, errors.NewValidationError("url, username and password are required")
	}

	token, err := uc.panelAPI.Login(ctx, cmd.URL, cmd.Username, cmd.Password)
	if err != nil {
		uc.logger.Warnw("panel login failed during registration",
			"user_id", cmd.UserID, "url", cmd.URL, "error", err)
		return nil, err
	}

	fingerprint, err := uc.panelAPI.GetFingerprint(ctx, cmd.URL, token)
	if err != nil {
		return nil, err
	}

	if existing, err := uc.panels.GetByCertificateKey(ctx, fingerprint); err == nil && existing != nil {
		return nil, errors.NewConflictError("panel is already registered")
	} else if err != nil && !errors.IsNotFoundError(err) {
		return nil, err
	}

	ports, err := uc.allocator.Allocate(ctx)
	if err != nil {
		return nil, err
	}

	sealed, err := uc.sealer.Seal([]byte(fmt.Sprintf("%s:%s", cmd.Username, cmd.Password)))
	if err != nil {
		return nil, errors.NewInternalError("failed to seal panel credentials", err.Error())
	}

	p, err := panelDomain.NewPanel(cmd.UserID, cmd.URL, sealed, fingerprint, ports)
	if err != nil {
		return nil, errors.NewValidationError("invalid panel", err.Error())
	}
	p.SetAccessToken(token)

	if err := uc.panels.Create(ctx, p); err != nil {
		if errors.IsDuplicateError(err) {
			return nil, errors.NewConflictError("panel is already registered")
		}
		return nil, err
	}

	uc.logger.Infow("panel registered",
		"panel_id", p.ID(), "user_id", cmd.UserID,
		"ports", ports.All())

	return &RegisterPanelResult{
		PanelID:     p.ID(),
		XrayPort:    ports.XrayPort,
		APIPort:     ports.APIPort,
		InboundPort: ports.InboundPort,
	}, nil
}
