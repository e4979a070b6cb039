// Package scheduler runs the periodic background loops: usage polling for
// billing and agent health checks.
package scheduler

import (
	"context"

	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// Scheduler is one background loop with its own cadence.
type Scheduler interface {
	// Start runs the loop until the context is cancelled or Stop is called.
	Start(ctx context.Context)
	// Stop signals the loop to exit and waits for in-flight work.
	Stop()
}

// Manager starts and stops the registered schedulers together so the server
// has one lifecycle hook for all background work.
type Manager struct {
	schedulers []Scheduler
	logger     logger.Interface
}

func NewManager(logger logger.Interface) *Manager {
	return &Manager{logger: logger}
}

func (m *Manager) Register(s Scheduler) {
	m.schedulers = append(m.schedulers, s)
}

func (m *Manager) StartAll(ctx context.Context) {
	m.logger.Infow("starting schedulers", "count", len(m.schedulers))
	for _, s := range m.schedulers {
		go s.Start(ctx)
	}
}

func (m *Manager) StopAll() {
	m.logger.Infow("stopping schedulers")
	for _, s := range m.schedulers {
		s.Stop()
	}
}
