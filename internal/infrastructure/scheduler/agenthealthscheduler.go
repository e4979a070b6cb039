package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/vetiver-net/vetiver/internal/application/remote"
	nodeDomain "github.com/vetiver-net/vetiver/internal/domain/node"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

const pingTimeout = 10 * time.Second

// AgentHealthScheduler pings each node agent on a fixed cadence and keeps the
// node's status, last-seen time and availability current. Provisioning
// refuses nodes whose agent is not online.
type AgentHealthScheduler struct {
	nodes    nodeDomain.Repository
	agent    remote.NodeAgentClient
	interval time.Duration
	logger   logger.Interface

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewAgentHealthScheduler(
	nodes nodeDomain.Repository,
	agent remote.NodeAgentClient,
	interval time.Duration,
	logger logger.Interface,
) *AgentHealthScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &AgentHealthScheduler{
		nodes:    nodes,
		agent:    agent,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start runs the health loop until stopped or the context is cancelled.
func (s *AgentHealthScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting agent health scheduler", "interval", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.checkOnce(ctx)
			case <-s.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the current round to finish.
func (s *AgentHealthScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	s.logger.Infow("agent health scheduler stopped")
}

func (s *AgentHealthScheduler) checkOnce(ctx context.Context) {
	nodes, err := s.nodes.ListActive(ctx)
	if err != nil {
		s.logger.Errorw("failed to list nodes for health check", "error", err)
		return
	}

	for _, n := range nodes {
		s.checkNode(ctx, n)
	}
}

func (s *AgentHealthScheduler) checkNode(ctx context.Context, n *nodeDomain.Node) {
	callCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := s.agent.Ping(callCtx, remote.NodeRef{
		Addr:  n.AgentAddr(),
		Token: n.EnrollmentToken(),
	})

	wasOnline := n.AgentStatus() == nodeDomain.AgentStatusOnline
	if err != nil {
		n.MarkAgentOffline()
		if wasOnline {
			s.logger.Warnw("node agent went offline", "node_id", n.ID(), "error", err)
		}
	} else {
		n.MarkAgentOnline()
		if !wasOnline {
			s.logger.Infow("node agent online", "node_id", n.ID())
		}
	}

	if err := s.nodes.Update(ctx, n); err != nil {
		s.logger.Errorw("failed to persist node health",
			"node_id", n.ID(), "error", err)
	}
}
