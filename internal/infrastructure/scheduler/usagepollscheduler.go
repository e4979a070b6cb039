package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/vetiver-net/vetiver/internal/application/billing"
	"github.com/vetiver-net/vetiver/internal/application/remote"
	nodeDomain "github.com/vetiver-net/vetiver/internal/domain/node"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// perNodeTimeout bounds one agent's usage call so a hung node cannot stall
// the whole polling round.
const perNodeTimeout = 30 * time.Second

// UsagePollScheduler periodically asks every active node's agent for the
// cumulative usage of its instances and feeds the batch to the billing
// engine. Nodes are polled independently; one dead agent only costs its own
// instances a billing round, which the watermark makes up on the next one.
type UsagePollScheduler struct {
	nodes    nodeDomain.Repository
	agent    remote.NodeAgentClient
	engine   *billing.Engine
	interval time.Duration
	logger   logger.Interface

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewUsagePollScheduler(
	nodes nodeDomain.Repository,
	agent remote.NodeAgentClient,
	engine *billing.Engine,
	interval time.Duration,
	logger logger.Interface,
) *UsagePollScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &UsagePollScheduler{
		nodes:    nodes,
		agent:    agent,
		engine:   engine,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start runs the polling loop until stopped or the context is cancelled.
func (s *UsagePollScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting usage poll scheduler", "interval", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.pollOnce(ctx)
			case <-s.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the current round to finish.
func (s *UsagePollScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	s.logger.Infow("usage poll scheduler stopped")
}

func (s *UsagePollScheduler) pollOnce(ctx context.Context) {
	nodes, err := s.nodes.ListActive(ctx)
	if err != nil {
		s.logger.Errorw("failed to list nodes for usage poll", "error", err)
		return
	}

	for _, n := range nodes {
		if n.AgentStatus() != nodeDomain.AgentStatusOnline {
			continue
		}
		s.pollNode(ctx, n)
	}
}

func (s *UsagePollScheduler) pollNode(ctx context.Context, n *nodeDomain.Node) {
	callCtx, cancel := context.WithTimeout(ctx, perNodeTimeout)
	defer cancel()

	samples, err := s.agent.GetUsage(callCtx, remote.NodeRef{
		Addr:  n.AgentAddr(),
		Token: n.EnrollmentToken(),
	})
	if err != nil {
		s.logger.Warnw("failed to poll node usage",
			"node_id", n.ID(), "error", err)
		return
	}
	if len(samples) == 0 {
		return
	}

	records := make([]billing.UsageRecord, 0, len(samples))
	for _, sample := range samples {
		records = append(records, billing.UsageRecord{
			InstanceID:      sample.InstanceID,
			TotalUsageBytes: sample.TotalUsageBytes,
		})
	}

	summary := s.engine.ProcessUsageReport(ctx, records)
	s.logger.Debugw("node usage polled",
		"node_id", n.ID(), "billed", summary.Billed, "failed", summary.Failed)
}
