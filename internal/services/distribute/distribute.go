// Package distribute implements DistributionService (C7): draining the
// to-distribute queue by pushing hashes to selected monitors under a
// chosen placement policy.
package distribute

import (
	"context"
	"time"

	"github.com/timokae/ma-node/internal/appstate"
	"github.com/timokae/ma-node/internal/httpclient"
	"github.com/timokae/ma-node/internal/logger"
	"github.com/timokae/ma-node/internal/placement"
	"github.com/timokae/ma-node/internal/wire"
)

// Service runs the distribute loop until shutdown is requested.
type Service struct {
	state   *appstate.AppState
	client  *httpclient.Client
	policy  placement.Policy
	timeout time.Duration

	// attempts counts how many times each hash has been drained from the
	// distribute queue, logged to make redistribution of the same hash
	// observable. Only ever touched from Start's single goroutine.
	attempts map[string]int
}

// New builds a distribute Service applying the given placement policy.
func New(state *appstate.AppState, client *httpclient.Client, policy placement.Policy, timeout time.Duration) *Service {
	return &Service{state: state, client: client, policy: policy, timeout: timeout, attempts: map[string]int{}}
}

// Start blocks, draining one hash per iteration, until stop_services is
// observed.
func (s *Service) Start(ctx context.Context) error {
	fingerprint := s.state.Config.Fingerprint()

	for {
		if s.state.StopServices() {
			return nil
		}

		hash, ok := s.state.Files.NextFileToDistribute()
		if !ok {
			if !sleep(ctx, s.timeout) {
				return ctx.Err()
			}
			continue
		}

		s.attempts[hash]++
		attempt := s.attempts[hash]

		own := s.state.Config.OwnMonitor()
		foreign := s.state.Config.ForeignMonitors()
		picks := s.policy(fingerprint, own, foreign, hash)

		for _, pick := range picks {
			req := wire.DistributeRequest{
				Replications: pick.Replications,
				ToOwnMonitor: pick.ToOwnMonitor,
				Fingerprint:  fingerprint,
			}
			if err := s.client.Distribute(ctx, pick.Monitor.Addr, hash, req); err != nil {
				logger.WarnCtx(ctx, "distribute: push failed",
					logger.KeyHash, hash, logger.KeyMonitorAddr, pick.Monitor.Addr,
					logger.KeyAttempt, attempt, logger.KeyError, err)
				s.state.Metrics.ObserveDistribute("error")
				continue
			}
			s.state.Metrics.ObserveDistribute("success")
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
