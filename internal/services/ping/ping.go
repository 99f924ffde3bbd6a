// Package ping implements PingService (C5): the periodic (and forced)
// inventory report to the node's own monitor.
package ping

import (
	"context"
	"time"

	"github.com/timokae/ma-node/internal/appstate"
	"github.com/timokae/ma-node/internal/httpclient"
	"github.com/timokae/ma-node/internal/logger"
	"github.com/timokae/ma-node/internal/store/filestore"
	"github.com/timokae/ma-node/internal/wire"
)

// Service runs the ping loop until shutdown is requested.
type Service struct {
	state   *appstate.AppState
	client  *httpclient.Client
	timeout time.Duration
}

// New builds a ping Service with the given tick interval.
func New(state *appstate.AppState, client *httpclient.Client, timeout time.Duration) *Service {
	return &Service{state: state, client: client, timeout: timeout}
}

// Start blocks, running one iteration per second, until stop_services is
// observed.
func (s *Service) Start(ctx context.Context) error {
	lastPing := time.Time{}

	for {
		elapsed := time.Since(lastPing)
		if s.state.ForcePingSet() || elapsed > s.timeout {
			s.state.Stats.IncreaseUptimeCounter(elapsed)

			s.state.ClearForcePing()
			req, err := s.state.GeneratePing(ctx)
			if err != nil {
				logger.ErrorCtx(ctx, "ping: failed to build payload", logger.KeyError, err)
				s.state.Metrics.ObservePing("error")
			} else {
				resp, err := s.client.Ping(ctx, s.state.Config.OwnMonitor().Addr, req)
				if err != nil {
					logger.WarnCtx(ctx, "ping: request failed", logger.KeyError, err)
					s.state.Metrics.ObservePing("error")
				} else {
					s.applyDirectives(ctx, resp)
					s.state.Metrics.ObservePing("success")
				}
			}

			if err := s.state.SerializeState(); err != nil {
				logger.ErrorCtx(ctx, "ping: failed to persist state", logger.KeyError, err)
			}

			lastPing = time.Now()
		}

		if s.state.StopServices() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// applyDirectives enqueues recover entries and honors delete directives
// returned by the monitor's ping response.
func (s *Service) applyDirectives(ctx context.Context, resp wire.PingResponse) {
	if len(resp.FilesToRecover) > 0 {
		entries := make([]filestore.RecoverEntry, 0, len(resp.FilesToRecover))
		for _, h := range resp.FilesToRecover {
			entries = append(entries, filestore.NewRecoverEntry(h))
		}
		s.state.Files.InsertFilesToRecover(entries)
	}
	for _, h := range resp.FilesToDelete {
		if err := s.state.Files.Remove(ctx, h); err != nil {
			logger.WarnCtx(ctx, "ping: failed to remove file directed by monitor", logger.KeyHash, h, logger.KeyError, err)
		}
	}
}
