// Package recover implements RecoverService (C6): draining the to-recover
// queue by looking up and downloading files from peers.
package recover

import (
	"context"
	"time"

	"github.com/timokae/ma-node/internal/appstate"
	"github.com/timokae/ma-node/internal/httpclient"
	"github.com/timokae/ma-node/internal/logger"
	"github.com/timokae/ma-node/internal/store/filestore"
)

// Service runs the recover loop until shutdown is requested.
type Service struct {
	state   *appstate.AppState
	client  *httpclient.Client
	timeout time.Duration
}

// New builds a recover Service with the given idle-sleep interval.
func New(state *appstate.AppState, client *httpclient.Client, timeout time.Duration) *Service {
	return &Service{state: state, client: client, timeout: timeout}
}

// Start blocks, draining one recover entry per iteration, until
// stop_services is observed.
func (s *Service) Start(ctx context.Context) error {
	for {
		if s.state.StopServices() {
			return nil
		}

		entry, ok := s.state.Files.NextFileToRecover()
		if !ok {
			if !sleep(ctx, s.timeout) {
				return ctx.Err()
			}
			continue
		}

		s.recoverOne(ctx, entry)

		if s.state.StopServices() {
			return nil
		}
	}
}

func (s *Service) recoverOne(ctx context.Context, entry filestore.RecoverEntry) {
	logCtx := logger.WithContext(ctx, &logger.LogContext{Hash: entry.Hash, Loop: "recover"})

	capacityLeft, err := s.state.Files.CapacityLeft(ctx)
	if err != nil {
		logger.ErrorCtx(logCtx, "recover: failed to compute capacity", logger.KeyAttempt, entry.Attempt, logger.KeyError, err)
		s.requeue(entry)
		s.state.Metrics.ObserveRecover("error")
		return
	}
	if capacityLeft == 0 {
		s.state.Files.Reject(entry.Hash)
		s.state.Metrics.ObserveRecover("rejected")
		return
	}

	own := s.state.Config.OwnMonitor()
	lookup, err := s.client.Lookup(ctx, own.Addr, entry.Hash, true)
	if err != nil {
		logger.WarnCtx(logCtx, "recover: lookup failed", logger.KeyAttempt, entry.Attempt, logger.KeyError, err)
		s.requeue(entry)
		s.state.Metrics.ObserveRecover("error")
		return
	}

	data, contentType, fileName, err := s.client.Download(ctx, lookup.NodeAddr, entry.Hash)
	if err != nil {
		logger.WarnCtx(logCtx, "recover: download failed",
			logger.KeyNodeAddr, lookup.NodeAddr, logger.KeyAttempt, entry.Attempt, logger.KeyError, err)
		s.requeue(entry)
		s.state.Metrics.ObserveRecover("error")
		return
	}

	if _, err := s.state.AddNewFile(ctx, data, contentType, fileName, false); err != nil {
		logger.ErrorCtx(logCtx, "recover: failed to store recovered file", logger.KeyAttempt, entry.Attempt, logger.KeyError, err)
		s.requeue(entry)
		s.state.Metrics.ObserveRecover("error")
		return
	}

	s.state.Metrics.ObserveRecover("success")
}

// requeue re-enqueues entry with last_checked = now and attempt
// incremented, subjecting it to the 5-minute cool-down before it is
// retried again.
func (s *Service) requeue(entry filestore.RecoverEntry) {
	s.state.Files.InsertFilesToRecover([]filestore.RecoverEntry{
		{Hash: entry.Hash, LastChecked: time.Now(), Attempt: entry.Attempt + 1},
	})
}

// sleep waits for d or ctx cancellation, returning false if the context was
// the reason it returned.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
