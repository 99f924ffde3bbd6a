// Package appstate implements AppState (C4): the composition root wiring
// FileStore, StatStore, and ConfigStore together, plus the two atomic
// control flags the background loops and HTTP server share.
package appstate

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/timokae/ma-node/internal/config"
	"github.com/timokae/ma-node/internal/metrics"
	"github.com/timokae/ma-node/internal/store/filestore"
	"github.com/timokae/ma-node/internal/store/statstore"
	"github.com/timokae/ma-node/internal/wire"
)

// AppState aggregates the three sub-stores and the flags every loop polls.
// It owns no lock of its own: each sub-store guards its own state, and
// AppState methods that touch more than one sub-store do so by calling
// each store's already-locking accessors in turn, never holding two locks
// at once.
type AppState struct {
	Files   *filestore.FileStore
	Stats   *statstore.Store
	Config  *config.Store
	Metrics *metrics.Collector

	stopServices atomic.Bool
	forcePing    atomic.Bool
}

// New wires the three sub-stores and the metrics collector into an
// AppState.
func New(files *filestore.FileStore, stats *statstore.Store, cfg *config.Store, collector *metrics.Collector) *AppState {
	return &AppState{Files: files, Stats: stats, Config: cfg, Metrics: collector}
}

// StopServices reports whether the background loops should exit.
func (a *AppState) StopServices() bool {
	return a.stopServices.Load()
}

// RequestStop signals every loop to exit at its next iteration boundary.
func (a *AppState) RequestStop() {
	a.stopServices.Store(true)
}

// ForcePingSet reports whether an out-of-band ping has been requested,
// without clearing it. Only the ping loop clears the flag, and only
// immediately before sending a ping.
func (a *AppState) ForcePingSet() bool {
	return a.forcePing.Load()
}

// ClearForcePing resets force_ping to false. Called by the ping loop only,
// immediately before sending a ping.
func (a *AppState) ClearForcePing() {
	a.forcePing.Store(false)
}

// RequestPing asks the ping loop to run before its next scheduled tick.
func (a *AppState) RequestPing() {
	a.forcePing.Store(true)
}

// GeneratePing builds the next ping payload and clears the uploaded/rejected
// deltas that feed it, as a single operation so a delta can never be
// reported twice nor silently dropped.
func (a *AppState) GeneratePing(ctx context.Context) (wire.PingRequest, error) {
	capacityLeft, err := a.Files.CapacityLeft(ctx)
	if err != nil {
		return wire.PingRequest{}, fmt.Errorf("appstate: generate ping: %w", err)
	}

	req := wire.PingRequest{
		Fingerprint:    a.Config.Fingerprint(),
		Port:           a.Config.Port(),
		Weight:         a.Stats.TotalRating(capacityLeft),
		Files:          a.Files.Hashes(),
		RejectedHashes: a.Files.RejectedHashes(),
		CapacityLeft:   capacityLeft,
		UploadedHashes: a.Files.UploadedHashes(),
		IPv6:           a.Config.IPv6(),
	}

	a.Files.ClearRejected()
	a.Files.ClearUploaded()

	a.Metrics.SetInventory(len(req.Files), capacityLeft)
	a.Metrics.SetQueueDepth("recover", a.Files.RecoverQueueDepth())
	a.Metrics.SetQueueDepth("distribute", a.Files.DistributeQueueDepth())

	return req, nil
}

// AddNewFile hashes data, saves it, and records it as uploaded so the next
// ping reports it; if distribute is true it is also enqueued for outward
// replication. A new upload always forces an
// immediate ping.
func (a *AppState) AddNewFile(ctx context.Context, data []byte, contentType, fileName string, distribute bool) (string, error) {
	hash := a.Config.HashContent(data)

	if err := a.Files.Save(ctx, hash, data, contentType, fileName); err != nil {
		return "", fmt.Errorf("appstate: add new file: %w", err)
	}

	a.Files.AddUploaded(hash)
	if distribute {
		a.Files.InsertFileToDistribute(hash)
	}
	a.RequestPing()

	return hash, nil
}

// SerializeState persists every sub-store's durable state to disk, called
// by the ping loop once per ping cycle and on a normal shutdown.
func (a *AppState) SerializeState() error {
	if err := a.Files.Serialize(); err != nil {
		return err
	}
	if err := a.Stats.Serialize(); err != nil {
		return err
	}
	return nil
}
