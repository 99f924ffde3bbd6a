package commands

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/timokae/ma-node/internal/appstate"
	"github.com/timokae/ma-node/internal/config"
	"github.com/timokae/ma-node/internal/httpclient"
	"github.com/timokae/ma-node/internal/httpserver"
	"github.com/timokae/ma-node/internal/logger"
	"github.com/timokae/ma-node/internal/metrics"
	"github.com/timokae/ma-node/internal/placement"
	"github.com/timokae/ma-node/internal/services/distribute"
	"github.com/timokae/ma-node/internal/services/ping"
	"github.com/timokae/ma-node/internal/services/recover"
	"github.com/timokae/ma-node/internal/store/filestore"
	"github.com/timokae/ma-node/internal/store/statstore"
	"github.com/timokae/ma-node/internal/wire"
)

var startCmd = &cobra.Command{
	Use:   "start <state-dir>",
	Short: "Register with the manager and run the node's background loops",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	stateDir := args[0]

	cfg, err := config.Load(stateDir)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfgStore, err := config.NewStore(*cfg)
	if err != nil {
		return fmt.Errorf("failed to build config store: %w", err)
	}

	backend, err := selectBackend(cmd.Context(), stateDir, cfg.Storage)
	if err != nil {
		return err
	}

	files, err := filestore.New(stateDir, backend, cfg.Stats.Capacity.Value)
	if err != nil {
		return fmt.Errorf("failed to load file store: %w", err)
	}

	stats, err := statstore.New(stateDir, toStatStoreStats(cfg.Stats), statstore.DefaultWeights())
	if err != nil {
		return fmt.Errorf("failed to load stat store: %w", err)
	}

	collector := metrics.New()
	state := appstate.New(files, stats, cfgStore, collector)
	client := httpclient.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := register(ctx, cfgStore, client); err != nil {
		return fmt.Errorf("failed to register with manager: %w", err)
	}
	logger.Info("registered with manager",
		logger.KeyFingerprint, cfgStore.Fingerprint(),
		logger.KeyMonitorAddr, cfgStore.OwnMonitor().Addr)

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(cfg.Port)))
	policy := placement.Resolve(cfgStore.Placement(), cfgStore.Replications(), rng)

	timeouts := cfgStore.Timeouts()
	pingSvc := ping.New(state, client, time.Duration(timeouts.Ping)*time.Second)
	recoverSvc := recover.New(state, client, time.Duration(timeouts.Recover)*time.Second)
	distributeSvc := distribute.New(state, client, policy, time.Duration(timeouts.Distribute)*time.Second)
	server := httpserver.New(state, client, cfg.IPv6 != "")

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, collector)
	}

	loopDone := make(chan error, 4)
	runLoop := func(name string, fn func(context.Context) error) {
		go func() {
			err := fn(ctx)
			if err != nil && err != context.Canceled {
				logger.Error("loop exited with error", logger.KeyLoop, name, logger.KeyError, err)
			}
			loopDone <- err
		}()
	}

	runLoop("ping", pingSvc.Start)
	runLoop("recover", recoverSvc.Start)
	runLoop("distribute", distributeSvc.Start)
	runLoop("http", server.Start)
	running := 4
	if metricsServer != nil {
		runLoop("metrics", metricsServer.Start)
		running++
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("node is running, press Ctrl+C to stop")
	<-sigCh
	signal.Stop(sigCh)
	logger.Info("shutdown signal received, stopping loops")

	state.RequestStop()
	cancel()

	for i := 0; i < running; i++ {
		<-loopDone
	}

	if err := client.NotifyShutdown(context.Background(), cfgStore.OwnMonitor().Addr, cfgStore.Fingerprint()); err != nil {
		logger.Warn("failed to notify monitor of shutdown", logger.KeyError, err)
	}

	if err := state.SerializeState(); err != nil {
		return fmt.Errorf("failed to persist final state: %w", err)
	}

	logger.Info("node stopped gracefully")
	return nil
}

// selectBackend builds the filestore.Backend named by cfg.Backend.
func selectBackend(ctx context.Context, stateDir string, cfg config.StorageConfig) (filestore.Backend, error) {
	switch cfg.Backend {
	case config.BackendS3:
		return filestore.NewS3Backend(ctx, filestore.S3BackendConfig{
			Bucket:   cfg.S3.Bucket,
			Prefix:   cfg.S3.Prefix,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
		})
	default:
		return filestore.NewLocalBackend(stateDir)
	}
}

// register performs the one-time bootstrap registration against the
// manager, populating cfgStore's own monitor and peer list.
func register(ctx context.Context, cfgStore *config.Store, client *httpclient.Client) error {
	window := cfgStore.Stats().Uptime.Value
	req := wire.RegisterRequest{
		Region: cfgStore.Region(),
		Uptime: []uint32{uint32(window[0]), uint32(window[1])},
		IPv6:   cfgStore.IPv6(),
	}

	resp, err := client.Register(ctx, cfgStore.ManagerAddr(), req)
	if err != nil {
		return err
	}

	own := config.Monitor{Addr: resp.OwnMonitor.Addr, Bound: resp.OwnMonitor.Bound}
	monitors := make([]config.Monitor, 0, len(resp.Monitors))
	for _, m := range resp.Monitors {
		monitors = append(monitors, config.Monitor{Addr: m.Addr, Bound: m.Bound})
	}
	cfgStore.SetMonitors(own, monitors)
	return nil
}

// toStatStoreStats converts a bootstrap config.Stats block into the shape
// statstore persists and rates; the two packages define independent types
// so ConfigStore and StatStore stay decoupled from each other's storage
// format.
func toStatStoreStats(s config.Stats) statstore.Stats {
	return statstore.Stats{
		Region:        s.Region,
		Uptime:        statstore.Stat[[2]int]{Value: s.Uptime.Value, Weight: float64(s.Uptime.Weight)},
		Capacity:      statstore.Stat[uint64]{Value: s.Capacity.Value, Weight: float64(s.Capacity.Weight)},
		Connection:    statstore.Stat[uint64]{Value: s.Connection.Value, Weight: float64(s.Connection.Weight)},
		UptimeCounter: statstore.Stat[uint64]{Value: s.UptimeCounter.Value, Weight: float64(s.UptimeCounter.Weight)},
		FirstOnline:   s.FirstOnline,
	}
}
