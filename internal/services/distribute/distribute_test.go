package distribute

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/timokae/ma-node/internal/appstate"
	"github.com/timokae/ma-node/internal/config"
	"github.com/timokae/ma-node/internal/httpclient"
	"github.com/timokae/ma-node/internal/metrics"
	"github.com/timokae/ma-node/internal/placement"
	"github.com/timokae/ma-node/internal/store/filestore"
	"github.com/timokae/ma-node/internal/store/statstore"
)

func newTestService(t *testing.T, policy placement.Policy, monitorAddr string) (*Service, *appstate.AppState) {
	t.Helper()
	dir := t.TempDir()

	backend, err := filestore.NewLocalBackend(dir)
	if err != nil {
		t.Fatalf("NewLocalBackend failed: %v", err)
	}
	files, err := filestore.New(dir, backend, 1<<20)
	if err != nil {
		t.Fatalf("filestore.New failed: %v", err)
	}
	stats, err := statstore.New(dir, statstore.Stats{Region: "europe"}, statstore.DefaultWeights())
	if err != nil {
		t.Fatalf("statstore.New failed: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Fingerprint = "node-1"
	cfgStore, err := config.NewStore(*cfg)
	if err != nil {
		t.Fatalf("config.NewStore failed: %v", err)
	}
	cfgStore.SetMonitors(config.Monitor{Addr: monitorAddr}, []config.Monitor{{Addr: monitorAddr}})

	state := appstate.New(files, stats, cfgStore, metrics.New())
	return New(state, httpclient.New(), policy, time.Millisecond), state
}

func TestStart_PushesEachPickToTheMonitor(t *testing.T) {
	var calls int32
	monitor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer monitor.Close()

	s, state := newTestService(t, placement.Simple(3), monitor.URL)
	state.Files.InsertFileToDistribute("hash1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	state.RequestStop()
	cancel()
	<-done

	if atomic.LoadInt32(&calls) == 0 {
		t.Error("expected at least one distribute push to the monitor")
	}
}

func TestStart_StopsWhenStopServicesRequested(t *testing.T) {
	s, state := newTestService(t, placement.Simple(3), "http://unused.example")
	state.RequestStop()

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected Start to return nil on stop, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected Start to return promptly once stop_services is set")
	}
}
