// Package metrics exposes node-internal Prometheus gauges and counters on a
// listener separate from the public HTTP server.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/timokae/ma-node/internal/logger"
)

// Collector holds every metric the node's loops and HTTP server report to.
type Collector struct {
	registry *prometheus.Registry

	inventorySize  prometheus.Gauge
	capacityLeft   prometheus.Gauge
	queueDepth     *prometheus.GaugeVec
	pingsTotal     *prometheus.CounterVec
	recoversTotal  *prometheus.CounterVec
	distributes    *prometheus.CounterVec
	uploadBytes    prometheus.Counter
	downloadBytes  prometheus.Counter
}

// New builds a Collector registered against a fresh, private registry (not
// the global default), so a test can spin up more than one without
// colliding.
func New() *Collector {
	reg := prometheus.NewRegistry()

	return &Collector{
		registry: reg,
		inventorySize: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "manode_inventory_size",
			Help: "Number of hashes currently held in the inventory.",
		}),
		capacityLeft: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "manode_capacity_left_bytes",
			Help: "Bytes of declared quota remaining.",
		}),
		queueDepth: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "manode_queue_depth",
			Help: "Depth of the to-recover and to-distribute queues.",
		}, []string{"queue"}),
		pingsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "manode_pings_total",
			Help: "Ping attempts by outcome.",
		}, []string{"status"}),
		recoversTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "manode_recovers_total",
			Help: "Recover attempts by outcome.",
		}, []string{"status"}),
		distributes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "manode_distributes_total",
			Help: "Distribute pushes by outcome.",
		}, []string{"status"}),
		uploadBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "manode_upload_bytes_total",
			Help: "Total bytes accepted via /upload.",
		}),
		downloadBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "manode_download_bytes_total",
			Help: "Total bytes served via /download.",
		}),
	}
}

// SetInventory reports the current inventory size and capacity left.
func (c *Collector) SetInventory(size int, capacityLeft uint64) {
	c.inventorySize.Set(float64(size))
	c.capacityLeft.Set(float64(capacityLeft))
}

// SetQueueDepth reports the current depth of a named queue.
func (c *Collector) SetQueueDepth(queue string, depth int) {
	c.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// ObservePing records a ping attempt's outcome ("success" or "error").
func (c *Collector) ObservePing(status string) { c.pingsTotal.WithLabelValues(status).Inc() }

// ObserveRecover records a recover attempt's outcome.
func (c *Collector) ObserveRecover(status string) { c.recoversTotal.WithLabelValues(status).Inc() }

// ObserveDistribute records a distribute push's outcome.
func (c *Collector) ObserveDistribute(status string) { c.distributes.WithLabelValues(status).Inc() }

// RecordUpload adds n bytes to the upload counter.
func (c *Collector) RecordUpload(n int) { c.uploadBytes.Add(float64(n)) }

// RecordDownload adds n bytes to the download counter.
func (c *Collector) RecordDownload(n int) { c.downloadBytes.Add(float64(n)) }

// Server serves the Collector's registry on its own listener, separate from
// the public HTTP server.
type Server struct {
	server *http.Server
}

// NewServer builds a metrics Server bound to port, scraping c's registry.
func NewServer(port int, c *Collector) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	return &Server{server: &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}}
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.server.Shutdown(context.Background())
	case err := <-errCh:
		return fmt.Errorf("metrics: %w", err)
	}
}
