// Package httpserver implements HttpServer (C8): the node's public
// endpoints for download, lookup, upload, and health-probe.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/timokae/ma-node/internal/appstate"
	"github.com/timokae/ma-node/internal/httpclient"
	"github.com/timokae/ma-node/internal/logger"
)

// maxUploadBytes caps a single /upload request body.
const maxUploadBytes = 10 << 20

// Server wraps an *http.Server bound to the router built by newRouter.
type Server struct {
	server       *http.Server
	state        *appstate.AppState
	client       *httpclient.Client
	ipv6         bool
	shutdownOnce sync.Once
}

// New builds a Server for state, listening on 0.0.0.0:<port> (or
// [::]:<port> when ipv6 is true).
func New(state *appstate.AppState, client *httpclient.Client, ipv6 bool) *Server {
	h := &handlers{state: state, client: client}
	router := newRouter(h)

	addr := fmt.Sprintf(":%d", state.Config.Port())
	if ipv6 {
		addr = fmt.Sprintf("[::]:%d", state.Config.Port())
	}

	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		state:  state,
		client: client,
		ipv6:   ipv6,
	}
}

// Start listens and blocks until ctx is cancelled, then gracefully shuts
// down.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("httpserver: %w", err)
	}
}

// Stop gracefully shuts the server down; safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.server.Shutdown(ctx)
	})
	return err
}

func newRouter(h *handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", h.ping)
	r.Get("/download/{hash}", h.download)
	r.Get("/lookup/{hash}", h.lookup)
	r.With(middleware.RequestSize(maxUploadBytes)).Post("/upload", h.upload)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())
		logCtx := logger.WithContext(r.Context(), &logger.LogContext{RequestID: requestID})

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logCtx))

		logger.InfoCtx(logCtx, "http request completed",
			"method", r.Method, "path", r.URL.Path,
			logger.KeyStatus, ww.Status(), logger.KeyDuration, logger.Duration(start))
	})
}
