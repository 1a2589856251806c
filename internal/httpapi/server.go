// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httpapi exposes the research loop over HTTP: a static frontend, a
// health endpoint, and a WebSocket that streams progress events while a
// research run is in flight.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/agent"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Researcher runs one research loop, streaming progress into the sink.
type Researcher interface {
	Research(ctx context.Context, query string, sink agent.EventSink) (*types.ResearchReport, error)
}

// Server serves the research API.
type Server struct {
	researcher Researcher
	cfg        types.ServerConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewServer builds a Server. MaxQueryLength defaults to 500 and ReportsDir
// to "reports" when unset.
func NewServer(researcher Researcher, cfg types.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxQueryLength <= 0 {
		cfg.MaxQueryLength = 500
	}
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = "reports"
	}
	return &Server{
		researcher: researcher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/ws/research", s.handleResearch)
	if s.cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
		mux.HandleFunc("/research", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(s.cfg.StaticDir, "index.html"))
		})
	}
	return mux
}

// ListenAndServe blocks until the context is cancelled, then drains open
// connections for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
