// Package health provides the liveness and readiness HTTP endpoints.
//
// Docker and Kubernetes use these to monitor the daemon. /healthz answers
// 200 whenever the process is serving; /readyz answers 200 once every
// transport has started and reports which engine capabilities the daemon
// negotiated at startup.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nadzzz/polyglot/internal/engine"
)

// Server is a lightweight HTTP server that exposes /healthz and /readyz.
type Server struct {
	port  int
	ready atomic.Bool

	mu      sync.RWMutex
	backend string
	caps    engine.Set

	server *http.Server
}

type readiness struct {
	Status       string          `json:"status"`
	Engine       string          `json:"engine,omitempty"`
	Capabilities map[string]bool `json:"capabilities"`
}

// New creates a new health check server.
func New(port int) *Server {
	return &Server{port: port}
}

// SetReady marks the daemon as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// SetEngine records the engine backend and its negotiated capabilities.
func (s *Server) SetEngine(backend string, caps engine.Set) {
	s.mu.Lock()
	s.backend = backend
	s.caps = caps
	s.mu.Unlock()
}

// Handler returns the health routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		body := readiness{Status: "ok", Engine: s.backend, Capabilities: s.caps.Map()}
		s.mu.RUnlock()

		if !s.ready.Load() {
			body.Status = "not_ready"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		writeJSON(w, http.StatusOK, body)
	})

	return mux
}

// ListenAndServe starts the health check HTTP server.
// It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("health server listening", "port", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
