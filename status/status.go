// Package status exposes a small read-only HTTP surface over a running
// monitor: liveness, current session state, and recent change history.
package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/buttonwatch/buttonwatch/history"
)

// Snapshot is the serialized view of a monitoring session.
type Snapshot struct {
	State    string  `json:"state"`
	URL      string  `json:"url"`
	Targets  []int   `json:"targets"`
	Interval float64 `json:"interval_seconds"`
}

// Provider supplies the current session snapshot.
type Provider interface {
	Snapshot() Snapshot
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc func() Snapshot

func (f ProviderFunc) Snapshot() Snapshot { return f() }

// Server serves the status API.
type Server struct {
	provider Provider
	hist     *history.Store
	logger   *slog.Logger
	router   chi.Router
}

// Option customizes a Server.
type Option func(*Server)

// WithHistory enables the /changes endpoint.
func WithHistory(h *history.Store) Option {
	return func(s *Server) { s.hist = h }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds the status server around a session provider.
func New(p Provider, opts ...Option) *Server {
	s := &Server{
		provider: p,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Get("/changes", s.handleChanges)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe blocks serving the API until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("status: listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.provider.Snapshot()
	if snap.Targets == nil {
		snap.Targets = []int{}
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		http.Error(w, "history not enabled", http.StatusNotFound)
		return
	}

	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.hist.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("status: history query failed", "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("status: encode response", "error", err)
	}
}
