// Package server provides the status and telemetry HTTP surface for the
// mudra perception daemon.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Status is a point-in-time snapshot of the perception loop.
type Status struct {
	State      string  `json:"state"`
	Backend    string  `json:"backend"`
	Frames     int64   `json:"frames"`
	Misses     int64   `json:"misses"`
	Detections int64   `json:"detections"`
	Actions    int64   `json:"actions"`
	FPS        float64 `json:"fps"`
}

// Config holds the server configuration.
type Config struct {
	// Store enables the /api/runs and /api/events journal endpoints.
	Store *store.Store

	// Status supplies the loop snapshot behind /api/status.
	Status func() Status

	// Events is the WebSocket hub mounted at /ws.
	Events *Hub
}

// Server represents the HTTP surface of the mudra daemon.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())

	if s.config.Status != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
	}

	if s.config.Store != nil {
		runsHandler := api.NewRunsHandler(s.config.Store)
		s.mux.Handle("/api/runs", runsHandler)
		s.mux.Handle("/api/runs/", runsHandler)

		eventsHandler := api.NewEventsHandler(s.config.Store)
		s.mux.Handle("/api/events", eventsHandler)
	}

	if s.config.Events != nil {
		s.mux.Handle("/ws", s.config.Events)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleStatus handles GET requests to /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.config.Status()); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves HTTP on addr until the context is cancelled, then shuts the
// listener down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
