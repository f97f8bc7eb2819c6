// Package server provides the HTTP server for the Rekha lane tracking system.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/rekha/internal/app"
	"github.com/ayusman/rekha/internal/server/api"
	"github.com/ayusman/rekha/internal/store"
)

// Telemetry is the slice of the pipeline the streaming handlers read from.
// *app.App satisfies it.
type Telemetry interface {
	LatestSample() (app.Sample, bool)
	LatestFrameJPEG() []byte
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Pipeline  Telemetry
}

// Server represents the HTTP server for the Rekha application.
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
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register the runs API if Store is configured
	if s.config.Store != nil {
		runHandler := api.NewRunHandler(s.config.Store)
		framesHandler := api.NewFramesHandler(s.config.Store)
		eventsHandler := api.NewEventsHandler(s.config.Store)
		chartHandler := api.NewChartHandler(s.config.Store)

		// Use a wrapper to route run subresources to their handlers
		runRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasSuffix(r.URL.Path, "/frames"):
				framesHandler.ServeHTTP(w, r)
			case strings.HasSuffix(r.URL.Path, "/events"):
				eventsHandler.ServeHTTP(w, r)
			case strings.HasSuffix(r.URL.Path, "/chart"):
				chartHandler.ServeHTTP(w, r)
			default:
				runHandler.ServeHTTP(w, r)
			}
		})

		s.mux.Handle("/api/runs", runRouter)
		s.mux.Handle("/api/runs/", runRouter)
	}

	// Register live endpoints if the pipeline is configured
	if s.config.Pipeline != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Pipeline))
		s.mux.Handle("/api/telemetry", NewTelemetryHandler(s.config.Pipeline))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
