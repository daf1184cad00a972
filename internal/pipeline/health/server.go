package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server provides HTTP endpoints for health monitoring and, when an API is
// given, the recipe endpoints.
type Server struct {
	monitor *Monitor
	api     *API
	server  *http.Server
}

// NewServer creates a new HTTP server. api may be nil.
func NewServer(monitor *Monitor, api *API, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor: monitor,
		api:     api,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())

	if api != nil {
		api.register(mux)
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())

	response := map[string]string{"status": string(report.SystemStatus)}
	w.Header().Set("Content-Type", "application/json")

	if report.SystemStatus == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
