package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server provides HTTP endpoints for engine observability.
type Server struct {
	agg    *Aggregator
	recent func() any // recent detection events for /stats/detections
	server *http.Server
}

// NewServer creates a stats server. recent may be nil.
func NewServer(agg *Aggregator, recent func() any, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		agg:    agg,
		recent: recent,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats/detections", s.handleDetections)
	mux.HandleFunc("/stats/venues", s.handleVenues)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	venues := s.agg.Venues()

	status := "healthy"
	code := http.StatusOK
	if len(venues.OpenBreakers) > 0 {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":        status,
		"open_breakers": venues.OpenBreakers,
	})
}

func (s *Server) handleDetections(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"stats": s.agg.Detections(),
	}
	if s.recent != nil {
		response["recent"] = s.recent()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleVenues(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.agg.Venues())
}
