package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports the health of a wired dependency.
type HealthChecker func(ctx context.Context) error

// OpsServer provides HTTP endpoints for health and metrics.
type OpsServer struct {
	server *http.Server
	checks map[string]HealthChecker
}

// NewOpsServer creates the ops HTTP server.
func NewOpsServer(port int, checks map[string]HealthChecker) *OpsServer {
	mux := http.NewServeMux()
	s := &OpsServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		checks: checks,
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *OpsServer) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *OpsServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *OpsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	report := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			report[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			report[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(report)
}
