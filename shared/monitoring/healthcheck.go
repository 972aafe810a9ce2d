package monitoring

import (
	"fmt"
	"log/slog"
	"net/http"
)

// HealthServer exposes the scheduled validator's health over HTTP.
type HealthServer struct {
	monitor *Monitor
	port    string
	logger  *slog.Logger
}

func NewHealthServer(monitor *Monitor, port string, logger *slog.Logger) *HealthServer {
	if port == "" {
		port = "8080"
	}
	return &HealthServer{
		monitor: monitor,
		port:    port,
		logger:  logger,
	}
}

func (h *HealthServer) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.healthHandler)
	mux.HandleFunc("/status", h.statusHandler)

	h.logger.Info("health check server starting", "port", h.port)
	go func() {
		if err := http.ListenAndServe(":"+h.port, mux); err != nil {
			h.logger.Error("health server stopped", "error", err)
		}
	}()
}

func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK - %s", h.monitor.GetStatusSummary())
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "Service unhealthy - %s", h.monitor.GetStatusSummary())
	}
}

func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s", h.monitor.GetStatusSummary())
}
