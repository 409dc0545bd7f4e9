package handlers

import (
	"net/http"
	"runtime"
	"time"

	"transcode-service/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDraining = "draining"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status      string         `json:"status"`
	Ready       bool           `json:"ready"`
	Version     string         `json:"version"`
	Uptime      string         `json:"uptime"`
	Pipeline    string         `json:"pipeline"`
	QueueDepths map[string]int `json:"queueDepths"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	ready := h.pipeline.Running()

	response := HealthResponse{
		Ready:        ready,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Pipeline:     h.pipeline.State(),
		QueueDepths:  h.pipeline.QueueDepths(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if ready {
		response.Status = statusHealthy
	} else {
		response.Status = statusDraining
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSONStatus(w, "alive")
	}
}

// ReadinessCheck returns 200 only while the pipeline accepts new requests
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.pipeline.Running() {
		writeJSONStatus(w, "ready")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	writeJSON(w, map[string]string{"status": "not_ready"})
}
