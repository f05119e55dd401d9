package rest

import (
	"net/http"
	"time"
)

// ServiceName identifies this service in health responses.
const ServiceName = "credit-risk-service"

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status             string `json:"status"`
	ModelLoaded        bool   `json:"model_loaded"`
	PreprocessorLoaded bool   `json:"preprocessor_loaded"`
}

// ProbeResponse is the JSON body of the Kubernetes probes.
type ProbeResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Uptime  string            `json:"uptime,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Health reports which artifacts are loaded. It always answers 200 so that
// operators can see a degraded process.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "healthy"}
	if a := h.assess.Artifacts(); a != nil {
		resp.ModelLoaded = a.Classifier() != nil
		resp.PreprocessorLoaded = a.Preprocessor() != nil
	}
	writeJSON(w, http.StatusOK, resp)
}

// Healthz handles liveness probe requests.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ProbeResponse{
		Status:  "healthy",
		Service: ServiceName,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readyz handles readiness probe requests. It answers 503 until artifacts
// are loaded.
func (h *Handler) Readyz(w http.ResponseWriter, _ *http.Request) {
	if !h.assess.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, ProbeResponse{
			Status:  "not ready",
			Service: ServiceName,
			Checks:  map[string]string{"artifacts": "not loaded"},
		})
		return
	}

	info := h.assess.Artifacts().Info()
	writeJSON(w, http.StatusOK, ProbeResponse{
		Status:  "ready",
		Service: ServiceName,
		Checks: map[string]string{
			"artifacts":  "ok",
			"classifier": info.ClassifierKind,
		},
	})
}
