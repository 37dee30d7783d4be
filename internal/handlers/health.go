package handlers

import (
	"net/http"
	"time"

	"musiccrs/internal/startup"
)

type healthResponse struct {
	Status  string `json:"status"`
	Catalog string `json:"catalog"`
	Tracks  int    `json:"tracks,omitempty"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// Health reports overall service health, including a catalog probe.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Catalog: "ok",
		Version: startup.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		resp.Status = "degraded"
		resp.Catalog = "error"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Tracks = stats.TotalTracks

	writeJSON(w, http.StatusOK, resp)
}

// Healthz is the liveness probe: the process is up.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz is the readiness probe: the catalog must answer.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.catalog.Stats(r.Context()); err != nil {
		http.Error(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Version reports build information.
func (h *Handlers) Version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}
