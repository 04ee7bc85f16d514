package handlers

import (
	"context"
	"net/http"

	"review-reconciler/core/models"
)

// SnapshotLoader performs a single passive load of the reports
type SnapshotLoader interface {
	LoadOnce(ctx context.Context, baseLocation string) models.Result
}

// SnapshotHandler serves the latest merged reports
type SnapshotHandler struct {
	loader   SnapshotLoader
	location string
}

// NewSnapshotHandler creates a new snapshot handler reading from location
func NewSnapshotHandler(loader SnapshotLoader, location string) *SnapshotHandler {
	return &SnapshotHandler{loader: loader, location: location}
}

// GetLatest handles GET /v1/snapshot/latest
func (h *SnapshotHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if h.location == "" {
		writeError(w, http.StatusServiceUnavailable, "No reports location configured")
		return
	}

	result := h.loader.LoadOnce(r.Context(), h.location)
	if !result.Complete() {
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"status":  "processing",
			"message": "Reports are not available yet.",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "complete",
		"snapshot": result.Snapshot.View(),
	})
}
