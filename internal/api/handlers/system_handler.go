package handlers

import (
	"net/http"

	"github.com/lmoren/listly-be/internal/models"
)

// StatsProvider exposes the latest host stats snapshot.
type StatsProvider interface {
	Latest() models.HostStats
}

// SystemHandler serves host-level information about the backend.
type SystemHandler struct {
	stats StatsProvider
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(stats StatsProvider) *SystemHandler {
	return &SystemHandler{stats: stats}
}

// GetStats returns the most recent host stats sample.
func (h *SystemHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.stats.Latest())
}
