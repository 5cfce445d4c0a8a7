package analytics

import (
	"encoding/json"
	"net/http"

	"github.com/ShivaAryal/constitution-search/pkg/logger"
)

// Handler serves the aggregated search stats.
type Handler struct {
	aggregator *Aggregator
}

// NewHandler creates a Handler over the given aggregator.
func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{aggregator: aggregator}
}

// Stats handles GET /api/v1/analytics with the current aggregate snapshot.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	snapshot := h.aggregator.Stats()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		logger.FromContext(r.Context()).Error("failed to write analytics response", "error", err)
	}
}
