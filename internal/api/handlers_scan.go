package api

import (
	"net/http"
)

// handleScanLabel handles POST /api/wines/scan - Parse a label photo into
// wine field suggestions. Nothing is persisted; the client confirms the
// extraction and creates the wine separately.
func (s *Server) handleScanLabel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"image"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	result, err := s.scanService.ScanLabel(r.Context(), req.Image)
	if err != nil {
		respondCategorizedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
