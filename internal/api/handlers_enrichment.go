package api

import (
	"net/http"

	"github.com/cellar-tracker/internal/service"
)

// handleBatchEnrich handles POST /api/admin/batch-enrich - Run the Vivino
// enrichment sweep. The admin check happens before any candidate query;
// a non-admin caller never touches the wines table.
func (s *Server) handleBatchEnrich(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}

	var input service.EnrichmentInput
	if err := parseJSONBody(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if input.Limit <= 0 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "limit must be a positive integer", nil)
		return
	}

	result, err := s.enrichmentService.Run(r.Context(), &input)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
