package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cellar-tracker/internal/models"
	"github.com/cellar-tracker/internal/service"
	"github.com/cellar-tracker/internal/storage"
	"github.com/gorilla/mux"
)

// handleConsumeWine handles POST /api/wines/:id/consume - Open one bottle
func (s *Server) handleConsumeWine(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	wineID := mux.Vars(r)["id"]

	var input service.ConsumeInput
	if r.ContentLength > 0 {
		if err := parseJSONBody(r, &input); err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
			return
		}
	}

	result, err := s.consumptionService.Consume(r.Context(), userID, wineID, &input)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrWineNotFound):
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "Wine not found", nil)
		case errors.Is(err, storage.ErrNoBottlesLeft):
			respondError(w, http.StatusConflict, "NO_BOTTLES_LEFT", "No bottles of this wine remain", nil)
		default:
			respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to record consumption", nil)
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleConsumptionHistory handles GET /api/consumption
func (s *Server) handleConsumptionHistory(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	events, err := s.consumptionService.History(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to load consumption history", nil)
		return
	}
	if events == nil {
		events = []*models.ConsumptionEvent{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// handleConsumptionStats handles GET /api/consumption/stats
func (s *Server) handleConsumptionStats(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	stats, err := s.consumptionService.Stats(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to compute consumption stats", nil)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
