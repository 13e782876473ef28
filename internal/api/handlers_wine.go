package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cellar-tracker/internal/models"
	"github.com/cellar-tracker/internal/service"
	"github.com/cellar-tracker/internal/storage"
	"github.com/cellar-tracker/internal/types"
	"github.com/gorilla/mux"
)

// handleAddWine handles POST /api/wines - Add a bottle to the cellar
func (s *Server) handleAddWine(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var input service.AddWineInput
	if err := parseJSONBody(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	wine, err := s.cellarService.AddWine(r.Context(), userID, &input)
	if err != nil {
		respondCategorizedError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, wine)
}

// handleListCellar handles GET /api/wines - List the caller's cellar
func (s *Server) handleListCellar(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	filter := &storage.WineFilter{}
	q := r.URL.Query()
	if t := q.Get("type"); t != "" {
		filter.WineType = types.WineType(t)
	}
	if q.Get("inStock") == "true" {
		filter.InStock = true
	}
	if v := q.Get("maxPrice"); v != "" {
		if maxPrice, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxPrice = &maxPrice
		}
	}
	if v := q.Get("minRating"); v != "" {
		if minRating, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinRating = &minRating
		}
	}

	wines, err := s.cellarService.ListCellar(r.Context(), userID, filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list cellar", nil)
		return
	}
	if wines == nil {
		wines = []*models.Wine{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"wines": wines,
		"count": len(wines),
	})
}

// handleGetWine handles GET /api/wines/:id
func (s *Server) handleGetWine(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	wineID := mux.Vars(r)["id"]

	wine, err := s.cellarService.GetWine(r.Context(), userID, wineID)
	if err != nil {
		if errors.Is(err, storage.ErrWineNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "Wine not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to get wine", nil)
		return
	}

	respondJSON(w, http.StatusOK, wine)
}

// handleUpdateWine handles PUT /api/wines/:id
func (s *Server) handleUpdateWine(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	wineID := mux.Vars(r)["id"]

	var input service.AddWineInput
	if err := parseJSONBody(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	wine, err := s.cellarService.UpdateWine(r.Context(), userID, wineID, &input)
	if err != nil {
		if errors.Is(err, storage.ErrWineNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "Wine not found", nil)
			return
		}
		respondCategorizedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, wine)
}

// handleDeleteWine handles DELETE /api/wines/:id
func (s *Server) handleDeleteWine(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	wineID := mux.Vars(r)["id"]

	if err := s.cellarService.DeleteWine(r.Context(), userID, wineID); err != nil {
		if errors.Is(err, storage.ErrWineNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "Wine not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to delete wine", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Wine deleted"})
}
