package api

import (
	"net/http"

	"github.com/cellar-tracker/internal/service"
)

// handlePairings handles GET /api/pairings?meal=... - Recommend bottles from
// the caller's cellar for a meal category.
func (s *Server) handlePairings(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	meal := r.URL.Query().Get("meal")
	if meal == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "meal query parameter is required",
			map[string]interface{}{"categories": service.MealCategories()})
		return
	}

	recommendations, err := s.pairingService.Recommend(r.Context(), userID, meal)
	if err != nil {
		respondCategorizedError(w, err)
		return
	}
	if recommendations == nil {
		recommendations = []*service.PairingRecommendation{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"meal":            meal,
		"recommendations": recommendations,
	})
}
