package api

import (
	"errors"
	"net/http"

	"github.com/cellar-tracker/internal/models"
	"github.com/cellar-tracker/internal/storage"
	"github.com/gorilla/mux"
)

// handleCreateShareLink handles POST /api/share - Create a read-only cellar link
func (s *Server) handleCreateShareLink(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	link, err := s.shareService.CreateLink(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to create share link", nil)
		return
	}

	respondJSON(w, http.StatusCreated, link)
}

// handleListShareLinks handles GET /api/share
func (s *Server) handleListShareLinks(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	links, err := s.shareService.ListLinks(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list share links", nil)
		return
	}
	if links == nil {
		links = []*models.ShareLink{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"links": links})
}

// handleRevokeShareLink handles DELETE /api/share/:token
func (s *Server) handleRevokeShareLink(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	token := mux.Vars(r)["token"]

	if err := s.shareService.RevokeLink(r.Context(), token, userID); err != nil {
		if errors.Is(err, storage.ErrShareLinkNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "Share link not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to revoke share link", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Share link revoked"})
}

// handleGetSharedCellar handles GET /api/shared/:token - Public read-only
// cellar view. No authentication; the token is the capability.
func (s *Server) handleGetSharedCellar(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	view, err := s.shareService.GetSharedView(r.Context(), token)
	if err != nil {
		if errors.Is(err, storage.ErrShareLinkNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "Shared cellar not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to load shared cellar", nil)
		return
	}

	respondJSON(w, http.StatusOK, view)
}
