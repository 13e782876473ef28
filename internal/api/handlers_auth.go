package api

import (
	"errors"
	"net/http"

	"github.com/cellar-tracker/internal/storage"
)

// handleLogin handles POST /api/auth/login - Issue a bearer token for an account
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Email is required", nil)
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Unknown account", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to look up account", nil)
		return
	}

	token, err := s.sessions.Create(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to create session", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// handleLogout handles POST /api/auth/logout - Revoke the caller's token
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Missing bearer token", nil)
		return
	}

	if err := s.sessions.Revoke(r.Context(), token); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to revoke session", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
