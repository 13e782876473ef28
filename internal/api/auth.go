package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/cellar-tracker/internal/errors"
	"github.com/cellar-tracker/internal/storage"
)

// SessionResolver resolves bearer tokens to user ids
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// AdminChecker answers whether a user holds the admin role
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type userIDKey struct{}

// bearerToken extracts the bearer token from the Authorization header
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return "", false
	}
	return token, true
}

// userIDFromContext returns the authenticated user id set by AuthMiddleware
func userIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

// AuthMiddleware validates the bearer token and attaches the user id to the
// request context. Requests without a valid token are rejected with 401.
func AuthMiddleware(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Missing bearer token", nil)
				return
			}

			userID, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, storage.ErrSessionNotFound) {
					respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid or expired token", nil)
					return
				}
				respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to validate token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAdmin re-checks the caller's admin role server-side. It reports
// false and writes the response itself unless the caller is verifiably an
// admin. A failed lookup is a 500, not a 403: "cannot verify" must stay
// distinguishable from "verified, not admin".
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := userIDFromContext(r.Context())
	if userID == "" {
		respondCategorizedError(w, apperrors.NewUnauthorizedError("Authentication required"))
		return "", false
	}

	isAdmin, err := s.adminChecker.IsAdmin(r.Context(), userID)
	if err != nil {
		respondCategorizedError(w, apperrors.NewAdminCheckError(err))
		return "", false
	}
	if !isAdmin {
		respondCategorizedError(w, apperrors.NewForbiddenError("Admin access required"))
		return "", false
	}

	return userID, true
}
