package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cellar-tracker/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrShareLinkNotFound is returned when a share token does not exist
var ErrShareLinkNotFound = errors.New("share link not found")

// ShareLinkRepository handles share link persistence
type ShareLinkRepository struct {
	db *PostgresDB
}

// NewShareLinkRepository creates a new share link repository
func NewShareLinkRepository(db *PostgresDB) *ShareLinkRepository {
	return &ShareLinkRepository{db: db}
}

// Create creates a new share link for a user
func (r *ShareLinkRepository) Create(ctx context.Context, userID string) (*models.ShareLink, error) {
	link := &models.ShareLink{
		Token:  uuid.NewString(),
		UserID: userID,
	}

	err := r.db.Pool().QueryRow(ctx,
		`INSERT INTO share_links (token, user_id) VALUES ($1, $2) RETURNING created_at`,
		link.Token, link.UserID).Scan(&link.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create share link: %w", err)
	}
	return link, nil
}

// GetByToken retrieves a share link by token
func (r *ShareLinkRepository) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.Pool().QueryRow(ctx,
		`SELECT token, user_id, created_at, revoked_at FROM share_links WHERE token = $1`,
		token).Scan(&link.Token, &link.UserID, &link.CreatedAt, &link.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShareLinkNotFound
		}
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}
	return &link, nil
}

// ListByUser retrieves all share links created by a user
func (r *ShareLinkRepository) ListByUser(ctx context.Context, userID string) ([]*models.ShareLink, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT token, user_id, created_at, revoked_at FROM share_links
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list share links: %w", err)
	}
	defer rows.Close()

	var links []*models.ShareLink
	for rows.Next() {
		var link models.ShareLink
		if err := rows.Scan(&link.Token, &link.UserID, &link.CreatedAt, &link.RevokedAt); err != nil {
			return nil, fmt.Errorf("failed to scan share link: %w", err)
		}
		links = append(links, &link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read share links: %w", err)
	}
	return links, nil
}

// Revoke marks a share link as revoked, scoped to its owner. Revocation is
// idempotent: revoking an already-revoked link keeps the original timestamp.
func (r *ShareLinkRepository) Revoke(ctx context.Context, token, userID string) error {
	tag, err := r.db.Pool().Exec(ctx,
		`UPDATE share_links SET revoked_at = COALESCE(revoked_at, NOW())
		 WHERE token = $1 AND user_id = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke share link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrShareLinkNotFound
	}
	return nil
}
