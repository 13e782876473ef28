package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cellar-tracker/internal/models"
	"github.com/cellar-tracker/internal/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrWineNotFound is returned when a wine id does not exist or is not visible
// to the caller.
var ErrWineNotFound = errors.New("wine not found")

// ErrNoBottlesLeft is returned when consuming from a wine with zero quantity.
var ErrNoBottlesLeft = errors.New("no bottles left")

// wineColumns is the canonical SELECT column list for wine rows
const wineColumns = `id, user_id, producer, wine_name, vintage, wine_type,
	vivino_url, rating, region, grapes, price, alcohol_content, quantity, notes,
	created_at, updated_at`

// WineRepository handles wine data persistence
type WineRepository struct {
	db *PostgresDB
}

// NewWineRepository creates a new wine repository
func NewWineRepository(db *PostgresDB) *WineRepository {
	return &WineRepository{db: db}
}

// Create inserts a new wine record
func (r *WineRepository) Create(ctx context.Context, wine *models.Wine) error {
	if wine.ID == "" {
		wine.ID = uuid.NewString()
	}
	if wine.Quantity <= 0 {
		wine.Quantity = 1
	}

	query := `
		INSERT INTO wines (
			id, user_id, producer, wine_name, vintage, wine_type,
			vivino_url, rating, region, grapes, price, alcohol_content, quantity, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool().QueryRow(ctx, query,
		wine.ID,
		wine.UserID,
		wine.Producer,
		wine.WineName,
		wine.Vintage,
		wine.WineType,
		wine.VivinoURL,
		wine.Rating,
		wine.Region,
		wine.Grapes,
		wine.Price,
		wine.AlcoholContent,
		wine.Quantity,
		wine.Notes,
	).Scan(&wine.CreatedAt, &wine.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create wine: %w", err)
	}
	return nil
}

// GetByID retrieves a wine by id, scoped to its owner
func (r *WineRepository) GetByID(ctx context.Context, id, userID string) (*models.Wine, error) {
	query := `SELECT ` + wineColumns + ` FROM wines WHERE id = $1 AND user_id = $2`

	wine, err := scanWine(r.db.Pool().QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWineNotFound
		}
		return nil, fmt.Errorf("failed to get wine: %w", err)
	}
	return wine, nil
}

// WineFilter narrows a cellar listing
type WineFilter struct {
	WineType  types.WineType
	InStock   bool
	MaxPrice  *float64
	MinRating *float64
}

// ListByUser retrieves all wines owned by a user, newest first
func (r *WineRepository) ListByUser(ctx context.Context, userID string, filter *WineFilter) ([]*models.Wine, error) {
	query := `SELECT ` + wineColumns + ` FROM wines WHERE user_id = $1`
	args := []interface{}{userID}

	if filter != nil {
		if filter.WineType != "" {
			args = append(args, filter.WineType)
			query += fmt.Sprintf(" AND wine_type = $%d", len(args))
		}
		if filter.InStock {
			query += " AND quantity > 0"
		}
		if filter.MaxPrice != nil {
			args = append(args, *filter.MaxPrice)
			query += fmt.Sprintf(" AND price <= $%d", len(args))
		}
		if filter.MinRating != nil {
			args = append(args, *filter.MinRating)
			query += fmt.Sprintf(" AND rating >= $%d", len(args))
		}
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list wines: %w", err)
	}
	defer rows.Close()

	return collectWines(rows)
}

// Update replaces the mutable fields of a wine, scoped to its owner
func (r *WineRepository) Update(ctx context.Context, wine *models.Wine) error {
	query := `
		UPDATE wines
		SET producer = $3, wine_name = $4, vintage = $5, wine_type = $6,
			vivino_url = $7, rating = $8, region = $9, grapes = $10,
			price = $11, alcohol_content = $12, quantity = $13, notes = $14,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		wine.ID,
		wine.UserID,
		wine.Producer,
		wine.WineName,
		wine.Vintage,
		wine.WineType,
		wine.VivinoURL,
		wine.Rating,
		wine.Region,
		wine.Grapes,
		wine.Price,
		wine.AlcoholContent,
		wine.Quantity,
		wine.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update wine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWineNotFound
	}
	return nil
}

// Delete removes a wine, scoped to its owner
func (r *WineRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM wines WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete wine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWineNotFound
	}
	return nil
}

// DecrementQuantity removes one bottle from a wine. Fails with ErrNoBottlesLeft
// when the quantity is already zero.
func (r *WineRepository) DecrementQuantity(ctx context.Context, id, userID string) (*models.Wine, error) {
	query := `
		UPDATE wines
		SET quantity = quantity - 1, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND quantity > 0
		RETURNING ` + wineColumns

	wine, err := scanWine(r.db.Pool().QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the wine does not exist or it has no bottles; look it up
			// to report the right condition.
			if _, getErr := r.GetByID(ctx, id, userID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrNoBottlesLeft
		}
		return nil, fmt.Errorf("failed to decrement quantity: %w", err)
	}
	return wine, nil
}

// enrichmentCandidatePredicate selects wines with a Vivino URL and at least
// one enrichable field still missing.
const enrichmentCandidatePredicate = `
	vivino_url IS NOT NULL
	AND (rating IS NULL OR region IS NULL OR grapes IS NULL OR cardinality(grapes) = 0)`

// ListEnrichmentCandidates returns up to limit wines eligible for enrichment,
// in stable id order. The result is a point-in-time snapshot; the sweep never
// re-queries mid-run.
func (r *WineRepository) ListEnrichmentCandidates(ctx context.Context, limit int) ([]*models.Wine, error) {
	query := `SELECT ` + wineColumns + ` FROM wines WHERE ` + enrichmentCandidatePredicate + `
		ORDER BY id
		LIMIT $1`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrichment candidates: %w", err)
	}
	defer rows.Close()

	return collectWines(rows)
}

// CountEnrichmentCandidates returns the total number of enrichable wines
func (r *WineRepository) CountEnrichmentCandidates(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM wines WHERE `+enrichmentCandidatePredicate).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count enrichment candidates: %w", err)
	}
	return count, nil
}

// ApplyEnrichmentPatch applies a sparse patch to a wine. Enrichment is
// additive-only: the statement itself refuses to overwrite fields that
// already hold a value, as a second line of defense behind the patch
// computation.
func (r *WineRepository) ApplyEnrichmentPatch(ctx context.Context, wineID string, patch *models.WinePatch) error {
	query := `
		UPDATE wines
		SET rating = COALESCE(rating, $2),
			region = COALESCE(NULLIF(region, ''), $3),
			grapes = CASE
				WHEN grapes IS NULL OR cardinality(grapes) = 0 THEN COALESCE($4, grapes)
				ELSE grapes
			END,
			updated_at = NOW()
		WHERE id = $1
	`

	var grapes []string
	if len(patch.Grapes) > 0 {
		grapes = patch.Grapes
	}

	tag, err := r.db.Pool().Exec(ctx, query, wineID, patch.Rating, patch.Region, grapes)
	if err != nil {
		return fmt.Errorf("failed to apply enrichment patch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWineNotFound
	}
	return nil
}

// scanWine scans a single wine row
func scanWine(row pgx.Row) (*models.Wine, error) {
	var wine models.Wine
	err := row.Scan(
		&wine.ID,
		&wine.UserID,
		&wine.Producer,
		&wine.WineName,
		&wine.Vintage,
		&wine.WineType,
		&wine.VivinoURL,
		&wine.Rating,
		&wine.Region,
		&wine.Grapes,
		&wine.Price,
		&wine.AlcoholContent,
		&wine.Quantity,
		&wine.Notes,
		&wine.CreatedAt,
		&wine.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wine, nil
}

// collectWines scans all rows into a slice
func collectWines(rows pgx.Rows) ([]*models.Wine, error) {
	var wines []*models.Wine
	for rows.Next() {
		wine, err := scanWine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wine row: %w", err)
		}
		wines = append(wines, wine)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wine rows: %w", err)
	}
	return wines, nil
}
