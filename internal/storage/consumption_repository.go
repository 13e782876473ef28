package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cellar-tracker/internal/models"
	"github.com/cellar-tracker/internal/types"
	"github.com/google/uuid"
)

// ConsumptionRepository handles the append-only consumption event log in
// ClickHouse. Events denormalize the wine fields at consumption time so
// history survives later edits or deletion of the wine row.
type ConsumptionRepository struct {
	db *ClickHouseDB
}

// NewConsumptionRepository creates a new consumption repository
func NewConsumptionRepository(db *ClickHouseDB) *ConsumptionRepository {
	return &ConsumptionRepository{db: db}
}

// Insert appends one consumption event
func (r *ConsumptionRepository) Insert(ctx context.Context, event *models.ConsumptionEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.ConsumedAt.IsZero() {
		event.ConsumedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO consumption_events (
			id, user_id, wine_id, producer, wine_name, wine_type, vintage,
			rating, occasion, notes, consumed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var vintage *int32
	if event.Vintage != nil {
		v := int32(*event.Vintage) // #nosec G115 - vintages are four-digit years
		vintage = &v
	}

	err := r.db.Conn().Exec(ctx, query,
		event.ID,
		event.UserID,
		event.WineID,
		event.Producer,
		event.WineName,
		string(event.WineType),
		vintage,
		event.Rating,
		event.Occasion,
		event.Notes,
		event.ConsumedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert consumption event: %w", err)
	}
	return nil
}

// ListByUser retrieves a user's consumption history, newest first
func (r *ConsumptionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.ConsumptionEvent, error) {
	query := `
		SELECT id, user_id, wine_id, producer, wine_name, wine_type, vintage,
			rating, occasion, notes, consumed_at
		FROM consumption_events
		WHERE user_id = ?
		ORDER BY consumed_at DESC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query consumption events: %w", err)
	}
	defer rows.Close()

	var events []*models.ConsumptionEvent
	for rows.Next() {
		var event models.ConsumptionEvent
		var wineType string
		var vintage *int32
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.WineID,
			&event.Producer,
			&event.WineName,
			&wineType,
			&vintage,
			&event.Rating,
			&event.Occasion,
			&event.Notes,
			&event.ConsumedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan consumption event: %w", err)
		}
		event.WineType = types.WineType(wineType)
		if vintage != nil {
			v := int(*vintage)
			event.Vintage = &v
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read consumption events: %w", err)
	}
	return events, nil
}

// Stats aggregates a user's drinking history: totals, per-type counts,
// monthly counts and average rating of consumed bottles.
func (r *ConsumptionRepository) Stats(ctx context.Context, userID string) (*models.ConsumptionStats, error) {
	stats := &models.ConsumptionStats{
		ByType: make(map[types.WineType]int),
	}

	// Per-type counts; the overall total falls out of the same scan.
	typeRows, err := r.db.Conn().Query(ctx, `
		SELECT wine_type, toInt32(count()) AS bottles
		FROM consumption_events
		WHERE user_id = ?
		GROUP BY wine_type
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query consumption stats by type: %w", err)
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var wineType string
		var bottles int32
		if err := typeRows.Scan(&wineType, &bottles); err != nil {
			return nil, fmt.Errorf("failed to scan type stats: %w", err)
		}
		stats.ByType[types.WineType(wineType)] = int(bottles)
		stats.TotalBottles += int(bottles)
	}
	if err := typeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read type stats: %w", err)
	}

	monthRows, err := r.db.Conn().Query(ctx, `
		SELECT formatDateTime(consumed_at, '%Y-%m') AS month, toInt32(count()) AS bottles
		FROM consumption_events
		WHERE user_id = ?
		GROUP BY month
		ORDER BY month
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly consumption stats: %w", err)
	}
	defer monthRows.Close()

	for monthRows.Next() {
		var m models.MonthlyConsumption
		var bottles int32
		if err := monthRows.Scan(&m.Month, &bottles); err != nil {
			return nil, fmt.Errorf("failed to scan monthly stats: %w", err)
		}
		m.Bottles = int(bottles)
		stats.ByMonth = append(stats.ByMonth, m)
	}
	if err := monthRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read monthly stats: %w", err)
	}

	var avgRating *float64
	err = r.db.Conn().QueryRow(ctx, `
		SELECT avg(rating)
		FROM consumption_events
		WHERE user_id = ? AND rating IS NOT NULL
	`, userID).Scan(&avgRating)
	if err == nil {
		stats.AverageRating = avgRating
	}

	return stats, nil
}
