package models

import (
	"time"

	"github.com/cellar-tracker/internal/types"
)

// ConsumptionEvent represents one bottle opened from a cellar. Events are
// append-only; corrections are handled by appending compensating events,
// never by mutating history.
type ConsumptionEvent struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	WineID     string         `json:"wineId"`
	Producer   string         `json:"producer"`
	WineName   string         `json:"wineName"`
	WineType   types.WineType `json:"wineType,omitempty"`
	Vintage    *int           `json:"vintage,omitempty"`
	Rating     *float64       `json:"rating,omitempty"`
	Occasion   *string        `json:"occasion,omitempty"`
	Notes      *string        `json:"notes,omitempty"`
	ConsumedAt time.Time      `json:"consumedAt"`
}

// ConsumptionStats aggregates drinking history for a user
type ConsumptionStats struct {
	TotalBottles  int                      `json:"totalBottles"`
	ByType        map[types.WineType]int   `json:"byType"`
	ByMonth       []MonthlyConsumption     `json:"byMonth"`
	AverageRating *float64                 `json:"averageRating,omitempty"`
}

// MonthlyConsumption is one month's bottle count
type MonthlyConsumption struct {
	Month   string `json:"month"` // YYYY-MM
	Bottles int    `json:"bottles"`
}
