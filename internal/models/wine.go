// Package models provides data models for the cellar tracker system.
package models

import (
	"time"

	"github.com/cellar-tracker/internal/types"
)

// Wine represents a bottle (or set of identical bottles) in a user's cellar
type Wine struct {
	ID             string         `json:"id" db:"id"`
	UserID         string         `json:"userId" db:"user_id"`
	Producer       string         `json:"producer" db:"producer"`
	WineName       string         `json:"wineName" db:"wine_name"`
	Vintage        *int           `json:"vintage,omitempty" db:"vintage"`
	WineType       types.WineType `json:"wineType,omitempty" db:"wine_type"`
	VivinoURL      *string        `json:"vivinoUrl,omitempty" db:"vivino_url"`
	Rating         *float64       `json:"rating,omitempty" db:"rating"`
	Region         *string        `json:"region,omitempty" db:"region"`
	Grapes         []string       `json:"grapes,omitempty" db:"grapes"`
	Price          *float64       `json:"price,omitempty" db:"price"`
	AlcoholContent *float64       `json:"alcoholContent,omitempty" db:"alcohol_content"`
	Quantity       int            `json:"quantity" db:"quantity"`
	Notes          *string        `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}

// HasRating reports whether the wine already carries a rating
func (w *Wine) HasRating() bool {
	return w.Rating != nil
}

// HasRegion reports whether the wine already carries a region
func (w *Wine) HasRegion() bool {
	return w.Region != nil && *w.Region != ""
}

// HasGrapes reports whether the wine already carries grape varieties
func (w *Wine) HasGrapes() bool {
	return len(w.Grapes) > 0
}

// WinePatch is a sparse update applied to a wine during enrichment.
// Nil fields are left untouched by the update.
type WinePatch struct {
	Rating *float64 `json:"rating,omitempty"`
	Region *string  `json:"region,omitempty"`
	Grapes []string `json:"grapes,omitempty"`
}

// IsEmpty reports whether the patch carries no changes
func (p *WinePatch) IsEmpty() bool {
	return p.Rating == nil && p.Region == nil && len(p.Grapes) == 0
}
