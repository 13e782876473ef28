package service

import (
	"context"

	"github.com/cellar-tracker/internal/logging"
	"github.com/cellar-tracker/internal/models"
	"github.com/cellar-tracker/internal/storage"
)

// ConsumptionService tracks bottles opened from a cellar. The wine row in
// Postgres is the source of truth for remaining quantity; the ClickHouse
// event log carries the denormalized drinking history.
type ConsumptionService struct {
	wineRepo        *storage.WineRepository
	consumptionRepo *storage.ConsumptionRepository
}

// NewConsumptionService creates a new consumption service
func NewConsumptionService(wineRepo *storage.WineRepository, consumptionRepo *storage.ConsumptionRepository) *ConsumptionService {
	return &ConsumptionService{
		wineRepo:        wineRepo,
		consumptionRepo: consumptionRepo,
	}
}

// ConsumeInput carries the optional context for a consumption event
type ConsumeInput struct {
	Occasion *string  `json:"occasion,omitempty"`
	Notes    *string  `json:"notes,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
}

// ConsumeResult reports the event and the wine's remaining quantity
type ConsumeResult struct {
	Event             *models.ConsumptionEvent `json:"event"`
	RemainingQuantity int                      `json:"remainingQuantity"`
}

// Consume opens one bottle: decrements the cellar quantity and appends an
// event to the history log. The decrement is the gatekeeper; if the event
// append fails afterwards the bottle still counts as consumed and only the
// history entry is lost.
func (s *ConsumptionService) Consume(ctx context.Context, userID, wineID string, input *ConsumeInput) (*ConsumeResult, error) {
	wine, err := s.wineRepo.DecrementQuantity(ctx, wineID, userID)
	if err != nil {
		return nil, err
	}

	rating := wine.Rating
	if input != nil && input.Rating != nil {
		rating = input.Rating
	}

	event := &models.ConsumptionEvent{
		UserID:   userID,
		WineID:   wine.ID,
		Producer: wine.Producer,
		WineName: wine.WineName,
		WineType: wine.WineType,
		Vintage:  wine.Vintage,
		Rating:   rating,
	}
	if input != nil {
		event.Occasion = input.Occasion
		event.Notes = input.Notes
	}

	if err := s.consumptionRepo.Insert(ctx, event); err != nil {
		logging.FromContext(ctx).WithError(err).
			WithField("wineId", wine.ID).
			Error("Failed to record consumption event")
	}

	return &ConsumeResult{
		Event:             event,
		RemainingQuantity: wine.Quantity,
	}, nil
}

// History returns a user's consumption history, newest first
func (s *ConsumptionService) History(ctx context.Context, userID string, limit int) ([]*models.ConsumptionEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.consumptionRepo.ListByUser(ctx, userID, limit)
}

// Stats returns aggregate drinking statistics for a user
func (s *ConsumptionService) Stats(ctx context.Context, userID string) (*models.ConsumptionStats, error) {
	return s.consumptionRepo.Stats(ctx, userID)
}
