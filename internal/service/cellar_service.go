package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cellar-tracker/internal/errors"
	"github.com/cellar-tracker/internal/logging"
	"github.com/cellar-tracker/internal/models"
	"github.com/cellar-tracker/internal/storage"
	"github.com/cellar-tracker/internal/types"
)

// CellarService handles cellar bottle management
type CellarService struct {
	wineRepo *storage.WineRepository
	cache    *storage.CacheService
}

// NewCellarService creates a new cellar service
func NewCellarService(wineRepo *storage.WineRepository, cache *storage.CacheService) *CellarService {
	return &CellarService{
		wineRepo: wineRepo,
		cache:    cache,
	}
}

// AddWineInput represents input for adding a wine to the cellar
type AddWineInput struct {
	Producer       string         `json:"producer"`
	WineName       string         `json:"wineName"`
	Vintage        *int           `json:"vintage,omitempty"`
	WineType       types.WineType `json:"wineType,omitempty"`
	VivinoURL      *string        `json:"vivinoUrl,omitempty"`
	Rating         *float64       `json:"rating,omitempty"`
	Region         *string        `json:"region,omitempty"`
	Grapes         []string       `json:"grapes,omitempty"`
	Price          *float64       `json:"price,omitempty"`
	AlcoholContent *float64       `json:"alcoholContent,omitempty"`
	Quantity       int            `json:"quantity"`
	Notes          *string        `json:"notes,omitempty"`
}

func (in *AddWineInput) validate() error {
	if strings.TrimSpace(in.Producer) == "" {
		return errors.NewInvalidParameterError("producer", "must not be empty")
	}
	if strings.TrimSpace(in.WineName) == "" {
		return errors.NewInvalidParameterError("wineName", "must not be empty")
	}
	if in.WineType != "" && !validWineType(in.WineType) {
		return errors.NewInvalidParameterError("wineType", fmt.Sprintf("unknown wine type %q", in.WineType))
	}
	if in.Rating != nil && (*in.Rating < 0 || *in.Rating > 5) {
		return errors.NewInvalidParameterError("rating", "must be between 0 and 5")
	}
	if in.Quantity < 0 {
		return errors.NewInvalidParameterError("quantity", "must not be negative")
	}
	return nil
}

func validWineType(t types.WineType) bool {
	switch t {
	case types.WineTypeRed, types.WineTypeWhite, types.WineTypeRose,
		types.WineTypeSparkling, types.WineTypeDessert:
		return true
	}
	return false
}

// AddWine adds a bottle to a user's cellar
func (s *CellarService) AddWine(ctx context.Context, userID string, input *AddWineInput) (*models.Wine, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	wine := &models.Wine{
		UserID:         userID,
		Producer:       strings.TrimSpace(input.Producer),
		WineName:       strings.TrimSpace(input.WineName),
		Vintage:        input.Vintage,
		WineType:       input.WineType,
		VivinoURL:      input.VivinoURL,
		Rating:         input.Rating,
		Region:         input.Region,
		Grapes:         input.Grapes,
		Price:          input.Price,
		AlcoholContent: input.AlcoholContent,
		Quantity:       input.Quantity,
		Notes:          input.Notes,
	}

	if err := s.wineRepo.Create(ctx, wine); err != nil {
		return nil, err
	}

	s.invalidateCellar(ctx, userID)
	return wine, nil
}

// GetWine retrieves one wine from a user's cellar
func (s *CellarService) GetWine(ctx context.Context, userID, wineID string) (*models.Wine, error) {
	return s.wineRepo.GetByID(ctx, wineID, userID)
}

// ListCellar lists a user's cellar, optionally filtered
func (s *CellarService) ListCellar(ctx context.Context, userID string, filter *storage.WineFilter) ([]*models.Wine, error) {
	return s.wineRepo.ListByUser(ctx, userID, filter)
}

// UpdateWine replaces the mutable fields of a wine in a user's cellar
func (s *CellarService) UpdateWine(ctx context.Context, userID, wineID string, input *AddWineInput) (*models.Wine, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	wine, err := s.wineRepo.GetByID(ctx, wineID, userID)
	if err != nil {
		return nil, err
	}

	wine.Producer = strings.TrimSpace(input.Producer)
	wine.WineName = strings.TrimSpace(input.WineName)
	wine.Vintage = input.Vintage
	wine.WineType = input.WineType
	wine.VivinoURL = input.VivinoURL
	wine.Rating = input.Rating
	wine.Region = input.Region
	wine.Grapes = input.Grapes
	wine.Price = input.Price
	wine.AlcoholContent = input.AlcoholContent
	wine.Quantity = input.Quantity
	wine.Notes = input.Notes

	if err := s.wineRepo.Update(ctx, wine); err != nil {
		return nil, err
	}

	s.invalidateCellar(ctx, userID)
	return wine, nil
}

// DeleteWine removes a wine from a user's cellar
func (s *CellarService) DeleteWine(ctx context.Context, userID, wineID string) error {
	if err := s.wineRepo.Delete(ctx, wineID, userID); err != nil {
		return err
	}
	s.invalidateCellar(ctx, userID)
	return nil
}

// invalidateCellar drops cached cellar views after a mutation. Cache errors
// are logged and swallowed; a stale cached view ages out via TTL anyway.
func (s *CellarService) invalidateCellar(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUserCellar(ctx, userID); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Failed to invalidate cellar cache")
	}
}
