package service

import (
	"context"
	"sort"
	"strings"

	"github.com/cellar-tracker/internal/errors"
	"github.com/cellar-tracker/internal/models"
	"github.com/cellar-tracker/internal/storage"
	"github.com/cellar-tracker/internal/types"
)

// WineLister lists bottles in a user's cellar
type WineLister interface {
	ListByUser(ctx context.Context, userID string, filter *storage.WineFilter) ([]*models.Wine, error)
}

// PairingService recommends bottles from a user's own cellar for a meal.
// Scoring is simple predicate matching against static affinity tables; it
// deliberately stays a filter-and-sort over the in-stock bottle list, not a
// learned model.
type PairingService struct {
	wines WineLister
}

// NewPairingService creates a new pairing service
func NewPairingService(wines WineLister) *PairingService {
	return &PairingService{wines: wines}
}

// mealTypeAffinity maps meal categories to preferred wine types, strongest first
var mealTypeAffinity = map[string][]types.WineType{
	"red_meat":  {types.WineTypeRed},
	"poultry":   {types.WineTypeWhite, types.WineTypeRed, types.WineTypeRose},
	"fish":      {types.WineTypeWhite, types.WineTypeSparkling, types.WineTypeRose},
	"seafood":   {types.WineTypeWhite, types.WineTypeSparkling},
	"pasta":     {types.WineTypeRed, types.WineTypeWhite},
	"cheese":    {types.WineTypeRed, types.WineTypeWhite, types.WineTypeDessert},
	"salad":     {types.WineTypeWhite, types.WineTypeRose},
	"spicy":     {types.WineTypeWhite, types.WineTypeRose, types.WineTypeSparkling},
	"dessert":   {types.WineTypeDessert, types.WineTypeSparkling},
	"aperitif":  {types.WineTypeSparkling, types.WineTypeWhite, types.WineTypeRose},
	"barbecue":  {types.WineTypeRed, types.WineTypeRose},
	"vegetable": {types.WineTypeWhite, types.WineTypeRose, types.WineTypeRed},
}

// mealGrapeAffinity maps meal categories to grape varieties that pair well
var mealGrapeAffinity = map[string][]string{
	"red_meat": {"cabernet sauvignon", "malbec", "syrah", "tempranillo"},
	"poultry":  {"chardonnay", "pinot noir"},
	"fish":     {"sauvignon blanc", "albariño", "pinot grigio"},
	"seafood":  {"albariño", "muscadet", "sauvignon blanc"},
	"pasta":    {"sangiovese", "barbera", "nebbiolo"},
	"cheese":   {"chardonnay", "riesling", "pinot noir"},
	"spicy":    {"riesling", "gewürztraminer"},
	"barbecue": {"zinfandel", "syrah", "grenache"},
}

// MealCategories lists the meal categories the service understands
func MealCategories() []string {
	categories := make([]string, 0, len(mealTypeAffinity))
	for category := range mealTypeAffinity {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// PairingRecommendation is one scored bottle suggestion
type PairingRecommendation struct {
	Wine   *models.Wine `json:"wine"`
	Score  int          `json:"score"`
	Reason string       `json:"reason"`
}

// maxRecommendations caps the list returned for one meal
const maxRecommendations = 5

// Recommend scores the user's in-stock bottles against the meal category and
// returns the top matches, ordered by score then rating.
func (s *PairingService) Recommend(ctx context.Context, userID, meal string) ([]*PairingRecommendation, error) {
	meal = strings.ToLower(strings.TrimSpace(meal))
	preferredTypes, ok := mealTypeAffinity[meal]
	if !ok {
		return nil, errors.NewInvalidParameterError("meal",
			"unknown meal category; one of: "+strings.Join(MealCategories(), ", "))
	}

	wines, err := s.wines.ListByUser(ctx, userID, &storage.WineFilter{InStock: true})
	if err != nil {
		return nil, err
	}

	var recommendations []*PairingRecommendation
	for _, wine := range wines {
		score, reason := scoreWine(wine, meal, preferredTypes)
		if score <= 0 {
			continue
		}
		recommendations = append(recommendations, &PairingRecommendation{
			Wine:   wine,
			Score:  score,
			Reason: reason,
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].Score != recommendations[j].Score {
			return recommendations[i].Score > recommendations[j].Score
		}
		return rating(recommendations[i].Wine) > rating(recommendations[j].Wine)
	})

	if len(recommendations) > maxRecommendations {
		recommendations = recommendations[:maxRecommendations]
	}
	return recommendations, nil
}

func rating(w *models.Wine) float64 {
	if w.Rating == nil {
		return 0
	}
	return *w.Rating
}

// scoreWine computes the affinity score for one bottle. Type match is
// position-weighted; a grape match adds a flat bonus.
func scoreWine(wine *models.Wine, meal string, preferredTypes []types.WineType) (int, string) {
	score := 0
	reason := ""

	for i, wineType := range preferredTypes {
		if wine.WineType == wineType {
			score += len(preferredTypes) - i + 2
			reason = string(wineType) + " pairs well with " + meal
			break
		}
	}

	for _, grape := range mealGrapeAffinity[meal] {
		if wineHasGrape(wine, grape) {
			score += 3
			if reason != "" {
				reason += "; "
			}
			reason += grape + " is a classic match"
			break
		}
	}

	return score, reason
}

func wineHasGrape(wine *models.Wine, grape string) bool {
	for _, g := range wine.Grapes {
		if strings.EqualFold(strings.TrimSpace(g), grape) {
			return true
		}
	}
	return false
}
