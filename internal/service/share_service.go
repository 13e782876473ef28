package service

import (
	"context"
	"time"

	"github.com/cellar-tracker/internal/logging"
	"github.com/cellar-tracker/internal/models"
	"github.com/cellar-tracker/internal/storage"
)

// ShareService manages read-only public cellar views behind opaque tokens
type ShareService struct {
	shareRepo *storage.ShareLinkRepository
	wineRepo  *storage.WineRepository
	cache     *storage.CacheService
	viewTTL   time.Duration
}

// NewShareService creates a new share service
func NewShareService(
	shareRepo *storage.ShareLinkRepository,
	wineRepo *storage.WineRepository,
	cache *storage.CacheService,
	viewTTL time.Duration,
) *ShareService {
	return &ShareService{
		shareRepo: shareRepo,
		wineRepo:  wineRepo,
		cache:     cache,
		viewTTL:   viewTTL,
	}
}

// CreateLink issues a new share token for a user's cellar
func (s *ShareService) CreateLink(ctx context.Context, userID string) (*models.ShareLink, error) {
	return s.shareRepo.Create(ctx, userID)
}

// ListLinks retrieves all share links a user has created
func (s *ShareService) ListLinks(ctx context.Context, userID string) ([]*models.ShareLink, error) {
	return s.shareRepo.ListByUser(ctx, userID)
}

// RevokeLink invalidates a share token and drops its cached view
func (s *ShareService) RevokeLink(ctx context.Context, token, userID string) error {
	if err := s.shareRepo.Revoke(ctx, token, userID); err != nil {
		return err
	}
	if s.cache != nil {
		key := s.cache.GenerateCacheKey(storage.CacheKeySharedView, token)
		if err := s.cache.Delete(ctx, key); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Failed to drop cached shared view")
		}
	}
	return nil
}

// SharedCellarView is the public read-only projection of a cellar
type SharedCellarView struct {
	Token string         `json:"token"`
	Wines []*models.Wine `json:"wines"`
}

// GetSharedView resolves a share token into the current cellar listing.
// Views are cached briefly; revoked tokens resolve to not-found.
func (s *ShareService) GetSharedView(ctx context.Context, token string) (*SharedCellarView, error) {
	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.GenerateCacheKey(storage.CacheKeySharedView, token)
		var cached SharedCellarView
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Shared view cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	link, err := s.shareRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !link.Active() {
		return nil, storage.ErrShareLinkNotFound
	}

	wines, err := s.wineRepo.ListByUser(ctx, link.UserID, &storage.WineFilter{InStock: true})
	if err != nil {
		return nil, err
	}

	// The public view strips ownership; bottles are presented bare.
	for _, wine := range wines {
		wine.UserID = ""
		wine.Notes = nil
	}

	view := &SharedCellarView{
		Token: token,
		Wines: wines,
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, cacheKey, view, s.viewTTL); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Failed to cache shared view")
		}
	}

	return view, nil
}
