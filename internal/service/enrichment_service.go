// Package service implements the application services of the cellar tracker.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cellar-tracker/internal/adapter"
	"github.com/cellar-tracker/internal/logging"
	"github.com/cellar-tracker/internal/models"
	"github.com/cellar-tracker/internal/types"
)

// WineFetcher fetches external enrichment data for a Vivino wine id
type WineFetcher interface {
	FetchWine(ctx context.Context, wineID string) (*adapter.VivinoWine, error)
}

// EnrichmentStore is the slice of wine persistence the sweep needs
type EnrichmentStore interface {
	ListEnrichmentCandidates(ctx context.Context, limit int) ([]*models.Wine, error)
	ApplyEnrichmentPatch(ctx context.Context, wineID string, patch *models.WinePatch) error
}

// EnrichmentService runs the batch Vivino enrichment sweep: a strictly
// sequential pass over candidate wines, fetching external metadata and
// patching only fields that are still empty. There is no parallelism, no
// retrying and no checkpointing; a failed sweep is simply re-run, which is
// safe because enrichment never overwrites existing values.
type EnrichmentService struct {
	wines      EnrichmentStore
	fetcher    WineFetcher
	fetchDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration)
}

// NewEnrichmentService creates a new enrichment service
func NewEnrichmentService(wines EnrichmentStore, fetcher WineFetcher, fetchDelay time.Duration) *EnrichmentService {
	return &EnrichmentService{
		wines:      wines,
		fetcher:    fetcher,
		fetchDelay: fetchDelay,
		sleep:      sleepWithContext,
	}
}

// sleepWithContext pauses for d, returning early if the context ends
func sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// EnrichmentInput is the request for a batch enrichment run
type EnrichmentInput struct {
	DryRun bool `json:"dryRun"`
	Limit  int  `json:"limit"`
}

// CandidatePreview is the dry-run sample entry for one enrichable wine
type CandidatePreview struct {
	ID        string  `json:"id"`
	Producer  string  `json:"producer"`
	WineName  string  `json:"wineName"`
	Vintage   *int    `json:"vintage,omitempty"`
	VivinoURL *string `json:"vivinoUrl,omitempty"`
}

// SweepSummary condenses a finished sweep for display
type SweepSummary struct {
	Total       int    `json:"total"`
	Enriched    int    `json:"enriched"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	SuccessRate string `json:"successRate"`
}

// EnrichmentResult is the response body for both dry and live runs
type EnrichmentResult struct {
	Message        string               `json:"message"`
	Progress       *types.BatchProgress `json:"progress"`
	WinesToProcess []CandidatePreview   `json:"winesToProcess,omitempty"`
	Summary        *SweepSummary        `json:"summary,omitempty"`
}

// maxDryRunSample caps the candidate sample returned by a dry run
const maxDryRunSample = 10

// Run executes one enrichment sweep (or a dry run) within the calling
// request. The candidate list is fetched once and treated as immutable;
// per-candidate failures never abort the sweep.
func (s *EnrichmentService) Run(ctx context.Context, input *EnrichmentInput) (*EnrichmentResult, error) {
	logger := logging.FromContext(ctx)

	limit := input.Limit
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	candidates, err := s.wines.ListEnrichmentCandidates(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select enrichment candidates: %w", err)
	}

	progress := &types.BatchProgress{
		Total:  len(candidates),
		Errors: []types.EnrichmentError{},
	}

	if input.DryRun {
		sample := make([]CandidatePreview, 0, maxDryRunSample)
		for _, wine := range candidates {
			if len(sample) == maxDryRunSample {
				break
			}
			sample = append(sample, CandidatePreview{
				ID:        wine.ID,
				Producer:  wine.Producer,
				WineName:  wine.WineName,
				Vintage:   wine.Vintage,
				VivinoURL: wine.VivinoURL,
			})
		}

		return &EnrichmentResult{
			Message:        fmt.Sprintf("Dry run: %d wines would be processed", progress.Total),
			Progress:       progress,
			WinesToProcess: sample,
		}, nil
	}

	logger.WithFields(map[string]interface{}{
		"candidates": progress.Total,
		"limit":      limit,
	}).Info("Starting enrichment sweep")

	for _, wine := range candidates {
		s.processCandidate(ctx, wine, progress)
	}

	logger.WithFields(map[string]interface{}{
		"processed": progress.Processed,
		"enriched":  progress.Enriched,
		"skipped":   progress.Skipped,
		"failed":    progress.Failed,
	}).Info("Enrichment sweep finished")

	return &EnrichmentResult{
		Message:  fmt.Sprintf("Enrichment complete: %d of %d wines enriched", progress.Enriched, progress.Total),
		Progress: progress,
		Summary: &SweepSummary{
			Total:       progress.Total,
			Enriched:    progress.Enriched,
			Skipped:     progress.Skipped,
			Failed:      progress.Failed,
			SuccessRate: progress.SuccessRate(),
		},
	}, nil
}

// processCandidate handles exactly one candidate and records exactly one
// outcome on the progress accumulator.
func (s *EnrichmentService) processCandidate(ctx context.Context, wine *models.Wine, progress *types.BatchProgress) {
	logger := logging.FromContext(ctx).WithField("wineId", wine.ID)

	var url string
	if wine.VivinoURL != nil {
		url = *wine.VivinoURL
	}

	vivinoID := adapter.ExtractVivinoWineID(url)
	if vivinoID == "" {
		logger.Debug("Stored URL does not match Vivino pattern, skipping")
		progress.Record(types.OutcomeSkipped, wine.ID, nil)
		return
	}

	external, fetchErr := s.fetcher.FetchWine(ctx, vivinoID)

	// The pause is unconditional, success or not. This fixed delay is the
	// entire rate-limiting mechanism for the sweep.
	s.sleep(ctx, s.fetchDelay)

	if fetchErr != nil {
		logger.WithError(fetchErr).Warn("External fetch failed, skipping")
		progress.Record(types.OutcomeSkipped, wine.ID, nil)
		return
	}

	if !external.HasUsableData() {
		logger.Debug("External source has no usable data, skipping")
		progress.Record(types.OutcomeSkipped, wine.ID, nil)
		return
	}

	patch := computePatch(wine, external)
	if patch.IsEmpty() {
		logger.Debug("All enrichable fields already populated, skipping")
		progress.Record(types.OutcomeSkipped, wine.ID, nil)
		return
	}

	if err := s.wines.ApplyEnrichmentPatch(ctx, wine.ID, patch); err != nil {
		logger.WithError(err).Error("Failed to persist enrichment patch")
		progress.Record(types.OutcomeFailed, wine.ID, err)
		return
	}

	progress.Record(types.OutcomeEnriched, wine.ID, nil)
}

// computePatch builds the sparse update for one wine. A field is included
// only when the external source has a value and the wine's own field is
// still empty; enrichment is strictly additive.
func computePatch(wine *models.Wine, external *adapter.VivinoWine) *models.WinePatch {
	patch := &models.WinePatch{}

	if external.Rating != nil && !wine.HasRating() {
		patch.Rating = external.Rating
	}
	if external.Region != nil && *external.Region != "" && !wine.HasRegion() {
		patch.Region = external.Region
	}
	if len(external.Grapes) > 0 && !wine.HasGrapes() {
		patch.Grapes = external.Grapes
	}

	return patch
}
