package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cellar-tracker/internal/adapter"
	"github.com/cellar-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock collaborators

type mockEnrichmentStore struct {
	candidates []*models.Wine
	listErr    error
	listCalls  int

	patches    map[string]*models.WinePatch
	patchErrs  map[string]error
	patchCalls int
}

func newMockStore(candidates ...*models.Wine) *mockEnrichmentStore {
	return &mockEnrichmentStore{
		candidates: candidates,
		patches:    make(map[string]*models.WinePatch),
		patchErrs:  make(map[string]error),
	}
}

func (m *mockEnrichmentStore) ListEnrichmentCandidates(ctx context.Context, limit int) ([]*models.Wine, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	if limit < len(m.candidates) {
		return m.candidates[:limit], nil
	}
	return m.candidates, nil
}

func (m *mockEnrichmentStore) ApplyEnrichmentPatch(ctx context.Context, wineID string, patch *models.WinePatch) error {
	m.patchCalls++
	if err := m.patchErrs[wineID]; err != nil {
		return err
	}
	m.patches[wineID] = patch
	return nil
}

type mockFetcher struct {
	results map[string]*adapter.VivinoWine
	errs    map[string]error
	calls   []string
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		results: make(map[string]*adapter.VivinoWine),
		errs:    make(map[string]error),
	}
}

func (m *mockFetcher) FetchWine(ctx context.Context, wineID string) (*adapter.VivinoWine, error) {
	m.calls = append(m.calls, wineID)
	if err := m.errs[wineID]; err != nil {
		return nil, err
	}
	if result, ok := m.results[wineID]; ok {
		return result, nil
	}
	return &adapter.VivinoWine{}, nil
}

func newTestService(store *mockEnrichmentStore, fetcher *mockFetcher) (*EnrichmentService, *int) {
	svc := NewEnrichmentService(store, fetcher, 2*time.Second)
	sleeps := 0
	svc.sleep = func(ctx context.Context, d time.Duration) {
		sleeps++
	}
	return svc, &sleeps
}

func strPtr(s string) *string  { return &s }
func f64Ptr(f float64) *float64 { return &f }

func candidateWine(id string, vivinoID string) *models.Wine {
	url := fmt.Sprintf("https://www.vivino.com/wineries/producer/wines/wine/w/%s", vivinoID)
	return &models.Wine{
		ID:        id,
		UserID:    "user-1",
		Producer:  "Test Producer",
		WineName:  "Test Wine",
		VivinoURL: &url,
	}
}

// Tests

func TestRunFillsMissingRating(t *testing.T) {
	wine := candidateWine("wine-1", "111")
	store := newMockStore(wine)
	fetcher := newMockFetcher()
	fetcher.results["111"] = &adapter.VivinoWine{Rating: f64Ptr(4.2)}

	svc, _ := newTestService(store, fetcher)
	result, err := svc.Run(context.Background(), &EnrichmentInput{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Progress.Enriched)
	require.Contains(t, store.patches, "wine-1")
	require.NotNil(t, store.patches["wine-1"].Rating)
	assert.Equal(t, 4.2, *store.patches["wine-1"].Rating)
}

func TestRunNeverOverwritesExistingFields(t *testing.T) {
	wine := candidateWine("wine-1", "111")
	wine.Region = strPtr("Burgundy")

	store := newMockStore(wine)
	fetcher := newMockFetcher()
	fetcher.results["111"] = &adapter.VivinoWine{
		Rating: f64Ptr(4.0),
		Region: strPtr("Bordeaux"),
	}

	svc, _ := newTestService(store, fetcher)
	result, err := svc.Run(context.Background(), &EnrichmentInput{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Progress.Enriched)
	patch := store.patches["wine-1"]
	require.NotNil(t, patch)
	assert.Nil(t, patch.Region, "existing region must never appear in the patch")
	assert.NotNil(t, patch.Rating)
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	store := newMockStore(
		candidateWine("wine-1", "111"),
		candidateWine("wine-2", "222"),
	)
	fetcher := newMockFetcher()

	svc, sleeps := newTestService(store, fetcher)
	result, err := svc.Run(context.Background(), &EnrichmentInput{DryRun: true, Limit: 10})
	require.NoError(t, err)

	assert.Empty(t, fetcher.calls, "dry run must not call the external fetcher")
	assert.Zero(t, store.patchCalls, "dry run must not write")
	assert.Zero(t, *sleeps)
	assert.Equal(t, 2, result.Progress.Total)
	assert.Zero(t, result.Progress.Processed)
	assert.Len(t, result.WinesToProcess, 2)
}

func TestRunDryRunSampleIsBounded(t *testing.T) {
	var candidates []*models.Wine
	for i := 0; i < 25; i++ {
		candidates = append(candidates, candidateWine(fmt.Sprintf("wine-%d", i), fmt.Sprintf("%d", i)))
	}
	store := newMockStore(candidates...)

	svc, _ := newTestService(store, newMockFetcher())
	result, err := svc.Run(context.Background(), &EnrichmentInput{DryRun: true, Limit: 100})
	require.NoError(t, err)

	assert.Equal(t, 25, result.Progress.Total)
	assert.Len(t, result.WinesToProcess, maxDryRunSample)
}

func TestRunSkipsUnparsableURL(t *testing.T) {
	wine := candidateWine("wine-1", "111")
	badURL := "https://example.com/not-a-vivino-url"
	wine.VivinoURL = &badURL

	store := newMockStore(wine)
	fetcher := newMockFetcher()

	svc, sleeps := newTestService(store, fetcher)
	result, err := svc.Run(context.Background(), &EnrichmentInput{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Progress.Skipped)
	assert.Empty(t, fetcher.calls, "no network call for unparsable URLs")
	assert.Zero(t, store.patchCalls, "no write for unparsable URLs")
	assert.Zero(t, *sleeps, "no delay when nothing was fetched")
}

func TestRunMixedOutcomes(t *testing.T) {
	// Two candidates: first enriches, second hits a fetch failure.
	store := newMockStore(
		candidateWine("wine-1", "111"),
		candidateWine("wine-2", "222"),
	)
	fetcher := newMockFetcher()
	fetcher.results["111"] = &adapter.VivinoWine{Rating: f64Ptr(4.0)}
	fetcher.errs["222"] = fmt.Errorf("vivino returned status 503 for wine 222")

	svc, sleeps := newTestService(store, fetcher)
	result, err := svc.Run(context.Background(), &EnrichmentInput{Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Progress.Processed)
	assert.Equal(t, 1, result.Progress.Enriched)
	assert.Equal(t, 1, result.Progress.Skipped)
	assert.Zero(t, result.Progress.Failed)
	assert.Equal(t, 2, *sleeps, "delay is unconditional, success or failure")
	assert.Empty(t, result.Progress.Errors, "fetch failures are skips, not recorded errors")
}

func TestRunSkipsWhenNoUsableData(t *testing.T) {
	store := newMockStore(candidateWine("wine-1", "111"))
	fetcher := newMockFetcher()
	fetcher.results["111"] = &adapter.VivinoWine{} // all fields absent

	svc, _ := newTestService(store, fetcher)
	result, err := svc.Run(context.Background(), &EnrichmentInput{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Progress.Skipped)
	assert.Zero(t, result.Progress.Enriched)
	assert.Zero(t, store.patchCalls)
}

func TestRunSkipsWhenPatchIsEmpty(t *testing.T) {
	// External data exists but every matching field is already populated.
	wine := candidateWine("wine-1", "111")
	wine.Rating = f64Ptr(3.9)
	wine.Region = strPtr("Rioja")
	wine.Grapes = []string{"Tempranillo"}

	store := newMockStore(wine)
	fetcher := newMockFetcher()
	fetcher.results["111"] = &adapter.VivinoWine{
		Rating: f64Ptr(4.5),
		Region: strPtr("Elsewhere"),
		Grapes: []string{"Garnacha"},
	}

	svc, _ := newTestService(store, fetcher)
	result, err := svc.Run(context.Background(), &EnrichmentInput{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Progress.Skipped)
	assert.Zero(t, store.patchCalls)
}

func TestRunRecordsWriteFailures(t *testing.T) {
	store := newMockStore(
		candidateWine("wine-1", "111"),
		candidateWine("wine-2", "222"),
	)
	store.patchErrs["wine-2"] = fmt.Errorf("connection reset")

	fetcher := newMockFetcher()
	fetcher.results["111"] = &adapter.VivinoWine{Rating: f64Ptr(4.0)}
	fetcher.results["222"] = &adapter.VivinoWine{Rating: f64Ptr(3.5)}

	svc, _ := newTestService(store, fetcher)
	result, err := svc.Run(context.Background(), &EnrichmentInput{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Progress.Enriched)
	assert.Equal(t, 1, result.Progress.Failed)
	require.Len(t, result.Progress.Errors, 1)
	assert.Equal(t, "wine-2", result.Progress.Errors[0].WineID)
	assert.Contains(t, result.Progress.Errors[0].Error, "connection reset")
}

func TestRunFailureNeverAbortsSweep(t *testing.T) {
	store := newMockStore(
		candidateWine("wine-1", "111"),
		candidateWine("wine-2", "222"),
		candidateWine("wine-3", "333"),
	)
	store.patchErrs["wine-1"] = fmt.Errorf("write failed")

	fetcher := newMockFetcher()
	fetcher.results["111"] = &adapter.VivinoWine{Rating: f64Ptr(4.0)}
	fetcher.errs["222"] = fmt.Errorf("timeout")
	fetcher.results["333"] = &adapter.VivinoWine{Rating: f64Ptr(4.4)}

	svc, _ := newTestService(store, fetcher)
	result, err := svc.Run(context.Background(), &EnrichmentInput{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Progress.Processed, "every candidate is processed despite failures")
	assert.Equal(t, 1, result.Progress.Enriched)
	assert.Equal(t, 1, result.Progress.Failed)
	assert.Equal(t, 1, result.Progress.Skipped)
}

func TestRunCounterInvariant(t *testing.T) {
	store := newMockStore(
		candidateWine("wine-1", "111"),
		candidateWine("wine-2", "222"),
		candidateWine("wine-3", "333"),
		candidateWine("wine-4", "444"),
	)
	store.patchErrs["wine-3"] = fmt.Errorf("boom")

	fetcher := newMockFetcher()
	fetcher.results["111"] = &adapter.VivinoWine{Rating: f64Ptr(4.0)}
	fetcher.errs["222"] = fmt.Errorf("unreachable")
	fetcher.results["333"] = &adapter.VivinoWine{Region: strPtr("Douro")}
	fetcher.results["444"] = &adapter.VivinoWine{}

	svc, _ := newTestService(store, fetcher)
	result, err := svc.Run(context.Background(), &EnrichmentInput{Limit: 10})
	require.NoError(t, err)

	p := result.Progress
	assert.Equal(t, p.Processed, p.Enriched+p.Failed+p.Skipped)
	assert.Equal(t, p.Total, p.Processed)
}

func TestRunSuccessRateCountsSkipsAgainst(t *testing.T) {
	store := newMockStore(
		candidateWine("wine-1", "111"),
		candidateWine("wine-2", "222"),
		candidateWine("wine-3", "333"),
	)
	fetcher := newMockFetcher()
	fetcher.results["111"] = &adapter.VivinoWine{Rating: f64Ptr(4.0)}
	fetcher.errs["222"] = fmt.Errorf("down")
	fetcher.errs["333"] = fmt.Errorf("down")

	svc, _ := newTestService(store, fetcher)
	result, err := svc.Run(context.Background(), &EnrichmentInput{Limit: 10})
	require.NoError(t, err)

	require.NotNil(t, result.Summary)
	assert.Equal(t, "33.3%", result.Summary.SuccessRate)
}

func TestRunRejectsNonPositiveLimit(t *testing.T) {
	svc, _ := newTestService(newMockStore(), newMockFetcher())

	_, err := svc.Run(context.Background(), &EnrichmentInput{Limit: 0})
	assert.Error(t, err)
}

func TestComputePatchIsSparse(t *testing.T) {
	wine := candidateWine("wine-1", "111")
	wine.Grapes = []string{"Merlot"}

	patch := computePatch(wine, &adapter.VivinoWine{
		Rating: f64Ptr(4.1),
		Region: strPtr("Tuscany"),
		Grapes: []string{"Sangiovese"},
	})

	assert.NotNil(t, patch.Rating)
	assert.NotNil(t, patch.Region)
	assert.Nil(t, patch.Grapes, "populated grapes must stay untouched")
}
