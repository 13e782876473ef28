package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cellar-tracker/internal/models"
	"github.com/cellar-tracker/internal/service"
	"github.com/cellar-tracker/internal/storage"
	"github.com/cellar-tracker/internal/types"
	"github.com/gorilla/mux"
)

// Mock services for testing

type mockCellarService struct {
	addWineFunc    func(ctx context.Context, userID string, input *service.AddWineInput) (*models.Wine, error)
	getWineFunc    func(ctx context.Context, userID, wineID string) (*models.Wine, error)
	listCellarFunc func(ctx context.Context, userID string, filter *storage.WineFilter) ([]*models.Wine, error)
}

func (m *mockCellarService) AddWine(ctx context.Context, userID string, input *service.AddWineInput) (*models.Wine, error) {
	if m.addWineFunc != nil {
		return m.addWineFunc(ctx, userID, input)
	}
	return &models.Wine{
		ID:       "wine-123",
		UserID:   userID,
		Producer: input.Producer,
		WineName: input.WineName,
		Quantity: input.Quantity,
	}, nil
}

func (m *mockCellarService) GetWine(ctx context.Context, userID, wineID string) (*models.Wine, error) {
	if m.getWineFunc != nil {
		return m.getWineFunc(ctx, userID, wineID)
	}
	return &models.Wine{ID: wineID, UserID: userID, Producer: "Producer", WineName: "Wine"}, nil
}

func (m *mockCellarService) ListCellar(ctx context.Context, userID string, filter *storage.WineFilter) ([]*models.Wine, error) {
	if m.listCellarFunc != nil {
		return m.listCellarFunc(ctx, userID, filter)
	}
	return []*models.Wine{
		{ID: "wine-1", UserID: userID, Producer: "Producer", WineName: "Wine", Quantity: 2},
	}, nil
}

func (m *mockCellarService) UpdateWine(ctx context.Context, userID, wineID string, input *service.AddWineInput) (*models.Wine, error) {
	return &models.Wine{ID: wineID, UserID: userID, Producer: input.Producer, WineName: input.WineName}, nil
}

func (m *mockCellarService) DeleteWine(ctx context.Context, userID, wineID string) error {
	return nil
}

type mockEnrichmentService struct {
	runFunc func(ctx context.Context, input *service.EnrichmentInput) (*service.EnrichmentResult, error)
	calls   int
}

func (m *mockEnrichmentService) Run(ctx context.Context, input *service.EnrichmentInput) (*service.EnrichmentResult, error) {
	m.calls++
	if m.runFunc != nil {
		return m.runFunc(ctx, input)
	}
	return &service.EnrichmentResult{
		Message: "Enrichment complete: 1 of 1 wines enriched",
		Progress: &types.BatchProgress{
			Total:     1,
			Processed: 1,
			Enriched:  1,
			Errors:    []types.EnrichmentError{},
		},
		Summary: &service.SweepSummary{Total: 1, Enriched: 1, SuccessRate: "100.0%"},
	}, nil
}

type mockScanService struct {
	scanFunc func(ctx context.Context, imageBase64 string) (*service.ScanResult, error)
}

func (m *mockScanService) ScanLabel(ctx context.Context, imageBase64 string) (*service.ScanResult, error) {
	if m.scanFunc != nil {
		return m.scanFunc(ctx, imageBase64)
	}
	return &service.ScanResult{Confidence: 0.9}, nil
}

type mockPairingService struct {
	recommendFunc func(ctx context.Context, userID, meal string) ([]*service.PairingRecommendation, error)
}

func (m *mockPairingService) Recommend(ctx context.Context, userID, meal string) ([]*service.PairingRecommendation, error) {
	if m.recommendFunc != nil {
		return m.recommendFunc(ctx, userID, meal)
	}
	return []*service.PairingRecommendation{
		{Wine: &models.Wine{ID: "wine-1"}, Score: 10, Reason: "red pairs well with steak"},
	}, nil
}

type mockConsumptionService struct {
	consumeFunc func(ctx context.Context, userID, wineID string, input *service.ConsumeInput) (*service.ConsumeResult, error)
}

func (m *mockConsumptionService) Consume(ctx context.Context, userID, wineID string, input *service.ConsumeInput) (*service.ConsumeResult, error) {
	if m.consumeFunc != nil {
		return m.consumeFunc(ctx, userID, wineID, input)
	}
	return &service.ConsumeResult{RemainingQuantity: 1}, nil
}

func (m *mockConsumptionService) History(ctx context.Context, userID string, limit int) ([]*models.ConsumptionEvent, error) {
	return []*models.ConsumptionEvent{}, nil
}

func (m *mockConsumptionService) Stats(ctx context.Context, userID string) (*models.ConsumptionStats, error) {
	return &models.ConsumptionStats{}, nil
}

type mockShareService struct {
	getViewFunc func(ctx context.Context, token string) (*service.SharedCellarView, error)
}

func (m *mockShareService) CreateLink(ctx context.Context, userID string) (*models.ShareLink, error) {
	return &models.ShareLink{Token: "share-token", UserID: userID, CreatedAt: time.Now()}, nil
}

func (m *mockShareService) ListLinks(ctx context.Context, userID string) ([]*models.ShareLink, error) {
	return []*models.ShareLink{}, nil
}

func (m *mockShareService) RevokeLink(ctx context.Context, token, userID string) error {
	return nil
}

func (m *mockShareService) GetSharedView(ctx context.Context, token string) (*service.SharedCellarView, error) {
	if m.getViewFunc != nil {
		return m.getViewFunc(ctx, token)
	}
	return &service.SharedCellarView{Token: token, Wines: []*models.Wine{}}, nil
}

// mockSessions resolves a fixed token table
type mockSessions struct {
	tokens     map[string]string
	resolveErr error
}

func (m *mockSessions) Resolve(ctx context.Context, token string) (string, error) {
	if m.resolveErr != nil {
		return "", m.resolveErr
	}
	if userID, ok := m.tokens[token]; ok {
		return userID, nil
	}
	return "", storage.ErrSessionNotFound
}

func (m *mockSessions) Create(ctx context.Context, userID string) (string, error) {
	return "new-token", nil
}

func (m *mockSessions) Revoke(ctx context.Context, token string) error {
	return nil
}

type mockUserLookup struct {
	users map[string]*models.User
}

func (m *mockUserLookup) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.users[email]; ok {
		return user, nil
	}
	return nil, storage.ErrUserNotFound
}

type mockAdminChecker struct {
	admins   map[string]bool
	checkErr error
	calls    int
}

func (m *mockAdminChecker) IsAdmin(ctx context.Context, userID string) (bool, error) {
	m.calls++
	if m.checkErr != nil {
		return false, m.checkErr
	}
	return m.admins[userID], nil
}

type testFixture struct {
	server     *Server
	enrichment *mockEnrichmentService
	admins     *mockAdminChecker
	sessions   *mockSessions
}

// Helper function to create a test server wired to mocks. Two tokens exist by
// default: "member-token" for a regular user and "admin-token" for an admin.
func newTestFixture() *testFixture {
	config := &ServerConfig{
		Host:         "localhost",
		Port:         "8080",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		AuthedRPS:    100,
		AnonymousRPS: 100,
	}

	sessions := &mockSessions{tokens: map[string]string{
		"member-token": "user-member",
		"admin-token":  "user-admin",
	}}
	admins := &mockAdminChecker{admins: map[string]bool{"user-admin": true}}
	enrichment := &mockEnrichmentService{}

	server := &Server{
		router:             mux.NewRouter(),
		cellarService:      &mockCellarService{},
		enrichmentService:  enrichment,
		scanService:        &mockScanService{},
		pairingService:     &mockPairingService{},
		consumptionService: &mockConsumptionService{},
		shareService:       &mockShareService{},
		sessions:           sessions,
		users: &mockUserLookup{users: map[string]*models.User{
			"admin@example.com": {ID: "user-admin", Email: "admin@example.com", Role: types.RoleAdmin},
		}},
		adminChecker: admins,
		config:       config,
	}
	server.setupRouter()

	return &testFixture{server: server, enrichment: enrichment, admins: admins, sessions: sessions}
}

func doJSON(fx *testFixture, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	fx.server.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "GET", "/health", "", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response["status"])
	}
}

// Batch enrichment auth gate

func TestBatchEnrich_MissingToken(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "POST", "/api/admin/batch-enrich", "", map[string]interface{}{"limit": 50})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
	if fx.enrichment.calls != 0 {
		t.Error("Enrichment service must not run without a token")
	}
}

func TestBatchEnrich_InvalidToken(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "POST", "/api/admin/batch-enrich", "bogus-token", map[string]interface{}{"limit": 50})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestBatchEnrich_NonAdmin(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "POST", "/api/admin/batch-enrich", "member-token", map[string]interface{}{"limit": 50})

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
	if fx.enrichment.calls != 0 {
		t.Error("Enrichment service must not run for a non-admin caller")
	}

	resp := decodeError(t, w)
	if resp.Error.Code != ErrCodeForbidden {
		t.Errorf("Expected code FORBIDDEN, got %s", resp.Error.Code)
	}
}

func TestBatchEnrich_AdminCheckFailure(t *testing.T) {
	fx := newTestFixture()
	fx.admins.checkErr = fmt.Errorf("connection refused")

	w := doJSON(fx, "POST", "/api/admin/batch-enrich", "admin-token", map[string]interface{}{"limit": 50})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 when the admin check cannot complete, got %d", w.Code)
	}
	if fx.enrichment.calls != 0 {
		t.Error("Enrichment service must not run when admin status is unverifiable")
	}

	resp := decodeError(t, w)
	if resp.Error.Code != "ADMIN_CHECK_FAILED" {
		t.Errorf("Expected code ADMIN_CHECK_FAILED, got %s", resp.Error.Code)
	}
}

func TestBatchEnrich_AdminSuccess(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "POST", "/api/admin/batch-enrich", "admin-token", map[string]interface{}{"limit": 50})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if fx.enrichment.calls != 1 {
		t.Errorf("Expected exactly one sweep, got %d", fx.enrichment.calls)
	}

	var response service.EnrichmentResult
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Progress == nil || response.Progress.Enriched != 1 {
		t.Error("Expected progress with one enriched wine")
	}
	if response.Summary == nil || response.Summary.SuccessRate != "100.0%" {
		t.Error("Expected a summary with the success rate")
	}
}

func TestBatchEnrich_DryRunPassedThrough(t *testing.T) {
	fx := newTestFixture()

	var seen *service.EnrichmentInput
	fx.enrichment.runFunc = func(ctx context.Context, input *service.EnrichmentInput) (*service.EnrichmentResult, error) {
		seen = input
		return &service.EnrichmentResult{
			Message:        "Dry run: 3 wines would be processed",
			Progress:       &types.BatchProgress{Total: 3, Errors: []types.EnrichmentError{}},
			WinesToProcess: []service.CandidatePreview{{ID: "wine-1"}, {ID: "wine-2"}, {ID: "wine-3"}},
		}, nil
	}

	w := doJSON(fx, "POST", "/api/admin/batch-enrich", "admin-token",
		map[string]interface{}{"dryRun": true, "limit": 20})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if seen == nil || !seen.DryRun || seen.Limit != 20 {
		t.Errorf("Expected dryRun=true limit=20 to reach the service, got %+v", seen)
	}
}

func TestBatchEnrich_RejectsNonPositiveLimit(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "POST", "/api/admin/batch-enrich", "admin-token", map[string]interface{}{"limit": 0})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if fx.enrichment.calls != 0 {
		t.Error("Enrichment service must not run with an invalid limit")
	}
}

// Auth

func TestLogin_Success(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "POST", "/api/auth/login", "", map[string]string{"email": "admin@example.com"})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["token"] != "new-token" {
		t.Errorf("Expected token 'new-token', got %v", response["token"])
	}
}

func TestLogin_UnknownAccount(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "POST", "/api/auth/login", "", map[string]string{"email": "nobody@example.com"})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

// Cellar

func TestAddWine_Success(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "POST", "/api/wines", "member-token", map[string]interface{}{
		"producer": "Chateau Margaux",
		"wineName": "Margaux",
		"quantity": 2,
	})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}

	var response models.Wine
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Producer != "Chateau Margaux" {
		t.Errorf("Expected producer to match, got %s", response.Producer)
	}
}

func TestAddWine_RequiresAuth(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "POST", "/api/wines", "", map[string]interface{}{
		"producer": "Chateau Margaux",
		"wineName": "Margaux",
	})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestListCellar_Success(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "GET", "/api/wines?type=red&inStock=true", "member-token", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Wines []*models.Wine `json:"wines"`
		Count int            `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Count != 1 {
		t.Errorf("Expected count 1, got %d", response.Count)
	}
}

func TestGetWine_NotFound(t *testing.T) {
	fx := newTestFixture()
	cellar := fx.server.cellarService.(*mockCellarService)
	cellar.getWineFunc = func(ctx context.Context, userID, wineID string) (*models.Wine, error) {
		return nil, storage.ErrWineNotFound
	}

	w := doJSON(fx, "GET", "/api/wines/missing", "member-token", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Consumption

func TestConsumeWine_NoBottlesLeft(t *testing.T) {
	fx := newTestFixture()
	consumption := fx.server.consumptionService.(*mockConsumptionService)
	consumption.consumeFunc = func(ctx context.Context, userID, wineID string, input *service.ConsumeInput) (*service.ConsumeResult, error) {
		return nil, storage.ErrNoBottlesLeft
	}

	w := doJSON(fx, "POST", "/api/wines/wine-1/consume", "member-token", nil)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}

	resp := decodeError(t, w)
	if resp.Error.Code != "NO_BOTTLES_LEFT" {
		t.Errorf("Expected code NO_BOTTLES_LEFT, got %s", resp.Error.Code)
	}
}

// Pairings

func TestPairings_RequiresMeal(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "GET", "/api/pairings", "member-token", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

// Shared views

func TestSharedCellar_PublicAccess(t *testing.T) {
	fx := newTestFixture()

	w := doJSON(fx, "GET", "/api/shared/some-token", "", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 without authentication, got %d", w.Code)
	}
}

func TestSharedCellar_NotFound(t *testing.T) {
	fx := newTestFixture()
	share := fx.server.shareService.(*mockShareService)
	share.getViewFunc = func(ctx context.Context, token string) (*service.SharedCellarView, error) {
		return nil, storage.ErrShareLinkNotFound
	}

	w := doJSON(fx, "GET", "/api/shared/revoked-token", "", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
