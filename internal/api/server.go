// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cellar-tracker/internal/models"
	"github.com/cellar-tracker/internal/service"
	"github.com/cellar-tracker/internal/storage"
	"github.com/gorilla/mux"
)

// Service interfaces for dependency injection and testing

// CellarServiceInterface defines the interface for cellar operations
type CellarServiceInterface interface {
	AddWine(ctx context.Context, userID string, input *service.AddWineInput) (*models.Wine, error)
	GetWine(ctx context.Context, userID, wineID string) (*models.Wine, error)
	ListCellar(ctx context.Context, userID string, filter *storage.WineFilter) ([]*models.Wine, error)
	UpdateWine(ctx context.Context, userID, wineID string, input *service.AddWineInput) (*models.Wine, error)
	DeleteWine(ctx context.Context, userID, wineID string) error
}

// EnrichmentServiceInterface defines the interface for the batch enrichment sweep
type EnrichmentServiceInterface interface {
	Run(ctx context.Context, input *service.EnrichmentInput) (*service.EnrichmentResult, error)
}

// ScanServiceInterface defines the interface for label scanning
type ScanServiceInterface interface {
	ScanLabel(ctx context.Context, imageBase64 string) (*service.ScanResult, error)
}

// PairingServiceInterface defines the interface for pairing recommendations
type PairingServiceInterface interface {
	Recommend(ctx context.Context, userID, meal string) ([]*service.PairingRecommendation, error)
}

// ConsumptionServiceInterface defines the interface for consumption tracking
type ConsumptionServiceInterface interface {
	Consume(ctx context.Context, userID, wineID string, input *service.ConsumeInput) (*service.ConsumeResult, error)
	History(ctx context.Context, userID string, limit int) ([]*models.ConsumptionEvent, error)
	Stats(ctx context.Context, userID string) (*models.ConsumptionStats, error)
}

// ShareServiceInterface defines the interface for shared cellar links
type ShareServiceInterface interface {
	CreateLink(ctx context.Context, userID string) (*models.ShareLink, error)
	ListLinks(ctx context.Context, userID string) ([]*models.ShareLink, error)
	RevokeLink(ctx context.Context, token, userID string) error
	GetSharedView(ctx context.Context, token string) (*service.SharedCellarView, error)
}

// SessionManager manages bearer token sessions
type SessionManager interface {
	SessionResolver
	Create(ctx context.Context, userID string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// UserLookup resolves accounts for login
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Server represents the HTTP API server.
type Server struct {
	router             *mux.Router
	httpServer         *http.Server
	cellarService      CellarServiceInterface
	enrichmentService  EnrichmentServiceInterface
	scanService        ScanServiceInterface
	pairingService     PairingServiceInterface
	consumptionService ConsumptionServiceInterface
	shareService       ShareServiceInterface
	sessions           SessionManager
	users              UserLookup
	adminChecker       AdminChecker
	config             *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AuthedRPS       int
	AnonymousRPS    int
}

// ServerDeps bundles the collaborators the server needs
type ServerDeps struct {
	CellarService      CellarServiceInterface
	EnrichmentService  EnrichmentServiceInterface
	ScanService        ScanServiceInterface
	PairingService     PairingServiceInterface
	ConsumptionService ConsumptionServiceInterface
	ShareService       ShareServiceInterface
	Sessions           SessionManager
	Users              UserLookup
	AdminChecker       AdminChecker
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, deps *ServerDeps) *Server {
	s := &Server{
		router:             mux.NewRouter(),
		cellarService:      deps.CellarService,
		enrichmentService:  deps.EnrichmentService,
		scanService:        deps.ScanService,
		pairingService:     deps.PairingService,
		consumptionService: deps.ConsumptionService,
		shareService:       deps.ShareService,
		sessions:           deps.Sessions,
		users:              deps.Users,
		adminChecker:       deps.AdminChecker,
		config:             config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.AuthedRPS, s.config.AnonymousRPS)

	// Set up middleware (order matters!)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes registers all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/shared/{token}", s.handleGetSharedCellar).Methods("GET")

	// Authenticated routes
	authed := api.NewRoute().Subrouter()
	authed.Use(AuthMiddleware(s.sessions))

	authed.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")

	authed.HandleFunc("/wines", s.handleAddWine).Methods("POST")
	authed.HandleFunc("/wines", s.handleListCellar).Methods("GET")
	authed.HandleFunc("/wines/scan", s.handleScanLabel).Methods("POST")
	authed.HandleFunc("/wines/{id}", s.handleGetWine).Methods("GET")
	authed.HandleFunc("/wines/{id}", s.handleUpdateWine).Methods("PUT")
	authed.HandleFunc("/wines/{id}", s.handleDeleteWine).Methods("DELETE")
	authed.HandleFunc("/wines/{id}/consume", s.handleConsumeWine).Methods("POST")

	authed.HandleFunc("/consumption", s.handleConsumptionHistory).Methods("GET")
	authed.HandleFunc("/consumption/stats", s.handleConsumptionStats).Methods("GET")

	authed.HandleFunc("/pairings", s.handlePairings).Methods("GET")

	authed.HandleFunc("/share", s.handleCreateShareLink).Methods("POST")
	authed.HandleFunc("/share", s.handleListShareLinks).Methods("GET")
	authed.HandleFunc("/share/{token}", s.handleRevokeShareLink).Methods("DELETE")

	authed.HandleFunc("/admin/batch-enrich", s.handleBatchEnrich).Methods("POST")
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the router for tests
func (s *Server) Router() *mux.Router {
	return s.router
}
