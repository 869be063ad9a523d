package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/plateiq/internal/intelligence"
	"github.com/plateiq/internal/orchestrator"
	"github.com/plateiq/internal/store"
	"github.com/plateiq/pkg/models"
)

// Gateway represents the HTTP gateway
type Gateway struct {
	server       *http.Server
	router       *mux.Router
	intelligence *intelligence.Service
	coordinator  *orchestrator.Coordinator
	history      *store.HistoryStore
	billing      BillingResolver
	referrals    ReferralGraph
	insights     InsightsDigester
	config       GatewayConfig
}

// BillingResolver resolves a customer's subscription facts from the billing
// provider.
type BillingResolver interface {
	ResolveFacts(ctx context.Context, customerID string) (models.ProfileFacts, error)
}

// ReferralGraph records and counts referral relationships between customers.
type ReferralGraph interface {
	RecordReferral(ctx context.Context, referrerID, referredID string) error
	CountReferrals(ctx context.Context, customerID string) (int, error)
}

// InsightsDigester summarizes a recommendation batch.
type InsightsDigester interface {
	Digest(ctx context.Context, batch []models.StrategicRecommendation) (string, error)
}

// GatewayConfig represents gateway configuration
type GatewayConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	IdleTimeout    time.Duration `json:"idle_timeout"`
	EnableCORS     bool          `json:"enable_cors"`
	AllowedOrigins []string      `json:"allowed_origins"`
}

// DefaultGatewayConfig returns default gateway configuration
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
	}
}

// NewGateway creates a new HTTP gateway. The history store may be nil when
// trend persistence is disabled.
func NewGateway(config GatewayConfig, svc *intelligence.Service, coordinator *orchestrator.Coordinator,
	history *store.HistoryStore) *Gateway {
	router := mux.NewRouter()

	gateway := &Gateway{
		router:       router,
		intelligence: svc,
		coordinator:  coordinator,
		history:      history,
		config:       config,
	}

	gateway.setupRoutes()

	var handler http.Handler = router
	if config.EnableCORS {
		c := cors.New(cors.Options{
			AllowedOrigins:   config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		})
		handler = c.Handler(router)
	}

	gateway.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return gateway
}

// setupRoutes configures all API routes
func (g *Gateway) setupRoutes() {
	api := g.router.PathPrefix("/api/v1").Subrouter()

	customers := api.PathPrefix("/customers").Subrouter()
	customers.HandleFunc("/{id}", g.handleGetProfile).Methods("GET")
	customers.HandleFunc("/{id}/analyze", g.handleAnalyzeCustomer).Methods("POST")
	customers.HandleFunc("/{id}/churn", g.handleGetChurn).Methods("GET")
	customers.HandleFunc("/{id}/journey", g.handleGetJourney).Methods("GET")
	customers.HandleFunc("/{id}/segments/recommendations", g.handleGetSegmentRecommendations).Methods("GET")
	customers.HandleFunc("/{id}/next-action", g.handleGetNextAction).Methods("GET")
	customers.HandleFunc("/{id}/billing/sync", g.handleBillingSync).Methods("POST")
	customers.HandleFunc("/{id}/referrals", g.handleRecordReferral).Methods("POST")

	api.HandleFunc("/segments", g.handleListSegments).Methods("GET")

	api.HandleFunc("/metrics", g.handleUpdateMetrics).Methods("POST")
	api.HandleFunc("/metrics", g.handleGetMetrics).Methods("GET")

	api.HandleFunc("/recommendations", g.handleGetRecommendations).Methods("GET")
	api.HandleFunc("/recommendations/refresh", g.handleRefreshRecommendations).Methods("POST")
	api.HandleFunc("/recommendations/digest", g.handleRecommendationDigest).Methods("GET")

	api.HandleFunc("/health", g.handleHealth).Methods("GET")
	api.HandleFunc("/health/history", g.handleHealthHistory).Methods("GET")
	api.HandleFunc("/alerts", g.handleGetAlerts).Methods("GET")

	workflows := api.PathPrefix("/workflows").Subrouter()
	workflows.HandleFunc("/stats", g.handleWorkflowStats).Methods("GET")
	workflows.HandleFunc("/{id}/result", g.handleWorkflowResult).Methods("POST")
}

// WithBilling attaches a billing resolver; without one the billing sync
// endpoint reports itself unavailable.
func (g *Gateway) WithBilling(resolver BillingResolver) *Gateway {
	g.billing = resolver
	return g
}

// WithReferrals attaches a referral graph; without one the referral
// endpoint reports itself unavailable.
func (g *Gateway) WithReferrals(graph ReferralGraph) *Gateway {
	g.referrals = graph
	return g
}

// WithInsights attaches a recommendation digester; without one the digest
// endpoint reports itself unavailable.
func (g *Gateway) WithInsights(digester InsightsDigester) *Gateway {
	g.insights = digester
	return g
}

// Start starts the HTTP gateway
func (g *Gateway) Start() error {
	log.Printf("Starting API gateway on %s", g.server.Addr)
	return g.server.ListenAndServe()
}

// Stop stops the HTTP gateway
func (g *Gateway) Stop(ctx context.Context) error {
	log.Printf("Stopping API gateway")
	return g.server.Shutdown(ctx)
}

// Router exposes the route tree for tests.
func (g *Gateway) Router() http.Handler {
	return g.router
}

// Response types

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Helper functions

func writeJSONResponse(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message, details string) {
	writeJSONResponse(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func writeSuccessResponse(w http.ResponseWriter, data interface{}) {
	writeJSONResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func parseRequestBody(r *http.Request, target interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
