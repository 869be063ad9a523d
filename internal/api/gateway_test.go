package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateiq/internal/events"
	"github.com/plateiq/internal/intelligence"
	"github.com/plateiq/internal/orchestrator"
	"github.com/plateiq/internal/segment"
	"github.com/plateiq/internal/store"
	"github.com/plateiq/internal/strategy"
	"github.com/plateiq/internal/workflow"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	bus := events.NewMemoryBus()
	metrics := strategy.NewMetricsStore()
	dispatcher := workflow.NewDispatcher(
		workflow.RunnerFunc(func(ctx context.Context, req workflow.Request) error { return nil }),
		bus, workflow.DefaultDispatcherConfig())

	segments := segment.NewEngine()
	coordinator := orchestrator.NewCoordinator(orchestrator.DefaultConfig(), bus, metrics,
		strategy.NewEngine(metrics), segments, dispatcher, nil, orchestrator.NewManualScheduler())
	svc := intelligence.NewService(store.NewMemoryStore(), segments, bus)

	return NewGateway(DefaultGatewayConfig(), svc, coordinator, nil)
}

func doRequest(t *testing.T, g *Gateway, method, path string, body interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	g.Router().ServeHTTP(rec, req)

	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func TestAnalyzeCustomerEndpoint(t *testing.T) {
	g := newTestGateway(t)

	rec, resp := doRequest(t, g, http.MethodPost, "/api/v1/customers/cust-1/analyze", map[string]interface{}{
		"login_frequency": 4.5,
		"features_used":   []string{"meal-planner", "recipes"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	profile := data["profile"].(map[string]interface{})
	assert.Equal(t, "cust-1", profile["id"])
}

func TestAnalyzeCustomerRejectsBadBody(t *testing.T) {
	g := newTestGateway(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/cust-1/analyze",
		bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	g.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomerReadEndpointsReturn404ForUnknownID(t *testing.T) {
	g := newTestGateway(t)

	paths := []string{
		"/api/v1/customers/ghost",
		"/api/v1/customers/ghost/churn",
		"/api/v1/customers/ghost/journey",
		"/api/v1/customers/ghost/segments/recommendations",
		"/api/v1/customers/ghost/next-action",
	}
	for _, path := range paths {
		rec, resp := doRequest(t, g, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		require.NotNil(t, resp.Error, path)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code, path)
	}
}

func TestChurnEndpointAfterAnalysis(t *testing.T) {
	g := newTestGateway(t)

	rec, _ := doRequest(t, g, http.MethodPost, "/api/v1/customers/cust-2/analyze", map[string]interface{}{})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := doRequest(t, g, http.MethodGet, "/api/v1/customers/cust-2/churn", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "cust-2", data["customer_id"])
}

func TestMetricsRoundTrip(t *testing.T) {
	g := newTestGateway(t)

	rec, _ := doRequest(t, g, http.MethodPost, "/api/v1/metrics", map[string]interface{}{
		"revenue": map[string]interface{}{"mrr": 50000, "churn_rate": 0.02, "growth_rate": 0.08},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := doRequest(t, g, http.MethodGet, "/api/v1/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	revenue := data["revenue"].(map[string]interface{})
	assert.Equal(t, 50000.0, revenue["mrr"])
}

func TestHealthEndpoint(t *testing.T) {
	g := newTestGateway(t)

	rec, resp := doRequest(t, g, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	health := data["health"].(map[string]interface{})
	assert.Equal(t, 50.0, health["score"]) // no revenue metrics yet
}

func TestHealthHistoryDisabled(t *testing.T) {
	g := newTestGateway(t)

	rec, resp := doRequest(t, g, http.MethodGet, "/api/v1/health/history", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "HISTORY_DISABLED", resp.Error.Code)
}

func TestRecommendationRefresh(t *testing.T) {
	g := newTestGateway(t)

	rec, _ := doRequest(t, g, http.MethodPost, "/api/v1/metrics", map[string]interface{}{
		"revenue": map[string]interface{}{"mrr": 50000, "churn_rate": 0.09, "growth_rate": 0.10, "ltv": 400, "cac": 100},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := doRequest(t, g, http.MethodPost, "/api/v1/recommendations/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	batch := resp.Data.([]interface{})
	require.NotEmpty(t, batch)

	rec, resp = doRequest(t, g, http.MethodGet, "/api/v1/recommendations", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data.([]interface{}), len(batch))
}

func TestRecommendationsIncludeSegmentInsights(t *testing.T) {
	g := newTestGateway(t)

	// A long-inactive customer lands in the high-churn cohorts.
	rec, _ := doRequest(t, g, http.MethodPost, "/api/v1/customers/cust-idle/analyze", map[string]interface{}{
		"registered_at":  time.Now().AddDate(0, 0, -60).Format(time.RFC3339),
		"last_active_at": time.Now().AddDate(0, 0, -40).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := doRequest(t, g, http.MethodGet, "/api/v1/recommendations", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var titles []string
	for _, entry := range resp.Data.([]interface{}) {
		titles = append(titles, entry.(map[string]interface{})["title"].(string))
	}
	assert.Contains(t, titles, "Re-engage the at_risk segment")
	assert.Contains(t, titles, "Re-engage the dormant segment")
}

func TestSegmentsEndpoint(t *testing.T) {
	g := newTestGateway(t)

	rec, resp := doRequest(t, g, http.MethodGet, "/api/v1/segments", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data.([]interface{}), 5)
}

type fakeReferralGraph struct {
	counts map[string]int
}

func (f *fakeReferralGraph) RecordReferral(ctx context.Context, referrerID, referredID string) error {
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[referrerID]++
	return nil
}

func (f *fakeReferralGraph) CountReferrals(ctx context.Context, customerID string) (int, error) {
	return f.counts[customerID], nil
}

func TestOptionalEndpointsReportDisabled(t *testing.T) {
	g := newTestGateway(t)

	rec, resp := doRequest(t, g, http.MethodPost, "/api/v1/customers/c/billing/sync", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "BILLING_DISABLED", resp.Error.Code)

	rec, resp = doRequest(t, g, http.MethodPost, "/api/v1/customers/c/referrals",
		map[string]string{"referred_id": "d"})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "REFERRALS_DISABLED", resp.Error.Code)

	rec, resp = doRequest(t, g, http.MethodGet, "/api/v1/recommendations/digest", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "INSIGHTS_DISABLED", resp.Error.Code)
}

func TestRecordReferralUpdatesProfile(t *testing.T) {
	g := newTestGateway(t).WithReferrals(&fakeReferralGraph{})

	rec, _ := doRequest(t, g, http.MethodPost, "/api/v1/customers/cust-r/analyze", map[string]interface{}{})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := doRequest(t, g, http.MethodPost, "/api/v1/customers/cust-r/referrals",
		map[string]string{"referred_id": "cust-s"})
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, 1.0, data["referral_count"])

	rec, resp = doRequest(t, g, http.MethodGet, "/api/v1/customers/cust-r", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := resp.Data.(map[string]interface{})
	value := profile["value"].(map[string]interface{})
	assert.Equal(t, 1.0, value["referral_count"])
}

func TestRecordReferralRequiresReferredID(t *testing.T) {
	g := newTestGateway(t).WithReferrals(&fakeReferralGraph{})

	rec, _ := doRequest(t, g, http.MethodPost, "/api/v1/customers/a/referrals", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkflowResultCallback(t *testing.T) {
	g := newTestGateway(t)

	rec, _ := doRequest(t, g, http.MethodPost, "/api/v1/workflows/req-1/result", map[string]interface{}{
		"workflow_id": "churn-prevention",
		"success":     false,
		"error":       "email provider down",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := doRequest(t, g, http.MethodGet, "/api/v1/workflows/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	stats := resp.Data.(map[string]interface{})
	assert.Equal(t, 1.0, stats["failed"])

	rec, resp = doRequest(t, g, http.MethodGet, "/api/v1/alerts", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	alerts := resp.Data.([]interface{})
	require.Len(t, alerts, 1)
}
