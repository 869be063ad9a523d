package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/plateiq/internal/store"
	"github.com/plateiq/internal/workflow"
	"github.com/plateiq/pkg/models"
)

// Customer handlers

func (g *Gateway) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	profile, err := g.intelligence.GetProfile(r.Context(), id)
	if err != nil {
		writeCustomerError(w, id, err)
		return
	}
	writeSuccessResponse(w, profile)
}

func (g *Gateway) handleAnalyzeCustomer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var facts models.ProfileFacts
	if err := parseRequestBody(r, &facts); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse request body", err.Error())
		return
	}

	result, err := g.intelligence.AnalyzeCustomer(r.Context(), id, facts)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to analyze customer", err.Error())
		return
	}
	writeSuccessResponse(w, result)
}

func (g *Gateway) handleGetChurn(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	prediction, err := g.intelligence.PredictChurn(r.Context(), id)
	if err != nil {
		writeCustomerError(w, id, err)
		return
	}
	writeSuccessResponse(w, prediction)
}

func (g *Gateway) handleGetJourney(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	journey, err := g.intelligence.GetJourney(r.Context(), id)
	if err != nil {
		writeCustomerError(w, id, err)
		return
	}
	writeSuccessResponse(w, journey)
}

func (g *Gateway) handleGetSegmentRecommendations(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	recommendations, err := g.intelligence.GetSegmentRecommendations(r.Context(), id)
	if err != nil {
		writeCustomerError(w, id, err)
		return
	}
	writeSuccessResponse(w, map[string]interface{}{
		"customer_id":     id,
		"recommendations": recommendations,
	})
}

func (g *Gateway) handleGetNextAction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	action, err := g.intelligence.GetNextBestAction(r.Context(), id)
	if err != nil {
		writeCustomerError(w, id, err)
		return
	}
	writeSuccessResponse(w, map[string]string{
		"customer_id": id,
		"next_action": action,
	})
}

func (g *Gateway) handleBillingSync(w http.ResponseWriter, r *http.Request) {
	if g.billing == nil {
		writeErrorResponse(w, http.StatusNotImplemented, "BILLING_DISABLED", "Billing integration is not configured", "")
		return
	}
	id := mux.Vars(r)["id"]

	facts, err := g.billing.ResolveFacts(r.Context(), id)
	if err != nil {
		writeErrorResponse(w, http.StatusBadGateway, "BILLING_ERROR", "Failed to resolve billing facts", err.Error())
		return
	}

	result, err := g.intelligence.AnalyzeCustomer(r.Context(), id, facts)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to analyze customer", err.Error())
		return
	}
	writeSuccessResponse(w, result)
}

type recordReferralRequest struct {
	ReferredID string `json:"referred_id"`
}

func (g *Gateway) handleRecordReferral(w http.ResponseWriter, r *http.Request) {
	if g.referrals == nil {
		writeErrorResponse(w, http.StatusNotImplemented, "REFERRALS_DISABLED", "Referral graph is not configured", "")
		return
	}
	id := mux.Vars(r)["id"]

	var body recordReferralRequest
	if err := parseRequestBody(r, &body); err != nil || body.ReferredID == "" {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "referred_id is required", "")
		return
	}

	if err := g.referrals.RecordReferral(r.Context(), id, body.ReferredID); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record referral", err.Error())
		return
	}

	count, err := g.referrals.CountReferrals(r.Context(), id)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to count referrals", err.Error())
		return
	}

	// Fold the new count back into the profile so journey and segment
	// state pick it up.
	result, err := g.intelligence.AnalyzeCustomer(r.Context(), id, models.ProfileFacts{ReferralCount: &count})
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to analyze customer", err.Error())
		return
	}
	writeSuccessResponse(w, map[string]interface{}{
		"customer_id":    id,
		"referral_count": count,
		"stage":          result.Journey.Stage,
	})
}

func (g *Gateway) handleListSegments(w http.ResponseWriter, r *http.Request) {
	writeSuccessResponse(w, g.intelligence.Segments())
}

// Metrics and strategy handlers

func (g *Gateway) handleUpdateMetrics(w http.ResponseWriter, r *http.Request) {
	var update models.BusinessMetrics
	if err := parseRequestBody(r, &update); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse request body", err.Error())
		return
	}

	g.coordinator.UpdateMetrics(r.Context(), update)
	writeSuccessResponse(w, g.coordinator.Metrics())
}

func (g *Gateway) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	writeSuccessResponse(w, g.coordinator.Metrics())
}

func (g *Gateway) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	writeSuccessResponse(w, g.coordinator.Recommendations())
}

func (g *Gateway) handleRefreshRecommendations(w http.ResponseWriter, r *http.Request) {
	writeSuccessResponse(w, g.coordinator.RunStrategyAnalysis(r.Context()))
}

func (g *Gateway) handleRecommendationDigest(w http.ResponseWriter, r *http.Request) {
	if g.insights == nil {
		writeErrorResponse(w, http.StatusNotImplemented, "INSIGHTS_DISABLED", "Insights digests are not configured", "")
		return
	}

	digest, err := g.insights.Digest(r.Context(), g.coordinator.Recommendations())
	if err != nil {
		writeErrorResponse(w, http.StatusBadGateway, "INSIGHTS_ERROR", "Failed to generate digest", err.Error())
		return
	}
	writeSuccessResponse(w, map[string]string{"digest": digest})
}

// Health and alert handlers

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccessResponse(w, map[string]interface{}{
		"health":    g.coordinator.Health(),
		"stats":     g.coordinator.Stats(),
		"workflows": g.coordinator.WorkflowStats(),
		"timestamp": time.Now(),
	})
}

func (g *Gateway) handleHealthHistory(w http.ResponseWriter, r *http.Request) {
	if g.history == nil {
		writeErrorResponse(w, http.StatusNotImplemented, "HISTORY_DISABLED", "Health history persistence is not configured", "")
		return
	}

	limit := 24
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid limit", raw)
			return
		}
		limit = parsed
	}

	snapshots, err := g.history.RecentHealth(r.Context(), limit)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load health history", err.Error())
		return
	}
	writeSuccessResponse(w, snapshots)
}

func (g *Gateway) handleGetAlerts(w http.ResponseWriter, r *http.Request) {
	writeSuccessResponse(w, g.coordinator.Alerts())
}

// Workflow handlers

type workflowResultRequest struct {
	WorkflowID string `json:"workflow_id"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

func (g *Gateway) handleWorkflowResult(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["id"]

	var body workflowResultRequest
	if err := parseRequestBody(r, &body); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse request body", err.Error())
		return
	}

	g.coordinator.ReportWorkflowResult(r.Context(), workflow.Result{
		RequestID:   requestID,
		WorkflowID:  body.WorkflowID,
		Success:     body.Success,
		Error:       body.Error,
		CompletedAt: time.Now(),
	})
	writeSuccessResponse(w, map[string]string{"request_id": requestID, "status": "recorded"})
}

func (g *Gateway) handleWorkflowStats(w http.ResponseWriter, r *http.Request) {
	writeSuccessResponse(w, g.coordinator.WorkflowStats())
}

func writeCustomerError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "Customer not found", id)
		return
	}
	writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Request failed", err.Error())
}
