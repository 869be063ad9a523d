package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/plateiq/pkg/models"
)

// WorkflowChurnPrevention is the fixed id of the churn-prevention workflow.
const WorkflowChurnPrevention = "churn-prevention"

// Step is one opaque action descriptor inside a workflow. The engine never
// interprets actions; the external runner does.
type Step struct {
	Name   string                 `json:"name"`
	Action string                 `json:"action"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Definition describes a workflow the engine can request.
type Definition struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Trigger   string    `json:"trigger"`
	Steps     []Step    `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
}

// Request asks the external runner to execute a workflow.
type Request struct {
	ID          string                 `json:"id"`
	Workflow    Definition             `json:"workflow"`
	CustomerID  string                 `json:"customer_id,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	RequestedAt time.Time              `json:"requested_at"`
}

// Result is reported back by the external runner after execution.
type Result struct {
	RequestID   string    `json:"request_id"`
	WorkflowID  string    `json:"workflow_id"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// ChurnPreventionDefinition returns the fixed churn-prevention workflow.
func ChurnPreventionDefinition() Definition {
	return Definition{
		ID:      WorkflowChurnPrevention,
		Name:    "Churn prevention outreach",
		Trigger: "high_risk_customer",
		Steps: []Step{
			{Name: "personalized_email", Action: "send_email", Params: map[string]interface{}{"template": "win_back"}},
			{Name: "success_task", Action: "create_task", Params: map[string]interface{}{"team": "customer_success"}},
			{Name: "discount_offer", Action: "apply_offer", Params: map[string]interface{}{"percent": 20, "duration_days": 30}},
		},
		CreatedAt: time.Now(),
	}
}

// FromRecommendation builds a one-off workflow definition out of a critical
// strategic recommendation.
func FromRecommendation(rec models.StrategicRecommendation) Definition {
	return Definition{
		ID:      uuid.New().String(),
		Name:    rec.Title,
		Trigger: "critical_recommendation",
		Steps: []Step{
			{
				Name:   "notify_owners",
				Action: "send_email",
				Params: map[string]interface{}{"template": "strategy_brief", "subject": rec.Title},
			},
			{
				Name:   "create_initiative",
				Action: "create_task",
				Params: map[string]interface{}{
					"title":       rec.Title,
					"description": rec.Description,
					"category":    string(rec.Category),
					"effort":      rec.Implementation.Effort,
				},
			},
		},
		CreatedAt: time.Now(),
	}
}

// NewRequest wraps a definition into a request with a fresh id.
func NewRequest(def Definition, customerID string, payload map[string]interface{}) Request {
	return Request{
		ID:          uuid.New().String(),
		Workflow:    def,
		CustomerID:  customerID,
		Payload:     payload,
		RequestedAt: time.Now(),
	}
}
