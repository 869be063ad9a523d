package models

import "time"

// ChurnPrediction is a deterministic rule-based churn estimate for one
// customer. Predictions are recomputed on every request and never persisted.
type ChurnPrediction struct {
	CustomerID           string    `json:"customer_id"`
	Probability          float64   `json:"probability"` // 0-0.95
	RiskFactors          []string  `json:"risk_factors"`
	DaysUntilChurn       int       `json:"days_until_churn"`
	PreventionStrategies []string  `json:"prevention_strategies"`
	Confidence           float64   `json:"confidence"`
	PredictedAt          time.Time `json:"predicted_at"`
}
