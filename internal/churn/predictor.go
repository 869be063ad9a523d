package churn

import (
	"math"
	"time"

	"github.com/plateiq/pkg/models"
)

// Risk-factor labels attached to predictions.
const (
	FactorLowEngagement = "low_engagement_score"
	FactorRareLogins    = "rare_logins"
	FactorInactivity    = "extended_inactivity"
	FactorNoContent     = "no_content_created"
	FactorManyTickets   = "high_support_load"
)

// Fixed probability increments per triggered factor.
var factorIncrements = map[string]float64{
	FactorLowEngagement: 0.30,
	FactorRareLogins:    0.20,
	FactorInactivity:    0.25,
	FactorNoContent:     0.15,
	FactorManyTickets:   0.10,
}

// Prevention strategies looked up per triggered factor.
var factorStrategies = map[string][]string{
	FactorLowEngagement: {
		"Send a re-engagement email with personalized meal plan suggestions",
		"Offer a guided product tour highlighting unused features",
	},
	FactorRareLogins: {
		"Enable weekly plan-ready notifications",
		"Send a re-engagement email with personalized meal plan suggestions",
	},
	FactorInactivity: {
		"Trigger a win-back campaign with a limited-time discount",
	},
	FactorNoContent: {
		"Prompt the customer to create their first meal plan from a template",
	},
	FactorManyTickets: {
		"Have a support lead review the customer's open tickets",
	},
}

// Strategies included in every prediction regardless of factors.
var generalStrategies = []string{
	"Schedule a check-in from the customer success team",
	"Review recent product feedback from this customer",
}

const (
	probabilityCap   = 0.95
	churnHorizonDays = 30
	fixedConfidence  = 0.70
)

// Predictor is the deterministic rule-based churn model. Stateless; every
// prediction is a pure function of the profile and the reference time.
type Predictor struct{}

// NewPredictor creates a new churn predictor.
func NewPredictor() *Predictor {
	return &Predictor{}
}

// Predict computes a fresh churn prediction for the profile.
func (p *Predictor) Predict(profile models.CustomerProfile, now time.Time) models.ChurnPrediction {
	var factors []string

	if profile.Engagement.Score < 30 {
		factors = append(factors, FactorLowEngagement)
	}
	if profile.Behavior.LoginFrequency < 1 {
		factors = append(factors, FactorRareLogins)
	}
	if profile.DaysSinceActive(now) > 14 {
		factors = append(factors, FactorInactivity)
	}
	if profile.Behavior.ContentCreated == 0 {
		factors = append(factors, FactorNoContent)
	}
	if profile.Value.SupportTickets > 5 {
		factors = append(factors, FactorManyTickets)
	}

	probability := 0.0
	for _, f := range factors {
		probability += factorIncrements[f]
	}
	if probability > probabilityCap {
		probability = probabilityCap
	}

	return models.ChurnPrediction{
		CustomerID:           profile.ID,
		Probability:          probability,
		RiskFactors:          factors,
		DaysUntilChurn:       int(math.Round(churnHorizonDays * (1 - probability))),
		PreventionStrategies: buildStrategies(factors),
		Confidence:           fixedConfidence,
		PredictedAt:          now,
	}
}

// buildStrategies collects per-factor strategies plus the general ones,
// de-duplicated with first occurrence winning.
func buildStrategies(factors []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, f := range factors {
		for _, s := range factorStrategies[f] {
			add(s)
		}
	}
	for _, s := range generalStrategies {
		add(s)
	}
	return out
}
