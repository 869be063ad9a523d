package churn

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateiq/pkg/models"
)

func baseProfile(now time.Time) models.CustomerProfile {
	p := models.NewCustomerProfile("cust-1", now)
	p.Engagement.Score = 80
	p.Behavior.LoginFrequency = 5
	p.Behavior.ContentCreated = 10
	p.LastActiveAt = now
	return p
}

func TestPredictor_Predict_NoFactors(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pred := NewPredictor().Predict(baseProfile(now), now)

	assert.Equal(t, 0.0, pred.Probability)
	assert.Empty(t, pred.RiskFactors)
	assert.Equal(t, 30, pred.DaysUntilChurn)
	assert.Equal(t, 0.70, pred.Confidence)
	// General strategies always included
	assert.Equal(t, generalStrategies, pred.PreventionStrategies)
}

func TestPredictor_Predict_AdditiveFactors(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := baseProfile(now)
	p.Engagement.Score = 25
	p.Behavior.LoginFrequency = 0
	p.LastActiveAt = now.AddDate(0, 0, -20)
	p.Value.SupportTickets = 6
	// content created stays > 0, so that factor must not trigger

	pred := NewPredictor().Predict(p, now)

	require.InDelta(t, 0.85, pred.Probability, 1e-9) // 0.30+0.20+0.25+0.10
	assert.Equal(t, []string{FactorLowEngagement, FactorRareLogins, FactorInactivity, FactorManyTickets}, pred.RiskFactors)
	assert.Equal(t, 5, pred.DaysUntilChurn) // round(30 * 0.15)
}

func TestPredictor_Predict_ProbabilityCapped(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := baseProfile(now)
	p.Engagement.Score = 0
	p.Behavior.LoginFrequency = 0
	p.Behavior.ContentCreated = 0
	p.LastActiveAt = now.AddDate(0, 0, -60)
	p.Value.SupportTickets = 20

	pred := NewPredictor().Predict(p, now)

	assert.Equal(t, 0.95, pred.Probability) // 1.00 clamped
	assert.Len(t, pred.RiskFactors, 5)
	assert.Equal(t, 2, pred.DaysUntilChurn) // round(30*0.05)
}

func TestPredictor_Predict_DaysUntilChurnShrinksWithProbability(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pred := NewPredictor()

	profiles := []models.CustomerProfile{
		baseProfile(now),
		func() models.CustomerProfile {
			p := baseProfile(now)
			p.Engagement.Score = 10
			return p
		}(),
		func() models.CustomerProfile {
			p := baseProfile(now)
			p.Behavior.ContentCreated = 0
			p.Value.SupportTickets = 7
			return p
		}(),
	}

	for _, p := range profiles {
		got := pred.Predict(p, now)
		assert.GreaterOrEqual(t, got.Probability, 0.0)
		assert.LessOrEqual(t, got.Probability, 0.95)
		assert.Equal(t, int(math.Round(30*(1-got.Probability))), got.DaysUntilChurn)
	}
}

func TestPredictor_Predict_StrategiesDeduplicated(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := baseProfile(now)
	// Both low_engagement_score and rare_logins map to the re-engagement
	// email strategy; it must appear once.
	p.Engagement.Score = 20
	p.Behavior.LoginFrequency = 0

	pred := NewPredictor().Predict(p, now)

	seen := make(map[string]int)
	for _, s := range pred.PreventionStrategies {
		seen[s]++
	}
	for s, n := range seen {
		assert.Equal(t, 1, n, "strategy %q repeated", s)
	}
	assert.Contains(t, pred.PreventionStrategies, "Send a re-engagement email with personalized meal plan suggestions")
	for _, g := range generalStrategies {
		assert.Contains(t, pred.PreventionStrategies, g)
	}
}

func TestLTV(t *testing.T) {
	tests := []struct {
		name      string
		mrr       float64
		prob      float64
		referrals int
		tickets   int
		want      float64
	}{
		{"zero customer", 0, 0, 0, 0, 0},
		{"healthy subscriber", 50, 0, 0, 0, 1200},     // 50 * 24
		{"half churn risk", 50, 0.5, 0, 0, 600},       // 50 * 12
		{"referrals add value", 50, 0.5, 3, 0, 900},   // 600 + 300
		{"tickets subtract", 50, 0.5, 0, 10, 500},     // 600 - 100
		{"floored at zero", 0, 0.95, 0, 20, 0},        // 0 - 200 -> 0
		{"max churn keeps referral value", 10, 0.95, 2, 0, 212}, // 12 + 200
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LTV(tt.mrr, tt.prob, tt.referrals, tt.tickets)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}
