package engagement

import (
	"math"
	"time"

	"github.com/plateiq/pkg/models"
)

// Sub-score weights. They sum to 1.0 so the final score stays in 0-100.
const (
	weightLoginFrequency = 0.25
	weightFeatureBreadth = 0.20
	weightSessionDepth   = 0.15
	weightContentCreated = 0.20
	weightRecency        = 0.20
)

// Scorer turns behavioral facts into an engagement score. It is stateless:
// every call is a pure function of its inputs.
type Scorer struct{}

// NewScorer creates a new engagement scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the 0-100 engagement score from behavior facts and the
// last-active timestamp. Each sub-score is capped at 100 before weighting.
func (s *Scorer) Score(behavior models.BehaviorFacts, lastActive time.Time, now time.Time) int {
	loginScore := math.Min(behavior.LoginFrequency*20, 100)
	featureScore := math.Min(float64(behavior.DistinctFeatures())*10, 100)
	sessionScore := math.Min(behavior.AvgSessionMinutes*2, 100)
	contentScore := math.Min(float64(behavior.ContentCreated)*5, 100)

	daysInactive := daysSince(lastActive, now)
	recencyScore := math.Max(100-float64(daysInactive)*5, 0)

	total := loginScore*weightLoginFrequency +
		featureScore*weightFeatureBreadth +
		sessionScore*weightSessionDepth +
		contentScore*weightContentCreated +
		recencyScore*weightRecency

	return clampScore(int(math.Round(total)))
}

// Trend classifies a score into a direction. This is a snapshot classifier:
// no history is consulted.
func (s *Scorer) Trend(score int) models.Trend {
	switch {
	case score > 70:
		return models.TrendIncreasing
	case score < 40:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

// Risk-flag thresholds for risk-level derivation.
const (
	riskScoreThreshold = 30
	riskLoginThreshold = 1.0 // logins per week
	riskInactivityDays = 14
	riskSupportTickets = 5
)

// RiskLevel derives churn risk from a count of triggered boolean flags:
// 0 -> none, 1 -> low, 2 -> medium, 3+ -> high.
func (s *Scorer) RiskLevel(score int, behavior models.BehaviorFacts, lastActive time.Time, supportTickets int, now time.Time) models.RiskLevel {
	flags := 0
	if score < riskScoreThreshold {
		flags++
	}
	if behavior.LoginFrequency < riskLoginThreshold {
		flags++
	}
	if daysSince(lastActive, now) > riskInactivityDays {
		flags++
	}
	if supportTickets > riskSupportTickets {
		flags++
	}

	switch {
	case flags >= 3:
		return models.RiskLevelHigh
	case flags == 2:
		return models.RiskLevelMedium
	case flags == 1:
		return models.RiskLevelLow
	default:
		return models.RiskLevelNone
	}
}

func daysSince(t, now time.Time) int {
	if t.IsZero() || now.Before(t) {
		return 0
	}
	return int(now.Sub(t).Hours() / 24)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
