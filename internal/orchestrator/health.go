package orchestrator

import (
	"github.com/plateiq/internal/store"
	"github.com/plateiq/pkg/models"
)

// Per-violation deduction and category caps. Every violated threshold costs
// ten points; categories cap at 30/30/20/20 so the score stays in 0-100.
const (
	deductionPerViolation = 10

	revenueChurnCeiling   = 0.05
	revenueGrowthFloor    = 0.05
	ltvCACFloor           = 3.0
	userGrowthFloor       = 0.0
	activationFloor       = 0.60
	churnedVsNewCeiling   = 1.0 // churned users must not exceed new users
	stickinessFloor       = 0.15
	featureAdoptionMin    = 0.30
	uptimeMinimum         = 99.5
	supportResponseMaxHrs = 24.0

	missingRevenueFallback = 50
	healthWarningThreshold = 70
)

// ComputeHealth scores the metrics snapshot. The score starts at 100 and
// loses ten points per violated threshold, capped per category. A snapshot
// with no revenue metrics at all scores a conservative 50.
func ComputeHealth(metrics models.BusinessMetrics) store.HealthSnapshot {
	if metrics.Revenue == nil {
		return store.HealthSnapshot{Score: missingRevenueFallback}
	}

	snap := store.HealthSnapshot{
		Revenue:    revenueDeduction(metrics.Revenue),
		Users:      userDeduction(metrics.Users),
		Engagement: engagementDeduction(metrics.Engagement),
		Operations: operationalDeduction(metrics.Operational),
	}

	score := 100 - snap.Revenue - snap.Users - snap.Engagement - snap.Operations
	if score < 0 {
		score = 0
	}
	snap.Score = score
	return snap
}

func revenueDeduction(rev *models.RevenueMetrics) int {
	d := 0
	if rev.ChurnRate > revenueChurnCeiling {
		d += deductionPerViolation
	}
	if rev.GrowthRate < revenueGrowthFloor {
		d += deductionPerViolation
	}
	if ratio := rev.LTVCACRatio(); ratio > 0 && ratio < ltvCACFloor {
		d += deductionPerViolation
	}
	return d
}

func userDeduction(users *models.UserMetrics) int {
	if users == nil {
		return 0
	}
	d := 0
	if users.GrowthRate < userGrowthFloor {
		d += deductionPerViolation
	}
	if users.ActivationRate < activationFloor {
		d += deductionPerViolation
	}
	if users.NewUsers > 0 && float64(users.ChurnedUsers)/float64(users.NewUsers) > churnedVsNewCeiling {
		d += deductionPerViolation
	}
	return d
}

func engagementDeduction(eng *models.EngagementMetrics) int {
	if eng == nil {
		return 0
	}
	d := 0
	// Zero means the signal was never sampled, not that nobody returns.
	if s := eng.Stickiness(); s > 0 && s < stickinessFloor {
		d += deductionPerViolation
	}
	if eng.FeatureAdoption > 0 && eng.FeatureAdoption < featureAdoptionMin {
		d += deductionPerViolation
	}
	return d
}

func operationalDeduction(ops *models.OperationalMetrics) int {
	if ops == nil {
		return 0
	}
	d := 0
	if ops.UptimePercent < uptimeMinimum {
		d += deductionPerViolation
	}
	if ops.SupportResponseHours > supportResponseMaxHrs {
		d += deductionPerViolation
	}
	return d
}
