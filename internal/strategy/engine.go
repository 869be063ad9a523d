package strategy

import (
	"fmt"
	"sort"

	"github.com/plateiq/pkg/models"
)

// Analysis thresholds. All rules are fixed and deterministic.
const (
	churnRateThreshold      = 0.05
	revenueGrowthThreshold  = 0.05
	ltvCACThreshold         = 3.0
	tierConcentrationLimit  = 0.70
	activationRateThreshold = 0.60
	stickinessThreshold     = 0.15
	featureAdoptionFloor    = 0.30
	costPerUserCeiling      = 5.0
	supportResponseCeiling  = 24.0 // hours
	npsFloor                = 30.0
	uptimeFloor             = 99.5
)

// Engine is the business strategy engine: a stateless pass over the current
// metrics snapshot that emits prioritized recommendations. The list is
// regenerated in full on every call.
type Engine struct {
	store *MetricsStore
}

// NewEngine creates a strategy engine reading from the given store.
func NewEngine(store *MetricsStore) *Engine {
	return &Engine{store: store}
}

// Analyze runs all five analysis areas and returns recommendations sorted
// descending by priority weight times confidence. The sort is stable: ties
// keep generation order.
func (e *Engine) Analyze() []models.StrategicRecommendation {
	metrics := e.store.Snapshot()

	var recs []models.StrategicRecommendation
	recs = append(recs, analyzeRevenue(metrics.Revenue)...)
	recs = append(recs, analyzeGrowth(metrics.Users)...)
	recs = append(recs, analyzeEngagement(metrics.Engagement)...)
	recs = append(recs, analyzeOperations(metrics.Operational)...)
	recs = append(recs, analyzeMarketPosition(metrics.Revenue, metrics.Engagement)...)

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].SortKey() > recs[j].SortKey()
	})
	return recs
}

func analyzeRevenue(rev *models.RevenueMetrics) []models.StrategicRecommendation {
	if rev == nil {
		return nil
	}
	var recs []models.StrategicRecommendation

	if rev.ChurnRate > churnRateThreshold {
		r := models.NewRecommendation(models.CategoryRevenue, models.PriorityCritical,
			"Reduce revenue churn",
			fmt.Sprintf("Monthly revenue churn is %.1f%%, above the %.0f%% ceiling. Expand the churn-prevention workflow coverage and review cancellation reasons.",
				rev.ChurnRate*100, churnRateThreshold*100))
		r.Impact = models.ExpectedImpact{Metric: "churn_rate", Delta: -2, Unit: "percent"}
		r.Implementation = models.Implementation{Effort: "high", Timeline: "1 quarter", Resources: "customer success + product"}
		r.Confidence = 0.85
		recs = append(recs, r)
	}

	if ratio := rev.LTVCACRatio(); ratio > 0 && ratio < ltvCACThreshold {
		r := models.NewRecommendation(models.CategoryRevenue, models.PriorityHigh,
			"Improve unit economics",
			fmt.Sprintf("LTV/CAC is %.1f, below the sustainable %.0fx target. Reduce acquisition spend on weak channels or raise expansion revenue.",
				ratio, ltvCACThreshold))
		r.Impact = models.ExpectedImpact{Metric: "ltv_cac_ratio", Delta: 1, Unit: "ratio"}
		r.Implementation = models.Implementation{Effort: "medium", Timeline: "2 quarters", Resources: "growth + finance"}
		r.Confidence = 0.80
		recs = append(recs, r)
	}

	if rev.GrowthRate < revenueGrowthThreshold {
		r := models.NewRecommendation(models.CategoryRevenue, models.PriorityHigh,
			"Accelerate revenue growth",
			fmt.Sprintf("Month-over-month revenue growth is %.1f%%. Focus on upgrades from the entry tier and annual plan conversions.",
				rev.GrowthRate*100))
		r.Impact = models.ExpectedImpact{Metric: "growth_rate", Delta: 3, Unit: "percent"}
		r.Implementation = models.Implementation{Effort: "medium", Timeline: "1 quarter", Resources: "growth"}
		r.Confidence = 0.70
		recs = append(recs, r)
	}

	if share, ok := cheapestTierShare(rev.TierBreakdown); ok && share > tierConcentrationLimit {
		r := models.NewRecommendation(models.CategoryRevenue, models.PriorityMedium,
			"Diversify plan mix",
			fmt.Sprintf("%.0f%% of MRR sits on the cheapest tier. Build upgrade paths toward family and premium plans.", share*100))
		r.Impact = models.ExpectedImpact{Metric: "arpu", Delta: 15, Unit: "percent"}
		r.Implementation = models.Implementation{Effort: "medium", Timeline: "2 quarters", Resources: "product + pricing"}
		r.Confidence = 0.65
		recs = append(recs, r)
	}

	return recs
}

func analyzeGrowth(users *models.UserMetrics) []models.StrategicRecommendation {
	if users == nil {
		return nil
	}
	var recs []models.StrategicRecommendation

	if users.ActivationRate < activationRateThreshold {
		r := models.NewRecommendation(models.CategoryGrowth, models.PriorityHigh,
			"Improve onboarding activation",
			fmt.Sprintf("Only %.0f%% of signups reach activation. Shorten the path to the first meal plan.", users.ActivationRate*100))
		r.Impact = models.ExpectedImpact{Metric: "activation_rate", Delta: 10, Unit: "percent"}
		r.Implementation = models.Implementation{Effort: "medium", Timeline: "6 weeks", Resources: "product + design"}
		r.Confidence = 0.80
		recs = append(recs, r)
	}

	if users.ChurnedUsers > users.NewUsers {
		r := models.NewRecommendation(models.CategoryGrowth, models.PriorityCritical,
			"User base is shrinking",
			fmt.Sprintf("%d users churned against %d new signups this period. Net growth is negative.", users.ChurnedUsers, users.NewUsers))
		r.Impact = models.ExpectedImpact{Metric: "net_user_growth", Delta: 5, Unit: "percent"}
		r.Implementation = models.Implementation{Effort: "high", Timeline: "1 quarter", Resources: "full product org"}
		r.Confidence = 0.90
		recs = append(recs, r)
	}

	return recs
}

func analyzeEngagement(eng *models.EngagementMetrics) []models.StrategicRecommendation {
	if eng == nil {
		return nil
	}
	var recs []models.StrategicRecommendation

	if s := eng.Stickiness(); s > 0 && s < stickinessThreshold {
		r := models.NewRecommendation(models.CategoryEngagement, models.PriorityHigh,
			"Increase stickiness",
			fmt.Sprintf("DAU/MAU is %.0f%%, below the %.0f%% benchmark. Introduce daily planning touchpoints such as tonight's-dinner reminders.",
				s*100, stickinessThreshold*100))
		r.Impact = models.ExpectedImpact{Metric: "dau_mau", Delta: 5, Unit: "percent"}
		r.Implementation = models.Implementation{Effort: "medium", Timeline: "2 months", Resources: "product"}
		r.Confidence = 0.75
		recs = append(recs, r)
	}

	if eng.FeatureAdoption > 0 && eng.FeatureAdoption < featureAdoptionFloor {
		r := models.NewRecommendation(models.CategoryEngagement, models.PriorityMedium,
			"Drive feature adoption",
			fmt.Sprintf("Average feature adoption is %.0f%%. Surface grocery lists and pantry tracking inside the planner flow.", eng.FeatureAdoption*100))
		r.Impact = models.ExpectedImpact{Metric: "feature_adoption", Delta: 10, Unit: "percent"}
		r.Implementation = models.Implementation{Effort: "low", Timeline: "1 month", Resources: "product"}
		r.Confidence = 0.70
		recs = append(recs, r)
	}

	return recs
}

func analyzeOperations(ops *models.OperationalMetrics) []models.StrategicRecommendation {
	if ops == nil {
		return nil
	}
	var recs []models.StrategicRecommendation

	if ops.CostPerUser > costPerUserCeiling {
		r := models.NewRecommendation(models.CategoryOperations, models.PriorityMedium,
			"Reduce cost per user",
			fmt.Sprintf("Infrastructure cost is $%.2f per user against a $%.0f ceiling. Review recipe-image storage and caching.",
				ops.CostPerUser, costPerUserCeiling))
		r.Impact = models.ExpectedImpact{Metric: "cost_per_user", Delta: -20, Unit: "percent"}
		r.Implementation = models.Implementation{Effort: "medium", Timeline: "1 quarter", Resources: "infrastructure"}
		r.Confidence = 0.75
		recs = append(recs, r)
	}

	if ops.SupportResponseHours > supportResponseCeiling {
		r := models.NewRecommendation(models.CategoryOperations, models.PriorityHigh,
			"Bring support response under a day",
			fmt.Sprintf("Median first response is %.0f hours. Slow support correlates directly with the high-ticket churn factor.", ops.SupportResponseHours))
		r.Impact = models.ExpectedImpact{Metric: "support_response_hours", Delta: -50, Unit: "percent"}
		r.Implementation = models.Implementation{Effort: "low", Timeline: "1 month", Resources: "support"}
		r.Confidence = 0.85
		recs = append(recs, r)
	}

	if ops.UptimePercent > 0 && ops.UptimePercent < uptimeFloor {
		r := models.NewRecommendation(models.CategoryOperations, models.PriorityCritical,
			"Stabilize platform uptime",
			fmt.Sprintf("Uptime is %.2f%%, below the %.1f%% floor.", ops.UptimePercent, uptimeFloor))
		r.Impact = models.ExpectedImpact{Metric: "uptime", Delta: 0.5, Unit: "percent"}
		r.Implementation = models.Implementation{Effort: "high", Timeline: "6 weeks", Resources: "infrastructure"}
		r.Confidence = 0.90
		recs = append(recs, r)
	}

	return recs
}

func analyzeMarketPosition(rev *models.RevenueMetrics, eng *models.EngagementMetrics) []models.StrategicRecommendation {
	var recs []models.StrategicRecommendation

	if eng != nil && eng.NPS > 0 && eng.NPS < npsFloor {
		r := models.NewRecommendation(models.CategoryMarket, models.PriorityMedium,
			"Strengthen customer advocacy",
			fmt.Sprintf("NPS is %.0f, below the %.0f target for organic referral growth.", eng.NPS, npsFloor))
		r.Impact = models.ExpectedImpact{Metric: "nps", Delta: 10, Unit: "points"}
		r.Implementation = models.Implementation{Effort: "medium", Timeline: "2 quarters", Resources: "product + support"}
		r.Confidence = 0.60
		recs = append(recs, r)
	}

	if rev != nil && rev.ARPU > 0 && rev.ARPU < rev.CAC/12 {
		r := models.NewRecommendation(models.CategoryMarket, models.PriorityLow,
			"Revisit pricing position",
			fmt.Sprintf("ARPU of $%.2f takes over a year to recover a $%.2f CAC. Benchmark pricing against comparable planning products.", rev.ARPU, rev.CAC))
		r.Impact = models.ExpectedImpact{Metric: "arpu", Delta: 10, Unit: "percent"}
		r.Implementation = models.Implementation{Effort: "low", Timeline: "1 month", Resources: "pricing"}
		r.Confidence = 0.55
		recs = append(recs, r)
	}

	return recs
}

// cheapestTierShare returns the MRR share of the cheapest tier, preferring
// well-known entry tier names.
func cheapestTierShare(breakdown map[string]float64) (float64, bool) {
	if len(breakdown) == 0 {
		return 0, false
	}
	for _, name := range []string{"basic", "starter", "free"} {
		if share, ok := breakdown[name]; ok {
			return share, true
		}
	}
	return 0, false
}
