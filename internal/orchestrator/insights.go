package orchestrator

import (
	"fmt"

	"github.com/plateiq/pkg/models"
)

// Cohorts whose baseline churn meets this rate are surfaced as retention
// work in the combined recommendation view.
const retentionChurnFloor = 0.20

// segmentInsights derives recommendations from the populated segment
// aggregates so the combined view covers cohort-level risk alongside the
// business-wide strategy rules.
func segmentInsights(segments []models.CustomerSegment) []models.StrategicRecommendation {
	var recs []models.StrategicRecommendation
	for _, seg := range segments {
		if seg.Size == 0 || seg.ChurnRate < retentionChurnFloor {
			continue
		}
		exposure := float64(seg.Size) * seg.AvgLTV
		r := models.NewRecommendation(models.CategoryRetention, models.PriorityHigh,
			fmt.Sprintf("Re-engage the %s segment", seg.Name),
			fmt.Sprintf("%d customers with a combined lifetime value of $%.0f sit in a cohort with %.0f%% baseline churn. %s.",
				seg.Size, exposure, seg.ChurnRate*100, firstPlay(seg)))
		r.Impact = models.ExpectedImpact{Metric: "retained_ltv", Delta: exposure, Unit: "usd"}
		r.Implementation = models.Implementation{Effort: "medium", Timeline: "2 weeks", Resources: "customer success"}
		r.Confidence = 0.75
		recs = append(recs, r)
	}
	return recs
}

// firstPlay picks the cohort's leading playbook entry for the description.
func firstPlay(seg models.CustomerSegment) string {
	if len(seg.Recommendations) > 0 {
		return seg.Recommendations[0]
	}
	return "Run a targeted win-back campaign"
}
