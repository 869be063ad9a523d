package segment

import "github.com/plateiq/pkg/models"

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// defaultCatalog returns the five predefined segments. Only Size and AvgLTV
// mutate after startup.
func defaultCatalog() []*models.CustomerSegment {
	return []*models.CustomerSegment{
		{
			Name:        "power_users",
			Description: "Highly engaged customers planning meals most days of the week",
			Criteria: models.SegmentCriteria{
				MinEngagement:     intPtr(70),
				MinLoginFrequency: floatPtr(4),
				MinContentCreated: intPtr(5),
			},
			Characteristics: []string{
				"Log in most days of the week",
				"Build plans well beyond the starter templates",
				"Adopt new features quickly",
			},
			Recommendations: []string{
				"Offer early access to beta features",
				"Invite to the referral rewards program",
			},
			ChurnRate: 0.02,
		},
		{
			Name:        "at_risk",
			Description: "Previously active customers whose engagement has dropped",
			Criteria: models.SegmentCriteria{
				MaxEngagement: intPtr(35),
				MinAgeDays:    intPtr(30),
			},
			Characteristics: []string{
				"Engagement well below the healthy range",
				"Past the honeymoon period without forming a habit",
			},
			Recommendations: []string{
				"Run the churn-prevention workflow",
				"Send a win-back offer with a personalized plan",
			},
			ChurnRate: 0.25,
		},
		{
			Name:        "new_and_promising",
			Description: "Recent signups showing early engagement",
			Criteria: models.SegmentCriteria{
				MaxAgeDays:    intPtr(30),
				MinEngagement: intPtr(40),
			},
			Characteristics: []string{
				"Signed up within the last month",
				"Already building plans regularly",
			},
			Recommendations: []string{
				"Nudge toward the fifth meal plan milestone",
				"Introduce grocery-list and pantry features",
			},
			ChurnRate: 0.10,
		},
		{
			Name:        "high_value_stable",
			Description: "Long-tenured paying customers with steady usage",
			Criteria: models.SegmentCriteria{
				MinAgeDays:    intPtr(90),
				MinRevenue:    floatPtr(100),
				MinEngagement: intPtr(50),
			},
			Characteristics: []string{
				"Consistent revenue over multiple quarters",
				"Stable weekly planning habit",
			},
			Recommendations: []string{
				"Offer an annual plan upgrade",
				"Collect a testimonial or case study",
			},
			ChurnRate: 0.04,
		},
		{
			Name:        "dormant",
			Description: "Customers who have stopped using the product",
			Criteria: models.SegmentCriteria{
				MaxEngagement:     intPtr(20),
				MinAgeDays:        intPtr(14),
				MaxContentCreated: intPtr(1),
			},
			Characteristics: []string{
				"Little to no recent activity",
				"Never formed a planning habit",
			},
			Recommendations: []string{
				"Send a final win-back campaign before downgrade",
				"Survey for the reason they stopped",
			},
			ChurnRate: 0.45,
		},
	}
}
