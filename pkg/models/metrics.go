package models

import "time"

// RevenueMetrics holds the revenue category of business metrics
type RevenueMetrics struct {
	MRR           float64            `json:"mrr"`
	ARR           float64            `json:"arr"`
	GrowthRate    float64            `json:"growth_rate"` // month-over-month, fraction
	ChurnRate     float64            `json:"churn_rate"`  // monthly revenue churn, fraction
	ARPU          float64            `json:"arpu"`        // average revenue per user
	LTV           float64            `json:"ltv"`
	CAC           float64            `json:"cac"`
	TierBreakdown map[string]float64 `json:"tier_breakdown,omitempty"` // tier -> share of MRR
}

// UserMetrics holds the user category of business metrics
type UserMetrics struct {
	TotalUsers     int     `json:"total_users"`
	ActiveUsers    int     `json:"active_users"`
	NewUsers       int     `json:"new_users"`
	ChurnedUsers   int     `json:"churned_users"`
	GrowthRate     float64 `json:"growth_rate"`
	ActivationRate float64 `json:"activation_rate"` // fraction of signups activated
}

// EngagementMetrics holds the engagement category of business metrics
type EngagementMetrics struct {
	DAU               int     `json:"dau"`
	MAU               int     `json:"mau"`
	AvgSessionMinutes float64 `json:"avg_session_minutes"`
	FeatureAdoption   float64 `json:"feature_adoption"` // fraction
	NPS               float64 `json:"nps"`
}

// Stickiness returns the DAU/MAU ratio, 0 when MAU is unknown.
func (e EngagementMetrics) Stickiness() float64 {
	if e.MAU == 0 {
		return 0
	}
	return float64(e.DAU) / float64(e.MAU)
}

// OperationalMetrics holds the operational category of business metrics
type OperationalMetrics struct {
	CostPerUser          float64 `json:"cost_per_user"`
	SupportResponseHours float64 `json:"support_response_hours"`
	UptimePercent        float64 `json:"uptime_percent"`
	OpenTickets          int     `json:"open_tickets"`
}

// BusinessMetrics is the latest snapshot of business-level figures. Each
// category is replaced wholesale on update, never partially validated.
type BusinessMetrics struct {
	Revenue     *RevenueMetrics     `json:"revenue,omitempty"`
	Users       *UserMetrics        `json:"users,omitempty"`
	Engagement  *EngagementMetrics  `json:"engagement,omitempty"`
	Operational *OperationalMetrics `json:"operational,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// LTVCACRatio returns LTV/CAC, 0 when CAC is unknown.
func (r RevenueMetrics) LTVCACRatio() float64 {
	if r.CAC == 0 {
		return 0
	}
	return r.LTV / r.CAC
}
