package models

// SegmentCriteria is a conjunctive predicate over profile facts. A nil field
// means the criterion is absent and therefore always satisfied.
type SegmentCriteria struct {
	Role              *string  `json:"role,omitempty"`
	Tier              *string  `json:"tier,omitempty"`
	MinEngagement     *int     `json:"min_engagement,omitempty"`
	MaxEngagement     *int     `json:"max_engagement,omitempty"`
	MinAgeDays        *int     `json:"min_age_days,omitempty"`
	MaxAgeDays        *int     `json:"max_age_days,omitempty"`
	MinRevenue        *float64 `json:"min_revenue,omitempty"`
	MaxRevenue        *float64 `json:"max_revenue,omitempty"`
	MinLoginFrequency *float64 `json:"min_login_frequency,omitempty"`
	RequiredFeatures  []string `json:"required_features,omitempty"`
	MinContentCreated *int     `json:"min_content_created,omitempty"`
	MaxContentCreated *int     `json:"max_content_created,omitempty"`
}

// CustomerSegment is a named cohort with matching criteria and rolling
// aggregates. The catalog of segments is fixed at startup; only Size and
// AvgLTV change afterwards.
type CustomerSegment struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Criteria        SegmentCriteria `json:"criteria"`
	Size            int             `json:"size"`
	AvgLTV          float64         `json:"avg_ltv"`
	Characteristics []string        `json:"characteristics"`
	Recommendations []string        `json:"recommendations"`
	ChurnRate       float64         `json:"churn_rate"` // baseline for the cohort
}

// SegmentMatch records one customer matching one segment during an
// analysis pass.
type SegmentMatch struct {
	SegmentName string  `json:"segment_name"`
	CustomerID  string  `json:"customer_id"`
	LTV         float64 `json:"ltv"`
}
