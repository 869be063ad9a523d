package models

import (
	"time"

	"github.com/google/uuid"
)

// RecommendationCategory tags the analysis area a recommendation came from
type RecommendationCategory string

const (
	CategoryRevenue    RecommendationCategory = "revenue"
	CategoryGrowth     RecommendationCategory = "growth"
	CategoryEngagement RecommendationCategory = "engagement"
	CategoryOperations RecommendationCategory = "operations"
	CategoryMarket     RecommendationCategory = "market_position"
	CategoryRetention  RecommendationCategory = "retention"
)

// Priority ranks how urgently a recommendation should be acted on
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// PriorityWeight maps a priority tier to its numeric sort weight.
func PriorityWeight(p Priority) float64 {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ExpectedImpact is the estimated effect of acting on a recommendation
type ExpectedImpact struct {
	Metric string  `json:"metric"`
	Delta  float64 `json:"delta"`
	Unit   string  `json:"unit"` // percent, usd, ratio
}

// Implementation estimates the cost of acting on a recommendation
type Implementation struct {
	Effort    string `json:"effort"` // low, medium, high
	Timeline  string `json:"timeline"`
	Resources string `json:"resources"`
}

// StrategicRecommendation is one prioritized action emitted by the strategy
// engine. The full list is regenerated on each analysis pass.
type StrategicRecommendation struct {
	ID             string                 `json:"id"`
	Category       RecommendationCategory `json:"category"`
	Priority       Priority               `json:"priority"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Impact         ExpectedImpact         `json:"impact"`
	Implementation Implementation         `json:"implementation"`
	Confidence     float64                `json:"confidence"` // 0-1
	GeneratedAt    time.Time              `json:"generated_at"`
}

// SortKey is the descending sort key for recommendation lists.
func (r StrategicRecommendation) SortKey() float64 {
	return PriorityWeight(r.Priority) * r.Confidence
}

// NewRecommendation builds a recommendation with a fresh id.
func NewRecommendation(category RecommendationCategory, priority Priority, title, description string) StrategicRecommendation {
	return StrategicRecommendation{
		ID:          uuid.New().String(),
		Category:    category,
		Priority:    priority,
		Title:       title,
		Description: description,
		GeneratedAt: time.Now(),
	}
}
