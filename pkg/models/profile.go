package models

import (
	"time"
)

// Trend represents the direction of a customer's engagement
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// RiskLevel represents churn risk derived from engagement and behavior
type RiskLevel string

const (
	RiskLevelNone   RiskLevel = "none"
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// SubscriptionStatus represents the billing status of a subscription
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionTrialing  SubscriptionStatus = "trialing"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// SubscriptionFacts holds the billing-side facts about a customer
type SubscriptionFacts struct {
	Tier   string             `json:"tier"`
	MRR    float64            `json:"mrr"`
	Status SubscriptionStatus `json:"status"`
}

// ActionRecord is a single entry in a customer's recent action log
type ActionRecord struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// BehaviorFacts holds observed product usage for a customer
type BehaviorFacts struct {
	LoginFrequency    float64        `json:"login_frequency"` // logins per week
	FeaturesUsed      []string       `json:"features_used"`
	AvgSessionMinutes float64        `json:"avg_session_minutes"`
	ContentCreated    int            `json:"content_created"`
	RecentActions     []ActionRecord `json:"recent_actions,omitempty"`
}

// DistinctFeatures returns the number of distinct feature names used
func (b BehaviorFacts) DistinctFeatures() int {
	seen := make(map[string]bool, len(b.FeaturesUsed))
	for _, f := range b.FeaturesUsed {
		seen[f] = true
	}
	return len(seen)
}

// UsesFeature reports whether the customer has used the named feature
func (b BehaviorFacts) UsesFeature(name string) bool {
	for _, f := range b.FeaturesUsed {
		if f == name {
			return true
		}
	}
	return false
}

// EngagementFacts holds derived engagement state for a customer.
// Score and RiskLevel are recomputed on every analysis pass and are never
// read back as inputs to the next pass.
type EngagementFacts struct {
	Score     int       `json:"score"` // 0-100
	Trend     Trend     `json:"trend"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// ValueFacts holds derived customer value state
type ValueFacts struct {
	LTV            float64 `json:"ltv"`
	TotalRevenue   float64 `json:"total_revenue"`
	ReferralCount  int     `json:"referral_count"`
	SupportTickets int     `json:"support_tickets"`
}

// CustomerProfile is the aggregate view of a single customer. Profiles are
// value types: every analysis pass derives a new profile from the previous
// snapshot plus the incoming facts, and only the latest snapshot is stored.
type CustomerProfile struct {
	ID               string            `json:"id"`
	Email            string            `json:"email,omitempty"`
	Role             string            `json:"role"`
	RegisteredAt     time.Time         `json:"registered_at"`
	LastActiveAt     time.Time         `json:"last_active_at"`
	ProfileCompleted bool              `json:"profile_completed"`
	Subscription     SubscriptionFacts `json:"subscription"`
	Behavior         BehaviorFacts     `json:"behavior"`
	Engagement       EngagementFacts   `json:"engagement"`
	Value            ValueFacts        `json:"value"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewCustomerProfile builds a default profile for a previously unseen id.
func NewCustomerProfile(id string, now time.Time) CustomerProfile {
	return CustomerProfile{
		ID:           id,
		Role:         "member",
		RegisteredAt: now,
		LastActiveAt: now,
		Subscription: SubscriptionFacts{
			Tier:   "free",
			Status: SubscriptionActive,
		},
		UpdatedAt: now,
	}
}

// AgeDays returns the number of whole days since registration.
func (p CustomerProfile) AgeDays(now time.Time) int {
	if p.RegisteredAt.IsZero() || now.Before(p.RegisteredAt) {
		return 0
	}
	return int(now.Sub(p.RegisteredAt).Hours() / 24)
}

// DaysSinceActive returns the number of whole days since last activity.
func (p CustomerProfile) DaysSinceActive(now time.Time) int {
	if p.LastActiveAt.IsZero() {
		return 0
	}
	d := int(now.Sub(p.LastActiveAt).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// ProfileFacts is a partial profile update. Nil fields leave the previous
// snapshot's value untouched; set fields replace it wholesale.
type ProfileFacts struct {
	Email            *string            `json:"email,omitempty"`
	Role             *string            `json:"role,omitempty"`
	RegisteredAt     *time.Time         `json:"registered_at,omitempty"`
	LastActiveAt     *time.Time         `json:"last_active_at,omitempty"`
	ProfileCompleted *bool              `json:"profile_completed,omitempty"`
	Subscription     *SubscriptionFacts `json:"subscription,omitempty"`
	LoginFrequency   *float64           `json:"login_frequency,omitempty"`
	FeaturesUsed     []string           `json:"features_used,omitempty"`
	AvgSessionMins   *float64           `json:"avg_session_minutes,omitempty"`
	ContentCreated   *int               `json:"content_created,omitempty"`
	Actions          []ActionRecord     `json:"actions,omitempty"`
	TotalRevenue     *float64           `json:"total_revenue,omitempty"`
	ReferralCount    *int               `json:"referral_count,omitempty"`
	SupportTickets   *int               `json:"support_tickets,omitempty"`
}

// maxRecentActions bounds the retained action log per profile.
const maxRecentActions = 50

// Apply returns a new profile derived from p with the set fields of facts
// merged in. The receiver is not modified.
func (f ProfileFacts) Apply(p CustomerProfile, now time.Time) CustomerProfile {
	next := p
	next.Behavior.FeaturesUsed = append([]string(nil), p.Behavior.FeaturesUsed...)
	next.Behavior.RecentActions = append([]ActionRecord(nil), p.Behavior.RecentActions...)

	if f.Email != nil {
		next.Email = *f.Email
	}
	if f.Role != nil {
		next.Role = *f.Role
	}
	if f.RegisteredAt != nil {
		next.RegisteredAt = *f.RegisteredAt
	}
	if f.LastActiveAt != nil {
		next.LastActiveAt = *f.LastActiveAt
	}
	if f.ProfileCompleted != nil {
		next.ProfileCompleted = *f.ProfileCompleted
	}
	if f.Subscription != nil {
		next.Subscription = *f.Subscription
	}
	if f.LoginFrequency != nil {
		next.Behavior.LoginFrequency = *f.LoginFrequency
	}
	if f.FeaturesUsed != nil {
		next.Behavior.FeaturesUsed = mergeFeatureSet(next.Behavior.FeaturesUsed, f.FeaturesUsed)
	}
	if f.AvgSessionMins != nil {
		next.Behavior.AvgSessionMinutes = *f.AvgSessionMins
	}
	if f.ContentCreated != nil {
		next.Behavior.ContentCreated = *f.ContentCreated
	}
	if len(f.Actions) > 0 {
		next.Behavior.RecentActions = append(next.Behavior.RecentActions, f.Actions...)
		if n := len(next.Behavior.RecentActions); n > maxRecentActions {
			next.Behavior.RecentActions = next.Behavior.RecentActions[n-maxRecentActions:]
		}
	}
	if f.TotalRevenue != nil {
		next.Value.TotalRevenue = *f.TotalRevenue
	}
	if f.ReferralCount != nil {
		next.Value.ReferralCount = *f.ReferralCount
	}
	if f.SupportTickets != nil {
		next.Value.SupportTickets = *f.SupportTickets
	}

	next.UpdatedAt = now
	return next
}

// mergeFeatureSet unions the incoming feature names into the existing set,
// preserving first-seen order.
func mergeFeatureSet(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	out := append([]string(nil), existing...)
	for _, f := range existing {
		seen[f] = true
	}
	for _, f := range incoming {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
