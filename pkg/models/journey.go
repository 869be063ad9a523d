package models

// JourneyStage is a customer lifecycle stage derived from milestone progress
type JourneyStage string

const (
	StageAwareness     JourneyStage = "awareness"
	StageConsideration JourneyStage = "consideration"
	StageOnboarding    JourneyStage = "onboarding"
	StageActivation    JourneyStage = "activation"
	StageRetention     JourneyStage = "retention"
	StageAdvocacy      JourneyStage = "advocacy"
)

// MilestoneImportance ranks how much a milestone matters for stage derivation
type MilestoneImportance string

const (
	ImportanceCritical MilestoneImportance = "critical"
	ImportanceHigh     MilestoneImportance = "high"
	ImportanceMedium   MilestoneImportance = "medium"
	ImportanceLow      MilestoneImportance = "low"
)

// JourneyMilestone is a discrete binary lifecycle achievement
type JourneyMilestone struct {
	Name       string              `json:"name"`
	Completed  bool                `json:"completed"`
	Importance MilestoneImportance `json:"importance"`
}

// CustomerJourney is the milestone checklist and derived stage for one
// customer. Recomputed fresh from the profile on every request.
type CustomerJourney struct {
	CustomerID      string             `json:"customer_id"`
	Milestones      []JourneyMilestone `json:"milestones"`
	Stage           JourneyStage       `json:"stage"`
	CompletionRatio float64            `json:"completion_ratio"` // completed / total
	NextAction      string             `json:"next_action"`
}
