package journey

import (
	"fmt"

	"github.com/plateiq/pkg/models"
)

// Milestone names. The list order below is fixed and drives next-action
// selection.
const (
	MilestoneAccountCreated   = "account_created"
	MilestoneProfileCompleted = "profile_completed"
	MilestoneFirstLogin       = "first_login"
	MilestoneFirstContent     = "first_meal_plan"
	MilestoneFifthContent     = "fifth_meal_plan"
	MilestoneFeatureExplorer  = "feature_explorer"
	MilestoneRegularUsage     = "regular_usage"
	MilestoneReferralMade     = "referral_made"
)

// regularUsageLogins is the logins-per-week threshold for regular usage.
const regularUsageLogins = 3.0

type milestoneDef struct {
	name       string
	importance models.MilestoneImportance
	completed  func(models.CustomerProfile) bool
}

// milestoneDefs is the fixed ordered catalog: eight milestones, four critical.
var milestoneDefs = []milestoneDef{
	{MilestoneAccountCreated, models.ImportanceCritical, func(models.CustomerProfile) bool { return true }},
	{MilestoneProfileCompleted, models.ImportanceMedium, func(p models.CustomerProfile) bool { return p.ProfileCompleted }},
	{MilestoneFirstLogin, models.ImportanceCritical, func(p models.CustomerProfile) bool { return p.Behavior.LoginFrequency > 0 }},
	{MilestoneFirstContent, models.ImportanceCritical, func(p models.CustomerProfile) bool { return p.Behavior.ContentCreated >= 1 }},
	{MilestoneFifthContent, models.ImportanceHigh, func(p models.CustomerProfile) bool { return p.Behavior.ContentCreated >= 5 }},
	{MilestoneFeatureExplorer, models.ImportanceMedium, func(p models.CustomerProfile) bool { return p.Behavior.DistinctFeatures() >= 5 }},
	{MilestoneRegularUsage, models.ImportanceCritical, func(p models.CustomerProfile) bool { return p.Behavior.LoginFrequency >= regularUsageLogins }},
	{MilestoneReferralMade, models.ImportanceLow, func(p models.CustomerProfile) bool { return p.Value.ReferralCount > 0 }},
}

// Bespoke next-action copy for specific milestones; every other incomplete
// critical milestone falls back to "Complete: <name>".
var milestoneActions = map[string]string{
	MilestoneFirstLogin:   "Send a welcome-back nudge to get the customer into the app",
	MilestoneFirstContent: "Guide the customer to build their first meal plan from a starter template",
}

// Stage-specific default actions when no critical milestone is incomplete.
var stageActions = map[models.JourneyStage]string{
	models.StageRetention: "Introduce advanced planning features to deepen the habit",
	models.StageAdvocacy:  "Invite the customer to the referral rewards program",
}

// Tracker derives the milestone checklist and lifecycle stage for a
// profile. Stateless.
type Tracker struct{}

// NewTracker creates a new journey tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Track computes the customer journey snapshot for a profile.
func (t *Tracker) Track(profile models.CustomerProfile) models.CustomerJourney {
	milestones := make([]models.JourneyMilestone, 0, len(milestoneDefs))
	completed := 0
	criticalDone := 0

	for _, def := range milestoneDefs {
		done := def.completed(profile)
		milestones = append(milestones, models.JourneyMilestone{
			Name:       def.name,
			Completed:  done,
			Importance: def.importance,
		})
		if done {
			completed++
			if def.importance == models.ImportanceCritical {
				criticalDone++
			}
		}
	}

	stage := deriveStage(criticalDone, profile.Value.ReferralCount)

	return models.CustomerJourney{
		CustomerID:      profile.ID,
		Milestones:      milestones,
		Stage:           stage,
		CompletionRatio: float64(completed) / float64(len(milestoneDefs)),
		NextAction:      nextAction(milestones, stage),
	}
}

// deriveStage maps the completed-critical count to a lifecycle stage.
func deriveStage(criticalDone, referralCount int) models.JourneyStage {
	switch criticalDone {
	case 0:
		return models.StageAwareness
	case 1:
		return models.StageConsideration
	case 2:
		return models.StageOnboarding
	case 3:
		return models.StageActivation
	default:
		if referralCount > 0 {
			return models.StageAdvocacy
		}
		return models.StageRetention
	}
}

// nextAction returns the action for the first incomplete critical milestone
// in list order, or the stage default when all criticals are complete.
func nextAction(milestones []models.JourneyMilestone, stage models.JourneyStage) string {
	for _, m := range milestones {
		if m.Importance != models.ImportanceCritical || m.Completed {
			continue
		}
		if action, ok := milestoneActions[m.Name]; ok {
			return action
		}
		return fmt.Sprintf("Complete: %s", m.Name)
	}
	if action, ok := stageActions[stage]; ok {
		return action
	}
	return "Keep the customer engaged with fresh plan content"
}
