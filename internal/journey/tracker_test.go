package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateiq/pkg/models"
)

func newProfile() models.CustomerProfile {
	return models.NewCustomerProfile("cust-1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestTracker_Track_FreshAccount(t *testing.T) {
	j := NewTracker().Track(newProfile())

	require.Len(t, j.Milestones, 8)
	// account_created is always complete, so a fresh account already has
	// one critical milestone done.
	assert.Equal(t, models.StageConsideration, j.Stage)
	assert.InDelta(t, 1.0/8.0, j.CompletionRatio, 1e-9)
	assert.Equal(t, milestoneActions[MilestoneFirstLogin], j.NextAction)
}

func TestTracker_Track_StageProgression(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.CustomerProfile)
		wantStage models.JourneyStage
	}{
		{
			name:      "one critical done",
			mutate:    func(p *models.CustomerProfile) {},
			wantStage: models.StageConsideration,
		},
		{
			name: "two criticals done",
			mutate: func(p *models.CustomerProfile) {
				p.Behavior.LoginFrequency = 1
			},
			wantStage: models.StageOnboarding,
		},
		{
			name: "three criticals done",
			mutate: func(p *models.CustomerProfile) {
				p.Behavior.LoginFrequency = 1
				p.Behavior.ContentCreated = 1
			},
			wantStage: models.StageActivation,
		},
		{
			name: "all criticals, no referral",
			mutate: func(p *models.CustomerProfile) {
				p.Behavior.LoginFrequency = 4
				p.Behavior.ContentCreated = 1
			},
			wantStage: models.StageRetention,
		},
		{
			name: "all criticals with referral",
			mutate: func(p *models.CustomerProfile) {
				p.Behavior.LoginFrequency = 4
				p.Behavior.ContentCreated = 1
				p.Value.ReferralCount = 2
			},
			wantStage: models.StageAdvocacy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProfile()
			tt.mutate(&p)
			j := NewTracker().Track(p)
			assert.Equal(t, tt.wantStage, j.Stage)
		})
	}
}

func TestTracker_Track_CompletionRatioBounds(t *testing.T) {
	p := newProfile()
	p.ProfileCompleted = true
	p.Behavior.LoginFrequency = 5
	p.Behavior.ContentCreated = 7
	p.Behavior.FeaturesUsed = []string{"a", "b", "c", "d", "e"}
	p.Value.ReferralCount = 1

	j := NewTracker().Track(p)
	assert.Equal(t, 1.0, j.CompletionRatio)

	empty := NewTracker().Track(newProfile())
	assert.Greater(t, empty.CompletionRatio, 0.0) // account_created
	assert.LessOrEqual(t, empty.CompletionRatio, 1.0)
}

func TestTracker_Track_NextActionOrder(t *testing.T) {
	// First login done, first content not: the first incomplete critical
	// in list order is first_meal_plan with its bespoke copy.
	p := newProfile()
	p.Behavior.LoginFrequency = 1

	j := NewTracker().Track(p)
	assert.Equal(t, milestoneActions[MilestoneFirstContent], j.NextAction)

	// First content done too: regular_usage has no bespoke copy.
	p.Behavior.ContentCreated = 1
	j = NewTracker().Track(p)
	assert.Equal(t, "Complete: regular_usage", j.NextAction)
}

func TestTracker_Track_StageDefaultActions(t *testing.T) {
	p := newProfile()
	p.Behavior.LoginFrequency = 4
	p.Behavior.ContentCreated = 1

	j := NewTracker().Track(p)
	assert.Equal(t, stageActions[models.StageRetention], j.NextAction)

	p.Value.ReferralCount = 1
	j = NewTracker().Track(p)
	assert.Equal(t, stageActions[models.StageAdvocacy], j.NextAction)
}

func TestTracker_Track_CriticalCount(t *testing.T) {
	j := NewTracker().Track(newProfile())

	critical := 0
	for _, m := range j.Milestones {
		if m.Importance == models.ImportanceCritical {
			critical++
		}
	}
	assert.Equal(t, 4, critical)
}
