package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateiq/pkg/models"
)

var testNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func powerUser(id string, ltv float64) models.CustomerProfile {
	p := models.NewCustomerProfile(id, testNow.AddDate(0, -3, 0))
	p.Engagement.Score = 85
	p.Behavior.LoginFrequency = 6
	p.Behavior.ContentCreated = 12
	p.Value.LTV = ltv
	return p
}

func TestEngine_Evaluate_MatchesCatalog(t *testing.T) {
	e := NewEngine()

	matched := e.Evaluate(powerUser("cust-1", 500), testNow)
	assert.Contains(t, matched, "power_users")
	assert.NotContains(t, matched, "at_risk")
	assert.NotContains(t, matched, "dormant")
}

func TestEngine_Evaluate_ZeroOrManySegments(t *testing.T) {
	e := NewEngine()

	// At-risk and dormant overlap for a stale low-engagement customer.
	p := models.NewCustomerProfile("cust-2", testNow.AddDate(0, -2, 0))
	p.Engagement.Score = 10
	p.Behavior.ContentCreated = 0

	matched := e.Evaluate(p, testNow)
	assert.Contains(t, matched, "at_risk")
	assert.Contains(t, matched, "dormant")

	// A mid-range customer a month and a half old matches nothing.
	q := models.NewCustomerProfile("cust-3", testNow.AddDate(0, 0, -45))
	q.Engagement.Score = 45
	q.Behavior.LoginFrequency = 2
	q.Behavior.ContentCreated = 2
	assert.Empty(t, e.Evaluate(q, testNow))
}

func TestEngine_Evaluate_IdempotentMembership(t *testing.T) {
	e := NewEngine()

	for i := 0; i < 5; i++ {
		e.Evaluate(powerUser("cust-1", 500), testNow)
	}

	for _, seg := range e.Segments() {
		if seg.Name == "power_users" {
			assert.Equal(t, 1, seg.Size, "re-analysis must not inflate size")
			assert.InDelta(t, 500, seg.AvgLTV, 1e-9)
		}
	}
}

func TestEngine_Evaluate_IncrementalAvgLTV(t *testing.T) {
	e := NewEngine()

	e.Evaluate(powerUser("a", 100), testNow)
	e.Evaluate(powerUser("b", 300), testNow)

	seg := segmentByName(t, e, "power_users")
	assert.Equal(t, 2, seg.Size)
	assert.InDelta(t, 200, seg.AvgLTV, 1e-9)

	// LTV refresh for an existing member updates the average in place.
	e.Evaluate(powerUser("a", 500), testNow)
	seg = segmentByName(t, e, "power_users")
	assert.Equal(t, 2, seg.Size)
	assert.InDelta(t, 400, seg.AvgLTV, 1e-9)
}

func TestEngine_Evaluate_MembershipRemovedOnMismatch(t *testing.T) {
	e := NewEngine()

	p := powerUser("cust-1", 500)
	e.Evaluate(p, testNow)
	require.Equal(t, 1, segmentByName(t, e, "power_users").Size)

	// Engagement collapses; the customer leaves power_users.
	p.Engagement.Score = 10
	p.Behavior.LoginFrequency = 0
	e.Evaluate(p, testNow)

	seg := segmentByName(t, e, "power_users")
	assert.Equal(t, 0, seg.Size)
	assert.Equal(t, 0.0, seg.AvgLTV)
	assert.Equal(t, 1, segmentByName(t, e, "at_risk").Size)
}

func TestEngine_Recommendations(t *testing.T) {
	e := NewEngine()
	e.Evaluate(powerUser("cust-1", 500), testNow)

	recs := e.Recommendations("cust-1")
	assert.Contains(t, recs, "Invite to the referral rewards program")
	assert.Empty(t, e.Recommendations("unknown"))
}

func TestCriteriaMatch_AbsentCriteriaSatisfied(t *testing.T) {
	p := models.NewCustomerProfile("cust-1", testNow)
	assert.True(t, criteriaMatch(models.SegmentCriteria{}, p, testNow))
}

func TestCriteriaMatch_Conjunctive(t *testing.T) {
	p := models.NewCustomerProfile("cust-1", testNow.AddDate(0, 0, -10))
	p.Engagement.Score = 60
	p.Behavior.FeaturesUsed = []string{"planner", "grocery"}

	tests := []struct {
		name     string
		criteria models.SegmentCriteria
		want     bool
	}{
		{"engagement range ok", models.SegmentCriteria{MinEngagement: intPtr(40), MaxEngagement: intPtr(80)}, true},
		{"engagement too low", models.SegmentCriteria{MinEngagement: intPtr(70)}, false},
		{"age in range", models.SegmentCriteria{MinAgeDays: intPtr(5), MaxAgeDays: intPtr(30)}, true},
		{"too young", models.SegmentCriteria{MinAgeDays: intPtr(30)}, false},
		{"required feature present", models.SegmentCriteria{RequiredFeatures: []string{"planner"}}, true},
		{"required feature missing", models.SegmentCriteria{RequiredFeatures: []string{"planner", "pantry"}}, false},
		{"role mismatch", models.SegmentCriteria{Role: strPtr("admin")}, false},
		{"tier match", models.SegmentCriteria{Tier: strPtr("free")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, criteriaMatch(tt.criteria, p, testNow))
		})
	}
}

func strPtr(s string) *string { return &s }

func segmentByName(t *testing.T, e *Engine, name string) models.CustomerSegment {
	t.Helper()
	for _, seg := range e.Segments() {
		if seg.Name == name {
			return seg
		}
	}
	t.Fatalf("segment %s not found", name)
	return models.CustomerSegment{}
}
