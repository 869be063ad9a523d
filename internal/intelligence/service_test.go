package intelligence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateiq/internal/churn"
	"github.com/plateiq/internal/events"
	"github.com/plateiq/internal/segment"
	"github.com/plateiq/internal/store"
	"github.com/plateiq/pkg/models"
)

type capturingHandler struct {
	mu     sync.Mutex
	events []models.Event
}

func (c *capturingHandler) Handle(ctx context.Context, event models.Event) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	return nil
}

func (c *capturingHandler) Name() string { return "capture" }

func newTestService(t *testing.T) (*Service, *store.MemoryStore, *capturingHandler) {
	t.Helper()
	profiles := store.NewMemoryStore()
	bus := events.NewMemoryBus()
	capture := &capturingHandler{}
	bus.Subscribe(models.EventCustomerAnalyzed, capture)
	bus.Subscribe(models.EventCustomerSegmented, capture)

	svc := NewService(profiles, segment.NewEngine(), bus)
	svc.now = func() time.Time {
		return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc, profiles, capture
}

func strPtr(s string) *string     { return &s }
func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

func TestAnalyzeCustomerUnknownIDStartsDefault(t *testing.T) {
	svc, profiles, _ := newTestService(t)

	result, err := svc.AnalyzeCustomer(context.Background(), "cust-1", models.ProfileFacts{})
	require.NoError(t, err)

	assert.Equal(t, "cust-1", result.Profile.ID)
	assert.Equal(t, "member", result.Profile.Role)
	assert.Equal(t, "free", result.Profile.Subscription.Tier)
	assert.Equal(t, models.StageConsideration, result.Journey.Stage)

	stored, err := profiles.Get(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, result.Profile.Engagement.Score, stored.Engagement.Score)
}

func TestAnalyzeCustomerRecomputesDerivedState(t *testing.T) {
	svc, _, capture := newTestService(t)
	now := svc.now()

	registered := now.AddDate(0, 0, -60)
	facts := models.ProfileFacts{
		RegisteredAt:     &registered,
		LastActiveAt:     &now,
		ProfileCompleted: boolPtr(true),
		Subscription:     &models.SubscriptionFacts{Tier: "family", MRR: 25, Status: models.SubscriptionActive},
		LoginFrequency:   floatPtr(5),
		FeaturesUsed:     []string{"meal-planner", "grocery-list", "recipes", "nutrition", "sharing"},
		AvgSessionMins:   floatPtr(30),
		ContentCreated:   intPtr(12),
		ReferralCount:    intPtr(2),
	}

	result, err := svc.AnalyzeCustomer(context.Background(), "cust-2", facts)
	require.NoError(t, err)

	assert.Greater(t, result.Profile.Engagement.Score, 70)
	assert.Equal(t, models.TrendIncreasing, result.Profile.Engagement.Trend)
	assert.Equal(t, models.RiskLevelNone, result.Profile.Engagement.RiskLevel)
	assert.Less(t, result.Churn.Probability, 0.2)
	assert.Greater(t, result.Profile.Value.LTV, 0.0)
	assert.Equal(t, models.StageAdvocacy, result.Journey.Stage)
	assert.Contains(t, result.Segments, "power_users")

	capture.mu.Lock()
	defer capture.mu.Unlock()
	require.Len(t, capture.events, 2)
	assert.Equal(t, models.EventCustomerAnalyzed, capture.events[0].Type)
	assert.Equal(t, models.EventCustomerSegmented, capture.events[1].Type)
	assert.Equal(t, "cust-2", capture.events[0].CustomerID)
}

func TestAnalyzeCustomerSuccessivePassesMerge(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AnalyzeCustomer(ctx, "cust-3", models.ProfileFacts{
		FeaturesUsed: []string{"meal-planner"},
	})
	require.NoError(t, err)

	result, err := svc.AnalyzeCustomer(ctx, "cust-3", models.ProfileFacts{
		FeaturesUsed:   []string{"recipes"},
		LoginFrequency: floatPtr(2),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Profile.Behavior.DistinctFeatures())
	assert.Equal(t, 2.0, result.Profile.Behavior.LoginFrequency)
}

func TestAnalyzeCustomerAlwaysPublishesMembership(t *testing.T) {
	svc, _, capture := newTestService(t)

	// A brand-new customer matches no segment yet; the membership event is
	// still published so subscribers can track the empty state.
	_, err := svc.AnalyzeCustomer(context.Background(), "cust-new", models.ProfileFacts{})
	require.NoError(t, err)

	capture.mu.Lock()
	defer capture.mu.Unlock()
	require.Len(t, capture.events, 2)
	assert.Equal(t, models.EventCustomerSegmented, capture.events[1].Type)
	segments, ok := capture.events[1].Payload["segments"].([]string)
	require.True(t, ok)
	assert.Empty(t, segments)
}

func TestReadOperationsUnknownID(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.PredictChurn(ctx, "ghost")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = svc.GetJourney(ctx, "ghost")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = svc.GetSegmentRecommendations(ctx, "ghost")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = svc.GetNextBestAction(ctx, "ghost")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestPredictChurnUsesStoredSnapshot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := svc.now()

	inactive := now.AddDate(0, 0, -20)
	registered := now.AddDate(0, 0, -90)
	_, err := svc.AnalyzeCustomer(ctx, "cust-4", models.ProfileFacts{
		RegisteredAt: &registered,
		LastActiveAt: &inactive,
	})
	require.NoError(t, err)

	prediction, err := svc.PredictChurn(ctx, "cust-4")
	require.NoError(t, err)
	assert.Equal(t, "cust-4", prediction.CustomerID)
	assert.Contains(t, prediction.RiskFactors, churn.FactorInactivity)
	assert.Greater(t, prediction.Probability, 0.3)
}

func TestGetNextBestAction(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AnalyzeCustomer(ctx, "cust-5", models.ProfileFacts{})
	require.NoError(t, err)

	action, err := svc.GetNextBestAction(ctx, "cust-5")
	require.NoError(t, err)
	assert.NotEmpty(t, action)
}
