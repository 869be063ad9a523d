package intelligence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/plateiq/internal/churn"
	"github.com/plateiq/internal/engagement"
	"github.com/plateiq/internal/events"
	"github.com/plateiq/internal/journey"
	"github.com/plateiq/internal/segment"
	"github.com/plateiq/internal/store"
	"github.com/plateiq/pkg/models"
)

// Service runs the per-customer analysis pipeline: merge incoming facts into
// the latest profile snapshot, recompute every derived signal, persist the
// new snapshot, and announce the result on the bus.
//
// Calls for different customer ids may run concurrently. Callers that may
// deliver overlapping updates for the same id must serialize them; the
// service applies last-write-wins at the store.
type Service struct {
	profiles store.ProfileStore
	scorer   *engagement.Scorer
	churn    *churn.Predictor
	journeys *journey.Tracker
	segments *segment.Engine
	bus      events.Bus
	now      func() time.Time
}

// NewService wires the analysis pipeline.
func NewService(profiles store.ProfileStore, segments *segment.Engine, bus events.Bus) *Service {
	return &Service{
		profiles: profiles,
		scorer:   engagement.NewScorer(),
		churn:    churn.NewPredictor(),
		journeys: journey.NewTracker(),
		segments: segments,
		bus:      bus,
		now:      time.Now,
	}
}

// AnalysisResult is the full output of one analysis pass.
type AnalysisResult struct {
	Profile  models.CustomerProfile `json:"profile"`
	Churn    models.ChurnPrediction `json:"churn"`
	Journey  models.CustomerJourney `json:"journey"`
	Segments []string               `json:"segments"`
}

// AnalyzeCustomer merges facts into the customer's profile and recomputes
// engagement, churn, LTV, journey stage and segment membership. Unknown ids
// start from a default profile; analysis never fails on a missing customer.
func (s *Service) AnalyzeCustomer(ctx context.Context, customerID string, facts models.ProfileFacts) (AnalysisResult, error) {
	now := s.now()

	profile, err := s.profiles.Get(ctx, customerID)
	if errors.Is(err, store.ErrNotFound) {
		profile = models.NewCustomerProfile(customerID, now)
	} else if err != nil {
		return AnalysisResult{}, fmt.Errorf("loading profile %s: %w", customerID, err)
	}

	profile = facts.Apply(profile, now)

	score := s.scorer.Score(profile.Behavior, profile.LastActiveAt, now)
	profile.Engagement = models.EngagementFacts{
		Score:     score,
		Trend:     s.scorer.Trend(score),
		RiskLevel: s.scorer.RiskLevel(score, profile.Behavior, profile.LastActiveAt, profile.Value.SupportTickets, now),
	}

	prediction := s.churn.Predict(profile, now)
	profile.Value.LTV = churn.LTV(profile.Subscription.MRR, prediction.Probability,
		profile.Value.ReferralCount, profile.Value.SupportTickets)

	journeyState := s.journeys.Track(profile)
	segmentNames := s.segments.Evaluate(profile, now)

	if err := s.profiles.Put(ctx, profile); err != nil {
		return AnalysisResult{}, fmt.Errorf("storing profile %s: %w", customerID, err)
	}

	log.Printf("Analyzed customer %s: engagement=%d risk=%s churn=%.2f stage=%s segments=%d",
		customerID, score, profile.Engagement.RiskLevel, prediction.Probability,
		journeyState.Stage, len(segmentNames))

	s.bus.Publish(ctx, models.NewEvent(models.EventCustomerAnalyzed, "intelligence",
		"customer analysis complete").
		WithCustomerID(customerID).
		WithPayload("engagement_score", score).
		WithPayload("risk_level", string(profile.Engagement.RiskLevel)).
		WithPayload("churn_probability", prediction.Probability).
		WithPayload("stage", string(journeyState.Stage)))

	// Published even when membership is empty so downstream tallies can
	// drop the customer's previous segments.
	s.bus.Publish(ctx, models.NewEvent(models.EventCustomerSegmented, "intelligence",
		"customer segment membership updated").
		WithCustomerID(customerID).
		WithPayload("segments", segmentNames))

	return AnalysisResult{
		Profile:  profile,
		Churn:    prediction,
		Journey:  journeyState,
		Segments: segmentNames,
	}, nil
}

// GetProfile returns the latest snapshot for a customer.
func (s *Service) GetProfile(ctx context.Context, customerID string) (models.CustomerProfile, error) {
	return s.profiles.Get(ctx, customerID)
}

// PredictChurn recomputes the churn prediction from the latest snapshot.
func (s *Service) PredictChurn(ctx context.Context, customerID string) (models.ChurnPrediction, error) {
	profile, err := s.profiles.Get(ctx, customerID)
	if err != nil {
		return models.ChurnPrediction{}, err
	}
	return s.churn.Predict(profile, s.now()), nil
}

// GetJourney recomputes the journey state from the latest snapshot.
func (s *Service) GetJourney(ctx context.Context, customerID string) (models.CustomerJourney, error) {
	profile, err := s.profiles.Get(ctx, customerID)
	if err != nil {
		return models.CustomerJourney{}, err
	}
	return s.journeys.Track(profile), nil
}

// GetSegmentRecommendations returns the pooled recommended actions of every
// segment the customer currently belongs to.
func (s *Service) GetSegmentRecommendations(ctx context.Context, customerID string) ([]string, error) {
	if _, err := s.profiles.Get(ctx, customerID); err != nil {
		return nil, err
	}
	return s.segments.Recommendations(customerID), nil
}

// Segments returns every segment definition with its live aggregates.
func (s *Service) Segments() []models.CustomerSegment {
	return s.segments.Segments()
}

// GetNextBestAction returns the single most useful next step for a customer.
func (s *Service) GetNextBestAction(ctx context.Context, customerID string) (string, error) {
	profile, err := s.profiles.Get(ctx, customerID)
	if err != nil {
		return "", err
	}
	return s.journeys.Track(profile).NextAction, nil
}
