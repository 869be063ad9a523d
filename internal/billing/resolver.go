package billing

import (
	"context"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v74"
	sub "github.com/stripe/stripe-go/v74/subscription"

	"github.com/plateiq/pkg/models"
)

// subscriptionLister abstracts the Stripe subscription list call so the
// mapping logic is testable without hitting the API.
type subscriptionLister interface {
	ActiveSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error)
}

type stripeLister struct{}

func (stripeLister) ActiveSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx

	var subs []*stripe.Subscription
	iter := sub.List(params)
	for iter.Next() {
		subs = append(subs, iter.Subscription())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing subscriptions for %s: %w", customerID, err)
	}
	return subs, nil
}

// Resolver turns a Stripe customer's current subscription into profile
// facts for the analysis pipeline.
type Resolver struct {
	lister subscriptionLister
}

// NewResolver creates a resolver using the given Stripe API key.
func NewResolver(apiKey string) *Resolver {
	stripe.Key = apiKey
	return &Resolver{lister: stripeLister{}}
}

// ResolveFacts fetches the customer's subscriptions and maps the most
// relevant one to subscription facts. Customers with no subscription at all
// resolve to the free tier.
func (r *Resolver) ResolveFacts(ctx context.Context, customerID string) (models.ProfileFacts, error) {
	subs, err := r.lister.ActiveSubscriptions(ctx, customerID)
	if err != nil {
		return models.ProfileFacts{}, err
	}

	facts := subscriptionFacts(subs)
	log.Printf("Resolved billing for customer %s: tier=%s mrr=%.2f status=%s",
		customerID, facts.Tier, facts.MRR, facts.Status)
	return models.ProfileFacts{Subscription: &facts}, nil
}

// subscriptionFacts picks the best subscription to describe the customer.
// An active or trialing subscription wins over a delinquent one, which wins
// over a cancelled one; with none at all the customer is on the free tier.
func subscriptionFacts(subs []*stripe.Subscription) models.SubscriptionFacts {
	facts := models.SubscriptionFacts{Tier: "free", Status: models.SubscriptionActive}

	best := -1
	for _, s := range subs {
		if rank := statusRank(s.Status); rank > best {
			best = rank
			facts = models.SubscriptionFacts{
				Tier:   tierName(s),
				MRR:    monthlyAmount(s),
				Status: mapStatus(s.Status),
			}
		}
	}
	return facts
}

func statusRank(status stripe.SubscriptionStatus) int {
	switch status {
	case stripe.SubscriptionStatusActive:
		return 4
	case stripe.SubscriptionStatusTrialing:
		return 3
	case stripe.SubscriptionStatusPastDue:
		return 2
	default:
		return 1
	}
}

func mapStatus(status stripe.SubscriptionStatus) models.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return models.SubscriptionActive
	case stripe.SubscriptionStatusTrialing:
		return models.SubscriptionTrialing
	case stripe.SubscriptionStatusPastDue:
		return models.SubscriptionPastDue
	default:
		return models.SubscriptionCancelled
	}
}

func tierName(s *stripe.Subscription) string {
	if s.Items == nil || len(s.Items.Data) == 0 || s.Items.Data[0].Price == nil {
		return "free"
	}
	price := s.Items.Data[0].Price
	if price.Nickname != "" {
		return price.Nickname
	}
	return price.ID
}

// monthlyAmount normalizes the subscription price to a monthly figure in
// currency units.
func monthlyAmount(s *stripe.Subscription) float64 {
	if s.Items == nil || len(s.Items.Data) == 0 || s.Items.Data[0].Price == nil {
		return 0
	}
	price := s.Items.Data[0].Price
	amount := float64(price.UnitAmount) / 100

	if price.Recurring != nil && price.Recurring.Interval == stripe.PriceRecurringIntervalYear {
		amount /= 12
	}
	return amount
}
