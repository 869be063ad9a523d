package segment

import (
	"sync"
	"time"

	"github.com/plateiq/pkg/models"
)

// Engine holds the fixed segment catalog and evaluates profiles against it.
// Membership is idempotent per customer: re-analyzing a customer updates its
// membership rather than re-counting it, so Size always reflects distinct
// current members.
type Engine struct {
	mu       sync.RWMutex
	segments []*models.CustomerSegment
	// members maps customer id -> segment name -> the match recorded at the
	// last analysis, used to reverse aggregate contributions on change.
	members map[string]map[string]models.SegmentMatch
}

// NewEngine creates an engine initialized with the default segment catalog.
func NewEngine() *Engine {
	return &Engine{
		segments: defaultCatalog(),
		members:  make(map[string]map[string]models.SegmentMatch),
	}
}

// Evaluate matches the profile against every segment, updates rolling
// aggregates, and returns the names of the segments the customer currently
// belongs to, in catalog order.
func (e *Engine) Evaluate(profile models.CustomerProfile, now time.Time) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.members[profile.ID]
	if current == nil {
		current = make(map[string]models.SegmentMatch)
		e.members[profile.ID] = current
	}

	var matched []string
	for _, seg := range e.segments {
		matches := criteriaMatch(seg.Criteria, profile, now)
		prev, wasMember := current[seg.Name]
		match := models.SegmentMatch{SegmentName: seg.Name, CustomerID: profile.ID, LTV: profile.Value.LTV}

		switch {
		case matches && !wasMember:
			addMember(seg, match.LTV)
			current[seg.Name] = match
		case matches && wasMember:
			// Refresh the customer's LTV contribution in place.
			removeMember(seg, prev.LTV)
			addMember(seg, match.LTV)
			current[seg.Name] = match
		case !matches && wasMember:
			removeMember(seg, prev.LTV)
			delete(current, seg.Name)
		}

		if matches {
			matched = append(matched, seg.Name)
		}
	}
	return matched
}

// addMember folds one member's LTV into the segment aggregates.
func addMember(seg *models.CustomerSegment, ltv float64) {
	seg.Size++
	seg.AvgLTV = (seg.AvgLTV*float64(seg.Size-1) + ltv) / float64(seg.Size)
}

// removeMember reverses a previous addMember with the LTV recorded then.
func removeMember(seg *models.CustomerSegment, ltv float64) {
	if seg.Size <= 1 {
		seg.Size = 0
		seg.AvgLTV = 0
		return
	}
	seg.AvgLTV = (seg.AvgLTV*float64(seg.Size) - ltv) / float64(seg.Size-1)
	seg.Size--
}

// Segments returns a snapshot copy of the catalog.
func (e *Engine) Segments() []models.CustomerSegment {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]models.CustomerSegment, 0, len(e.segments))
	for _, seg := range e.segments {
		out = append(out, *seg)
	}
	return out
}

// SegmentsForCustomer returns the segments the customer currently belongs
// to, in catalog order.
func (e *Engine) SegmentsForCustomer(customerID string) []models.CustomerSegment {
	e.mu.RLock()
	defer e.mu.RUnlock()

	current := e.members[customerID]
	if len(current) == 0 {
		return nil
	}
	var out []models.CustomerSegment
	for _, seg := range e.segments {
		if _, ok := current[seg.Name]; ok {
			out = append(out, *seg)
		}
	}
	return out
}

// Recommendations returns the fixed recommendation texts for every segment
// the customer belongs to, in catalog order.
func (e *Engine) Recommendations(customerID string) []string {
	var out []string
	for _, seg := range e.SegmentsForCustomer(customerID) {
		out = append(out, seg.Recommendations...)
	}
	return out
}

// criteriaMatch evaluates the conjunctive criteria. An absent criterion is
// always satisfied.
func criteriaMatch(c models.SegmentCriteria, p models.CustomerProfile, now time.Time) bool {
	if c.Role != nil && p.Role != *c.Role {
		return false
	}
	if c.Tier != nil && p.Subscription.Tier != *c.Tier {
		return false
	}
	if c.MinEngagement != nil && p.Engagement.Score < *c.MinEngagement {
		return false
	}
	if c.MaxEngagement != nil && p.Engagement.Score > *c.MaxEngagement {
		return false
	}
	age := p.AgeDays(now)
	if c.MinAgeDays != nil && age < *c.MinAgeDays {
		return false
	}
	if c.MaxAgeDays != nil && age > *c.MaxAgeDays {
		return false
	}
	if c.MinRevenue != nil && p.Value.TotalRevenue < *c.MinRevenue {
		return false
	}
	if c.MaxRevenue != nil && p.Value.TotalRevenue > *c.MaxRevenue {
		return false
	}
	if c.MinLoginFrequency != nil && p.Behavior.LoginFrequency < *c.MinLoginFrequency {
		return false
	}
	for _, f := range c.RequiredFeatures {
		if !p.Behavior.UsesFeature(f) {
			return false
		}
	}
	if c.MinContentCreated != nil && p.Behavior.ContentCreated < *c.MinContentCreated {
		return false
	}
	if c.MaxContentCreated != nil && p.Behavior.ContentCreated > *c.MaxContentCreated {
		return false
	}
	return true
}
