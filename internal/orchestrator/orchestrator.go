package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/plateiq/internal/events"
	"github.com/plateiq/internal/store"
	"github.com/plateiq/internal/strategy"
	"github.com/plateiq/internal/workflow"
	"github.com/plateiq/pkg/models"
)

// Alerts are bounded; the oldest are discarded first.
const maxAlerts = 100

// Config sets the cadence of the coordinator's periodic jobs. Specs use
// robfig/cron syntax.
type Config struct {
	StrategySchedule string `yaml:"strategy_schedule" json:"strategy_schedule"`
	SweepSchedule    string `yaml:"sweep_schedule" json:"sweep_schedule"`
}

// DefaultConfig returns the default cadence: strategy analysis every hour
// and a health sweep every minute.
func DefaultConfig() Config {
	return Config{
		StrategySchedule: "@hourly",
		SweepSchedule:    "@every 1m",
	}
}

// SegmentSource exposes the segment catalog aggregates the coordinator
// folds into its combined recommendation view.
type SegmentSource interface {
	Segments() []models.CustomerSegment
}

// Stats are the coordinator's running counters. SegmentTallies counts
// distinct current members per segment, tracked from membership events.
type Stats struct {
	AnalysesPerformed int            `json:"analyses_performed"`
	HighRiskCustomers int            `json:"high_risk_customers"`
	SegmentTallies    map[string]int `json:"segment_tallies"`
}

// Coordinator ties the lifecycle components together. It subscribes to
// their events at construction, keeps the aggregate health score and
// running counters, and issues workflow requests for the reactions the
// analysis results call for.
type Coordinator struct {
	config     Config
	bus        events.Bus
	metrics    *strategy.MetricsStore
	strategies *strategy.Engine
	segments   SegmentSource
	dispatcher *workflow.Dispatcher
	history    *store.HistoryStore
	scheduler  Scheduler
	now        func() time.Time

	mu              sync.RWMutex
	health          store.HealthSnapshot
	recommendations []models.StrategicRecommendation
	alerts          []models.Alert
	analyses        int
	highRisk        int
	segmentTallies  map[string]int
	// customerSegments remembers each customer's last reported membership
	// so re-analysis replaces its tally contribution instead of adding to it.
	customerSegments map[string][]string
}

// NewCoordinator wires the coordinator and registers its subscriptions on
// the bus. The segment source and history store may be nil when segment
// insights or trend persistence are disabled.
func NewCoordinator(config Config, bus events.Bus, metrics *strategy.MetricsStore, strategies *strategy.Engine,
	segments SegmentSource, dispatcher *workflow.Dispatcher, history *store.HistoryStore, scheduler Scheduler) *Coordinator {
	c := &Coordinator{
		config:           config,
		bus:              bus,
		metrics:          metrics,
		strategies:       strategies,
		segments:         segments,
		dispatcher:       dispatcher,
		history:          history,
		scheduler:        scheduler,
		now:              time.Now,
		health:           store.HealthSnapshot{Score: missingRevenueFallback},
		segmentTallies:   make(map[string]int),
		customerSegments: make(map[string][]string),
	}

	bus.Subscribe(models.EventCustomerAnalyzed, events.HandlerFunc{ID: "orchestrator-analyzed", Fn: c.onCustomerAnalyzed})
	bus.Subscribe(models.EventCustomerSegmented, events.HandlerFunc{ID: "orchestrator-segmented", Fn: c.onCustomerSegmented})
	bus.Subscribe(models.EventMetricsUpdated, events.HandlerFunc{ID: "orchestrator-metrics", Fn: c.onMetricsUpdated})
	bus.Subscribe(models.EventStrategyComplete, events.HandlerFunc{ID: "orchestrator-strategy", Fn: c.onStrategyComplete})
	bus.Subscribe(models.EventWorkflowFailed, events.HandlerFunc{ID: "orchestrator-workflow-failed", Fn: c.onWorkflowFailed})

	return c
}

// Start registers the periodic jobs and starts the scheduler and workflow
// dispatcher.
func (c *Coordinator) Start(ctx context.Context) error {
	if err := c.scheduler.Schedule(c.config.StrategySchedule, func() {
		c.RunStrategyAnalysis(context.Background())
	}); err != nil {
		return err
	}
	if err := c.scheduler.Schedule(c.config.SweepSchedule, func() {
		c.healthSweep(context.Background())
	}); err != nil {
		return err
	}

	c.dispatcher.Start(ctx)
	c.scheduler.Start()
	log.Printf("Orchestrator started")
	return nil
}

// Stop tears down the scheduler and drains the dispatcher.
func (c *Coordinator) Stop() {
	c.scheduler.Stop()
	c.dispatcher.Stop()
	log.Printf("Orchestrator stopped")
}

// UpdateMetrics stores the metrics update and announces it. Health is
// recomputed by the coordinator's own subscription.
func (c *Coordinator) UpdateMetrics(ctx context.Context, update models.BusinessMetrics) {
	c.metrics.Update(update, c.now())
	c.bus.Publish(ctx, models.NewEvent(models.EventMetricsUpdated, "orchestrator",
		"business metrics updated"))
}

// Metrics returns the current metrics snapshot.
func (c *Coordinator) Metrics() models.BusinessMetrics {
	return c.metrics.Snapshot()
}

// RunStrategyAnalysis regenerates the recommendation list and announces the
// batch. Critical high-confidence recommendations are queued as workflows by
// the coordinator's own subscription.
func (c *Coordinator) RunStrategyAnalysis(ctx context.Context) []models.StrategicRecommendation {
	batch := c.strategies.Analyze()
	c.bus.Publish(ctx, models.NewEvent(models.EventStrategyComplete, "orchestrator",
		"strategy analysis complete").
		WithPayload("recommendations", batch).
		WithPayload("count", len(batch)))
	return batch
}

// Health returns the latest health snapshot.
func (c *Coordinator) Health() store.HealthSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

// Recommendations returns the latest strategy batch combined with
// segment-driven insights, ordered by priority weight times confidence.
func (c *Coordinator) Recommendations() []models.StrategicRecommendation {
	c.mu.RLock()
	out := make([]models.StrategicRecommendation, len(c.recommendations))
	copy(out, c.recommendations)
	c.mu.RUnlock()

	if c.segments != nil {
		out = append(out, segmentInsights(c.segments.Segments())...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortKey() > out[j].SortKey()
	})
	return out
}

// Alerts returns the retained alerts, oldest first.
func (c *Coordinator) Alerts() []models.Alert {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Alert, len(c.alerts))
	copy(out, c.alerts)
	return out
}

// Stats returns the running counters.
func (c *Coordinator) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tallies := make(map[string]int, len(c.segmentTallies))
	for k, v := range c.segmentTallies {
		tallies[k] = v
	}
	return Stats{
		AnalysesPerformed: c.analyses,
		HighRiskCustomers: c.highRisk,
		SegmentTallies:    tallies,
	}
}

// WorkflowStats returns the dispatcher's execution counters.
func (c *Coordinator) WorkflowStats() workflow.ExecStats {
	return c.dispatcher.Stats()
}

// ReportWorkflowResult forwards a runner callback to the dispatcher.
func (c *Coordinator) ReportWorkflowResult(ctx context.Context, result workflow.Result) {
	c.dispatcher.ReportResult(ctx, result)
}

func (c *Coordinator) onCustomerAnalyzed(ctx context.Context, event models.Event) error {
	c.mu.Lock()
	c.analyses++
	highRisk := event.Payload["risk_level"] == string(models.RiskLevelHigh)
	if highRisk {
		c.highRisk++
	}
	c.mu.Unlock()

	if highRisk {
		req := workflow.NewRequest(workflow.ChurnPreventionDefinition(), event.CustomerID, event.Payload)
		if !c.dispatcher.Enqueue(req) {
			c.raiseAlert(ctx, models.NewAlert("workflow-queue-full", models.SeverityWarning,
				fmt.Sprintf("churn-prevention request for customer %s dropped", event.CustomerID)))
		}
	}
	return nil
}

func (c *Coordinator) onCustomerSegmented(ctx context.Context, event models.Event) error {
	segments, ok := event.Payload["segments"].([]string)
	if !ok || event.CustomerID == "" {
		return nil
	}

	c.mu.Lock()
	for _, name := range c.customerSegments[event.CustomerID] {
		if c.segmentTallies[name]--; c.segmentTallies[name] <= 0 {
			delete(c.segmentTallies, name)
		}
	}
	for _, name := range segments {
		c.segmentTallies[name]++
	}
	if len(segments) == 0 {
		delete(c.customerSegments, event.CustomerID)
	} else {
		c.customerSegments[event.CustomerID] = segments
	}
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) onMetricsUpdated(ctx context.Context, event models.Event) error {
	c.healthSweep(ctx)
	return nil
}

func (c *Coordinator) onStrategyComplete(ctx context.Context, event models.Event) error {
	batch, ok := event.Payload["recommendations"].([]models.StrategicRecommendation)
	if !ok {
		return nil
	}

	c.mu.Lock()
	c.recommendations = batch
	c.mu.Unlock()

	for _, rec := range batch {
		if rec.Priority == models.PriorityCritical && rec.Confidence > 0.8 {
			req := workflow.NewRequest(workflow.FromRecommendation(rec), "", nil)
			if !c.dispatcher.Enqueue(req) {
				c.raiseAlert(ctx, models.NewAlert("workflow-queue-full", models.SeverityWarning,
					fmt.Sprintf("workflow for recommendation %q dropped", rec.Title)))
			}
		}
	}
	return nil
}

func (c *Coordinator) onWorkflowFailed(ctx context.Context, event models.Event) error {
	c.raiseAlert(ctx, models.NewAlert("workflow-failure", models.SeverityWarning,
		fmt.Sprintf("workflow %v failed: %v", event.Payload["workflow_id"], event.Payload["error"])))
	return nil
}

// healthSweep recomputes the health score from the current metrics snapshot
// and raises a health warning when it drops below the threshold.
func (c *Coordinator) healthSweep(ctx context.Context) {
	snap := ComputeHealth(c.metrics.Snapshot())
	snap.RecordedAt = c.now()

	c.mu.Lock()
	c.health = snap
	c.mu.Unlock()

	if c.history != nil {
		if err := c.history.AppendHealthSnapshot(ctx, snap); err != nil {
			log.Printf("Failed to persist health snapshot: %v", err)
		}
	}

	if snap.Score < healthWarningThreshold {
		c.bus.Publish(ctx, models.NewEvent(models.EventHealthWarning, "orchestrator",
			"business health below threshold").
			WithSeverity(models.SeverityWarning).
			WithPayload("score", snap.Score))
		c.raiseAlert(ctx, models.NewAlert("health-warning", models.SeverityWarning,
			fmt.Sprintf("business health score %d is below %d", snap.Score, healthWarningThreshold)))
	}
}

func (c *Coordinator) raiseAlert(ctx context.Context, alert models.Alert) {
	c.mu.Lock()
	c.alerts = append(c.alerts, alert)
	if len(c.alerts) > maxAlerts {
		c.alerts = c.alerts[len(c.alerts)-maxAlerts:]
	}
	c.mu.Unlock()

	log.Printf("Alert [%s] %s", alert.Type, alert.Message)
	c.bus.Publish(ctx, models.NewEvent(models.EventAlertRaised, "orchestrator", alert.Message).
		WithSeverity(alert.Severity).
		WithPayload("alert_type", alert.Type).
		WithPayload("alert_id", alert.ID))
}
