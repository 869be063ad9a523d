package workflow

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/plateiq/internal/events"
	"github.com/plateiq/pkg/models"
)

// Runner hands a workflow request to the external execution system. Side
// effects (email, tasks, offers) happen entirely on the runner's side; the
// engine only dispatches and later receives a Result.
type Runner interface {
	Run(ctx context.Context, req Request) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, req Request) error

func (f RunnerFunc) Run(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// ExecStats tracks dispatch outcomes.
type ExecStats struct {
	Dispatched int `json:"dispatched"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Dropped    int `json:"dropped"`
}

// Dispatcher queues workflow requests and hands them to the runner from a
// small worker pool. Dispatch is fire-and-forget: a runner error is logged,
// counted, and raised as an event, but never blocks or fails the caller.
type Dispatcher struct {
	runner  Runner
	bus     events.Bus
	queue   chan Request
	workers int

	mu      sync.Mutex
	stats   ExecStats
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// DispatcherConfig sizes the dispatch pool.
type DispatcherConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// DefaultDispatcherConfig returns default dispatcher sizing.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{Workers: 4, QueueSize: 256}
}

// NewDispatcher creates a dispatcher. Start must be called before Enqueue
// has any effect.
func NewDispatcher(runner Runner, bus events.Bus, config DispatcherConfig) *Dispatcher {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1
	}
	return &Dispatcher{
		runner:  runner,
		bus:     bus,
		queue:   make(chan Request, config.QueueSize),
		workers: config.Workers,
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	ctx, d.cancel = context.WithCancel(ctx)
	d.mu.Unlock()

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	log.Printf("Workflow dispatcher started with %d workers", d.workers)
}

// Stop cancels the workers and waits for them to drain.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
}

// Enqueue queues a request for dispatch. Returns false when the queue is
// full; the request is dropped and counted rather than blocking analysis.
func (d *Dispatcher) Enqueue(req Request) bool {
	select {
	case d.queue <- req:
		return true
	default:
		d.mu.Lock()
		d.stats.Dropped++
		d.mu.Unlock()
		log.Printf("Workflow queue full, dropping request %s (%s)", req.ID, req.Workflow.ID)
		return false
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.queue:
			d.dispatch(ctx, req)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) {
	d.bus.Publish(ctx, models.NewEvent(models.EventWorkflowRequested, "workflow-dispatcher",
		"workflow execution requested").
		WithCustomerID(req.CustomerID).
		WithPayload("request_id", req.ID).
		WithPayload("workflow_id", req.Workflow.ID))

	d.mu.Lock()
	d.stats.Dispatched++
	d.mu.Unlock()

	if err := d.runner.Run(ctx, req); err != nil {
		log.Printf("Failed to dispatch workflow %s (request %s): %v", req.Workflow.ID, req.ID, err)
		d.ReportResult(ctx, Result{
			RequestID:   req.ID,
			WorkflowID:  req.Workflow.ID,
			Success:     false,
			Error:       err.Error(),
			CompletedAt: time.Now(),
		})
	}
}

// ReportResult records a runner-reported outcome and raises the matching
// completion or failure event. Called by the dispatch path on dispatch
// errors and by the API gateway when the external runner calls back.
func (d *Dispatcher) ReportResult(ctx context.Context, result Result) {
	d.mu.Lock()
	if result.Success {
		d.stats.Completed++
	} else {
		d.stats.Failed++
	}
	d.mu.Unlock()

	if result.Success {
		d.bus.Publish(ctx, models.NewEvent(models.EventWorkflowCompleted, "workflow-dispatcher",
			"workflow completed").
			WithPayload("request_id", result.RequestID).
			WithPayload("workflow_id", result.WorkflowID))
		return
	}

	d.bus.Publish(ctx, models.NewEvent(models.EventWorkflowFailed, "workflow-dispatcher",
		"workflow failed").
		WithSeverity(models.SeverityWarning).
		WithPayload("request_id", result.RequestID).
		WithPayload("workflow_id", result.WorkflowID).
		WithPayload("error", result.Error))
}

// Stats returns a copy of the execution stats.
func (d *Dispatcher) Stats() ExecStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}
