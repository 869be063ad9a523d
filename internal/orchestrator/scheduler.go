package orchestrator

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Scheduler runs registered jobs on a recurring schedule. The production
// implementation wraps cron; tests use ManualScheduler and fire jobs by hand.
type Scheduler interface {
	Schedule(spec string, job func()) error
	Start()
	Stop()
}

// CronScheduler is the production Scheduler backed by robfig/cron.
type CronScheduler struct {
	cron *cron.Cron
}

// NewCronScheduler creates a cron-backed scheduler.
func NewCronScheduler() *CronScheduler {
	return &CronScheduler{cron: cron.New()}
}

func (s *CronScheduler) Schedule(spec string, job func()) error {
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return fmt.Errorf("scheduling %q: %w", spec, err)
	}
	return nil
}

func (s *CronScheduler) Start() {
	s.cron.Start()
}

func (s *CronScheduler) Stop() {
	s.cron.Stop()
}

// ManualScheduler collects jobs without running them; tests call Fire to
// trigger every registered job once.
type ManualScheduler struct {
	specs []string
	jobs  []func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Schedule(spec string, job func()) error {
	s.specs = append(s.specs, spec)
	s.jobs = append(s.jobs, job)
	return nil
}

// Specs returns the registered schedule specs in registration order.
func (s *ManualScheduler) Specs() []string {
	return s.specs
}

func (s *ManualScheduler) Start() {}
func (s *ManualScheduler) Stop()  {}

// Fire runs every registered job once, in registration order.
func (s *ManualScheduler) Fire() {
	for _, job := range s.jobs {
		job()
	}
}
