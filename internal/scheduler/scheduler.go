// Package scheduler drives the periodic Nightscout refresh for the monitor
// loop. A schedule is either a cron expression or a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mkrenz/doseview/internal/config"
)

// Scheduler errors.
var (
	ErrNoSchedule = errors.New("scheduler: no cron or interval configured")
	ErrNotRunning = errors.New("scheduler: not running")
	ErrRunning    = errors.New("scheduler: already running")
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler runs jobs on a cron expression or a fixed interval.
type Scheduler struct {
	mu       sync.Mutex
	cronExpr string
	schedule cron.Schedule
	interval time.Duration
	jobs     []Job

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	nowFunc func() time.Time
}

// NewFromConfig builds a scheduler from the monitor configuration. Exactly
// one of cron or interval must be set.
func NewFromConfig(cfg *config.MonitorConfig) (*Scheduler, error) {
	s := &Scheduler{nowFunc: time.Now}

	switch {
	case cfg.Cron != "":
		if err := s.SetCron(cfg.Cron); err != nil {
			return nil, err
		}
	case cfg.Interval != "":
		d, err := time.ParseDuration(cfg.Interval)
		if err != nil {
			return nil, err
		}
		if err := s.SetInterval(d); err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoSchedule
	}

	return s, nil
}

// SetCron configures a standard 5-field cron expression.
func (s *Scheduler) SetCron(expr string) error {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cronExpr = expr
	s.schedule = schedule
	s.interval = 0
	return nil
}

// SetInterval configures a fixed interval between runs.
func (s *Scheduler) SetInterval(d time.Duration) error {
	if d <= 0 {
		return errors.New("scheduler: interval must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
	s.cronExpr = ""
	s.schedule = nil
	return nil
}

// AddJob registers a job to run on each trigger.
func (s *Scheduler) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// NextRun returns the next trigger time.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFunc()
	if s.schedule != nil {
		return s.schedule.Next(now)
	}
	if s.interval > 0 {
		return now.Add(s.interval)
	}
	return time.Time{}
}

// Start begins triggering jobs until the context is cancelled or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunning
	}
	if s.schedule == nil && s.interval <= 0 {
		s.mu.Unlock()
		return ErrNoSchedule
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(runCtx)
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	for {
		wait := s.untilNext()
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runJobs(ctx)
		}
	}
}

func (s *Scheduler) untilNext() time.Duration {
	next := s.NextRun()
	wait := next.Sub(s.nowFunc())
	if wait < 0 {
		wait = 0
	}
	return wait
}

func (s *Scheduler) runJobs(ctx context.Context) {
	s.mu.Lock()
	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		_ = job(ctx)
	}
}

// Stop halts the scheduler and waits for the loop to exit.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
	return nil
}
