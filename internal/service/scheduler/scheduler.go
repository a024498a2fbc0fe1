package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/ward-monitor/internal/logger"
)

// Defaults for Run.
const (
	DefaultPollInterval    = 100 * time.Millisecond
	DefaultRecoveryBackoff = 5 * time.Second
)

// ErrPanic wraps a panic recovered from a task.
var ErrPanic = errors.New("task panicked")

// Task is one row of the schedule.
type Task struct {
	// Name identifies the task in logs.
	Name string
	// Interval is the period in milliseconds.
	Interval uint32
	// LastFire is the counter value of the last run.
	LastFire uint32
	// Action does the work. Errors are logged and do not stop the tick.
	Action func(ctx context.Context) error
	// Enabled gates the task; nil means always enabled.
	Enabled func() bool
}

// Scheduler owns the task table.
type Scheduler struct {
	tasks           []*Task
	pollInterval    time.Duration
	recoveryBackoff time.Duration
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPollInterval sets the sleep between ticks.
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithRecoveryBackoff sets the sleep after a failed iteration.
func WithRecoveryBackoff(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.recoveryBackoff = d
		}
	}
}

// New creates a scheduler. Tasks run in the given order when due together.
func New(tasks []*Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		tasks:           tasks,
		pollInterval:    DefaultPollInterval,
		recoveryBackoff: DefaultRecoveryBackoff,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Tick runs every due task in table order and returns their names.
// A task's LastFire is updated before its action runs, so a task that
// panics waits a full interval before it is tried again.
func (s *Scheduler) Tick(ctx context.Context, nowMs uint32) []string {
	var fired []string

	for _, t := range s.tasks {
		if nowMs-t.LastFire < t.Interval {
			continue
		}

		if t.Enabled != nil && !t.Enabled() {
			continue
		}

		t.LastFire = nowMs
		fired = append(fired, t.Name)

		if err := t.Action(ctx); err != nil {
			logger.ErrorKV(ctx, "Task failed", "task", t.Name, "error", err)
		}
	}

	return fired
}

// Run ticks until ctx is canceled. A panicking iteration is logged and
// followed by the recovery backoff; the loop then carries on.
func (s *Scheduler) Run(ctx context.Context, clock Clock) error {
	ctx = logger.WithName(ctx, "scheduler")

	logger.InfoKV(ctx, "Scheduler started",
		"tasks", len(s.tasks),
		"poll_interval", s.pollInterval.String(),
		"recovery_backoff", s.recoveryBackoff.String())

	for {
		wait := s.pollInterval

		if err := s.iterate(ctx, clock); err != nil {
			logger.ErrorKV(ctx, "Loop iteration failed, backing off", "error", err, "backoff", s.recoveryBackoff.String())
			wait = s.recoveryBackoff
		}

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info(ctx, "Scheduler stopped")

			return nil
		case <-timer.C:
		}
	}
}

func (s *Scheduler) iterate(ctx context.Context, clock Clock) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	if fired := s.Tick(ctx, clock.Millis()); len(fired) > 0 {
		logger.DebugKV(ctx, "Tick", "fired", fired)
	}

	return nil
}
