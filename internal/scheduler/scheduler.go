// Package scheduler runs the periodic sweeps that drive pod lifecycle and
// reminders. It owns timing and retry behavior only; the registered tasks
// carry the business logic.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"podly/internal/timeutil"

	"github.com/sirupsen/logrus"
)

// Cadence selects which loop a task runs on.
type Cadence int

const (
	// Daily fires once per day at Config.DailyHour UTC.
	Daily Cadence = iota
	// Hourly fires, then sleeps Config.HourlyInterval.
	Hourly
	// Frequent fires, then sleeps Config.FrequentInterval.
	Frequent
)

func (c Cadence) String() string {
	switch c {
	case Daily:
		return "daily"
	case Hourly:
		return "hourly"
	case Frequent:
		return "frequent"
	}
	return "unknown"
}

// Config holds the loop timings. Retry intervals apply after a tick fails as
// a whole; a single failing task never fails the tick.
type Config struct {
	DailyHour        int
	HourlyInterval   time.Duration
	FrequentInterval time.Duration
	DailyRetry       time.Duration
	HourlyRetry      time.Duration
	FrequentRetry    time.Duration
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		DailyHour:        10,
		HourlyInterval:   time.Hour,
		FrequentInterval: 5 * time.Minute,
		DailyRetry:       time.Hour,
		HourlyRetry:      10 * time.Minute,
		FrequentRetry:    2 * time.Minute,
	}
}

// Task is a named unit of work run by one of the loops.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler executes registered tasks on three independent loops. Within one
// tick, tasks run sequentially in registration order; the three loops run
// concurrently with each other. There is no cross-process coordination, so
// two instances will duplicate work.
type Scheduler struct {
	cfg   Config
	tasks map[Cadence][]Task
	log   *logrus.Entry

	// tick is an indirection over runTick so loop backoff is testable.
	tick func(ctx context.Context, c Cadence) error
}

// New creates a scheduler with the given timings. Register all tasks before
// calling Start; registration is not synchronized with running loops.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		cfg:   cfg,
		tasks: make(map[Cadence][]Task),
		log:   logrus.WithField("component", "scheduler"),
	}
	s.tick = s.runTick
	return s
}

// Register appends a task to the given cadence's queue.
func (s *Scheduler) Register(c Cadence, name string, run func(ctx context.Context) error) {
	s.tasks[c] = append(s.tasks[c], Task{Name: name, Run: run})
}

// Start launches the three loops. It returns immediately; the loops run
// until ctx is canceled. An in-flight tick is not drained on cancellation.
func (s *Scheduler) Start(ctx context.Context) {
	go s.runDaily(ctx)
	go s.runInterval(ctx, Hourly, s.cfg.HourlyInterval, s.cfg.HourlyRetry)
	go s.runInterval(ctx, Frequent, s.cfg.FrequentInterval, s.cfg.FrequentRetry)
}

// runDaily sleeps until the next DailyHour:00 UTC, fires, and repeats. A
// failed tick backs off DailyRetry before resuming the wait-and-fire cycle.
func (s *Scheduler) runDaily(ctx context.Context) {
	for {
		wait := timeutil.UntilNextHour(time.Now(), s.cfg.DailyHour)
		if !sleep(ctx, wait) {
			return
		}
		if err := s.tick(ctx, Daily); err != nil {
			s.log.WithField("cadence", "daily").WithError(err).Error("tick failed, backing off")
			if !sleep(ctx, s.cfg.DailyRetry) {
				return
			}
		}
	}
}

// runInterval fires immediately, then sleeps a fixed interval measured from
// tick completion. A failed tick sleeps the shorter retry interval instead.
func (s *Scheduler) runInterval(ctx context.Context, c Cadence, every, retry time.Duration) {
	for {
		wait := every
		if err := s.tick(ctx, c); err != nil {
			s.log.WithField("cadence", c.String()).WithError(err).Error("tick failed, backing off")
			wait = retry
		}
		if !sleep(ctx, wait) {
			return
		}
	}
}

// runTick executes the cadence's tasks sequentially. Task errors and panics
// are contained per task; the returned error covers only a panic escaping
// the tick itself.
func (s *Scheduler) runTick(ctx context.Context, c Cadence) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()
	for _, t := range s.tasks[c] {
		if ctx.Err() != nil {
			return nil
		}
		s.runTask(ctx, c, t)
	}
	return nil
}

func (s *Scheduler) runTask(ctx context.Context, c Cadence, t Task) {
	log := s.log.WithFields(logrus.Fields{"cadence": c.String(), "task": t.Name})
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("task panicked: %v", r)
		}
	}()
	start := time.Now()
	if err := t.Run(ctx); err != nil {
		log.WithError(err).Error("task failed")
		return
	}
	log.WithField("duration", time.Since(start).String()).Debug("task completed")
}

// sleep waits d or until ctx is canceled; it reports false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
