// Package scheduler retries pending snapshot saves on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSchedule flushes every thirty seconds.
const DefaultSchedule = "@every 30s"

// Flusher persists whatever state has not reached storage yet.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Scheduler runs Flush on a cron schedule. Runs never overlap.
type Scheduler struct {
	cron    *cron.Cron
	flusher Flusher
	log     zerolog.Logger
	ctx     context.Context
	running atomic.Bool
	runs    atomic.Int64
}

// New registers the flush job. An empty schedule selects DefaultSchedule.
func New(ctx context.Context, schedule string, f Flusher, log zerolog.Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	s := &Scheduler{cron: cron.New(), flusher: f, log: log, ctx: ctx}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the job in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running flush to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Runs reports how many flushes have been attempted.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

func (s *Scheduler) run() {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug().Msg("previous flush still running, skipping")
		return
	}
	defer s.running.Store(false)

	s.runs.Add(1)
	if err := s.flusher.Flush(s.ctx); err != nil {
		s.log.Warn().Err(err).Msg("scheduled snapshot flush failed")
		return
	}
	s.log.Debug().Msg("scheduled snapshot flush completed")
}
