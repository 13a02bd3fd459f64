// Package scheduler runs the periodic sweeps on the injected clock.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/reservation"
)

// Job is one periodic task.
type Job struct {
	Name     string
	Interval time.Duration

	// Leased jobs run on one replica per tick; the others skip.
	Leased bool
	Run    func(ctx context.Context, now time.Time) error
}

// Scheduler ticks every job on its own interval until the context ends.
type Scheduler struct {
	clock  clock.Clock
	lease  Lease
	prefix string
	jobs   []Job
}

// New returns a Scheduler. A nil lease means LocalLease.
func New(clk clock.Clock, lease Lease, prefix string, jobs ...Job) *Scheduler {
	if lease == nil {
		lease = LocalLease{}
	}
	return &Scheduler{clock: clk, lease: lease, prefix: prefix, jobs: jobs}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.loop(ctx, job)
		}(job)
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := s.clock.NewTicker(job.Interval)
	defer ticker.Stop()
	log.Printf("scheduler: %s every %s", job.Name, job.Interval)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.RunOnce(ctx, job, now)
		}
	}
}

// RunOnce runs job for the tick at now if its lease, when required, can be
// taken. Errors are logged; the next tick is the retry.
func (s *Scheduler) RunOnce(ctx context.Context, job Job, now time.Time) {
	if job.Leased {
		ok, err := s.lease.Acquire(ctx, s.leaseKey(job), leaseTTL(job.Interval))
		if err != nil {
			// Sweeps are idempotent; running without the lease only risks a
			// duplicate no-op.
			log.Printf("scheduler: %s lease failed: %v; running anyway", job.Name, err)
		} else if !ok {
			return
		}
	}
	if err := job.Run(ctx, now); err != nil {
		log.Printf("scheduler: %s failed: %v", job.Name, err)
	}
}

func (s *Scheduler) leaseKey(job Job) string {
	if s.prefix == "" {
		return job.Name
	}
	return s.prefix + ":" + job.Name
}

// leaseTTL is half the interval, at least one second.
func leaseTTL(interval time.Duration) time.Duration {
	ttl := interval / 2
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

// EngineJobs returns the hold expiry sweep, the no-show sweep and the
// settings refresh.
func EngineJobs(e *reservation.Engine, settings *config.Provider, src config.SettingsSource, cfg config.SweepConfig) []Job {
	return []Job{
		{
			Name:     "hold-expiry",
			Interval: cfg.HoldInterval,
			Leased:   true,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := e.Holds.ExpireSweep(ctx, now)
				return err
			},
		},
		{
			Name:     "no-show",
			Interval: cfg.NoShowInterval,
			Leased:   true,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := e.NoShows.Sweep(ctx, now)
				return err
			},
		},
		{
			Name:     "settings-refresh",
			Interval: cfg.SettingsInterval,
			Run: func(ctx context.Context, _ time.Time) error {
				return settings.Reload(ctx, src)
			},
		},
	}
}
