// Package jobs runs the periodic data-lifecycle sweeps.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-social/backend/internal/logger"
	"github.com/robfig/cron/v3"
)

// Job is one periodic task. Run is directly callable outside the scheduler.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler triggers registered jobs on cron specs in a fixed time zone.
// Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron   *cron.Cron
	log    *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(log *logger.Logger, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:    log.With("component", "scheduler"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register schedules job on a standard five-field spec or descriptor.
func (s *Scheduler) Register(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.runJob(job) })
	if err != nil {
		return fmt.Errorf("register %s: %w", job.Name(), err)
	}
	s.log.Info("Job registered.", "job", job.Name(), "schedule", spec)
	return nil
}

func (s *Scheduler) runJob(job Job) {
	start := time.Now()
	if err := job.Run(s.ctx); err != nil {
		s.log.Error("job failed", "job", job.Name(), "duration", time.Since(start), "error", err)
		return
	}
	s.log.Info("job finished", "job", job.Name(), "duration", time.Since(start))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started.", "jobs", len(s.cron.Entries()), "location", s.cron.Location().String())
}

// Stop prevents new runs and waits for running jobs. When ctx expires first
// the running jobs are cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
