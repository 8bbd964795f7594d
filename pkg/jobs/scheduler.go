package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the jobs on their cron schedules. Specs take a leading
// seconds field and are evaluated in UTC.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *JobRunner
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// Schedules maps job names to cron specs. An empty spec leaves the job off.
type Schedules map[string]string

// NewScheduler registers every scheduled job with a cron instance.
func NewScheduler(jobRunner *JobRunner, schedules Schedules, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: c, jobs: jobRunner, logger: logger, ctx: ctx, cancel: cancel}

	for _, name := range Jobs() {
		spec := schedules[name]
		if spec == "" {
			continue
		}
		if _, err := c.AddFunc(spec, func() { _ = s.jobs.Run(s.ctx, name) }); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to register job %s: %w", name, err)
		}
		logger.Info("registered job", "job", name, "schedule", spec)
	}
	return s, nil
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cron scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops scheduling, cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
	s.logger.Info("cron scheduler stopped")
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
