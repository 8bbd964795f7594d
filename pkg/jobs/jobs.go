// Package jobs holds the scheduled settlement jobs and the cron scheduler
// that runs them.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/audio-market-settlement/pkg/adrevenue"
	"github.com/chris/audio-market-settlement/pkg/config"
	"github.com/chris/audio-market-settlement/pkg/settlement"
)

// Job names accepted by Run.
const (
	JobReconcile = "reconcile"
	JobAdRevenue = "ad-revenue"
)

var ErrUnknownJob = errors.New("unknown job")

// Reconciler sweeps stuck transactions. *settlement.Engine implements it.
type Reconciler interface {
	Reconcile(ctx context.Context, staleAfter, failAfter time.Duration) (*settlement.ReconcileResult, error)
}

// AdRevenueDistributor pays the last closed ad revenue window.
// *adrevenue.Distributor implements it.
type AdRevenueDistributor interface {
	RunPrevious(ctx context.Context, now time.Time) (*adrevenue.Result, error)
}

// JobRunner coordinates the scheduled jobs.
type JobRunner struct {
	reconciler  Reconciler
	distributor AdRevenueDistributor
	cfg         config.ReconcileConfig
	logger      *slog.Logger
	now         func() time.Time
}

// NewJobRunner creates a JobRunner.
func NewJobRunner(reconciler Reconciler, distributor AdRevenueDistributor, cfg config.ReconcileConfig, logger *slog.Logger) *JobRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRunner{reconciler: reconciler, distributor: distributor, cfg: cfg, logger: logger, now: time.Now}
}

// Jobs lists the job names Run accepts.
func Jobs() []string {
	return []string{JobReconcile, JobAdRevenue}
}

// Run runs one job by name.
func (jr *JobRunner) Run(ctx context.Context, name string) error {
	switch name {
	case JobReconcile:
		return jr.runWithRecovery(ctx, name, jr.reconcile)
	case JobAdRevenue:
		return jr.runWithRecovery(ctx, name, jr.distributeAdRevenue)
	}
	return fmt.Errorf("%w: %q", ErrUnknownJob, name)
}

// runWithRecovery wraps job execution with panic recovery.
func (jr *JobRunner) runWithRecovery(ctx context.Context, name string, job func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			jr.logger.ErrorContext(ctx, "job panicked", "job", name, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}
	}()

	start := time.Now()
	jr.logger.InfoContext(ctx, "starting job", "job", name)
	if err = job(ctx); err != nil {
		jr.logger.ErrorContext(ctx, "job failed", "job", name, "duration", time.Since(start), "error", err)
		return err
	}
	jr.logger.InfoContext(ctx, "job completed", "job", name, "duration", time.Since(start))
	return nil
}

func (jr *JobRunner) reconcile(ctx context.Context) error {
	res, err := jr.reconciler.Reconcile(ctx, jr.cfg.StaleAfter, jr.cfg.FailAfter)
	if err != nil {
		return err
	}
	jr.logger.InfoContext(ctx, "reconciliation sweep finished",
		"checked", res.Checked, "completed", res.Completed, "failed", res.Failed,
		"waiting", res.Waiting, "errors", res.Errors)
	return nil
}

func (jr *JobRunner) distributeAdRevenue(ctx context.Context) error {
	res, err := jr.distributor.RunPrevious(ctx, jr.now())
	if res != nil {
		jr.logger.InfoContext(ctx, "ad revenue distribution finished",
			"period", res.PeriodKey, "creator_pool", res.CreatorPool,
			"creators_paid", res.CreatorsPaid, "skipped", res.Skipped, "dust", res.Dust)
	}
	return err
}
