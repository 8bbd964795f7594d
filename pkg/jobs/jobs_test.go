package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chris/audio-market-settlement/pkg/adrevenue"
	"github.com/chris/audio-market-settlement/pkg/config"
	"github.com/chris/audio-market-settlement/pkg/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	calls      atomic.Int32
	staleAfter time.Duration
	failAfter  time.Duration
	err        error
	panics     bool
}

func (f *fakeReconciler) Reconcile(ctx context.Context, staleAfter, failAfter time.Duration) (*settlement.ReconcileResult, error) {
	f.calls.Add(1)
	if f.panics {
		panic("boom")
	}
	f.staleAfter, f.failAfter = staleAfter, failAfter
	if f.err != nil {
		return nil, f.err
	}
	return &settlement.ReconcileResult{Checked: 2, Completed: 1, Failed: 1}, nil
}

type fakeDistributor struct {
	now time.Time
	err error
}

func (f *fakeDistributor) RunPrevious(ctx context.Context, now time.Time) (*adrevenue.Result, error) {
	f.now = now
	return &adrevenue.Result{PeriodKey: adrevenue.PreviousPeriod(now).Key(), CreatorsPaid: 3}, f.err
}

var reconcileCfg = config.ReconcileConfig{StaleAfter: 20 * time.Minute, FailAfter: 24 * time.Hour}

func TestJobRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("Reconcile", func(t *testing.T) {
		rec := &fakeReconciler{}
		jr := NewJobRunner(rec, &fakeDistributor{}, reconcileCfg, nil)
		require.NoError(t, jr.Run(ctx, JobReconcile))
		assert.Equal(t, int32(1), rec.calls.Load())
		assert.Equal(t, 20*time.Minute, rec.staleAfter)
		assert.Equal(t, 24*time.Hour, rec.failAfter)
	})

	t.Run("Ad revenue", func(t *testing.T) {
		dist := &fakeDistributor{}
		jr := NewJobRunner(&fakeReconciler{}, dist, reconcileCfg, nil)
		now := time.Date(2025, 4, 1, 0, 0, 5, 0, time.UTC)
		jr.now = func() time.Time { return now }
		require.NoError(t, jr.Run(ctx, JobAdRevenue))
		assert.Equal(t, now, dist.now)
	})

	t.Run("Errors are returned", func(t *testing.T) {
		jr := NewJobRunner(&fakeReconciler{err: assert.AnError}, &fakeDistributor{err: assert.AnError}, reconcileCfg, nil)
		assert.ErrorIs(t, jr.Run(ctx, JobReconcile), assert.AnError)
		assert.ErrorIs(t, jr.Run(ctx, JobAdRevenue), assert.AnError)
	})

	t.Run("Panics become errors", func(t *testing.T) {
		jr := NewJobRunner(&fakeReconciler{panics: true}, &fakeDistributor{}, reconcileCfg, nil)
		err := jr.Run(ctx, JobReconcile)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicked")
	})

	t.Run("Unknown job", func(t *testing.T) {
		jr := NewJobRunner(&fakeReconciler{}, &fakeDistributor{}, reconcileCfg, nil)
		assert.ErrorIs(t, jr.Run(ctx, "payroll"), ErrUnknownJob)
	})
}

func TestScheduler(t *testing.T) {
	t.Run("Registers configured jobs", func(t *testing.T) {
		jr := NewJobRunner(&fakeReconciler{}, &fakeDistributor{}, reconcileCfg, nil)
		s, err := NewScheduler(jr, Schedules{JobReconcile: "0 */10 * * * *", JobAdRevenue: "0 0 1 1,16 * *"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, s.Entries())
	})

	t.Run("Empty spec disables a job", func(t *testing.T) {
		jr := NewJobRunner(&fakeReconciler{}, &fakeDistributor{}, reconcileCfg, nil)
		s, err := NewScheduler(jr, Schedules{JobReconcile: "0 */10 * * * *"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, s.Entries())
	})

	t.Run("Bad spec", func(t *testing.T) {
		jr := NewJobRunner(&fakeReconciler{}, &fakeDistributor{}, reconcileCfg, nil)
		_, err := NewScheduler(jr, Schedules{JobReconcile: "every ten minutes"}, nil)
		assert.Error(t, err)
	})

	t.Run("Runs on schedule", func(t *testing.T) {
		rec := &fakeReconciler{}
		jr := NewJobRunner(rec, &fakeDistributor{}, reconcileCfg, nil)
		s, err := NewScheduler(jr, Schedules{JobReconcile: "* * * * * *"}, nil)
		require.NoError(t, err)

		s.Start()
		defer s.Stop()
		assert.Eventually(t, func() bool { return rec.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	})
}
