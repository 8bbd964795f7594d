// Package adrevenue pays creators their share of a period's ad revenue in
// proportion to their ad-supported streams.
package adrevenue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/audio-market-settlement/pkg/fees"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

var ErrInvalidPeriod = errors.New("invalid period")

// StatsSource supplies per-creator stream stats for a window.
type StatsSource interface {
	ListStreamStats(ctx context.Context, start, end time.Time) ([]models.StreamStat, error)
}

// Crediter pays one creator for one period atomically.
// *settlement.Engine implements it.
type Crediter interface {
	CreditAdRevenue(ctx context.Context, creatorID, periodKey string, amount, streams int64) (*models.Transaction, error)
}

// Result summarises one distribution run.
type Result struct {
	PeriodKey        string `json:"period_key"`
	TotalRevenue     int64  `json:"total_revenue"`
	CreatorPool      int64  `json:"creator_pool"`
	CreatorsPaid     int    `json:"creators_paid"`
	TotalDistributed int64  `json:"total_distributed"`
	Skipped          int    `json:"skipped"`
	Dust             int64  `json:"dust"`
}

// Distributor runs ad revenue distributions.
type Distributor struct {
	stats    StatsSource
	crediter Crediter
	logger   *slog.Logger
	// FixedPeriodRevenue, when positive, replaces the revenue summed from
	// the stream stats.
	FixedPeriodRevenue int64
}

func NewDistributor(stats StatsSource, crediter Crediter, logger *slog.Logger) *Distributor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Distributor{stats: stats, crediter: crediter, logger: logger}
}

// Run distributes the creator pool for [start, end). Creators already paid
// for the window are skipped, so a run can be repeated after a partial
// failure. Errors crediting single creators are collected and returned
// together with the partial result.
func (d *Distributor) Run(ctx context.Context, start, end time.Time) (*Result, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidPeriod, end, start)
	}
	res := &Result{PeriodKey: PeriodKey(start, end)}
	logger := d.logger.With("period_key", res.PeriodKey)

	stats, err := d.stats.ListStreamStats(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list stream stats: %w", err)
	}

	streams := make(map[string]int64, len(stats))
	for _, s := range stats {
		streams[s.CreatorId] += s.AdStreams
		res.TotalRevenue += s.AdRevenue
	}
	if d.FixedPeriodRevenue > 0 {
		res.TotalRevenue = d.FixedPeriodRevenue
	}

	res.CreatorPool = fees.CreatorPool(res.TotalRevenue)
	shares, dust := fees.Apportion(res.CreatorPool, streams)
	res.Dust = dust
	logger.InfoContext(ctx, "distributing ad revenue",
		"total_revenue", res.TotalRevenue, "creator_pool", res.CreatorPool, "creators", len(shares))

	var errs []error
	for _, share := range shares {
		if share.Amount == 0 {
			res.Skipped++
			continue
		}
		_, err := d.crediter.CreditAdRevenue(ctx, share.CreatorId, res.PeriodKey, share.Amount, share.Streams)
		switch {
		case errors.Is(err, storage.ErrAlreadyDistributed):
			logger.InfoContext(ctx, "creator already paid for period", "creator_id", share.CreatorId)
			res.Skipped++
		case err != nil:
			logger.ErrorContext(ctx, "failed to credit ad revenue", "creator_id", share.CreatorId, "amount", share.Amount, "error", err)
			errs = append(errs, fmt.Errorf("creator %s: %w", share.CreatorId, err))
		default:
			res.CreatorsPaid++
			res.TotalDistributed += share.Amount
		}
	}

	logger.InfoContext(ctx, "ad revenue distribution finished",
		"creators_paid", res.CreatorsPaid, "total_distributed", res.TotalDistributed, "skipped", res.Skipped, "dust", res.Dust)
	return res, errors.Join(errs...)
}

// RunPrevious distributes the most recently closed window before now.
func (d *Distributor) RunPrevious(ctx context.Context, now time.Time) (*Result, error) {
	p := PreviousPeriod(now)
	return d.Run(ctx, p.Start, p.End)
}
