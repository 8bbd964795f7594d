package storage

import (
	"context"
	"time"

	"github.com/chris/audio-market-settlement/pkg/models"
)

// SettlementStore defines the highly-privileged interface for settling a transaction.
// This operation involves atomic writes across multiple tables (Transactions, Wallets, Ledger, NFTs, Distributions).
// It should only be exposed to the component responsible for final settlement.
type SettlementStore interface {
	// ApplySettlement writes the plan as one all-or-nothing unit.
	// It returns false, with no error, when the transaction was no longer in
	// plan.ExpectedStatus, meaning another caller already moved it on.
	ApplySettlement(ctx context.Context, plan *models.SettlementPlan) (bool, error)
}

// DistributionStore defines what the ad-revenue job reads.
type DistributionStore interface {
	// GetDistribution returns the record for (creatorID, periodKey) or ErrNotFound.
	GetDistribution(ctx context.Context, creatorID, periodKey string) (*models.Distribution, error)

	// ListStreamStats aggregates ad-eligible streams and ad revenue per creator
	// for days in [start, end).
	ListStreamStats(ctx context.Context, start, end time.Time) ([]models.StreamStat, error)
}
