package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

// GetWallet retrieves a user's wallet.
func (s *Store) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	var w models.Wallet
	err := s.DB.QueryRowContext(ctx,
		`SELECT user_id, available_balance, pending_balance, lifetime_earnings, lifetime_spent, version, created_at, updated_at
		 FROM wallets WHERE user_id = $1`, userID).
		Scan(&w.UserId, &w.AvailableBalance, &w.PendingBalance, &w.LifetimeEarnings, &w.LifetimeSpent, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("wallet for user ID %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// GetNFT retrieves an NFT.
func (s *Store) GetNFT(ctx context.Context, nftID string) (*models.NFT, error) {
	var n models.NFT
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, creator_id, owner_id, royalty_bps, sold_count, updated_at FROM nfts WHERE id = $1`, nftID).
		Scan(&n.Id, &n.CreatorId, &n.OwnerId, &n.RoyaltyBps, &n.SoldCount, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("nft %s: %w", nftID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}
	return &n, nil
}

// ListLedgerEntries retrieves the ledger entries written for a transaction.
func (s *Store) ListLedgerEntries(ctx context.Context, txID string) ([]models.LedgerEntry, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT entry_id, transaction_id, user_id, account_type, amount, description, created_at
		 FROM ledger_entries WHERE transaction_id = $1 ORDER BY entry_id`, txID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var (
			e           models.LedgerEntry
			user        sql.NullString
			accountType string
		)
		if err := rows.Scan(&e.EntryID, &e.TransactionID, &user, &accountType, &e.Amount, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.UserId = user.String
		e.AccountType = models.AccountType(accountType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetDistribution retrieves the distribution record for a creator and period.
func (s *Store) GetDistribution(ctx context.Context, creatorID, periodKey string) (*models.Distribution, error) {
	var d models.Distribution
	err := s.DB.QueryRowContext(ctx,
		`SELECT creator_id, period_key, transaction_id, amount, streams, created_at
		 FROM ad_revenue_distributions WHERE creator_id = $1 AND period_key = $2`, creatorID, periodKey).
		Scan(&d.CreatorId, &d.PeriodKey, &d.TransactionId, &d.Amount, &d.Streams, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("distribution %s/%s: %w", creatorID, periodKey, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get distribution: %w", err)
	}
	return &d, nil
}

// ListStreamStats sums ad-eligible streams and revenue per creator for days in [start, end).
func (s *Store) ListStreamStats(ctx context.Context, start, end time.Time) ([]models.StreamStat, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT creator_id, SUM(ad_streams), SUM(ad_revenue) FROM ad_stream_stats
		 WHERE day >= $1 AND day < $2 GROUP BY creator_id ORDER BY creator_id`,
		start.Format(storage.DayFormat), end.Format(storage.DayFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query stream stats: %w", err)
	}
	defer rows.Close()

	var stats []models.StreamStat
	for rows.Next() {
		var st models.StreamStat
		if err := rows.Scan(&st.CreatorId, &st.AdStreams, &st.AdRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan stream stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
