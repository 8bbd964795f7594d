package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

const upsertWalletSQL = `INSERT INTO wallets (user_id, available_balance, pending_balance, lifetime_earnings, lifetime_spent, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, 1, $6, $6)
	ON CONFLICT (user_id) DO UPDATE SET
		available_balance = wallets.available_balance + EXCLUDED.available_balance,
		pending_balance = wallets.pending_balance + EXCLUDED.pending_balance,
		lifetime_earnings = wallets.lifetime_earnings + EXCLUDED.lifetime_earnings,
		lifetime_spent = wallets.lifetime_spent + EXCLUDED.lifetime_spent,
		version = wallets.version + 1,
		updated_at = EXCLUDED.updated_at`

const settleTransactionSQL = `UPDATE transactions SET
		status = $2, platform_fee = $3, creator_royalty = $4, recipient_earnings = $5,
		gateway_txid = $6, failure_reason = $7, updated_at = $8, completed_at = $9
	WHERE id = $1 AND status = $10`

const insertLedgerEntrySQL = `INSERT INTO ledger_entries (entry_id, transaction_id, user_id, account_type, amount, description, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

const transferNFTSQL = `UPDATE nfts SET owner_id = $2, sold_count = sold_count + 1, updated_at = $3 WHERE id = $1`

const insertDistributionSQL = `INSERT INTO ad_revenue_distributions (creator_id, period_key, transaction_id, amount, streams, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (creator_id, period_key) DO NOTHING`

// applyWalletDelta creates or updates a wallet row. The table's CHECK
// constraints reject any balance going negative.
func applyWalletDelta(ctx context.Context, db execer, d models.WalletDelta, now time.Time) error {
	_, err := db.ExecContext(ctx, upsertWalletSQL, d.UserId, d.Available, d.Pending, d.Earnings, d.Spent, now)
	if err != nil {
		if code, _ := pgCode(err); code == checkViolation {
			return storage.ErrInsufficientFunds
		}
		return fmt.Errorf("failed to update wallet %s: %w", d.UserId, err)
	}
	return nil
}

// ApplySettlement writes the plan inside one database transaction.
func (s *Store) ApplySettlement(ctx context.Context, plan *models.SettlementPlan) (bool, error) {
	tx := plan.Transaction
	now := tx.UpdatedAt

	dbTx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin settlement: %w", err)
	}
	defer dbTx.Rollback()

	// 1. Transaction row, guarded.
	if plan.Insert {
		args, err := transactionArgs(tx)
		if err != nil {
			return false, err
		}
		res, err := dbTx.ExecContext(ctx, insertTransactionSQL+` ON CONFLICT (id) DO NOTHING`, args...)
		if err != nil {
			return false, fmt.Errorf("failed to insert transaction: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return false, nil
		}
	} else {
		res, err := dbTx.ExecContext(ctx, settleTransactionSQL,
			tx.Id, string(tx.Status), tx.PlatformFee, tx.CreatorRoyalty, tx.RecipientEarnings,
			nullString(tx.GatewayTxid), nullString(tx.FailureReason), now, nullTime(tx.CompletedAt),
			string(plan.ExpectedStatus))
		if err != nil {
			return false, fmt.Errorf("failed to update transaction status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return false, nil
		}
	}

	// 2. Wallets.
	for _, d := range plan.WalletDeltas {
		if err := applyWalletDelta(ctx, dbTx, d, now); err != nil {
			return false, err
		}
	}

	// 3. Ledger.
	for _, e := range plan.LedgerEntries {
		if _, err := dbTx.ExecContext(ctx, insertLedgerEntrySQL,
			e.EntryID, e.TransactionID, nullString(e.UserId), string(e.AccountType), e.Amount, e.Description, e.CreatedAt); err != nil {
			return false, fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}

	// 4. NFT ownership.
	if t := plan.NFTTransfer; t != nil {
		res, err := dbTx.ExecContext(ctx, transferNFTSQL, t.NftId, t.NewOwnerId, now)
		if err != nil {
			return false, fmt.Errorf("failed to transfer nft: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return false, fmt.Errorf("nft %s: %w", t.NftId, storage.ErrNotFound)
		}
	}

	// 5. Distribution key.
	if d := plan.Distribution; d != nil {
		res, err := dbTx.ExecContext(ctx, insertDistributionSQL, d.CreatorId, d.PeriodKey, d.TransactionId, d.Amount, d.Streams, d.CreatedAt)
		if err != nil {
			return false, fmt.Errorf("failed to record distribution: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return false, storage.ErrAlreadyDistributed
		}
	}

	if err := dbTx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit settlement: %w", err)
	}
	return true, nil
}
