package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

const transactionColumns = `id, type, from_user_id, to_user_id, creator_id, nft_id, amount, royalty_bps,
	platform_fee, creator_royalty, recipient_earnings, funding, external_payment_id, gateway_txid,
	status, failure_reason, metadata, created_at, updated_at, approved_at, completed_at`

const insertTransactionSQL = `INSERT INTO transactions (` + transactionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func transactionArgs(tx *models.Transaction) ([]any, error) {
	var metadata []byte
	if len(tx.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(tx.Metadata); err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}
	return []any{
		tx.Id, string(tx.Type), nullString(tx.FromUserId), nullString(tx.ToUserId), nullString(tx.CreatorId),
		nullString(tx.NftId), tx.Amount, tx.RoyaltyBps, tx.PlatformFee, tx.CreatorRoyalty, tx.RecipientEarnings,
		string(tx.Funding), nullString(tx.ExternalPaymentId), nullString(tx.GatewayTxid), string(tx.Status),
		nullString(tx.FailureReason), metadata, tx.CreatedAt, tx.UpdatedAt, nullTime(tx.ApprovedAt), nullTime(tx.CompletedAt),
	}, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		tx                                            models.Transaction
		txType, funding, status                       string
		from, to, creator, nft, payment, txid, reason sql.NullString
		metadata                                      []byte
		approvedAt, completedAt                       sql.NullTime
	)
	err := row.Scan(&tx.Id, &txType, &from, &to, &creator, &nft, &tx.Amount, &tx.RoyaltyBps,
		&tx.PlatformFee, &tx.CreatorRoyalty, &tx.RecipientEarnings, &funding, &payment, &txid,
		&status, &reason, &metadata, &tx.CreatedAt, &tx.UpdatedAt, &approvedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	tx.Type = models.TransactionType(txType)
	tx.Funding = models.FundingSource(funding)
	tx.Status = models.TransactionStatus(status)
	tx.FromUserId, tx.ToUserId, tx.CreatorId, tx.NftId = from.String, to.String, creator.String, nft.String
	tx.ExternalPaymentId, tx.GatewayTxid, tx.FailureReason = payment.String, txid.String, reason.String
	if approvedAt.Valid {
		tx.ApprovedAt = &approvedAt.Time
	}
	if completedAt.Valid {
		tx.CompletedAt = &completedAt.Time
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &tx.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &tx, nil
}

// CreateTransaction inserts a pending transaction and applies its reservation in one database transaction.
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction, reservation *models.WalletDelta) error {
	args, err := transactionArgs(tx)
	if err != nil {
		return err
	}

	dbTx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if reservation != nil {
		if err := applyWalletDelta(ctx, dbTx, *reservation, tx.CreatedAt); err != nil {
			return err
		}
	}

	if _, err := dbTx.ExecContext(ctx, insertTransactionSQL, args...); err != nil {
		if code, constraint := pgCode(err); code == uniqueViolation {
			if constraint == paymentIDConstraint {
				return storage.ErrDuplicatePayment
			}
			return storage.ErrConditionFailed
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ApproveTransaction moves a pending transaction to approved and attaches the payment id.
func (s *Store) ApproveTransaction(ctx context.Context, txID, paymentID string, approvedAt time.Time) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE transactions SET status = $2, external_payment_id = $3, approved_at = $4, updated_at = $4
		 WHERE id = $1 AND status = $5`,
		txID, string(models.APPROVED), paymentID, approvedAt, string(models.PENDING))
	if err != nil {
		if code, _ := pgCode(err); code == uniqueViolation {
			return storage.ErrDuplicatePayment
		}
		return fmt.Errorf("failed to approve transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrConditionFailed
	}
	return nil
}

// GetTransaction retrieves a transaction by its ID.
func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, txID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction with ID %s: %w", txID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// GetTransactionByPaymentID retrieves the transaction a gateway payment is attached to.
func (s *Store) GetTransactionByPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE external_payment_id = $1`, paymentID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by payment: %w", err)
	}
	return tx, nil
}

// GetStuckTransactions lists transactions that have sat in status since before now-maxAge, oldest first.
func (s *Store) GetStuckTransactions(ctx context.Context, status models.TransactionStatus, maxAge time.Duration) ([]models.Transaction, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE status = $1 AND updated_at < $2 ORDER BY updated_at`,
		string(status), s.Now().Add(-maxAge))
	if err != nil {
		return nil, fmt.Errorf("failed to query for stuck transactions: %w", err)
	}
	return collectTransactions(rows)
}

// ListTransactionsByUserID lists every transaction the user sent or received, newest first.
func (s *Store) ListTransactionsByUserID(ctx context.Context, userID string) ([]models.Transaction, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE from_user_id = $1 OR to_user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by user: %w", err)
	}
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}
