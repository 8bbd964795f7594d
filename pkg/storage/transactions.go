package storage

import (
	"context"
	"time"

	"github.com/chris/audio-market-settlement/pkg/models"
)

// TransactionReader defines the interface for reading transaction data.
type TransactionReader interface {
	// GetTransaction retrieves a transaction by its ID.
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)

	// GetTransactionByPaymentID retrieves the transaction the gateway payment is attached to.
	GetTransactionByPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error)

	// GetStuckTransactions retrieves transactions that have sat in status for longer than maxAge.
	GetStuckTransactions(ctx context.Context, status models.TransactionStatus, maxAge time.Duration) ([]models.Transaction, error)

	// ListTransactionsByUserID retrieves all transactions a user paid or received, newest first.
	ListTransactionsByUserID(ctx context.Context, userID string) ([]models.Transaction, error)
}

// TransactionManager defines the interface for creating and advancing transactions before settlement.
type TransactionManager interface {
	// CreateTransaction persists a new pending transaction. When reservation is
	// non-nil the wallet change is applied in the same atomic unit and
	// ErrInsufficientFunds is returned if it would take a balance negative.
	CreateTransaction(ctx context.Context, tx *models.Transaction, reservation *models.WalletDelta) error

	// ApproveTransaction moves a pending transaction to approved and attaches
	// the external payment id. ErrConditionFailed is returned if the
	// transaction is not pending and ErrDuplicatePayment if the id is taken.
	ApproveTransaction(ctx context.Context, txID, paymentID string, approvedAt time.Time) error
}

// TransactionStore combines the reader and manager interfaces.
type TransactionStore interface {
	TransactionReader
	TransactionManager
}
