package storage

import (
	"context"

	"github.com/chris/audio-market-settlement/pkg/models"
)

// LedgerReader defines the interface for reading ledger data.
type LedgerReader interface {
	// ListLedgerEntries retrieves every ledger entry written for a transaction.
	ListLedgerEntries(ctx context.Context, txID string) ([]models.LedgerEntry, error)
}
