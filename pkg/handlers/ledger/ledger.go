package ledger

import (
	"net/http"

	"github.com/chris/audio-market-settlement/pkg/api"
	"github.com/chris/audio-market-settlement/pkg/handlers/respond"
	"github.com/chris/audio-market-settlement/pkg/handlers/transactions"
	"github.com/chris/audio-market-settlement/pkg/mapping"
	"github.com/chris/audio-market-settlement/pkg/storage"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Store is what the ledger handler reads.
type Store interface {
	storage.TransactionReader
	storage.LedgerReader
}

// LedgerHandler holds the dependencies for ledger-related handlers.
type LedgerHandler struct {
	Store Store
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(store Store) *LedgerHandler {
	return &LedgerHandler{Store: store}
}

// ListLedgerEntries returns the double-entry rows written for a transaction.
// The caller must be able to see the transaction itself.
func (h *LedgerHandler) ListLedgerEntries(w http.ResponseWriter, r *http.Request, transactionId openapi_types.UUID) {
	caller, ok := respond.Caller(w, r)
	if !ok {
		return
	}
	tx, err := h.Store.GetTransaction(r.Context(), transactionId.String())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if !transactions.Visible(caller, tx) {
		respond.Message(w, http.StatusNotFound, "not found")
		return
	}

	entries, err := h.Store.ListLedgerEntries(r.Context(), tx.Id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	apiEntries := make([]*api.LedgerEntry, len(entries))
	for i := range entries {
		apiEntries[i] = mapping.ToApiLedgerEntry(&entries[i])
	}
	respond.JSON(w, http.StatusOK, apiEntries)
}
