package transactions

import (
	"context"
	"net/http"

	"github.com/chris/audio-market-settlement/pkg/api"
	"github.com/chris/audio-market-settlement/pkg/handlers/respond"
	"github.com/chris/audio-market-settlement/pkg/mapping"
	"github.com/chris/audio-market-settlement/pkg/middleware"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/settlement"
	"github.com/chris/audio-market-settlement/pkg/storage"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Creator starts transactions. *settlement.Engine implements it.
type Creator interface {
	CreateTransaction(ctx context.Context, req settlement.NewTransaction) (*models.Transaction, error)
}

// TransactionsHandler holds the dependencies for transaction-related handlers.
type TransactionsHandler struct {
	Engine Creator
	Store  storage.TransactionReader
}

// NewTransactionsHandler creates a new TransactionsHandler.
func NewTransactionsHandler(engine Creator, store storage.TransactionReader) *TransactionsHandler {
	return &TransactionsHandler{Engine: engine, Store: store}
}

// CreateTransaction starts a transaction on behalf of the caller. Only admins
// may name another user as the payer (or, for deposits, the recipient).
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	caller, ok := respond.Caller(w, r)
	if !ok {
		return
	}
	var newTx api.NewTransaction
	if !respond.Decode(w, r, &newTx) {
		return
	}

	req := mapping.ToDomainNewTransaction(&newTx)
	owner := &req.FromUserId
	if req.Type == models.DEPOSIT {
		owner = &req.ToUserId
	}
	if *owner == "" {
		*owner = caller.UserID
	}
	if !caller.CanActFor(*owner) {
		respond.Forbidden(w)
		return
	}

	tx, err := h.Engine.CreateTransaction(r.Context(), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, mapping.ToApiTransaction(tx))
}

// GetTransactionById returns a transaction to one of its parties or an admin.
// Anyone else gets a 404.
func (h *TransactionsHandler) GetTransactionById(w http.ResponseWriter, r *http.Request, transactionId openapi_types.UUID) {
	caller, ok := respond.Caller(w, r)
	if !ok {
		return
	}
	tx, err := h.Store.GetTransaction(r.Context(), transactionId.String())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if !Visible(caller, tx) {
		respond.Message(w, http.StatusNotFound, "not found")
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiTransaction(tx))
}

// ListTransactionsByUserId lists the transactions a user paid or received, newest first.
func (h *TransactionsHandler) ListTransactionsByUserId(w http.ResponseWriter, r *http.Request, userId string, params api.ListTransactionsByUserIdParams) {
	caller, ok := respond.Caller(w, r)
	if !ok {
		return
	}
	if !caller.CanActFor(userId) {
		respond.Forbidden(w)
		return
	}

	limit := defaultListLimit
	if params.Limit != nil {
		limit = *params.Limit
	}
	if limit < 1 || limit > maxListLimit {
		respond.Message(w, http.StatusBadRequest, "limit must be between 1 and 200")
		return
	}

	txs, err := h.Store.ListTransactionsByUserID(r.Context(), userId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	apiTxs := make([]*api.Transaction, 0, min(len(txs), limit))
	for i := range txs {
		if params.Status != nil && string(txs[i].Status) != string(*params.Status) {
			continue
		}
		apiTxs = append(apiTxs, mapping.ToApiTransaction(&txs[i]))
		if len(apiTxs) == limit {
			break
		}
	}
	respond.JSON(w, http.StatusOK, apiTxs)
}

// Visible reports whether c may see tx.
func Visible(c middleware.Caller, tx *models.Transaction) bool {
	return c.Admin || c.CanActFor(tx.FromUserId) || c.CanActFor(tx.ToUserId) || c.CanActFor(tx.CreatorId)
}
