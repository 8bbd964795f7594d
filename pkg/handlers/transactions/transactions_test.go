package transactions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chris/audio-market-settlement/pkg/api"
	"github.com/chris/audio-market-settlement/pkg/handlers/transactions"
	"github.com/chris/audio-market-settlement/pkg/middleware"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/settlement"
	"github.com/chris/audio-market-settlement/pkg/storage"
	"github.com/chris/audio-market-settlement/pkg/storage/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type creatorFunc func(req settlement.NewTransaction) (*models.Transaction, error)

func (f creatorFunc) CreateTransaction(ctx context.Context, req settlement.NewTransaction) (*models.Transaction, error) {
	return f(req)
}

func asCaller(req *http.Request, c middleware.Caller) *http.Request {
	return req.WithContext(middleware.WithCaller(req.Context(), c))
}

func postJSON(t *testing.T, v any) *http.Request {
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body))
}

func TestCreateTransaction(t *testing.T) {
	var got settlement.NewTransaction
	engine := creatorFunc(func(req settlement.NewTransaction) (*models.Transaction, error) {
		got = req
		return &models.Transaction{
			Id:         "tx-1",
			Type:       req.Type,
			FromUserId: req.FromUserId,
			ToUserId:   req.ToUserId,
			Amount:     req.Amount,
			Status:     models.PENDING,
			Funding:    models.FundingGateway,
		}, nil
	})
	h := transactions.NewTransactionsHandler(engine, mocks.NewStorage(t))

	t.Run("Payer defaults to the caller", func(t *testing.T) {
		nft := "nft-1"
		req := asCaller(postJSON(t, api.NewTransaction{Type: api.TransactionTypePurchase, NftId: &nft, Amount: 500}), middleware.Caller{UserID: "buyer"})
		rr := httptest.NewRecorder()
		h.CreateTransaction(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "buyer", got.FromUserId)
		assert.Equal(t, models.PURCHASE, got.Type)
		var tx api.Transaction
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tx))
		assert.Equal(t, "tx-1", tx.Id)
		assert.Equal(t, api.TransactionStatusPending, tx.Status)
	})

	t.Run("Deposit credits the caller", func(t *testing.T) {
		req := asCaller(postJSON(t, api.NewTransaction{Type: api.TransactionTypeDeposit, Amount: 500}), middleware.Caller{UserID: "alice"})
		rr := httptest.NewRecorder()
		h.CreateTransaction(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "alice", got.ToUserId)
		assert.Empty(t, got.FromUserId)
	})

	t.Run("Spending for someone else is forbidden", func(t *testing.T) {
		other := "victim"
		req := asCaller(postJSON(t, api.NewTransaction{Type: api.TransactionTypeWithdrawal, FromUserId: &other, Amount: 500}), middleware.Caller{UserID: "mallory"})
		rr := httptest.NewRecorder()
		h.CreateTransaction(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Admin may act for a user", func(t *testing.T) {
		from, to := "fan", "artist"
		req := asCaller(postJSON(t, api.NewTransaction{Type: api.TransactionTypeTip, FromUserId: &from, ToUserId: &to, Amount: 100}), middleware.Caller{UserID: "ops", Admin: true})
		rr := httptest.NewRecorder()
		h.CreateTransaction(rr, req)
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "fan", got.FromUserId)
	})

	t.Run("Anonymous", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.CreateTransaction(rr, postJSON(t, api.NewTransaction{Type: api.TransactionTypeTip, Amount: 100}))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Bad body", func(t *testing.T) {
		req := asCaller(httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString("{")), middleware.Caller{UserID: "buyer"})
		rr := httptest.NewRecorder()
		h.CreateTransaction(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Engine errors are mapped", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			code int
		}{
			{"Invalid amount", settlement.ErrInvalidAmount, http.StatusBadRequest},
			{"Insufficient", settlement.ErrInsufficientBalance, http.StatusUnprocessableEntity},
			{"Unknown", assert.AnError, http.StatusInternalServerError},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				failing := transactions.NewTransactionsHandler(creatorFunc(func(settlement.NewTransaction) (*models.Transaction, error) {
					return nil, tc.err
				}), nil)
				req := asCaller(postJSON(t, api.NewTransaction{Type: api.TransactionTypeWithdrawal, Amount: 100}), middleware.Caller{UserID: "alice"})
				rr := httptest.NewRecorder()
				failing.CreateTransaction(rr, req)
				assert.Equal(t, tc.code, rr.Code)
			})
		}
	})
}

func TestGetTransactionById(t *testing.T) {
	id := uuid.New()
	tx := &models.Transaction{
		Id:         id.String(),
		Type:       models.RESALE,
		FromUserId: "buyer",
		ToUserId:   "seller",
		CreatorId:  "creator",
		Amount:     1000,
		Status:     models.COMPLETED,
		CreatedAt:  time.Now(),
	}

	tests := []struct {
		name   string
		caller middleware.Caller
		code   int
	}{
		{"Buyer", middleware.Caller{UserID: "buyer"}, http.StatusOK},
		{"Seller", middleware.Caller{UserID: "seller"}, http.StatusOK},
		{"Creator", middleware.Caller{UserID: "creator"}, http.StatusOK},
		{"Admin", middleware.Caller{UserID: "ops", Admin: true}, http.StatusOK},
		{"Stranger", middleware.Caller{UserID: "someone"}, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := mocks.NewStorage(t)
			store.On("GetTransaction", mock.Anything, id.String()).Return(tx, nil)
			h := transactions.NewTransactionsHandler(nil, store)

			rr := httptest.NewRecorder()
			h.GetTransactionById(rr, asCaller(httptest.NewRequest(http.MethodGet, "/transactions/"+id.String(), nil), tc.caller), id)
			assert.Equal(t, tc.code, rr.Code)
		})
	}

	t.Run("Missing", func(t *testing.T) {
		store := mocks.NewStorage(t)
		store.On("GetTransaction", mock.Anything, id.String()).Return(nil, storage.ErrNotFound)
		h := transactions.NewTransactionsHandler(nil, store)

		rr := httptest.NewRecorder()
		h.GetTransactionById(rr, asCaller(httptest.NewRequest(http.MethodGet, "/", nil), middleware.Caller{UserID: "buyer"}), id)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestListTransactionsByUserId(t *testing.T) {
	txs := []models.Transaction{
		{Id: "tx-3", FromUserId: "alice", Status: models.PENDING},
		{Id: "tx-2", ToUserId: "alice", Status: models.COMPLETED},
		{Id: "tx-1", FromUserId: "alice", Status: models.COMPLETED},
	}
	list := func(t *testing.T, caller middleware.Caller, params api.ListTransactionsByUserIdParams) (*httptest.ResponseRecorder, []api.Transaction) {
		store := mocks.NewStorage(t)
		store.On("ListTransactionsByUserID", mock.Anything, "alice").Return(txs, nil).Maybe()
		h := transactions.NewTransactionsHandler(nil, store)

		rr := httptest.NewRecorder()
		h.ListTransactionsByUserId(rr, asCaller(httptest.NewRequest(http.MethodGet, "/users/alice/transactions", nil), caller), "alice", params)
		var out []api.Transaction
		if rr.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		}
		return rr, out
	}
	alice := middleware.Caller{UserID: "alice"}

	t.Run("All", func(t *testing.T) {
		rr, out := list(t, alice, api.ListTransactionsByUserIdParams{})
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, out, 3)
	})

	t.Run("Status filter and limit", func(t *testing.T) {
		status := api.TransactionStatusCompleted
		limit := 1
		rr, out := list(t, alice, api.ListTransactionsByUserIdParams{Status: &status, Limit: &limit})
		assert.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, out, 1)
		assert.Equal(t, "tx-2", out[0].Id)
	})

	t.Run("Bad limit", func(t *testing.T) {
		limit := 0
		rr, _ := list(t, alice, api.ListTransactionsByUserIdParams{Limit: &limit})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Other user", func(t *testing.T) {
		rr, _ := list(t, middleware.Caller{UserID: "bob"}, api.ListTransactionsByUserIdParams{})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Storage error", func(t *testing.T) {
		store := mocks.NewStorage(t)
		store.On("ListTransactionsByUserID", mock.Anything, "alice").Return(nil, assert.AnError)
		h := transactions.NewTransactionsHandler(nil, store)

		rr := httptest.NewRecorder()
		h.ListTransactionsByUserId(rr, asCaller(httptest.NewRequest(http.MethodGet, "/", nil), alice), "alice", api.ListTransactionsByUserIdParams{})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
