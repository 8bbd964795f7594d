package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	withdrawal := &models.Transaction{Id: "tx-w", Type: models.WITHDRAWAL, Funding: models.FundingWallet, FromUserId: "artist", Amount: 100, Status: models.PENDING, CreatedAt: time.Now()}
	hold := &models.WalletDelta{UserId: "artist", Available: -100, Pending: 100}

	t.Run("Reservation is written with the transaction", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			if len(in.TransactItems) != 2 {
				return false
			}
			put, update := in.TransactItems[0].Put, in.TransactItems[1].Update
			return put != nil && update != nil &&
				*put.ConditionExpression == "attribute_not_exists(id)" &&
				*update.TableName == "wallets" &&
				*update.ConditionExpression == "available_balance >= :need_available"
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		require.NoError(t, store.CreateTransaction(context.Background(), withdrawal, hold))
	})

	t.Run("Gateway funded needs no wallet write", func(t *testing.T) {
		store, client := newTestStore(t)
		purchase := &models.Transaction{Id: "tx-p", Type: models.PURCHASE, Funding: models.FundingGateway, FromUserId: "fan", Amount: 2000, Status: models.PENDING}
		client.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return len(in.TransactItems) == 1 && *in.TransactItems[0].Put.TableName == "transactions"
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		require.NoError(t, store.CreateTransaction(context.Background(), purchase, nil))
	})

	failures := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"Balance too low", cancelled("None", "ConditionalCheckFailed"), storage.ErrInsufficientFunds},
		{"Id already used", cancelled("ConditionalCheckFailed", "None"), storage.ErrConditionFailed},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			store, client := newTestStore(t)
			client.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			err := store.CreateTransaction(context.Background(), withdrawal, hold)

			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("Client error is wrapped", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, errors.New("service unavailable")).Once()

		err := store.CreateTransaction(context.Background(), withdrawal, hold)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to execute transaction")
	})
}

func TestApproveTransaction(t *testing.T) {
	at := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)

	t.Run("Claims the payment id", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return len(in.TransactItems) == 2 &&
				*in.TransactItems[0].Update.ConditionExpression == "#status = :pending" &&
				keyOf(in.TransactItems[1].Put.Item, "id") == paymentKeyPrefix+"pay-1"
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		require.NoError(t, store.ApproveTransaction(context.Background(), "tx-1", "pay-1", at))
	})

	tests := []struct {
		name    string
		codes   []string
		wantErr error
	}{
		{"No longer pending", []string{"ConditionalCheckFailed", "None"}, storage.ErrConditionFailed},
		{"Payment already claimed", []string{"None", "ConditionalCheckFailed"}, storage.ErrDuplicatePayment},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, client := newTestStore(t)
			client.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled(tc.codes...)).Once()

			err := store.ApproveTransaction(context.Background(), "tx-1", "pay-1", at)

			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
