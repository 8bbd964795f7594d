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
)

func purchasePlan() *models.SettlementPlan {
	now := time.Now()
	return &models.SettlementPlan{
		Transaction:    &models.Transaction{Id: "tx-1", Type: models.PURCHASE, Amount: 100, Status: models.COMPLETED, UpdatedAt: now, CompletedAt: &now},
		ExpectedStatus: models.APPROVED,
		WalletDeltas: []models.WalletDelta{
			{UserId: "buyer", Spent: 100},
			{UserId: "creator", Available: 90, Earnings: 90},
		},
		LedgerEntries: []models.LedgerEntry{
			{TransactionID: "tx-1", EntryID: "e1", UserId: "buyer", AccountType: models.ACCOUNT_EXTERNAL, Amount: -100},
			{TransactionID: "tx-1", EntryID: "e2", UserId: "creator", AccountType: models.ACCOUNT_WALLET, Amount: 90},
			{TransactionID: "tx-1", EntryID: "e3", AccountType: models.ACCOUNT_PLATFORM_REVENUE, Amount: 10},
		},
		NFTTransfer: &models.NFTTransfer{NftId: "nft-1", NewOwnerId: "buyer"},
	}
}

func TestApplySettlement(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store, mockClient := newTestStore(t)

		// 1 transaction + 2 wallets + 3 ledger entries + 1 nft
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return len(in.TransactItems) == 7 &&
				*in.TransactItems[0].Put.ConditionExpression == "#status = :expected_status" &&
				*in.TransactItems[3].Put.TableName == "ledger" &&
				*in.TransactItems[6].Update.TableName == "nfts"
		})).Once().Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		applied, err := store.ApplySettlement(context.Background(), purchasePlan())

		assert.NoError(t, err)
		assert.True(t, applied)
	})

	t.Run("Already Settled", func(t *testing.T) {
		store, mockClient := newTestStore(t)

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled("ConditionalCheckFailed", "None", "None", "None", "None", "None", "None"))

		applied, err := store.ApplySettlement(context.Background(), purchasePlan())

		assert.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("Wallet Would Go Negative", func(t *testing.T) {
		store, mockClient := newTestStore(t)

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled("None", "ConditionalCheckFailed", "None", "None", "None", "None", "None"))

		applied, err := store.ApplySettlement(context.Background(), purchasePlan())

		assert.ErrorIs(t, err, storage.ErrInsufficientFunds)
		assert.False(t, applied)
	})

	t.Run("Missing NFT", func(t *testing.T) {
		store, mockClient := newTestStore(t)

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled("None", "None", "None", "None", "None", "None", "ConditionalCheckFailed"))

		_, err := store.ApplySettlement(context.Background(), purchasePlan())

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Distribution Already Recorded", func(t *testing.T) {
		store, mockClient := newTestStore(t)

		plan := &models.SettlementPlan{
			Transaction:  &models.Transaction{Id: "tx-2", Type: models.AD_REVENUE, Amount: 5, Status: models.COMPLETED},
			Insert:       true,
			WalletDeltas: []models.WalletDelta{{UserId: "creator", Available: 5, Earnings: 5}},
			Distribution: &models.Distribution{CreatorId: "creator", PeriodKey: "2026-10-01_2026-10-16", TransactionId: "tx-2", Amount: 5},
		}
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return *in.TransactItems[0].Put.ConditionExpression == "attribute_not_exists(id)" &&
				*in.TransactItems[2].Put.TableName == "distributions"
		})).Return(nil, cancelled("None", "None", "ConditionalCheckFailed"))

		_, err := store.ApplySettlement(context.Background(), plan)

		assert.ErrorIs(t, err, storage.ErrAlreadyDistributed)
	})

	t.Run("Transaction Fails", func(t *testing.T) {
		store, mockClient := newTestStore(t)

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		applied, err := store.ApplySettlement(context.Background(), purchasePlan())

		assert.Error(t, err)
		assert.False(t, applied)
		assert.Contains(t, err.Error(), "failed to execute settlement transaction")
	})
}
