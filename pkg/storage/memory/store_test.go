package memory

import (
	"context"
	"testing"
	"time"

	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Reserves Funds", func(t *testing.T) {
		s := New()
		s.PutWallet(models.Wallet{UserId: "u1", AvailableBalance: 100})

		tx := &models.Transaction{Id: "t1", Type: models.WITHDRAWAL, FromUserId: "u1", Amount: 40, Status: models.PENDING, CreatedAt: now}
		err := s.CreateTransaction(ctx, tx, &models.WalletDelta{UserId: "u1", Available: -40, Pending: 40})
		require.NoError(t, err)

		w, err := s.GetWallet(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(60), w.AvailableBalance)
		assert.Equal(t, int64(40), w.PendingBalance)
	})

	t.Run("Insufficient Funds", func(t *testing.T) {
		s := New()
		s.PutWallet(models.Wallet{UserId: "u1", AvailableBalance: 10})

		tx := &models.Transaction{Id: "t1", Type: models.WITHDRAWAL, FromUserId: "u1", Amount: 40, Status: models.PENDING}
		err := s.CreateTransaction(ctx, tx, &models.WalletDelta{UserId: "u1", Available: -40, Pending: 40})
		assert.ErrorIs(t, err, storage.ErrInsufficientFunds)

		_, err = s.GetTransaction(ctx, "t1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestApproveTransaction(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateTransaction(ctx, &models.Transaction{Id: "t1", Status: models.PENDING}, nil))
	require.NoError(t, s.CreateTransaction(ctx, &models.Transaction{Id: "t2", Status: models.PENDING}, nil))

	require.NoError(t, s.ApproveTransaction(ctx, "t1", "pay-1", time.Now()))
	assert.ErrorIs(t, s.ApproveTransaction(ctx, "t1", "pay-1", time.Now()), storage.ErrConditionFailed)
	assert.ErrorIs(t, s.ApproveTransaction(ctx, "t2", "pay-1", time.Now()), storage.ErrDuplicatePayment)
	assert.ErrorIs(t, s.ApproveTransaction(ctx, "missing", "pay-2", time.Now()), storage.ErrNotFound)

	tx, err := s.GetTransactionByPaymentID(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "t1", tx.Id)
	assert.Equal(t, models.APPROVED, tx.Status)
}

func TestApplySettlement(t *testing.T) {
	ctx := context.Background()

	newStore := func() *Store {
		s := New()
		_ = s.CreateTransaction(ctx, &models.Transaction{Id: "t1", Status: models.APPROVED}, nil)
		s.PutNFT(models.NFT{Id: "n1", CreatorId: "c1", OwnerId: "c1"})
		return s
	}
	plan := func() *models.SettlementPlan {
		return &models.SettlementPlan{
			Transaction:    &models.Transaction{Id: "t1", Status: models.COMPLETED},
			ExpectedStatus: models.APPROVED,
			WalletDeltas:   []models.WalletDelta{{UserId: "c1", Available: 90, Earnings: 90}},
			LedgerEntries: []models.LedgerEntry{
				{TransactionID: "t1", EntryID: "e1", AccountType: models.ACCOUNT_EXTERNAL, Amount: -100},
				{TransactionID: "t1", EntryID: "e2", UserId: "c1", AccountType: models.ACCOUNT_WALLET, Amount: 90},
				{TransactionID: "t1", EntryID: "e3", AccountType: models.ACCOUNT_PLATFORM_REVENUE, Amount: 10},
			},
			NFTTransfer: &models.NFTTransfer{NftId: "n1", NewOwnerId: "b1"},
		}
	}

	t.Run("Applies Once", func(t *testing.T) {
		s := newStore()

		applied, err := s.ApplySettlement(ctx, plan())
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = s.ApplySettlement(ctx, plan())
		require.NoError(t, err)
		assert.False(t, applied)

		w, _ := s.GetWallet(ctx, "c1")
		assert.Equal(t, int64(90), w.AvailableBalance)
		entries, _ := s.ListLedgerEntries(ctx, "t1")
		assert.Len(t, entries, 3)
		nft, _ := s.GetNFT(ctx, "n1")
		assert.Equal(t, "b1", nft.OwnerId)
		assert.Equal(t, int64(1), nft.SoldCount)
	})

	t.Run("Rolls Back On Negative Balance", func(t *testing.T) {
		s := newStore()
		p := plan()
		p.WalletDeltas = append(p.WalletDeltas, models.WalletDelta{UserId: "b1", Pending: -5})

		applied, err := s.ApplySettlement(ctx, p)
		assert.ErrorIs(t, err, storage.ErrInsufficientFunds)
		assert.False(t, applied)

		tx, _ := s.GetTransaction(ctx, "t1")
		assert.Equal(t, models.APPROVED, tx.Status)
		_, err = s.GetWallet(ctx, "c1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		entries, _ := s.ListLedgerEntries(ctx, "t1")
		assert.Empty(t, entries)
	})

	t.Run("Distribution Key Is Unique", func(t *testing.T) {
		s := New()
		mk := func(id string) *models.SettlementPlan {
			return &models.SettlementPlan{
				Transaction:  &models.Transaction{Id: id, Status: models.COMPLETED},
				Insert:       true,
				WalletDeltas: []models.WalletDelta{{UserId: "c1", Available: 5, Earnings: 5}},
				Distribution: &models.Distribution{CreatorId: "c1", PeriodKey: "p1", TransactionId: id, Amount: 5},
			}
		}
		applied, err := s.ApplySettlement(ctx, mk("a"))
		require.NoError(t, err)
		assert.True(t, applied)

		_, err = s.ApplySettlement(ctx, mk("b"))
		assert.ErrorIs(t, err, storage.ErrAlreadyDistributed)

		w, _ := s.GetWallet(ctx, "c1")
		assert.Equal(t, int64(5), w.AvailableBalance)
	})
}

func TestListStreamStats(t *testing.T) {
	s := New()
	s.AddStreamStat(models.StreamStat{CreatorId: "b", Day: "2026-10-01", AdStreams: 3, AdRevenue: 30})
	s.AddStreamStat(models.StreamStat{CreatorId: "a", Day: "2026-10-02", AdStreams: 1, AdRevenue: 10})
	s.AddStreamStat(models.StreamStat{CreatorId: "b", Day: "2026-10-15", AdStreams: 2, AdRevenue: 20})
	s.AddStreamStat(models.StreamStat{CreatorId: "a", Day: "2026-10-16", AdStreams: 9, AdRevenue: 90})

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	stats, err := s.ListStreamStats(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, []models.StreamStat{
		{CreatorId: "a", AdStreams: 1, AdRevenue: 10},
		{CreatorId: "b", AdStreams: 5, AdRevenue: 50},
	}, stats)
}
