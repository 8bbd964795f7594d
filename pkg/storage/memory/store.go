// Package memory is a process-local implementation of storage.Storage. Every
// write runs under one mutex, so each call is atomic. Returned values are
// copies.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

// Store implements the Storage interface in memory.
type Store struct {
	mu            sync.RWMutex
	transactions  map[string]*models.Transaction
	payments      map[string]string
	wallets       map[string]*models.Wallet
	ledger        map[string][]models.LedgerEntry
	nfts          map[string]*models.NFT
	distributions map[string]*models.Distribution
	streamStats   []models.StreamStat

	// Now is used for stuck-transaction cutoffs.
	Now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		transactions:  make(map[string]*models.Transaction),
		payments:      make(map[string]string),
		wallets:       make(map[string]*models.Wallet),
		ledger:        make(map[string][]models.LedgerEntry),
		nfts:          make(map[string]*models.NFT),
		distributions: make(map[string]*models.Distribution),
		Now:           time.Now,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// PutNFT inserts or replaces an NFT.
func (s *Store) PutNFT(nft models.NFT) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nfts[nft.Id] = &nft
}

// AddStreamStat records ad-eligible streams for a creator on a day.
func (s *Store) AddStreamStat(stat models.StreamStat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamStats = append(s.streamStats, stat)
}

// PutWallet inserts or replaces a wallet.
func (s *Store) PutWallet(w models.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.UserId] = &w
}

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction, reservation *models.WalletDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[tx.Id]; ok {
		return storage.ErrConditionFailed
	}
	if tx.ExternalPaymentId != "" {
		if _, ok := s.payments[tx.ExternalPaymentId]; ok {
			return storage.ErrDuplicatePayment
		}
	}
	if reservation != nil {
		if err := s.checkDelta(*reservation); err != nil {
			return err
		}
		s.applyDelta(*reservation, tx.CreatedAt)
	}

	s.transactions[tx.Id] = copyTx(tx)
	if tx.ExternalPaymentId != "" {
		s.payments[tx.ExternalPaymentId] = tx.Id
	}
	return nil
}

func (s *Store) ApproveTransaction(ctx context.Context, txID, paymentID string, approvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[txID]
	if !ok {
		return storage.ErrNotFound
	}
	if tx.Status != models.PENDING {
		return storage.ErrConditionFailed
	}
	if owner, ok := s.payments[paymentID]; ok && owner != txID {
		return storage.ErrDuplicatePayment
	}

	tx.Status = models.APPROVED
	tx.ExternalPaymentId = paymentID
	tx.ApprovedAt = &approvedAt
	tx.UpdatedAt = approvedAt
	s.payments[paymentID] = txID
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[txID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyTx(tx), nil
}

func (s *Store) GetTransactionByPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.payments[paymentID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyTx(s.transactions[id]), nil
}

func (s *Store) GetStuckTransactions(ctx context.Context, status models.TransactionStatus, maxAge time.Duration) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.Now().Add(-maxAge)
	var out []models.Transaction
	for _, tx := range s.transactions {
		if tx.Status == status && tx.UpdatedAt.Before(cutoff) {
			out = append(out, *copyTx(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) ListTransactionsByUserID(ctx context.Context, userID string) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Transaction
	for _, tx := range s.transactions {
		if tx.FromUserId == userID || tx.ToUserId == userID {
			out = append(out, *copyTx(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wallets[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *Store) GetNFT(ctx context.Context, nftID string) (*models.NFT, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nfts[nftID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *Store) ListLedgerEntries(ctx context.Context, txID string) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.ledger[txID]
	out := make([]models.LedgerEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *Store) ApplySettlement(ctx context.Context, plan *models.SettlementPlan) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := plan.Transaction
	if plan.Insert {
		if _, ok := s.transactions[tx.Id]; ok {
			return false, nil
		}
	} else {
		current, ok := s.transactions[tx.Id]
		if !ok {
			return false, storage.ErrNotFound
		}
		if current.Status != plan.ExpectedStatus {
			return false, nil
		}
	}

	// Validate everything before the first write.
	if d := plan.Distribution; d != nil {
		if _, ok := s.distributions[distributionKey(d.CreatorId, d.PeriodKey)]; ok {
			return false, storage.ErrAlreadyDistributed
		}
	}
	for _, d := range plan.WalletDeltas {
		if err := s.checkDelta(d); err != nil {
			return false, err
		}
	}
	if t := plan.NFTTransfer; t != nil {
		if _, ok := s.nfts[t.NftId]; !ok {
			return false, storage.ErrNotFound
		}
	}

	now := tx.UpdatedAt
	s.transactions[tx.Id] = copyTx(tx)
	if tx.ExternalPaymentId != "" {
		s.payments[tx.ExternalPaymentId] = tx.Id
	}
	for _, d := range plan.WalletDeltas {
		s.applyDelta(d, now)
	}
	s.ledger[tx.Id] = append(s.ledger[tx.Id], plan.LedgerEntries...)
	if t := plan.NFTTransfer; t != nil {
		n := s.nfts[t.NftId]
		n.OwnerId = t.NewOwnerId
		n.SoldCount++
		n.UpdatedAt = now
	}
	if d := plan.Distribution; d != nil {
		cp := *d
		s.distributions[distributionKey(d.CreatorId, d.PeriodKey)] = &cp
	}
	return true, nil
}

func (s *Store) GetDistribution(ctx context.Context, creatorID, periodKey string) (*models.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.distributions[distributionKey(creatorID, periodKey)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *Store) ListStreamStats(ctx context.Context, start, end time.Time) ([]models.StreamStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to := start.Format(storage.DayFormat), end.Format(storage.DayFormat)
	byCreator := make(map[string]*models.StreamStat)
	var order []string
	for _, st := range s.streamStats {
		if st.Day < from || st.Day >= to {
			continue
		}
		agg, ok := byCreator[st.CreatorId]
		if !ok {
			agg = &models.StreamStat{CreatorId: st.CreatorId}
			byCreator[st.CreatorId] = agg
			order = append(order, st.CreatorId)
		}
		agg.AdStreams += st.AdStreams
		agg.AdRevenue += st.AdRevenue
	}
	sort.Strings(order)
	out := make([]models.StreamStat, 0, len(order))
	for _, id := range order {
		out = append(out, *byCreator[id])
	}
	return out, nil
}

func (s *Store) checkDelta(d models.WalletDelta) error {
	var available, pending int64
	if w, ok := s.wallets[d.UserId]; ok {
		available, pending = w.AvailableBalance, w.PendingBalance
	}
	if available+d.Available < 0 || pending+d.Pending < 0 {
		return storage.ErrInsufficientFunds
	}
	return nil
}

func (s *Store) applyDelta(d models.WalletDelta, now time.Time) {
	w, ok := s.wallets[d.UserId]
	if !ok {
		w = &models.Wallet{UserId: d.UserId, CreatedAt: now}
		s.wallets[d.UserId] = w
	}
	w.AvailableBalance += d.Available
	w.PendingBalance += d.Pending
	w.LifetimeEarnings += d.Earnings
	w.LifetimeSpent += d.Spent
	w.Version++
	w.UpdatedAt = now
}

func distributionKey(creatorID, periodKey string) string {
	return creatorID + "#" + periodKey
}

func copyTx(tx *models.Transaction) *models.Transaction {
	cp := *tx
	if tx.Metadata != nil {
		cp.Metadata = make(map[string]string, len(tx.Metadata))
		for k, v := range tx.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
