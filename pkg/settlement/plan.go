package settlement

import (
	"fmt"
	"sort"
	"time"

	"github.com/chris/audio-market-settlement/pkg/fees"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/oklog/ulid/v2"
)

// Failure reasons recorded on failed transactions.
const (
	ReasonAmountMismatch    = "amount_mismatch"
	ReasonCancelled         = "cancelled"
	ReasonPayoutFailed      = "payout_request_failed"
	ReasonSettlementTimeout = "settlement_timeout"
	ReasonAbandoned         = "abandoned_checkout"
)

// deltas accumulates wallet changes per user so a plan carries at most one
// delta for each wallet.
type deltas map[string]*models.WalletDelta

func (d deltas) get(userID string) *models.WalletDelta {
	w, ok := d[userID]
	if !ok {
		w = &models.WalletDelta{UserId: userID}
		d[userID] = w
	}
	return w
}

// sorted returns the non-zero deltas ordered by user id, which keeps lock
// order stable across concurrent settlements.
func (d deltas) sorted() []models.WalletDelta {
	out := make([]models.WalletDelta, 0, len(d))
	for _, w := range d {
		if !w.IsZero() {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserId < out[j].UserId })
	return out
}

type ledgerBuilder struct {
	txID    string
	at      time.Time
	entries []models.LedgerEntry
}

// add appends a leg. Zero legs are dropped.
func (b *ledgerBuilder) add(userID string, account models.AccountType, amount int64, description string) {
	if amount == 0 {
		return
	}
	b.entries = append(b.entries, models.LedgerEntry{
		TransactionID: b.txID,
		EntryID:       ulid.Make().String(),
		UserId:        userID,
		AccountType:   account,
		Amount:        amount,
		Description:   description,
		CreatedAt:     b.at,
	})
}

func breakdownOf(tx *models.Transaction) fees.Breakdown {
	return fees.Breakdown{
		PlatformFee:       tx.PlatformFee,
		CreatorRoyalty:    tx.CreatorRoyalty,
		RecipientEarnings: tx.RecipientEarnings,
	}
}

// recomputeBreakdown checks the stored split against a fresh computation.
func recomputeBreakdown(tx *models.Transaction) error {
	want, err := fees.Compute(tx.Type, tx.Amount, fees.PercentFromBps(tx.RoyaltyBps))
	if err != nil {
		return err
	}
	got := breakdownOf(tx)
	if got.PlatformFee != want.PlatformFee || got.CreatorRoyalty != want.CreatorRoyalty || got.RecipientEarnings != want.RecipientEarnings {
		return fmt.Errorf("%w: stored %d/%d/%d, computed %d/%d/%d", fees.ErrConservation,
			got.PlatformFee, got.CreatorRoyalty, got.RecipientEarnings,
			want.PlatformFee, want.CreatorRoyalty, want.RecipientEarnings)
	}
	return fees.Verify(tx.Amount, got)
}

// reservation is the available -> pending move a reserving transaction makes at creation.
func reservation(tx *models.Transaction) *models.WalletDelta {
	if !tx.Reserves() {
		return nil
	}
	return &models.WalletDelta{UserId: tx.FromUserId, Available: -tx.Amount, Pending: tx.Amount}
}

// CompletionPlan builds the writes that settle tx. The stored breakdown must
// still match the fee rules exactly.
func CompletionPlan(tx *models.Transaction, expected models.TransactionStatus, txid string, now time.Time) (*models.SettlementPlan, error) {
	if err := recomputeBreakdown(tx); err != nil {
		return nil, err
	}

	settled := *tx
	settled.Status = models.COMPLETED
	settled.GatewayTxid = txid
	settled.UpdatedAt = now
	settled.CompletedAt = &now
	if settled.ApprovedAt == nil {
		settled.ApprovedAt = &now
	}

	d := deltas{}
	lb := &ledgerBuilder{txID: tx.Id, at: now}

	// Payer side.
	switch {
	case tx.Reserves():
		payer := d.get(tx.FromUserId)
		payer.Pending -= tx.Amount
		if tx.Type != models.WITHDRAWAL {
			payer.Spent += tx.Amount
		}
		lb.add(tx.FromUserId, models.ACCOUNT_WALLET, -tx.Amount, fmt.Sprintf("%s payment", tx.Type))
	default:
		if tx.FromUserId != "" {
			d.get(tx.FromUserId).Spent += tx.Amount
		}
		lb.add("", models.ACCOUNT_EXTERNAL, -tx.Amount, fmt.Sprintf("%s paid through gateway", tx.Type))
	}

	// Recipient side.
	if tx.Type == models.WITHDRAWAL {
		lb.add("", models.ACCOUNT_EXTERNAL, tx.RecipientEarnings, "withdrawal paid out")
	} else if tx.RecipientEarnings > 0 {
		to := d.get(tx.ToUserId)
		to.Available += tx.RecipientEarnings
		if tx.Type != models.DEPOSIT {
			to.Earnings += tx.RecipientEarnings
		}
		lb.add(tx.ToUserId, models.ACCOUNT_WALLET, tx.RecipientEarnings, recipientDescription(tx.Type))
	}

	if tx.CreatorRoyalty > 0 {
		c := d.get(tx.CreatorId)
		c.Available += tx.CreatorRoyalty
		c.Earnings += tx.CreatorRoyalty
		lb.add(tx.CreatorId, models.ACCOUNT_WALLET, tx.CreatorRoyalty, "creator royalty")
	}
	lb.add("", models.ACCOUNT_PLATFORM_REVENUE, tx.PlatformFee, platformDescription(tx.Type))

	plan := &models.SettlementPlan{
		Transaction:    &settled,
		ExpectedStatus: expected,
		WalletDeltas:   d.sorted(),
		LedgerEntries:  lb.entries,
	}
	if tx.Type.RequiresNFT() {
		plan.NFTTransfer = &models.NFTTransfer{NftId: tx.NftId, NewOwnerId: tx.FromUserId}
	}
	return plan, nil
}

// FailurePlan builds the writes that fail tx and release any reservation.
func FailurePlan(tx *models.Transaction, expected models.TransactionStatus, reason string, now time.Time) *models.SettlementPlan {
	failed := *tx
	failed.Status = models.FAILED
	failed.FailureReason = reason
	failed.UpdatedAt = now

	plan := &models.SettlementPlan{Transaction: &failed, ExpectedStatus: expected}
	if r := reservation(tx); r != nil {
		plan.WalletDeltas = []models.WalletDelta{{UserId: r.UserId, Available: -r.Available, Pending: -r.Pending}}
	}
	return plan
}

// AdRevenuePlan builds the single unit that pays one creator for one period:
// a completed ad_revenue transaction, the wallet credit, a balanced ledger
// pair and the (creator, period) distribution key.
func AdRevenuePlan(txID, creatorID, periodKey string, amount, streams int64, now time.Time) *models.SettlementPlan {
	tx := &models.Transaction{
		Id:                txID,
		Type:              models.AD_REVENUE,
		FromUserId:        models.PlatformAccount,
		ToUserId:          creatorID,
		CreatorId:         creatorID,
		Amount:            amount,
		RecipientEarnings: amount,
		Funding:           models.FundingPlatform,
		Status:            models.COMPLETED,
		Metadata:          map[string]string{"period_key": periodKey},
		CreatedAt:         now,
		UpdatedAt:         now,
		ApprovedAt:        &now,
		CompletedAt:       &now,
	}

	lb := &ledgerBuilder{txID: txID, at: now}
	lb.add("", models.ACCOUNT_PLATFORM_REVENUE, -amount, "ad revenue share "+periodKey)
	lb.add(creatorID, models.ACCOUNT_WALLET, amount, "ad revenue "+periodKey)

	return &models.SettlementPlan{
		Transaction:   tx,
		Insert:        true,
		WalletDeltas:  []models.WalletDelta{{UserId: creatorID, Available: amount, Earnings: amount}},
		LedgerEntries: lb.entries,
		Distribution: &models.Distribution{
			CreatorId:     creatorID,
			PeriodKey:     periodKey,
			TransactionId: txID,
			Amount:        amount,
			Streams:       streams,
			CreatedAt:     now,
		},
	}
}

func recipientDescription(t models.TransactionType) string {
	switch t {
	case models.PURCHASE:
		return "sale proceeds"
	case models.RESALE:
		return "resale proceeds"
	case models.MINT:
		return "mint proceeds"
	case models.TIP:
		return "tip received"
	case models.DEPOSIT:
		return "deposit"
	}
	return string(t)
}

func platformDescription(t models.TransactionType) string {
	if t == models.MINT {
		return "minting fee"
	}
	return fmt.Sprintf("%s platform fee", t)
}
