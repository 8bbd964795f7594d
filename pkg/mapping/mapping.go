package mapping

import (
	"github.com/chris/audio-market-settlement/pkg/adrevenue"
	"github.com/chris/audio-market-settlement/pkg/api"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/settlement"
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ToApiTransaction converts a domain Transaction model to an API Transaction model.
func ToApiTransaction(tx *models.Transaction) *api.Transaction {
	out := &api.Transaction{
		Id:                tx.Id,
		Type:              api.TransactionType(tx.Type),
		Status:            api.TransactionStatus(tx.Status),
		Funding:           api.FundingSource(tx.Funding),
		FromUserId:        optional(tx.FromUserId),
		ToUserId:          optional(tx.ToUserId),
		CreatorId:         optional(tx.CreatorId),
		NftId:             optional(tx.NftId),
		Amount:            tx.Amount,
		PlatformFee:       tx.PlatformFee,
		CreatorRoyalty:    tx.CreatorRoyalty,
		RecipientEarnings: tx.RecipientEarnings,
		ExternalPaymentId: optional(tx.ExternalPaymentId),
		GatewayTxid:       optional(tx.GatewayTxid),
		FailureReason:     optional(tx.FailureReason),
		CreatedAt:         tx.CreatedAt,
		UpdatedAt:         tx.UpdatedAt,
		ApprovedAt:        tx.ApprovedAt,
		CompletedAt:       tx.CompletedAt,
	}
	if tx.RoyaltyBps != 0 {
		bps := tx.RoyaltyBps
		out.RoyaltyBps = &bps
	}
	if len(tx.Metadata) > 0 {
		md := tx.Metadata
		out.Metadata = &md
	}
	return out
}

// ToDomainNewTransaction converts an API NewTransaction model to an engine request.
func ToDomainNewTransaction(newTx *api.NewTransaction) settlement.NewTransaction {
	req := settlement.NewTransaction{
		Type:       models.TransactionType(newTx.Type),
		FromUserId: value(newTx.FromUserId),
		ToUserId:   value(newTx.ToUserId),
		NftId:      value(newTx.NftId),
		Amount:     newTx.Amount,
		RoyaltyBps: newTx.RoyaltyBps,
	}
	if newTx.Funding != nil {
		req.Funding = models.FundingSource(*newTx.Funding)
	}
	if newTx.Metadata != nil {
		req.Metadata = *newTx.Metadata
	}
	return req
}

// ToApiWallet converts a domain Wallet model to an API Wallet model.
func ToApiWallet(wallet *models.Wallet) *api.Wallet {
	out := &api.Wallet{
		UserId:           wallet.UserId,
		AvailableBalance: wallet.AvailableBalance,
		PendingBalance:   wallet.PendingBalance,
		LifetimeEarnings: wallet.LifetimeEarnings,
		LifetimeSpent:    wallet.LifetimeSpent,
	}
	if !wallet.UpdatedAt.IsZero() {
		at := wallet.UpdatedAt
		out.UpdatedAt = &at
	}
	return out
}

// ToApiLedgerEntry converts a domain LedgerEntry model to an API LedgerEntry model.
func ToApiLedgerEntry(entry *models.LedgerEntry) *api.LedgerEntry {
	return &api.LedgerEntry{
		TransactionId: entry.TransactionID,
		EntryId:       entry.EntryID,
		UserId:        optional(entry.UserId),
		AccountType:   string(entry.AccountType),
		Amount:        entry.Amount,
		Description:   entry.Description,
		CreatedAt:     entry.CreatedAt,
	}
}

// ToApiDistributionResult converts a distribution run summary.
func ToApiDistributionResult(res *adrevenue.Result) *api.DistributionResult {
	return &api.DistributionResult{
		PeriodKey:        res.PeriodKey,
		TotalRevenue:     res.TotalRevenue,
		CreatorPool:      res.CreatorPool,
		CreatorsPaid:     res.CreatorsPaid,
		TotalDistributed: res.TotalDistributed,
		Skipped:          res.Skipped,
		Dust:             res.Dust,
	}
}
