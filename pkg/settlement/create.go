package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/audio-market-settlement/pkg/cache"
	"github.com/chris/audio-market-settlement/pkg/fees"
	"github.com/chris/audio-market-settlement/pkg/gateway"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

// NewTransaction is a request to start a transaction.
type NewTransaction struct {
	Type       models.TransactionType
	FromUserId string
	ToUserId   string
	NftId      string
	Amount     int64
	// RoyaltyBps overrides the NFT's royalty on a resale.
	RoyaltyBps *int64
	Funding    models.FundingSource
	Metadata   map[string]string
}

// CreateTransaction validates req, computes its fee breakdown and persists it
// as pending. Transactions that spend from a wallet reserve the amount in the
// same write. Wallet-funded spends settle straight away; withdrawals request
// a payout from the gateway and come back approved.
func (e *Engine) CreateTransaction(ctx context.Context, req NewTransaction) (*models.Transaction, error) {
	tx, err := e.buildTransaction(ctx, req)
	if err != nil {
		return nil, err
	}

	err = e.store.CreateTransaction(ctx, tx, reservation(tx))
	switch {
	case errors.Is(err, storage.ErrInsufficientFunds):
		return nil, ErrInsufficientBalance
	case err != nil:
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	e.metrics.Created.WithLabelValues(string(tx.Type)).Inc()
	e.logger.InfoContext(ctx, "transaction created", "transaction_id", tx.Id, "type", tx.Type, "amount", tx.Amount, "funding", tx.Funding)
	if tx.Reserves() {
		if err := e.cache.Invalidate(ctx, cache.WalletKey(tx.FromUserId)); err != nil {
			e.logger.WarnContext(ctx, "failed to invalidate wallet cache", "transaction_id", tx.Id, "error", err)
		}
	}

	switch {
	case tx.Type == models.WITHDRAWAL:
		return e.requestPayout(ctx, tx)
	case tx.Funding == models.FundingWallet:
		return e.settleFromWallet(ctx, tx)
	}
	return tx, nil
}

func (e *Engine) buildTransaction(ctx context.Context, req NewTransaction) (*models.Transaction, error) {
	if !req.Type.Valid() || req.Type == models.AD_REVENUE {
		return nil, fmt.Errorf("%w: unsupported transaction type %q", ErrInvalidRequest, req.Type)
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	now := e.now()
	tx := &models.Transaction{
		Id:         e.newID(),
		Type:       req.Type,
		FromUserId: req.FromUserId,
		ToUserId:   req.ToUserId,
		NftId:      req.NftId,
		Amount:     req.Amount,
		Funding:    req.Funding,
		Status:     models.PENDING,
		Metadata:   req.Metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if tx.Funding == "" {
		tx.Funding = models.FundingGateway
	}

	switch req.Type {
	case models.PURCHASE, models.RESALE, models.MINT:
		if err := e.resolveNFT(ctx, tx, req.RoyaltyBps); err != nil {
			return nil, err
		}
	case models.TIP:
		if tx.FromUserId == "" || tx.ToUserId == "" {
			return nil, fmt.Errorf("%w: tip needs a sender and a recipient", ErrInvalidRequest)
		}
	case models.DEPOSIT:
		if tx.ToUserId == "" || tx.FromUserId != "" {
			return nil, fmt.Errorf("%w: deposit needs a recipient and no sender", ErrInvalidRequest)
		}
		if tx.Funding != models.FundingGateway {
			return nil, fmt.Errorf("%w: deposits are paid through the gateway", ErrInvalidRequest)
		}
	case models.WITHDRAWAL:
		if tx.FromUserId == "" || tx.ToUserId != "" {
			return nil, fmt.Errorf("%w: withdrawal needs a sender and no recipient", ErrInvalidRequest)
		}
		tx.Funding = models.FundingWallet
	}

	if tx.FromUserId != "" && tx.FromUserId == tx.ToUserId {
		return nil, fmt.Errorf("%w: sender and recipient are the same user", ErrInvalidRequest)
	}
	if tx.Funding != models.FundingGateway && tx.Funding != models.FundingWallet {
		return nil, fmt.Errorf("%w: unknown funding source %q", ErrInvalidRequest, tx.Funding)
	}
	if tx.Funding == models.FundingWallet && tx.FromUserId == "" {
		return nil, fmt.Errorf("%w: wallet funding needs a sender", ErrInvalidRequest)
	}

	b, err := fees.Compute(tx.Type, tx.Amount, fees.PercentFromBps(tx.RoyaltyBps))
	switch {
	case errors.Is(err, fees.ErrInvalidAmount):
		return nil, ErrInvalidAmount
	case errors.Is(err, fees.ErrRoyaltyOutOfRange):
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	case err != nil:
		return nil, fmt.Errorf("failed to compute fees: %w", err)
	}
	tx.PlatformFee = b.PlatformFee
	tx.CreatorRoyalty = b.CreatorRoyalty
	tx.RecipientEarnings = b.RecipientEarnings
	if tx.Type == models.RESALE {
		tx.RoyaltyBps = fees.BpsFromPercent(b.RoyaltyPercent)
	}
	return tx, nil
}

// resolveNFT fills in the creator, the seller and the royalty from the NFT.
// A purchase is the first sale from the creator; every later sale is a resale.
func (e *Engine) resolveNFT(ctx context.Context, tx *models.Transaction, royaltyBps *int64) error {
	if tx.NftId == "" || tx.FromUserId == "" {
		return fmt.Errorf("%w: %s needs an nft and a buyer", ErrInvalidRequest, tx.Type)
	}
	nft, err := e.store.GetNFT(ctx, tx.NftId)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: nft %s does not exist", ErrInvalidRequest, tx.NftId)
	}
	if err != nil {
		return fmt.Errorf("failed to get nft: %w", err)
	}

	switch {
	case tx.Type == models.PURCHASE && nft.OwnerId != nft.CreatorId:
		return fmt.Errorf("%w: nft %s has been sold on, buy it as a resale", ErrInvalidRequest, tx.NftId)
	case tx.Type == models.RESALE && nft.OwnerId == nft.CreatorId:
		return fmt.Errorf("%w: nft %s is still held by its creator, buy it as a purchase", ErrInvalidRequest, tx.NftId)
	}

	tx.CreatorId = nft.CreatorId
	seller := nft.OwnerId
	if tx.Type == models.MINT {
		seller = nft.CreatorId
	}
	if tx.ToUserId == "" {
		tx.ToUserId = seller
	}
	if tx.ToUserId != seller {
		return fmt.Errorf("%w: %s is not the seller of nft %s", ErrInvalidRequest, tx.ToUserId, tx.NftId)
	}

	if tx.Type == models.RESALE {
		tx.RoyaltyBps = nft.RoyaltyBps
		if royaltyBps != nil {
			tx.RoyaltyBps = *royaltyBps
		}
	}
	return nil
}

// settleFromWallet completes a wallet-funded spend right after its reservation.
func (e *Engine) settleFromWallet(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	plan, err := CompletionPlan(tx, models.PENDING, "", e.now())
	if err != nil {
		return nil, err
	}
	applied, err := e.apply(ctx, plan)
	if err != nil {
		return nil, err
	}
	if !applied {
		return e.getTransaction(ctx, tx.Id)
	}
	e.recordCompletion(ctx, plan)
	return plan.Transaction, nil
}

// requestPayout asks the gateway to pay a withdrawal out and approves it
// under the payout's payment id. A refused payout fails the withdrawal and
// returns the money to the available balance. When the gateway's answer is
// unknown the withdrawal stays pending with its reservation; the payout is
// attached later by its callback or by Reconcile.
func (e *Engine) requestPayout(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	metadata := map[string]string{gateway.MetadataTransactionID: tx.Id}
	for k, v := range tx.Metadata {
		if k != gateway.MetadataTransactionID {
			metadata[k] = v
		}
	}

	payout, err := e.gateway.CreatePayout(ctx, gateway.PayoutRequest{
		UserUID:  tx.FromUserId,
		Amount:   tx.Amount,
		Memo:     "Wallet withdrawal",
		Metadata: metadata,
	})
	if errors.Is(err, gateway.ErrTransient) {
		e.logger.WarnContext(ctx, "payout request unconfirmed, withdrawal left pending", "transaction_id", tx.Id, "error", err)
		return nil, gatewayError("create payout for", err)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "payout request refused", "transaction_id", tx.Id, "error", err)
		if _, ferr := e.fail(ctx, tx, ReasonPayoutFailed); ferr != nil {
			return nil, fmt.Errorf("failed to release withdrawal after payout error %v: %w", err, ferr)
		}
		return nil, gatewayError("create payout for", err)
	}

	if err := e.store.ApproveTransaction(ctx, tx.Id, payout.Identifier, e.now()); err != nil {
		e.logger.ErrorContext(ctx, "payout created but withdrawal not approved", "transaction_id", tx.Id, "payment_id", payout.Identifier, "error", err)
		return nil, fmt.Errorf("failed to approve withdrawal: %w", err)
	}
	e.metrics.Approved.WithLabelValues(string(tx.Type)).Inc()
	return e.getTransaction(ctx, tx.Id)
}
