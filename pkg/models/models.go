package models

import (
	"time"
)

// TransactionType identifies which fee rule and side effects apply to a transaction.
type TransactionType string

const (
	PURCHASE   TransactionType = "purchase"
	RESALE     TransactionType = "resale"
	TIP        TransactionType = "tip"
	DEPOSIT    TransactionType = "deposit"
	WITHDRAWAL TransactionType = "withdrawal"
	MINT       TransactionType = "mint"
	AD_REVENUE TransactionType = "ad_revenue"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case PURCHASE, RESALE, TIP, DEPOSIT, WITHDRAWAL, MINT, AD_REVENUE:
		return true
	}
	return false
}

// RequiresNFT reports whether the type references an NFT.
func (t TransactionType) RequiresNFT() bool {
	return t == PURCHASE || t == RESALE || t == MINT
}

// TransactionStatus defines the possible states of a transaction.
type TransactionStatus string

const (
	PENDING   TransactionStatus = "pending"
	APPROVED  TransactionStatus = "approved"
	COMPLETED TransactionStatus = "completed"
	FAILED    TransactionStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s TransactionStatus) IsTerminal() bool {
	return s == COMPLETED || s == FAILED
}

// FundingSource says where the buyer's money comes from.
type FundingSource string

const (
	// FundingGateway means the payer paid off-platform through the payment gateway.
	FundingGateway FundingSource = "gateway"
	// FundingWallet means the payer spends from their available balance.
	FundingWallet FundingSource = "wallet"
	// FundingPlatform means the platform pays from its own revenue (ad revenue shares).
	FundingPlatform FundingSource = "platform"
)

// PlatformAccount is the pseudo-account that stands for the marketplace itself.
// It never has a wallet row.
const PlatformAccount = "platform"

// Transaction represents the internal domain model for a transaction.
// It includes dynamodbav tags for marshalling.
type Transaction struct {
	Id                string            `json:"id" dynamodbav:"id"`
	Type              TransactionType   `json:"type" dynamodbav:"type"`
	FromUserId        string            `json:"from_user_id,omitempty" dynamodbav:"from_user_id,omitempty"`
	ToUserId          string            `json:"to_user_id,omitempty" dynamodbav:"to_user_id,omitempty"`
	CreatorId         string            `json:"creator_id,omitempty" dynamodbav:"creator_id,omitempty"`
	NftId             string            `json:"nft_id,omitempty" dynamodbav:"nft_id,omitempty"`
	Amount            int64             `json:"amount" dynamodbav:"amount"`
	RoyaltyBps        int64             `json:"royalty_bps,omitempty" dynamodbav:"royalty_bps,omitempty"`
	PlatformFee       int64             `json:"platform_fee" dynamodbav:"platform_fee"`
	CreatorRoyalty    int64             `json:"creator_royalty" dynamodbav:"creator_royalty"`
	RecipientEarnings int64             `json:"recipient_earnings" dynamodbav:"recipient_earnings"`
	Funding           FundingSource     `json:"funding" dynamodbav:"funding"`
	ExternalPaymentId string            `json:"external_payment_id,omitempty" dynamodbav:"external_payment_id,omitempty"`
	GatewayTxid       string            `json:"gateway_txid,omitempty" dynamodbav:"gateway_txid,omitempty"`
	Status            TransactionStatus `json:"status" dynamodbav:"status"`
	FailureReason     string            `json:"failure_reason,omitempty" dynamodbav:"failure_reason,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" dynamodbav:"updated_at"`
	ApprovedAt        *time.Time        `json:"approved_at,omitempty" dynamodbav:"approved_at,omitempty"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty" dynamodbav:"completed_at,omitempty"`
}

// Reserves reports whether creating the transaction moves funds from available to pending.
func (t *Transaction) Reserves() bool {
	return t.Type == WITHDRAWAL || t.Funding == FundingWallet
}

// Wallet represents the internal domain model for a user's wallet.
type Wallet struct {
	UserId           string    `json:"user_id" dynamodbav:"user_id"`
	AvailableBalance int64     `json:"available_balance" dynamodbav:"available_balance"`
	PendingBalance   int64     `json:"pending_balance" dynamodbav:"pending_balance"`
	LifetimeEarnings int64     `json:"lifetime_earnings" dynamodbav:"lifetime_earnings"`
	LifetimeSpent    int64     `json:"lifetime_spent" dynamodbav:"lifetime_spent"`
	Version          int64     `json:"version" dynamodbav:"version"`
	CreatedAt        time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// AccountType disambiguates what a ledger entry's user refers to.
type AccountType string

const (
	ACCOUNT_WALLET           AccountType = "wallet"
	ACCOUNT_PLATFORM_REVENUE AccountType = "platform_revenue"
	// ACCOUNT_EXTERNAL is the gateway clearing account: value entering or leaving the platform.
	ACCOUNT_EXTERNAL AccountType = "external"
)

// LedgerEntry is one signed, immutable value movement. The entries of a
// completed transaction always sum to zero.
type LedgerEntry struct {
	TransactionID string      `json:"transaction_id" dynamodbav:"transaction_id"`
	EntryID       string      `json:"entry_id" dynamodbav:"entry_id"`
	UserId        string      `json:"user_id,omitempty" dynamodbav:"user_id,omitempty"`
	AccountType   AccountType `json:"account_type" dynamodbav:"account_type"`
	Amount        int64       `json:"amount" dynamodbav:"amount"`
	Description   string      `json:"description" dynamodbav:"description"`
	CreatedAt     time.Time   `json:"created_at" dynamodbav:"created_at"`
}

// NFT is the subset of a listed audio NFT that settlement reads and mutates.
type NFT struct {
	Id         string    `json:"id" dynamodbav:"id"`
	CreatorId  string    `json:"creator_id" dynamodbav:"creator_id"`
	OwnerId    string    `json:"owner_id" dynamodbav:"owner_id"`
	RoyaltyBps int64     `json:"royalty_bps" dynamodbav:"royalty_bps"`
	SoldCount  int64     `json:"sold_count" dynamodbav:"sold_count"`
	UpdatedAt  time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Distribution records that a creator was paid ad revenue for a period.
type Distribution struct {
	CreatorId     string    `json:"creator_id" dynamodbav:"creator_id"`
	PeriodKey     string    `json:"period_key" dynamodbav:"period_key"`
	TransactionId string    `json:"transaction_id" dynamodbav:"transaction_id"`
	Amount        int64     `json:"amount" dynamodbav:"amount"`
	Streams       int64     `json:"streams" dynamodbav:"streams"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"created_at"`
}

// StreamStat holds ad-eligible streams and ad revenue attributed to a creator.
type StreamStat struct {
	CreatorId string `json:"creator_id" dynamodbav:"creator_id"`
	Day       string `json:"day" dynamodbav:"day"`
	AdStreams int64  `json:"ad_streams" dynamodbav:"ad_streams"`
	AdRevenue int64  `json:"ad_revenue" dynamodbav:"ad_revenue"`
}

// WalletDelta is the net change applied to one wallet by a settlement.
type WalletDelta struct {
	UserId    string `json:"user_id"`
	Available int64  `json:"available"`
	Pending   int64  `json:"pending"`
	Earnings  int64  `json:"earnings"`
	Spent     int64  `json:"spent"`
}

// IsZero reports whether the delta changes nothing.
func (d WalletDelta) IsZero() bool {
	return d.Available == 0 && d.Pending == 0 && d.Earnings == 0 && d.Spent == 0
}

// NFTTransfer moves an NFT to a new owner and bumps its sold count.
type NFTTransfer struct {
	NftId      string `json:"nft_id"`
	NewOwnerId string `json:"new_owner_id"`
}

// SettlementPlan is everything one atomic unit must write. Backends apply it
// all-or-nothing; the transaction write is guarded by ExpectedStatus unless
// Insert is set, in which case the row must not exist yet.
type SettlementPlan struct {
	Transaction    *Transaction      `json:"transaction"`
	ExpectedStatus TransactionStatus `json:"expected_status,omitempty"`
	Insert         bool              `json:"insert,omitempty"`
	WalletDeltas   []WalletDelta     `json:"wallet_deltas,omitempty"`
	LedgerEntries  []LedgerEntry     `json:"ledger_entries,omitempty"`
	NFTTransfer    *NFTTransfer      `json:"nft_transfer,omitempty"`
	Distribution   *Distribution     `json:"distribution,omitempty"`
}
