// Package api provides primitives to interact with the openapi HTTP API.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Defines values for TransactionType.
const (
	TransactionTypeAdRevenue  TransactionType = "ad_revenue"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeMint       TransactionType = "mint"
	TransactionTypePurchase   TransactionType = "purchase"
	TransactionTypeResale     TransactionType = "resale"
	TransactionTypeTip        TransactionType = "tip"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// Defines values for TransactionStatus.
const (
	TransactionStatusApproved  TransactionStatus = "approved"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusPending   TransactionStatus = "pending"
)

// Defines values for FundingSource.
const (
	FundingSourceGateway  FundingSource = "gateway"
	FundingSourcePlatform FundingSource = "platform"
	FundingSourceWallet   FundingSource = "wallet"
)

// Defines values for PaymentEventType.
const (
	PaymentEventTypeCancelled PaymentEventType = "cancelled"
	PaymentEventTypeCompleted PaymentEventType = "completed"
)

// TransactionType defines model for TransactionType.
type TransactionType string

// TransactionStatus defines model for TransactionStatus.
type TransactionStatus string

// FundingSource defines model for FundingSource.
type FundingSource string

// PaymentEventType defines model for PaymentEventType.
type PaymentEventType string

// NewTransaction defines model for NewTransaction.
type NewTransaction struct {
	// Amount Amount in minor units.
	Amount     int64              `json:"amount"`
	FromUserId *string            `json:"from_user_id,omitempty"`
	Funding    *FundingSource     `json:"funding,omitempty"`
	Metadata   *map[string]string `json:"metadata,omitempty"`
	NftId      *string            `json:"nft_id,omitempty"`

	// RoyaltyBps Resale royalty override in basis points.
	RoyaltyBps *int64          `json:"royalty_bps,omitempty"`
	ToUserId   *string         `json:"to_user_id,omitempty"`
	Type       TransactionType `json:"type"`
}

// Transaction defines model for Transaction.
type Transaction struct {
	Amount            int64              `json:"amount"`
	ApprovedAt        *time.Time         `json:"approved_at,omitempty"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	CreatorId         *string            `json:"creator_id,omitempty"`
	CreatorRoyalty    int64              `json:"creator_royalty"`
	ExternalPaymentId *string            `json:"external_payment_id,omitempty"`
	FailureReason     *string            `json:"failure_reason,omitempty"`
	FromUserId        *string            `json:"from_user_id,omitempty"`
	Funding           FundingSource      `json:"funding"`
	GatewayTxid       *string            `json:"gateway_txid,omitempty"`
	Id                string             `json:"id"`
	Metadata          *map[string]string `json:"metadata,omitempty"`
	NftId             *string            `json:"nft_id,omitempty"`
	PlatformFee       int64              `json:"platform_fee"`
	RecipientEarnings int64              `json:"recipient_earnings"`
	RoyaltyBps        *int64             `json:"royalty_bps,omitempty"`
	Status            TransactionStatus  `json:"status"`
	ToUserId          *string            `json:"to_user_id,omitempty"`
	Type              TransactionType    `json:"type"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Wallet defines model for Wallet.
type Wallet struct {
	AvailableBalance int64      `json:"available_balance"`
	LifetimeEarnings int64      `json:"lifetime_earnings"`
	LifetimeSpent    int64      `json:"lifetime_spent"`
	PendingBalance   int64      `json:"pending_balance"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
	UserId           string     `json:"user_id"`
}

// LedgerEntry defines model for LedgerEntry.
type LedgerEntry struct {
	AccountType   string    `json:"account_type"`
	Amount        int64     `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
	Description   string    `json:"description"`
	EntryId       string    `json:"entry_id"`
	TransactionId string    `json:"transaction_id"`
	UserId        *string   `json:"user_id,omitempty"`
}

// PaymentAction defines model for PaymentAction.
type PaymentAction struct {
	PaymentId string  `json:"payment_id"`
	Reason    *string `json:"reason,omitempty"`
	Txid      *string `json:"txid,omitempty"`
}

// PaymentEvent defines model for PaymentEvent.
type PaymentEvent struct {
	PaymentId string           `json:"payment_id"`
	Reason    *string          `json:"reason,omitempty"`
	Txid      *string          `json:"txid,omitempty"`
	Type      PaymentEventType `json:"type"`
}

// AdRevenueRun defines model for AdRevenueRun.
type AdRevenueRun struct {
	// PeriodEnd Exclusive end of the window. Defaults to the most recently closed window.
	PeriodEnd   *openapi_types.Date `json:"period_end,omitempty"`
	PeriodStart *openapi_types.Date `json:"period_start,omitempty"`
}

// DistributionResult defines model for DistributionResult.
type DistributionResult struct {
	CreatorPool      int64  `json:"creator_pool"`
	CreatorsPaid     int    `json:"creators_paid"`
	Dust             int64  `json:"dust"`
	PeriodKey        string `json:"period_key"`
	Skipped          int    `json:"skipped"`
	TotalDistributed int64  `json:"total_distributed"`
	TotalRevenue     int64  `json:"total_revenue"`
}

// Error defines model for Error.
type Error struct {
	Message string `json:"message"`
}

// ListTransactionsByUserIdParams defines parameters for ListTransactionsByUserId.
type ListTransactionsByUserIdParams struct {
	// Limit Maximum number of transactions to return, newest first.
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`

	// Status Only return transactions in this status.
	Status *TransactionStatus `form:"status,omitempty" json:"status,omitempty"`
}

// CreateTransactionJSONRequestBody defines body for CreateTransaction for application/json ContentType.
type CreateTransactionJSONRequestBody = NewTransaction

// ApprovePaymentJSONRequestBody defines body for ApprovePayment for application/json ContentType.
type ApprovePaymentJSONRequestBody = PaymentAction

// CompletePaymentJSONRequestBody defines body for CompletePayment for application/json ContentType.
type CompletePaymentJSONRequestBody = PaymentAction

// CancelPaymentJSONRequestBody defines body for CancelPayment for application/json ContentType.
type CancelPaymentJSONRequestBody = PaymentAction

// ReceivePaymentWebhookJSONRequestBody defines body for ReceivePaymentWebhook for application/json ContentType.
type ReceivePaymentWebhookJSONRequestBody = PaymentEvent

// RunAdRevenueDistributionJSONRequestBody defines body for RunAdRevenueDistribution for application/json ContentType.
type RunAdRevenueDistributionJSONRequestBody = AdRevenueRun
