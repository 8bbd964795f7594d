// Package gateway talks to the external payment gateway that collects money
// from buyers and pays out withdrawals.
package gateway

import (
	"context"
	"errors"
)

// ErrTransient is returned when the gateway could not be reached or failed
// on its side. The call can be retried.
var ErrTransient = errors.New("payment gateway temporarily unavailable")

// ErrPaymentNotFound is returned when the gateway has no payment with the given identifier.
var ErrPaymentNotFound = errors.New("payment not found at gateway")

// MetadataTransactionID is the payment metadata key that carries our transaction id.
const MetadataTransactionID = "transaction_id"

// PaymentStatus mirrors the gateway's status flags.
type PaymentStatus struct {
	DeveloperApproved   bool `json:"developer_approved"`
	TransactionVerified bool `json:"transaction_verified"`
	DeveloperCompleted  bool `json:"developer_completed"`
	Cancelled           bool `json:"cancelled"`
	UserCancelled       bool `json:"user_cancelled"`
}

// PaymentTransaction is the gateway's settlement reference once the payer has paid.
type PaymentTransaction struct {
	TxID     string `json:"txid"`
	Verified bool   `json:"verified"`
}

// Payment is the gateway's view of a payment.
type Payment struct {
	Identifier  string              `json:"identifier"`
	UserUID     string              `json:"user_uid"`
	Amount      int64               `json:"amount"`
	Memo        string              `json:"memo"`
	Metadata    map[string]string   `json:"metadata"`
	ToAddress   string              `json:"to_address,omitempty"`
	Status      PaymentStatus       `json:"status"`
	Transaction *PaymentTransaction `json:"transaction,omitempty"`
}

// TransactionID returns the transaction id we attached when the payment was started.
func (p *Payment) TransactionID() string {
	return p.Metadata[MetadataTransactionID]
}

// IsCancelled reports whether either side cancelled the payment.
func (p *Payment) IsCancelled() bool {
	return p.Status.Cancelled || p.Status.UserCancelled
}

// TxID returns the settlement reference or "" if the payer has not paid yet.
func (p *Payment) TxID() string {
	if p.Transaction == nil {
		return ""
	}
	return p.Transaction.TxID
}

// PayoutRequest asks the gateway to send money from the platform to a user.
type PayoutRequest struct {
	UserUID  string            `json:"uid"`
	Amount   int64             `json:"amount"`
	Memo     string            `json:"memo"`
	Metadata map[string]string `json:"metadata"`
}

// Gateway is the subset of the payment gateway API that settlement depends on.
type Gateway interface {
	// Verify fetches the gateway's record of a payment.
	Verify(ctx context.Context, paymentID string) (*Payment, error)
	// Approve tells the gateway the server accepts the payment. Approving an
	// already approved payment succeeds.
	Approve(ctx context.Context, paymentID string) error
	// Complete acknowledges the payer's settlement reference. Completing an
	// already completed payment succeeds.
	Complete(ctx context.Context, paymentID, txid string) error
	// CreatePayout starts an app-to-user payment and returns it.
	CreatePayout(ctx context.Context, req PayoutRequest) (*Payment, error)
	// IncompletePayouts lists app-to-user payments the server has not
	// completed or cancelled yet.
	IncompletePayouts(ctx context.Context) ([]Payment, error)
}
