package settlement

import "errors"

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAmountMismatch      = errors.New("payment amount does not match transaction")
	ErrNotFound            = errors.New("transaction not found")
	ErrInvalidState        = errors.New("transaction is not in a valid state for this operation")
	// ErrRetryable means nothing changed and the caller may try again.
	ErrRetryable = errors.New("temporary failure, retry later")
)
