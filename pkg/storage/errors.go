package storage

import "errors"

// ErrNotFound is returned when the requested item does not exist.
var ErrNotFound = errors.New("not found")

// ErrInsufficientFunds is returned when a wallet has an insufficient balance for a transaction.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrConditionFailed is returned when a guarded write loses because the
// transaction is no longer in the expected status.
var ErrConditionFailed = errors.New("transaction not in the expected state")

// ErrDuplicatePayment is returned when an external payment id is already
// attached to another transaction.
var ErrDuplicatePayment = errors.New("external payment id already in use")

// ErrAlreadyDistributed is returned when a (creator, period) distribution record already exists.
var ErrAlreadyDistributed = errors.New("distribution already recorded for period")
