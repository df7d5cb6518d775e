package repository

import "errors"

// Domain errors surfaced by the execution ledger. None of them is
// retryable; the caller's buy or sell simply failed.
var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientInventory = errors.New("insufficient stock inventory")
)
