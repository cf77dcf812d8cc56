package repository

import "errors"

// Ledger error taxonomy. Usecases branch on these with errors.Is and map
// them to transport errors; they are never surfaced raw.
var (
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrWalletNotOperational   = errors.New("wallet is not operational")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrConcurrencyConflict    = errors.New("wallet version conflict")
	ErrLimitExceeded          = errors.New("monthly spending limit exceeded")
	ErrDuplicateReference     = errors.New("reference already processed")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrEscrowNotFound         = errors.New("escrow not found")
	ErrPayoutNotFound         = errors.New("payout not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)
