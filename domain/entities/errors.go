package entities

import "errors"

// Lottery pool errors
var (
	ErrInsufficientStake = errors.New("stake is below the minimum entry threshold")
	ErrNotAuthorized     = errors.New("caller is not the pool administrator")
	ErrNoParticipants    = errors.New("pool has no participants")
	ErrTransferFailed    = errors.New("payout transfer to winner failed")
	ErrPoolNotFound      = errors.New("lottery pool not found")
)

// Ledger errors
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInvalidAmount     = errors.New("invalid amount")
)
