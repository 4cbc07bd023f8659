package interfaces

import (
	"context"

	"lotterypool/domain/entities"
)

// LotteryService defines the pool state machine
type LotteryService interface {
	// CreatePool deploys a new empty pool administered by the caller
	CreatePool(ctx context.Context, administrator entities.Address) (*entities.LotteryPool, error)

	// GetPool returns the custody view of a pool
	GetPool(ctx context.Context, poolID int64) (*entities.LotteryPool, error)

	// Enter stakes funds from the caller into the pool.
	// Fails with ErrInsufficientStake below the threshold, leaving state unchanged.
	Enter(ctx context.Context, poolID int64, caller entities.Address, stake entities.Amount) (*entities.LotteryEntry, error)

	// GetPlayers returns participants in insertion order
	GetPlayers(ctx context.Context, poolID int64) ([]entities.Address, error)

	// PickWinner pays the whole pool to one participant and resets it.
	// Only the administrator may call it.
	PickWinner(ctx context.Context, poolID int64, caller entities.Address) (*entities.DrawResult, error)
}

// AccountService defines ledger account operations
type AccountService interface {
	// OpenAccount creates a funded account, or returns the existing one
	OpenAccount(ctx context.Context, address entities.Address) (*entities.Account, error)

	// GetAccount returns an account or ErrAccountNotFound
	GetAccount(ctx context.Context, address entities.Address) (*entities.Account, error)

	// SetAcceptsPayments controls whether payouts to the account succeed
	SetAcceptsPayments(ctx context.Context, address entities.Address, accepts bool) (*entities.Account, error)
}
