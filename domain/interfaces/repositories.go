package interfaces

import (
	"context"

	"lotterypool/domain/entities"
	"lotterypool/domain/events"
)

// LotteryPoolRepository defines the interface for pool data access
type LotteryPoolRepository interface {
	// Create inserts a new empty pool
	Create(ctx context.Context, pool *entities.LotteryPool) error

	// GetByID retrieves a pool by its ID, nil if missing
	GetByID(ctx context.Context, id int64) (*entities.LotteryPool, error)

	// GetByIDForUpdate retrieves a pool and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.LotteryPool, error)

	// Update writes pooled funds, player count and draw count
	Update(ctx context.Context, pool *entities.LotteryPool) error
}

// LotteryEntryRepository defines the interface for the participant registry
type LotteryEntryRepository interface {
	// Append adds an entry at the end of the pool's participant list
	Append(ctx context.Context, entry *entities.LotteryEntry) error

	// ListByPool returns entries in insertion order
	ListByPool(ctx context.Context, poolID int64) ([]*entities.LotteryEntry, error)

	// DeleteByPool clears all entries of a pool, returning how many were removed
	DeleteByPool(ctx context.Context, poolID int64) (int64, error)
}

// AccountRepository defines the interface for ledger accounts
type AccountRepository interface {
	// GetByAddress retrieves an account, nil if missing
	GetByAddress(ctx context.Context, address entities.Address) (*entities.Account, error)

	// GetByAddressForUpdate retrieves an account and locks its row
	GetByAddressForUpdate(ctx context.Context, address entities.Address) (*entities.Account, error)

	// Create opens an account with an initial balance
	Create(ctx context.Context, address entities.Address, initialBalance entities.Amount) (*entities.Account, error)

	// UpdateBalance sets an account balance
	UpdateBalance(ctx context.Context, address entities.Address, newBalance entities.Amount) error

	// SetAcceptsPayments toggles whether payouts to the account succeed
	SetAcceptsPayments(ctx context.Context, address entities.Address, accepts bool) error
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByAddress returns the most recent entries for an address
	GetByAddress(ctx context.Context, address entities.Address, limit int) ([]*entities.BalanceHistory, error)
}

// LedgerRepository exposes ledger metadata used as draw entropy
type LedgerRepository interface {
	// CurrentHeight returns a monotonically increasing ledger position
	CurrentHeight(ctx context.Context) (int64, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction ends
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes buffered events; call after commit
	Flush(ctx context.Context) error

	// Discard drops buffered events; call after rollback
	Discard()
}
