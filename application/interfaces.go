package application

import (
	"context"

	"lotterypool/domain/entities"
	"lotterypool/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	LotteryPoolRepository() interfaces.LotteryPoolRepository
	LotteryEntryRepository() interfaces.LotteryEntryRepository
	AccountRepository() interfaces.AccountRepository
	BalanceHistoryRepository() interfaces.BalanceHistoryRepository
	LedgerRepository() interfaces.LedgerRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// WinnerAnnouncer publishes draw results outside the transaction
type WinnerAnnouncer interface {
	AnnounceWinner(ctx context.Context, result *entities.DrawResult) error
}

// OperationRecorder receives the outcome of every pool operation
type OperationRecorder interface {
	RecordEntry(pool *entities.LotteryPool, stake entities.Amount)
	RecordDraw(pool *entities.LotteryPool, result *entities.DrawResult)
	RecordPoolState(pool *entities.LotteryPool)
	RecordRejection(operation string, err error)
	ObserveOperation(operation string) func()
}
