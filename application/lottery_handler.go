package application

import (
	"context"
	"fmt"

	"lotterypool/domain/entities"
	"lotterypool/domain/entropy"
	"lotterypool/domain/interfaces"
	"lotterypool/domain/services"

	log "github.com/sirupsen/logrus"
)

// Operation names used for metrics and logs
const (
	OpCreatePool         = "create_pool"
	OpEnter              = "enter"
	OpGetPlayers         = "get_players"
	OpGetPool            = "get_pool"
	OpPickWinner         = "pick_winner"
	OpOpenAccount        = "open_account"
	OpGetAccount         = "get_account"
	OpSetAcceptsPayments = "set_accepts_payments"
)

// LotteryHandler runs every pool and account operation in its own unit of work
type LotteryHandler struct {
	uowFactory      UnitOfWorkFactory
	entropySource   entropy.Source
	startingBalance entities.Amount
	recorder        OperationRecorder
	announcer       WinnerAnnouncer
}

// NewLotteryHandler creates a new lottery handler. recorder and announcer may be nil.
func NewLotteryHandler(
	uowFactory UnitOfWorkFactory,
	entropySource entropy.Source,
	startingBalance entities.Amount,
	recorder OperationRecorder,
	announcer WinnerAnnouncer,
) *LotteryHandler {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &LotteryHandler{
		uowFactory:      uowFactory,
		entropySource:   entropySource,
		startingBalance: startingBalance,
		recorder:        recorder,
		announcer:       announcer,
	}
}

func (h *LotteryHandler) lotteryService(uow UnitOfWork) interfaces.LotteryService {
	return services.NewLotteryService(
		uow.LotteryPoolRepository(),
		uow.LotteryEntryRepository(),
		uow.AccountRepository(),
		uow.BalanceHistoryRepository(),
		uow.LedgerRepository(),
		uow.EventBus(),
		h.entropySource,
	)
}

func (h *LotteryHandler) accountService(uow UnitOfWork) interfaces.AccountService {
	return services.NewAccountService(
		uow.AccountRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
		h.startingBalance,
	)
}

// inUnitOfWork commits when fn succeeds and rolls back otherwise
func (h *LotteryHandler) inUnitOfWork(ctx context.Context, operation string, fn func(uow UnitOfWork) error) error {
	defer h.recorder.ObserveOperation(operation)()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		h.recorder.RecordRejection(operation, err)
		return err
	}

	if err := uow.Commit(); err != nil {
		h.recorder.RecordRejection(operation, err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreatePool deploys a new pool administered by administrator
func (h *LotteryHandler) CreatePool(ctx context.Context, administrator entities.Address) (*entities.LotteryPool, error) {
	var pool *entities.LotteryPool
	err := h.inUnitOfWork(ctx, OpCreatePool, func(uow UnitOfWork) error {
		var err error
		pool, err = h.lotteryService(uow).CreatePool(ctx, administrator)
		return err
	})
	if err != nil {
		return nil, err
	}
	h.recorder.RecordPoolState(pool)
	return pool, nil
}

// GetPool returns a pool by ID
func (h *LotteryHandler) GetPool(ctx context.Context, poolID int64) (*entities.LotteryPool, error) {
	var pool *entities.LotteryPool
	err := h.inUnitOfWork(ctx, OpGetPool, func(uow UnitOfWork) error {
		var err error
		pool, err = h.lotteryService(uow).GetPool(ctx, poolID)
		return err
	})
	return pool, err
}

// Enter stakes funds from caller into the pool
func (h *LotteryHandler) Enter(ctx context.Context, poolID int64, caller entities.Address, stake entities.Amount) (*entities.LotteryEntry, error) {
	var (
		entry *entities.LotteryEntry
		pool  *entities.LotteryPool
	)
	err := h.inUnitOfWork(ctx, OpEnter, func(uow UnitOfWork) error {
		var err error
		entry, err = h.lotteryService(uow).Enter(ctx, poolID, caller, stake)
		if err != nil {
			return err
		}
		pool, err = uow.LotteryPoolRepository().GetByID(ctx, poolID)
		if err != nil {
			return fmt.Errorf("failed to reload pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pool != nil {
		h.recorder.RecordEntry(pool, stake)
	}
	return entry, nil
}

// GetPlayers returns the participants of a pool in entry order
func (h *LotteryHandler) GetPlayers(ctx context.Context, poolID int64) ([]entities.Address, error) {
	var players []entities.Address
	err := h.inUnitOfWork(ctx, OpGetPlayers, func(uow UnitOfWork) error {
		var err error
		players, err = h.lotteryService(uow).GetPlayers(ctx, poolID)
		return err
	})
	return players, err
}

// PickWinner draws and pays a winner, then announces the result once committed
func (h *LotteryHandler) PickWinner(ctx context.Context, poolID int64, caller entities.Address) (*entities.DrawResult, error) {
	var (
		result *entities.DrawResult
		pool   *entities.LotteryPool
	)
	err := h.inUnitOfWork(ctx, OpPickWinner, func(uow UnitOfWork) error {
		var err error
		result, err = h.lotteryService(uow).PickWinner(ctx, poolID, caller)
		if err != nil {
			return err
		}
		pool, err = uow.LotteryPoolRepository().GetByID(ctx, poolID)
		if err != nil {
			return fmt.Errorf("failed to reload pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pool != nil {
		h.recorder.RecordDraw(pool, result)
	}

	if h.announcer != nil {
		// The payout is final; a failed announcement is only logged
		if err := h.announcer.AnnounceWinner(ctx, result); err != nil {
			log.WithError(err).WithField("pool_id", poolID).Error("Failed to announce lottery winner")
		}
	}
	return result, nil
}

// OpenAccount creates a funded ledger account
func (h *LotteryHandler) OpenAccount(ctx context.Context, address entities.Address) (*entities.Account, error) {
	var account *entities.Account
	err := h.inUnitOfWork(ctx, OpOpenAccount, func(uow UnitOfWork) error {
		var err error
		account, err = h.accountService(uow).OpenAccount(ctx, address)
		return err
	})
	return account, err
}

// GetAccount returns a ledger account
func (h *LotteryHandler) GetAccount(ctx context.Context, address entities.Address) (*entities.Account, error) {
	var account *entities.Account
	err := h.inUnitOfWork(ctx, OpGetAccount, func(uow UnitOfWork) error {
		var err error
		account, err = h.accountService(uow).GetAccount(ctx, address)
		return err
	})
	return account, err
}

// SetAcceptsPayments toggles whether the account can receive payouts
func (h *LotteryHandler) SetAcceptsPayments(ctx context.Context, address entities.Address, accepts bool) (*entities.Account, error) {
	var account *entities.Account
	err := h.inUnitOfWork(ctx, OpSetAcceptsPayments, func(uow UnitOfWork) error {
		var err error
		account, err = h.accountService(uow).SetAcceptsPayments(ctx, address, accepts)
		return err
	})
	return account, err
}

type noopRecorder struct{}

func (noopRecorder) RecordEntry(*entities.LotteryPool, entities.Amount)     {}
func (noopRecorder) RecordDraw(*entities.LotteryPool, *entities.DrawResult) {}
func (noopRecorder) RecordPoolState(*entities.LotteryPool)                  {}
func (noopRecorder) RecordRejection(string, error)                          {}
func (noopRecorder) ObserveOperation(string) func()                         { return func() {} }
