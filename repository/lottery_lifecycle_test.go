package repository

import (
	"context"
	"sync"
	"testing"

	"lotterypool/application"
	"lotterypool/domain/entities"
	"lotterypool/domain/entropy"
	"lotterypool/domain/events"
	"lotterypool/domain/interfaces"
	"lotterypool/domain/services"
	"lotterypool/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startingBalance = 100 * entities.OneCoin

type lifecycleHarness struct {
	t         *testing.T
	factory   *UnitOfWorkFactory
	publisher *recordingPublisher
	source    entropy.Source
}

func newLifecycleHarness(t *testing.T) *lifecycleHarness {
	testDB := testutil.SetupTestDatabase(t)
	return &lifecycleHarness{
		t:         t,
		factory:   NewUnitOfWorkFactory(testDB.DB),
		publisher: &recordingPublisher{},
		source:    entropy.NewBlockMetadataSource(),
	}
}

// run executes fn inside its own unit of work, committing on success
func (h *lifecycleHarness) run(fn func(lottery interfaces.LotteryService, accounts interfaces.AccountService) error) error {
	ctx := context.Background()
	uow := h.factory.CreateWithPublisher(h.publisher)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(h.services(uow)); err != nil {
		return err
	}
	return uow.Commit()
}

func (h *lifecycleHarness) services(uow application.UnitOfWork) (interfaces.LotteryService, interfaces.AccountService) {
	lottery := services.NewLotteryService(
		uow.LotteryPoolRepository(),
		uow.LotteryEntryRepository(),
		uow.AccountRepository(),
		uow.BalanceHistoryRepository(),
		uow.LedgerRepository(),
		uow.EventBus(),
		h.source,
	)
	accounts := services.NewAccountService(
		uow.AccountRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
		startingBalance,
	)
	return lottery, accounts
}

func (h *lifecycleHarness) deploy(admin entities.Address) *entities.LotteryPool {
	var pool *entities.LotteryPool
	require.NoError(h.t, h.run(func(l interfaces.LotteryService, a interfaces.AccountService) error {
		if _, err := a.OpenAccount(context.Background(), admin); err != nil {
			return err
		}
		var err error
		pool, err = l.CreatePool(context.Background(), admin)
		return err
	}))
	return pool
}

func (h *lifecycleHarness) open(addrs ...entities.Address) {
	require.NoError(h.t, h.run(func(_ interfaces.LotteryService, a interfaces.AccountService) error {
		for _, addr := range addrs {
			if _, err := a.OpenAccount(context.Background(), addr); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (h *lifecycleHarness) enter(poolID int64, caller entities.Address, stake entities.Amount) error {
	return h.run(func(l interfaces.LotteryService, _ interfaces.AccountService) error {
		_, err := l.Enter(context.Background(), poolID, caller, stake)
		return err
	})
}

func (h *lifecycleHarness) players(poolID int64) []entities.Address {
	var players []entities.Address
	require.NoError(h.t, h.run(func(l interfaces.LotteryService, _ interfaces.AccountService) error {
		var err error
		players, err = l.GetPlayers(context.Background(), poolID)
		return err
	}))
	return players
}

func (h *lifecycleHarness) pool(poolID int64) *entities.LotteryPool {
	var pool *entities.LotteryPool
	require.NoError(h.t, h.run(func(l interfaces.LotteryService, _ interfaces.AccountService) error {
		var err error
		pool, err = l.GetPool(context.Background(), poolID)
		return err
	}))
	return pool
}

func (h *lifecycleHarness) balance(addr entities.Address) entities.Amount {
	var account *entities.Account
	require.NoError(h.t, h.run(func(_ interfaces.LotteryService, a interfaces.AccountService) error {
		var err error
		account, err = a.GetAccount(context.Background(), addr)
		return err
	}))
	return account.Balance
}

func (h *lifecycleHarness) pickWinner(poolID int64, caller entities.Address) (*entities.DrawResult, error) {
	var result *entities.DrawResult
	err := h.run(func(l interfaces.LotteryService, _ interfaces.AccountService) error {
		var err error
		result, err = l.PickWinner(context.Background(), poolID, caller)
		return err
	})
	return result, err
}

var (
	lcAdmin = testutil.TestAddress(0xad)
	lcA     = testutil.TestAddress(0xa)
	lcB     = testutil.TestAddress(0xb)
	lcC     = testutil.TestAddress(0xc)
)

func TestLotteryLifecycle(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)

	pool := h.deploy(lcAdmin)
	h.open(lcA, lcB, lcC)

	t.Run("single entry is registered", func(t *testing.T) {
		require.NoError(t, h.enter(pool.ID, lcA, 20_000_000))

		assert.Equal(t, []entities.Address{lcA}, h.players(pool.ID))
		assert.Equal(t, entities.Amount(20_000_000), h.pool(pool.ID).PooledFunds)
		assert.Equal(t, startingBalance-20_000_000, h.balance(lcA))
	})

	t.Run("multiple entries keep order", func(t *testing.T) {
		require.NoError(t, h.enter(pool.ID, lcB, 20_000_000))
		require.NoError(t, h.enter(pool.ID, lcC, 20_000_000))

		assert.Equal(t, []entities.Address{lcA, lcB, lcC}, h.players(pool.ID))
		assert.Equal(t, entities.Amount(60_000_000), h.pool(pool.ID).PooledFunds)
	})

	t.Run("stake below threshold changes nothing", func(t *testing.T) {
		err := h.enter(pool.ID, lcA, 5_000_000)
		assert.ErrorIs(t, err, entities.ErrInsufficientStake)

		assert.Len(t, h.players(pool.ID), 3)
		assert.Equal(t, entities.Amount(60_000_000), h.pool(pool.ID).PooledFunds)
		assert.Equal(t, startingBalance-20_000_000, h.balance(lcA))
	})

	t.Run("non-administrator cannot draw", func(t *testing.T) {
		_, err := h.pickWinner(pool.ID, lcA)
		assert.ErrorIs(t, err, entities.ErrNotAuthorized)

		assert.Len(t, h.players(pool.ID), 3)
		assert.Equal(t, entities.Amount(60_000_000), h.pool(pool.ID).PooledFunds)
	})

	t.Run("administrator draw pays the whole pool and resets", func(t *testing.T) {
		before := map[entities.Address]entities.Amount{
			lcA: h.balance(lcA), lcB: h.balance(lcB), lcC: h.balance(lcC),
		}

		result, err := h.pickWinner(pool.ID, lcAdmin)
		require.NoError(t, err)
		assert.Contains(t, []entities.Address{lcA, lcB, lcC}, result.Winner)
		assert.Equal(t, entities.Amount(60_000_000), result.Amount)

		assert.Equal(t, before[result.Winner]+60_000_000, h.balance(result.Winner))
		for addr, bal := range before {
			if addr != result.Winner {
				assert.Equal(t, bal, h.balance(addr))
			}
		}

		assert.Empty(t, h.players(pool.ID))
		after := h.pool(pool.ID)
		assert.Equal(t, entities.Amount(0), after.PooledFunds)
		assert.Equal(t, 0, after.PlayerCount)
		assert.Equal(t, int64(1), after.DrawCount)
	})

	t.Run("second draw without entries has no participants", func(t *testing.T) {
		_, err := h.pickWinner(pool.ID, lcAdmin)
		assert.ErrorIs(t, err, entities.ErrNoParticipants)
	})

	t.Run("events are only flushed for committed operations", func(t *testing.T) {
		types := h.publisher.flushedTypes()
		assert.Contains(t, types, events.EventTypePoolDeployed)
		assert.Contains(t, types, events.EventTypeWinnerPicked)

		entered := 0
		for _, et := range types {
			if et == events.EventTypePlayerEntered {
				entered++
			}
		}
		assert.Equal(t, 3, entered)
	})
}

func TestLotteryLifecycle_SinglePlayerGetsStakeBack(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)

	pool := h.deploy(lcAdmin)
	h.open(lcA)

	require.NoError(t, h.enter(pool.ID, lcA, 2*entities.OneCoin))
	assert.Equal(t, startingBalance-2*entities.OneCoin, h.balance(lcA))

	result, err := h.pickWinner(pool.ID, lcAdmin)
	require.NoError(t, err)

	assert.Equal(t, lcA, result.Winner)
	assert.Equal(t, startingBalance, h.balance(lcA))
	assert.Equal(t, entities.Amount(0), h.pool(pool.ID).PooledFunds)
}

func TestLotteryLifecycle_TransferFailureRollsBack(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)

	pool := h.deploy(lcAdmin)
	h.open(lcA)
	require.NoError(t, h.enter(pool.ID, lcA, entities.OneCoin))

	require.NoError(t, h.run(func(_ interfaces.LotteryService, a interfaces.AccountService) error {
		_, err := a.SetAcceptsPayments(context.Background(), lcA, false)
		return err
	}))

	_, err := h.pickWinner(pool.ID, lcAdmin)
	assert.ErrorIs(t, err, entities.ErrTransferFailed)

	// Participants, funds and balances are exactly as before the draw
	assert.Equal(t, []entities.Address{lcA}, h.players(pool.ID))
	assert.Equal(t, entities.OneCoin, h.pool(pool.ID).PooledFunds)
	assert.Equal(t, startingBalance-entities.OneCoin, h.balance(lcA))
	assert.NotContains(t, h.publisher.flushedTypes(), events.EventTypeWinnerPicked)
}

func TestLotteryLifecycle_ConcurrentEntriesAreSerialised(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)

	pool := h.deploy(lcAdmin)
	players := make([]entities.Address, 10)
	for i := range players {
		players[i] = testutil.TestAddress(0x100 + i)
	}
	h.open(players...)

	var wg sync.WaitGroup
	errs := make(chan error, len(players))
	for _, p := range players {
		wg.Add(1)
		go func(p entities.Address) {
			defer wg.Done()
			errs <- h.enter(pool.ID, p, entities.MinimumStake)
		}(p)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got := h.players(pool.ID)
	assert.ElementsMatch(t, players, got)
	assert.Equal(t, entities.MinimumStake*entities.Amount(len(players)), h.pool(pool.ID).PooledFunds)
}
