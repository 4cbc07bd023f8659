package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"lotterypool/domain/entities"
	"lotterypool/domain/events"
	"lotterypool/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	admin     = entities.MustParseAddress("0x00000000000000000000000000000000000000ad")
	playerA   = entities.MustParseAddress("0x000000000000000000000000000000000000000a")
	playerB   = entities.MustParseAddress("0x000000000000000000000000000000000000000b")
	playerC   = entities.MustParseAddress("0x000000000000000000000000000000000000000c")
	poolAddr  = entities.MustParseAddress("0x00000000000000000000000000000000000000f0")
	fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

type lotteryMocks struct {
	poolRepo           *testhelpers.MockLotteryPoolRepository
	entryRepo          *testhelpers.MockLotteryEntryRepository
	accountRepo        *testhelpers.MockAccountRepository
	balanceHistoryRepo *testhelpers.MockBalanceHistoryRepository
	ledgerRepo         *testhelpers.MockLedgerRepository
	eventPublisher     *testhelpers.MockEventPublisher
	entropy            *testhelpers.FixedEntropySource
}

// setupLotteryService creates the service with all repositories mocked
func setupLotteryService() (*lotteryService, *lotteryMocks) {
	m := &lotteryMocks{
		poolRepo:           new(testhelpers.MockLotteryPoolRepository),
		entryRepo:          new(testhelpers.MockLotteryEntryRepository),
		accountRepo:        new(testhelpers.MockAccountRepository),
		balanceHistoryRepo: new(testhelpers.MockBalanceHistoryRepository),
		ledgerRepo:         new(testhelpers.MockLedgerRepository),
		eventPublisher:     new(testhelpers.MockEventPublisher),
		entropy:            &testhelpers.FixedEntropySource{Value: testhelpers.SeedForIndex(0)},
	}
	svc := NewLotteryService(
		m.poolRepo, m.entryRepo, m.accountRepo, m.balanceHistoryRepo,
		m.ledgerRepo, m.eventPublisher, m.entropy,
	).(*lotteryService)
	svc.clock = func() time.Time { return fixedTime }
	return svc, m
}

func (m *lotteryMocks) assertExpectations(t *testing.T) {
	m.poolRepo.AssertExpectations(t)
	m.entryRepo.AssertExpectations(t)
	m.accountRepo.AssertExpectations(t)
	m.balanceHistoryRepo.AssertExpectations(t)
	m.ledgerRepo.AssertExpectations(t)
	m.eventPublisher.AssertExpectations(t)
}

func createTestPool(opts ...func(*entities.LotteryPool)) *entities.LotteryPool {
	pool := &entities.LotteryPool{
		ID:            1,
		Address:       poolAddr,
		Administrator: admin,
		CreatedAt:     fixedTime,
	}
	for _, opt := range opts {
		opt(pool)
	}
	return pool
}

func withEntries(entries []*entities.LotteryEntry) func(*entities.LotteryPool) {
	return func(p *entities.LotteryPool) {
		p.PlayerCount = len(entries)
		p.PooledFunds = 0
		for _, e := range entries {
			p.PooledFunds += e.Stake
		}
	}
}

func createTestAccount(address entities.Address, balance entities.Amount) *entities.Account {
	return &entities.Account{
		Address:         address,
		Balance:         balance,
		AcceptsPayments: true,
		CreatedAt:       fixedTime,
	}
}

func createEntries(stake entities.Amount, players ...entities.Address) []*entities.LotteryEntry {
	entries := make([]*entities.LotteryEntry, len(players))
	for i, p := range players {
		entries[i] = &entities.LotteryEntry{ID: int64(i + 1), PoolID: 1, Participant: p, Stake: stake, Position: i}
	}
	return entries
}

func TestLotteryService_CreatePool(t *testing.T) {
	t.Parallel()

	svc, m := setupLotteryService()
	ctx := context.Background()

	m.poolRepo.On("Create", ctx, mock.MatchedBy(func(p *entities.LotteryPool) bool {
		return p.Administrator == admin && p.Address != "" && p.PooledFunds == 0 && p.PlayerCount == 0
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.LotteryPool).ID = 7
	}).Return(nil)
	m.eventPublisher.On("Publish", mock.MatchedBy(func(e interface{}) bool {
		ev, ok := e.(events.PoolDeployedEvent)
		return ok && ev.PoolID == 7 && ev.Administrator == admin
	})).Return(nil)

	pool, err := svc.CreatePool(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pool.ID)
	assert.Equal(t, admin, pool.Administrator)
	assert.NotEqual(t, admin, pool.Address)

	m.assertExpectations(t)
}

func TestLotteryService_Enter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		stake      entities.Amount
		setupMocks func(*lotteryMocks)
		wantErr    error
	}{
		{
			name:  "stake at threshold is accepted",
			stake: entities.MinimumStake,
			setupMocks: func(m *lotteryMocks) {
				m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createTestPool(), nil)
				m.accountRepo.On("GetByAddressForUpdate", mock.Anything, playerA).Return(createTestAccount(playerA, entities.OneCoin), nil)
				m.accountRepo.On("UpdateBalance", mock.Anything, playerA, entities.OneCoin-entities.MinimumStake).Return(nil)
				m.balanceHistoryRepo.On("Record", mock.Anything, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
					return h.TransactionType == entities.TransactionTypeLotteryStake && h.ChangeAmount == -entities.MinimumStake
				})).Return(nil)
				m.entryRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.LotteryEntry) bool {
					return e.Participant == playerA && e.Stake == entities.MinimumStake && e.Position == 0
				})).Return(nil)
				m.poolRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *entities.LotteryPool) bool {
					return p.PlayerCount == 1 && p.PooledFunds == entities.MinimumStake
				})).Return(nil)
				m.eventPublisher.On("Publish", mock.Anything).Return(nil)
			},
		},
		{
			name:       "stake below threshold is rejected before any lookup",
			stake:      entities.MinimumStake / 2,
			setupMocks: func(m *lotteryMocks) {},
			wantErr:    entities.ErrInsufficientStake,
		},
		{
			name:  "unknown pool",
			stake: entities.MinimumStake,
			setupMocks: func(m *lotteryMocks) {
				m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(nil, nil)
			},
			wantErr: entities.ErrPoolNotFound,
		},
		{
			name:  "caller without account",
			stake: entities.MinimumStake,
			setupMocks: func(m *lotteryMocks) {
				m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createTestPool(), nil)
				m.accountRepo.On("GetByAddressForUpdate", mock.Anything, playerA).Return(nil, nil)
			},
			wantErr: entities.ErrAccountNotFound,
		},
		{
			name:  "caller cannot afford the stake",
			stake: 2 * entities.OneCoin,
			setupMocks: func(m *lotteryMocks) {
				m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createTestPool(), nil)
				m.accountRepo.On("GetByAddressForUpdate", mock.Anything, playerA).Return(createTestAccount(playerA, entities.OneCoin), nil)
			},
			wantErr: entities.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, m := setupLotteryService()
			tt.setupMocks(m)

			entry, err := svc.Enter(context.Background(), 1, playerA, tt.stake)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, entry)
				m.entryRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
				m.poolRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, playerA, entry.Participant)
			}
			m.assertExpectations(t)
		})
	}
}

func TestLotteryService_Enter_AppendFailurePropagates(t *testing.T) {
	t.Parallel()

	svc, m := setupLotteryService()
	m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createTestPool(), nil)
	m.accountRepo.On("GetByAddressForUpdate", mock.Anything, playerA).Return(createTestAccount(playerA, entities.OneCoin), nil)
	m.accountRepo.On("UpdateBalance", mock.Anything, playerA, mock.Anything).Return(nil)
	m.balanceHistoryRepo.On("Record", mock.Anything, mock.Anything).Return(nil)
	m.eventPublisher.On("Publish", mock.Anything).Return(nil)
	m.entryRepo.On("Append", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := svc.Enter(context.Background(), 1, playerA, entities.MinimumStake)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record entry")
	m.poolRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestLotteryService_GetPlayers(t *testing.T) {
	t.Parallel()

	t.Run("returns participants in entry order", func(t *testing.T) {
		t.Parallel()

		svc, m := setupLotteryService()
		entries := createEntries(20_000_000, playerA, playerB, playerC)
		m.poolRepo.On("GetByID", mock.Anything, int64(1)).Return(createTestPool(withEntries(entries)), nil)
		m.entryRepo.On("ListByPool", mock.Anything, int64(1)).Return(entries, nil)

		players, err := svc.GetPlayers(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, []entities.Address{playerA, playerB, playerC}, players)
	})

	t.Run("empty pool", func(t *testing.T) {
		t.Parallel()

		svc, m := setupLotteryService()
		m.poolRepo.On("GetByID", mock.Anything, int64(1)).Return(createTestPool(), nil)
		m.entryRepo.On("ListByPool", mock.Anything, int64(1)).Return([]*entities.LotteryEntry{}, nil)

		players, err := svc.GetPlayers(context.Background(), 1)
		require.NoError(t, err)
		assert.Empty(t, players)
	})

	t.Run("unknown pool", func(t *testing.T) {
		t.Parallel()

		svc, m := setupLotteryService()
		m.poolRepo.On("GetByID", mock.Anything, int64(9)).Return(nil, nil)

		_, err := svc.GetPlayers(context.Background(), 9)
		assert.ErrorIs(t, err, entities.ErrPoolNotFound)
	})
}

func TestLotteryService_PickWinner(t *testing.T) {
	t.Parallel()

	stake := 20_000_000
	threeEntries := createEntries(entities.Amount(stake), playerA, playerB, playerC)

	tests := []struct {
		name       string
		caller     entities.Address
		seedIndex  int
		setupMocks func(*lotteryMocks)
		wantErr    error
		wantWinner entities.Address
		wantAmount entities.Amount
	}{
		{
			name:      "administrator draws and the whole pool goes to the selected player",
			caller:    admin,
			seedIndex: 1,
			setupMocks: func(m *lotteryMocks) {
				m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createTestPool(withEntries(threeEntries)), nil)
				m.entryRepo.On("ListByPool", mock.Anything, int64(1)).Return(threeEntries, nil)
				m.ledgerRepo.On("CurrentHeight", mock.Anything).Return(int64(1234), nil)
				m.accountRepo.On("GetByAddressForUpdate", mock.Anything, playerB).Return(createTestAccount(playerB, entities.OneCoin), nil)
				m.accountRepo.On("UpdateBalance", mock.Anything, playerB, entities.OneCoin+60_000_000).Return(nil)
				m.balanceHistoryRepo.On("Record", mock.Anything, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
					return h.TransactionType == entities.TransactionTypeLotteryPayout && h.ChangeAmount == 60_000_000
				})).Return(nil)
				m.entryRepo.On("DeleteByPool", mock.Anything, int64(1)).Return(int64(3), nil)
				m.poolRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *entities.LotteryPool) bool {
					return p.PooledFunds == 0 && p.PlayerCount == 0 && p.DrawCount == 1
				})).Return(nil)
				m.eventPublisher.On("Publish", mock.MatchedBy(func(e interface{}) bool {
					_, ok := e.(events.BalanceChangeEvent)
					return ok
				})).Return(nil)
				m.eventPublisher.On("Publish", mock.MatchedBy(func(e interface{}) bool {
					ev, ok := e.(events.WinnerPickedEvent)
					return ok && ev.Winner == playerB && ev.Amount == 60_000_000 && ev.PlayerCount == 3
				})).Return(nil)
			},
			wantWinner: playerB,
			wantAmount: 60_000_000,
		},
		{
			name:   "non-administrator is rejected",
			caller: playerA,
			setupMocks: func(m *lotteryMocks) {
				m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createTestPool(withEntries(threeEntries)), nil)
			},
			wantErr: entities.ErrNotAuthorized,
		},
		{
			name:   "empty pool has no participants",
			caller: admin,
			setupMocks: func(m *lotteryMocks) {
				m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createTestPool(), nil)
				m.entryRepo.On("ListByPool", mock.Anything, int64(1)).Return([]*entities.LotteryEntry{}, nil)
			},
			wantErr: entities.ErrNoParticipants,
		},
		{
			name:   "unknown pool",
			caller: admin,
			setupMocks: func(m *lotteryMocks) {
				m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(nil, nil)
			},
			wantErr: entities.ErrPoolNotFound,
		},
		{
			name:      "winner without account fails the transfer",
			caller:    admin,
			seedIndex: 0,
			setupMocks: func(m *lotteryMocks) {
				m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createTestPool(withEntries(threeEntries)), nil)
				m.entryRepo.On("ListByPool", mock.Anything, int64(1)).Return(threeEntries, nil)
				m.ledgerRepo.On("CurrentHeight", mock.Anything).Return(int64(5), nil)
				m.accountRepo.On("GetByAddressForUpdate", mock.Anything, playerA).Return(nil, nil)
			},
			wantErr: entities.ErrTransferFailed,
		},
		{
			name:      "winner rejecting payments fails the transfer",
			caller:    admin,
			seedIndex: 2,
			setupMocks: func(m *lotteryMocks) {
				m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createTestPool(withEntries(threeEntries)), nil)
				m.entryRepo.On("ListByPool", mock.Anything, int64(1)).Return(threeEntries, nil)
				m.ledgerRepo.On("CurrentHeight", mock.Anything).Return(int64(5), nil)
				rejecting := createTestAccount(playerC, 0)
				rejecting.AcceptsPayments = false
				m.accountRepo.On("GetByAddressForUpdate", mock.Anything, playerC).Return(rejecting, nil)
			},
			wantErr: entities.ErrTransferFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, m := setupLotteryService()
			m.entropy.Value = testhelpers.SeedForIndex(tt.seedIndex)
			tt.setupMocks(m)

			result, err := svc.PickWinner(context.Background(), 1, tt.caller)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				m.entryRepo.AssertNotCalled(t, "DeleteByPool", mock.Anything, mock.Anything)
				m.poolRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
				m.accountRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantWinner, result.Winner)
				assert.Equal(t, tt.wantAmount, result.Amount)
				assert.Equal(t, tt.seedIndex, result.WinnerIndex)
				assert.Equal(t, []entities.Address{playerA, playerB, playerC}, result.Participants)
				assert.Equal(t, fixedTime, result.DrawnAt)
			}
			m.assertExpectations(t)
		})
	}
}

func TestLotteryService_PickWinner_FeedsEntropyInputs(t *testing.T) {
	t.Parallel()

	svc, m := setupLotteryService()
	entries := createEntries(2*entities.OneCoin, playerA)

	m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(createTestPool(withEntries(entries)), nil)
	m.entryRepo.On("ListByPool", mock.Anything, int64(1)).Return(entries, nil)
	m.ledgerRepo.On("CurrentHeight", mock.Anything).Return(int64(99), nil)
	m.accountRepo.On("GetByAddressForUpdate", mock.Anything, playerA).Return(createTestAccount(playerA, 98*entities.OneCoin), nil)
	m.accountRepo.On("UpdateBalance", mock.Anything, playerA, 100*entities.OneCoin).Return(nil)
	m.balanceHistoryRepo.On("Record", mock.Anything, mock.Anything).Return(nil)
	m.entryRepo.On("DeleteByPool", mock.Anything, int64(1)).Return(int64(1), nil)
	m.poolRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	m.eventPublisher.On("Publish", mock.Anything).Return(nil)

	result, err := svc.PickWinner(context.Background(), 1, admin)
	require.NoError(t, err)

	assert.Equal(t, playerA, result.Winner)
	assert.Equal(t, 2*entities.OneCoin, result.Amount)
	assert.Equal(t, int64(99), m.entropy.Last.LedgerHeight)
	assert.Equal(t, poolAddr, m.entropy.Last.PoolAddress)
	assert.Equal(t, fixedTime, m.entropy.Last.Timestamp)
	assert.Equal(t, []entities.Address{playerA}, m.entropy.Last.Participants)
}

func TestLotteryService_PickWinner_InconsistentPoolIsRefused(t *testing.T) {
	t.Parallel()

	svc, m := setupLotteryService()
	entries := createEntries(entities.OneCoin, playerA, playerB)
	pool := createTestPool(func(p *entities.LotteryPool) {
		p.PlayerCount = 2
		p.PooledFunds = entities.OneCoin
	})

	m.poolRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(pool, nil)
	m.entryRepo.On("ListByPool", mock.Anything, int64(1)).Return(entries, nil)

	_, err := svc.PickWinner(context.Background(), 1, admin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to draw")
	m.ledgerRepo.AssertNotCalled(t, "CurrentHeight", mock.Anything)
}
