package application

import (
	"context"

	"lotterypool/domain/entities"
	"lotterypool/domain/interfaces"
	"lotterypool/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

// fakeUnitOfWork hands out mock repositories and records how it ended
type fakeUnitOfWork struct {
	pools     *testhelpers.MockLotteryPoolRepository
	entries   *testhelpers.MockLotteryEntryRepository
	accounts  *testhelpers.MockAccountRepository
	history   *testhelpers.MockBalanceHistoryRepository
	ledger    *testhelpers.MockLedgerRepository
	publisher *testhelpers.MockEventPublisher

	beginErr   error
	commitErr  error
	committed  bool
	rolledBack bool
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	publisher := new(testhelpers.MockEventPublisher)
	publisher.On("Publish", mock.Anything).Return(nil).Maybe()
	return &fakeUnitOfWork{
		pools:     new(testhelpers.MockLotteryPoolRepository),
		entries:   new(testhelpers.MockLotteryEntryRepository),
		accounts:  new(testhelpers.MockAccountRepository),
		history:   new(testhelpers.MockBalanceHistoryRepository),
		ledger:    new(testhelpers.MockLedgerRepository),
		publisher: publisher,
	}
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return u.beginErr }

func (u *fakeUnitOfWork) Commit() error {
	if u.commitErr != nil {
		return u.commitErr
	}
	u.committed = true
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	if !u.committed {
		u.rolledBack = true
	}
	return nil
}

func (u *fakeUnitOfWork) LotteryPoolRepository() interfaces.LotteryPoolRepository   { return u.pools }
func (u *fakeUnitOfWork) LotteryEntryRepository() interfaces.LotteryEntryRepository { return u.entries }
func (u *fakeUnitOfWork) AccountRepository() interfaces.AccountRepository           { return u.accounts }
func (u *fakeUnitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return u.history
}
func (u *fakeUnitOfWork) LedgerRepository() interfaces.LedgerRepository { return u.ledger }
func (u *fakeUnitOfWork) EventBus() interfaces.EventPublisher           { return u.publisher }

type fakeUnitOfWorkFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeUnitOfWorkFactory) Create() UnitOfWork { return f.uow }

type MockOperationRecorder struct {
	mock.Mock
}

func (m *MockOperationRecorder) RecordEntry(pool *entities.LotteryPool, stake entities.Amount) {
	m.Called(pool, stake)
}

func (m *MockOperationRecorder) RecordDraw(pool *entities.LotteryPool, result *entities.DrawResult) {
	m.Called(pool, result)
}

func (m *MockOperationRecorder) RecordPoolState(pool *entities.LotteryPool) {
	m.Called(pool)
}

func (m *MockOperationRecorder) RecordRejection(operation string, err error) {
	m.Called(operation, err)
}

func (m *MockOperationRecorder) ObserveOperation(operation string) func() {
	m.Called(operation)
	return func() {}
}

type MockWinnerAnnouncer struct {
	mock.Mock
}

func (m *MockWinnerAnnouncer) AnnounceWinner(ctx context.Context, result *entities.DrawResult) error {
	return m.Called(ctx, result).Error(0)
}

type MockPoolDrawer struct {
	mock.Mock
}

func (m *MockPoolDrawer) PickWinner(ctx context.Context, poolID int64, caller entities.Address) (*entities.DrawResult, error) {
	args := m.Called(ctx, poolID, caller)
	if r := args.Get(0); r != nil {
		return r.(*entities.DrawResult), args.Error(1)
	}
	return nil, args.Error(1)
}
