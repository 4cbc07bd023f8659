package testhelpers

import (
	"context"

	"lotterypool/domain/entities"
	"lotterypool/domain/entropy"
	"lotterypool/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockLotteryPoolRepository is a mock implementation of LotteryPoolRepository
type MockLotteryPoolRepository struct {
	mock.Mock
}

func (m *MockLotteryPoolRepository) Create(ctx context.Context, pool *entities.LotteryPool) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

func (m *MockLotteryPoolRepository) GetByID(ctx context.Context, id int64) (*entities.LotteryPool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LotteryPool), args.Error(1)
}

func (m *MockLotteryPoolRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.LotteryPool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LotteryPool), args.Error(1)
}

func (m *MockLotteryPoolRepository) Update(ctx context.Context, pool *entities.LotteryPool) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

// MockLotteryEntryRepository is a mock implementation of LotteryEntryRepository
type MockLotteryEntryRepository struct {
	mock.Mock
}

func (m *MockLotteryEntryRepository) Append(ctx context.Context, entry *entities.LotteryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLotteryEntryRepository) ListByPool(ctx context.Context, poolID int64) ([]*entities.LotteryEntry, error) {
	args := m.Called(ctx, poolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LotteryEntry), args.Error(1)
}

func (m *MockLotteryEntryRepository) DeleteByPool(ctx context.Context, poolID int64) (int64, error) {
	args := m.Called(ctx, poolID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByAddress(ctx context.Context, address entities.Address) (*entities.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByAddressForUpdate(ctx context.Context, address entities.Address) (*entities.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, address entities.Address, initialBalance entities.Amount) (*entities.Account, error) {
	args := m.Called(ctx, address, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, address entities.Address, newBalance entities.Amount) error {
	args := m.Called(ctx, address, newBalance)
	return args.Error(0)
}

func (m *MockAccountRepository) SetAcceptsPayments(ctx context.Context, address entities.Address, accepts bool) error {
	args := m.Called(ctx, address, accepts)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByAddress(ctx context.Context, address entities.Address, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, address, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) CurrentHeight(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// FixedEntropySource returns the same seed for every draw
type FixedEntropySource struct {
	Value []byte
	Err   error
	Last  entropy.Inputs
}

func (s *FixedEntropySource) Seed(in entropy.Inputs) ([]byte, error) {
	s.Last = in
	return s.Value, s.Err
}

func (s *FixedEntropySource) Name() string { return "fixed" }

// SeedForIndex returns a seed that selects index i
func SeedForIndex(i int) []byte {
	return []byte{byte(i)}
}
