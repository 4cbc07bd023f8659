package services

import (
	"context"
	"fmt"

	"lotterypool/domain/entities"
	"lotterypool/domain/interfaces"
	"lotterypool/domain/utils"

	log "github.com/sirupsen/logrus"
)

// accountService manages ledger accounts
type accountService struct {
	accountRepo        interfaces.AccountRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
	startingBalance    entities.Amount
}

// NewAccountService creates a new account service
func NewAccountService(
	accountRepo interfaces.AccountRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
	startingBalance entities.Amount,
) interfaces.AccountService {
	return &accountService{
		accountRepo:        accountRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
		startingBalance:    startingBalance,
	}
}

// OpenAccount creates a funded account, or returns the existing one
func (s *accountService) OpenAccount(ctx context.Context, address entities.Address) (*entities.Account, error) {
	existing, err := s.accountRepo.GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	account, err := s.accountRepo.Create(ctx, address, s.startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	history := &entities.BalanceHistory{
		Address:         address,
		BalanceBefore:   0,
		BalanceAfter:    account.Balance,
		ChangeAmount:    account.Balance,
		TransactionType: entities.TransactionTypeInitial,
		TransactionMetadata: map[string]any{
			"reason": "account_opened",
		},
	}
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"address": address,
		"balance": account.Balance.String(),
	}).Info("Opened ledger account")

	return account, nil
}

// GetAccount returns an account or ErrAccountNotFound
func (s *accountService) GetAccount(ctx context.Context, address entities.Address) (*entities.Account, error) {
	account, err := s.accountRepo.GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrAccountNotFound, address)
	}
	return account, nil
}

// SetAcceptsPayments controls whether payouts to the account succeed
func (s *accountService) SetAcceptsPayments(ctx context.Context, address entities.Address, accepts bool) (*entities.Account, error) {
	account, err := s.accountRepo.GetByAddressForUpdate(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrAccountNotFound, address)
	}

	if err := s.accountRepo.SetAcceptsPayments(ctx, address, accepts); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	account.AcceptsPayments = accepts
	return account, nil
}
