package repository

import (
	"context"
	"errors"
	"fmt"

	"lotterypool/database"
	"lotterypool/domain/entities"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements ledger account data access
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates an account repository bound to a transaction
func newAccountRepositoryWithTx(tx Queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `address, balance, accepts_payments, created_at, updated_at`

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var account entities.Account
	err := row.Scan(
		&account.Address,
		&account.Balance,
		&account.AcceptsPayments,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByAddress retrieves an account by address
func (r *AccountRepository) GetByAddress(ctx context.Context, address entities.Address) (*entities.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE address = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, address))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	return account, nil
}

// GetByAddressForUpdate retrieves an account with a row lock
func (r *AccountRepository) GetByAddressForUpdate(ctx context.Context, address entities.Address) (*entities.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE address = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, address))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s for update: %w", address, err)
	}
	return account, nil
}

// Create opens an account with an initial balance
func (r *AccountRepository) Create(ctx context.Context, address entities.Address, initialBalance entities.Amount) (*entities.Account, error) {
	query := `
		INSERT INTO accounts (address, balance)
		VALUES ($1, $2)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, address, initialBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", address, err)
	}
	return account, nil
}

// UpdateBalance sets an account balance
func (r *AccountRepository) UpdateBalance(ctx context.Context, address entities.Address, newBalance entities.Amount) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = NOW()
		WHERE address = $1
	`

	result, err := r.q.Exec(ctx, query, address, newBalance)
	if err != nil {
		return fmt.Errorf("failed to update balance for %s: %w", address, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", entities.ErrAccountNotFound, address)
	}
	return nil
}

// SetAcceptsPayments toggles whether payouts to the account succeed
func (r *AccountRepository) SetAcceptsPayments(ctx context.Context, address entities.Address, accepts bool) error {
	query := `
		UPDATE accounts
		SET accepts_payments = $2, updated_at = NOW()
		WHERE address = $1
	`

	result, err := r.q.Exec(ctx, query, address, accepts)
	if err != nil {
		return fmt.Errorf("failed to update accepts_payments for %s: %w", address, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", entities.ErrAccountNotFound, address)
	}
	return nil
}
