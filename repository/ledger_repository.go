package repository

import (
	"context"
	"fmt"

	"lotterypool/database"
)

// LedgerRepository reads ledger metadata from Postgres
type LedgerRepository struct {
	q Queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

func newLedgerRepositoryWithTx(tx Queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// CurrentHeight returns the id of the current transaction, which grows with every write
func (r *LedgerRepository) CurrentHeight(ctx context.Context) (int64, error) {
	var height int64
	if err := r.q.QueryRow(ctx, `SELECT txid_current()`).Scan(&height); err != nil {
		return 0, fmt.Errorf("failed to read ledger height: %w", err)
	}
	return height, nil
}
