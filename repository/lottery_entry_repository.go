package repository

import (
	"context"
	"fmt"

	"lotterypool/database"
	"lotterypool/domain/entities"
)

// LotteryEntryRepository implements the participant registry
type LotteryEntryRepository struct {
	q Queryable
}

// NewLotteryEntryRepository creates a new lottery entry repository
func NewLotteryEntryRepository(db *database.DB) *LotteryEntryRepository {
	return &LotteryEntryRepository{q: db.Pool}
}

// newLotteryEntryRepositoryWithTx creates a lottery entry repository bound to a transaction
func newLotteryEntryRepositoryWithTx(tx Queryable) *LotteryEntryRepository {
	return &LotteryEntryRepository{q: tx}
}

// Append adds an entry at the given position of the pool's current round
func (r *LotteryEntryRepository) Append(ctx context.Context, entry *entities.LotteryEntry) error {
	query := `
		INSERT INTO lottery_entries (pool_id, participant, stake, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id, entered_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.PoolID,
		entry.Participant,
		entry.Stake,
		entry.Position,
	).Scan(&entry.ID, &entry.EnteredAt)
	if err != nil {
		return fmt.Errorf("failed to append entry to pool %d: %w", entry.PoolID, err)
	}
	return nil
}

// ListByPool returns entries in insertion order
func (r *LotteryEntryRepository) ListByPool(ctx context.Context, poolID int64) ([]*entities.LotteryEntry, error) {
	query := `
		SELECT id, pool_id, participant, stake, position, entered_at
		FROM lottery_entries
		WHERE pool_id = $1
		ORDER BY position ASC
	`

	rows, err := r.q.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for pool %d: %w", poolID, err)
	}
	defer rows.Close()

	entries := make([]*entities.LotteryEntry, 0)
	for rows.Next() {
		var entry entities.LotteryEntry
		err := rows.Scan(
			&entry.ID,
			&entry.PoolID,
			&entry.Participant,
			&entry.Stake,
			&entry.Position,
			&entry.EnteredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lottery entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lottery entries: %w", err)
	}

	return entries, nil
}

// DeleteByPool clears all entries of a pool
func (r *LotteryEntryRepository) DeleteByPool(ctx context.Context, poolID int64) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM lottery_entries WHERE pool_id = $1`, poolID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear entries for pool %d: %w", poolID, err)
	}
	return result.RowsAffected(), nil
}
