package repository

import (
	"context"
	"errors"
	"fmt"

	"lotterypool/database"
	"lotterypool/domain/entities"

	"github.com/jackc/pgx/v5"
)

// LotteryPoolRepository implements lottery pool data access
type LotteryPoolRepository struct {
	q Queryable
}

// NewLotteryPoolRepository creates a new lottery pool repository
func NewLotteryPoolRepository(db *database.DB) *LotteryPoolRepository {
	return &LotteryPoolRepository{q: db.Pool}
}

// newLotteryPoolRepositoryWithTx creates a lottery pool repository bound to a transaction
func newLotteryPoolRepositoryWithTx(tx Queryable) *LotteryPoolRepository {
	return &LotteryPoolRepository{q: tx}
}

const poolColumns = `id, address, administrator, pooled_funds, player_count, draw_count, created_at, updated_at`

func scanPool(row pgx.Row) (*entities.LotteryPool, error) {
	var pool entities.LotteryPool
	err := row.Scan(
		&pool.ID,
		&pool.Address,
		&pool.Administrator,
		&pool.PooledFunds,
		&pool.PlayerCount,
		&pool.DrawCount,
		&pool.CreatedAt,
		&pool.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

// Create inserts a new empty pool and fills in its generated fields
func (r *LotteryPoolRepository) Create(ctx context.Context, pool *entities.LotteryPool) error {
	query := `
		INSERT INTO lottery_pools (address, administrator)
		VALUES ($1, $2)
		RETURNING ` + poolColumns

	created, err := scanPool(r.q.QueryRow(ctx, query, pool.Address, pool.Administrator))
	if err != nil {
		return fmt.Errorf("failed to create lottery pool: %w", err)
	}
	*pool = *created
	return nil
}

// GetByID retrieves a pool by its ID
func (r *LotteryPoolRepository) GetByID(ctx context.Context, id int64) (*entities.LotteryPool, error) {
	query := `SELECT ` + poolColumns + ` FROM lottery_pools WHERE id = $1`

	pool, err := scanPool(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lottery pool by ID %d: %w", id, err)
	}
	return pool, nil
}

// GetByIDForUpdate retrieves a pool by ID with row lock for update.
// The lock serialises enter and draw on the same pool.
func (r *LotteryPoolRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.LotteryPool, error) {
	query := `SELECT ` + poolColumns + ` FROM lottery_pools WHERE id = $1 FOR UPDATE`

	pool, err := scanPool(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lottery pool for update by ID %d: %w", id, err)
	}
	return pool, nil
}

// Update writes the mutable pool fields
func (r *LotteryPoolRepository) Update(ctx context.Context, pool *entities.LotteryPool) error {
	query := `
		UPDATE lottery_pools
		SET pooled_funds = $2,
		    player_count = $3,
		    draw_count = $4,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		pool.ID,
		pool.PooledFunds,
		pool.PlayerCount,
		pool.DrawCount,
	).Scan(&pool.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %d", entities.ErrPoolNotFound, pool.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update lottery pool %d: %w", pool.ID, err)
	}
	return nil
}
