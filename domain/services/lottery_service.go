package services

import (
	"context"
	"fmt"
	"time"

	"lotterypool/domain/entities"
	"lotterypool/domain/entropy"
	"lotterypool/domain/events"
	"lotterypool/domain/interfaces"
	"lotterypool/domain/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// lotteryService implements the pool state machine. Callers run each
// operation inside one unit of work so that a returned error rolls back
// every write made before it.
type lotteryService struct {
	poolRepo           interfaces.LotteryPoolRepository
	entryRepo          interfaces.LotteryEntryRepository
	accountRepo        interfaces.AccountRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	ledgerRepo         interfaces.LedgerRepository
	eventPublisher     interfaces.EventPublisher
	entropySource      entropy.Source
	clock              func() time.Time
}

// NewLotteryService creates a new lottery service
func NewLotteryService(
	poolRepo interfaces.LotteryPoolRepository,
	entryRepo interfaces.LotteryEntryRepository,
	accountRepo interfaces.AccountRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	ledgerRepo interfaces.LedgerRepository,
	eventPublisher interfaces.EventPublisher,
	entropySource entropy.Source,
) interfaces.LotteryService {
	if entropySource == nil {
		entropySource = entropy.NewBlockMetadataSource()
	}
	return &lotteryService{
		poolRepo:           poolRepo,
		entryRepo:          entryRepo,
		accountRepo:        accountRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		ledgerRepo:         ledgerRepo,
		eventPublisher:     eventPublisher,
		entropySource:      entropySource,
		clock:              time.Now,
	}
}

// CreatePool deploys a new empty pool administered by the caller
func (s *lotteryService) CreatePool(ctx context.Context, administrator entities.Address) (*entities.LotteryPool, error) {
	salt := uuid.New()
	pool := &entities.LotteryPool{
		Address:       entities.DerivePoolAddress(administrator, salt[:]),
		Administrator: administrator,
	}

	if err := s.poolRepo.Create(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to create lottery pool: %w", err)
	}

	if err := s.eventPublisher.Publish(events.PoolDeployedEvent{
		PoolID:        pool.ID,
		PoolAddress:   pool.Address,
		Administrator: pool.Administrator,
	}); err != nil {
		log.WithError(err).Error("Failed to publish pool deployed event")
	}

	log.WithFields(log.Fields{
		"pool_id":       pool.ID,
		"pool_address":  pool.Address,
		"administrator": pool.Administrator,
	}).Info("Lottery pool deployed")

	return pool, nil
}

// GetPool returns the custody view of a pool
func (s *lotteryService) GetPool(ctx context.Context, poolID int64) (*entities.LotteryPool, error) {
	pool, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrPoolNotFound, poolID)
	}
	return pool, nil
}

// Enter stakes funds from the caller into the pool
func (s *lotteryService) Enter(ctx context.Context, poolID int64, caller entities.Address, stake entities.Amount) (*entities.LotteryEntry, error) {
	// Threshold check happens before any state is touched
	if err := entities.ValidateStake(stake); err != nil {
		return nil, err
	}

	pool, err := s.poolRepo.GetByIDForUpdate(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock pool: %w", err)
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrPoolNotFound, poolID)
	}

	account, err := s.accountRepo.GetByAddressForUpdate(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrAccountNotFound, caller)
	}
	if !account.CanAfford(stake) {
		return nil, fmt.Errorf("%w: balance %s, stake %s", entities.ErrInsufficientFunds, account.Balance, stake)
	}

	// Move the stake from the caller into pool custody
	newBalance := account.Balance - stake
	if err := s.accountRepo.UpdateBalance(ctx, caller, newBalance); err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	history := &entities.BalanceHistory{
		Address:         caller,
		BalanceBefore:   account.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    -stake,
		TransactionType: entities.TransactionTypeLotteryStake,
		TransactionMetadata: map[string]any{
			"pool_id":      pool.ID,
			"pool_address": pool.Address.String(),
		},
		RelatedPoolID: &pool.ID,
	}
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	position, err := pool.AcceptStake(stake)
	if err != nil {
		return nil, err
	}

	entry := &entities.LotteryEntry{
		PoolID:      pool.ID,
		Participant: caller,
		Stake:       stake,
		Position:    position,
	}
	if err := s.entryRepo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record entry: %w", err)
	}

	if err := s.poolRepo.Update(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to update pool: %w", err)
	}

	if err := s.eventPublisher.Publish(events.PlayerEnteredEvent{
		PoolID:      pool.ID,
		Participant: caller,
		Stake:       stake,
		Position:    position,
		PooledFunds: pool.PooledFunds,
	}); err != nil {
		log.WithError(err).Error("Failed to publish player entered event")
	}

	log.WithFields(log.Fields{
		"pool_id":      pool.ID,
		"participant":  caller,
		"stake":        stake.String(),
		"position":     position,
		"pooled_funds": pool.PooledFunds.String(),
	}).Info("Player entered lottery pool")

	return entry, nil
}

// GetPlayers returns participants in insertion order
func (s *lotteryService) GetPlayers(ctx context.Context, poolID int64) ([]entities.Address, error) {
	pool, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrPoolNotFound, poolID)
	}

	entries, err := s.entryRepo.ListByPool(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entities.Participants(entries), nil
}

// PickWinner pays the whole pool to one participant and resets it
func (s *lotteryService) PickWinner(ctx context.Context, poolID int64, caller entities.Address) (*entities.DrawResult, error) {
	pool, err := s.poolRepo.GetByIDForUpdate(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock pool: %w", err)
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrPoolNotFound, poolID)
	}

	if err := pool.AuthorizeDraw(caller); err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.ListByPool(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: pool %d", entities.ErrNoParticipants, poolID)
	}
	if err := pool.CheckConsistency(entries); err != nil {
		return nil, fmt.Errorf("refusing to draw: %w", err)
	}

	height, err := s.ledgerRepo.CurrentHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger height: %w", err)
	}

	participants := entities.Participants(entries)
	drawnAt := s.clock().UTC()
	seed, err := s.entropySource.Seed(entropy.Inputs{
		Timestamp:    drawnAt,
		LedgerHeight: height,
		PoolAddress:  pool.Address,
		Participants: participants,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate draw seed: %w", err)
	}

	index, err := entropy.PickIndex(seed, len(participants))
	if err != nil {
		return nil, err
	}
	winner := participants[index]

	account, err := s.accountRepo.GetByAddressForUpdate(ctx, winner)
	if err != nil {
		return nil, fmt.Errorf("failed to get winner account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: winner %s has no account", entities.ErrTransferFailed, winner)
	}
	if !account.CanReceive() {
		return nil, fmt.Errorf("%w: winner %s rejects payments", entities.ErrTransferFailed, winner)
	}

	// Payout and reset commit together or not at all
	payout := pool.Reset()
	newBalance := account.Balance + payout
	if err := s.accountRepo.UpdateBalance(ctx, winner, newBalance); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrTransferFailed, err)
	}

	history := &entities.BalanceHistory{
		Address:         winner,
		BalanceBefore:   account.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    payout,
		TransactionType: entities.TransactionTypeLotteryPayout,
		TransactionMetadata: map[string]any{
			"pool_id":       pool.ID,
			"pool_address":  pool.Address.String(),
			"player_count":  len(participants),
			"winner_index":  index,
			"ledger_height": height,
		},
		RelatedPoolID: &pool.ID,
	}
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	if _, err := s.entryRepo.DeleteByPool(ctx, poolID); err != nil {
		return nil, fmt.Errorf("failed to clear entries: %w", err)
	}
	if err := s.poolRepo.Update(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to reset pool: %w", err)
	}

	result := &entities.DrawResult{
		PoolID:       pool.ID,
		PoolAddress:  pool.Address,
		Winner:       winner,
		WinnerIndex:  index,
		Amount:       payout,
		Participants: participants,
		LedgerHeight: height,
		DrawnAt:      drawnAt,
	}

	if err := s.eventPublisher.Publish(events.WinnerPickedEvent{
		PoolID:       pool.ID,
		PoolAddress:  pool.Address,
		Winner:       winner,
		Amount:       payout,
		PlayerCount:  len(participants),
		LedgerHeight: height,
	}); err != nil {
		log.WithError(err).Error("Failed to publish winner picked event")
	}

	log.WithFields(log.Fields{
		"pool_id":        pool.ID,
		"winner":         winner,
		"winner_index":   index,
		"payout":         payout.String(),
		"player_count":   len(participants),
		"ledger_height":  height,
		"entropy_source": s.entropySource.Name(),
	}).Info("Lottery winner picked")

	return result, nil
}
