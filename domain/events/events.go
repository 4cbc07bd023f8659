package events

import "lotterypool/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePoolDeployed  EventType = "pool_deployed"
	EventTypePlayerEntered EventType = "player_entered"
	EventTypeWinnerPicked  EventType = "winner_picked"
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeAccountOpened EventType = "account_opened"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PoolDeployedEvent is emitted when a new pool is created
type PoolDeployedEvent struct {
	PoolID        int64            `json:"pool_id"`
	PoolAddress   entities.Address `json:"pool_address"`
	Administrator entities.Address `json:"administrator"`
}

func (e PoolDeployedEvent) Type() EventType {
	return EventTypePoolDeployed
}

// PlayerEnteredEvent is emitted for every accepted stake
type PlayerEnteredEvent struct {
	PoolID      int64            `json:"pool_id"`
	Participant entities.Address `json:"participant"`
	Stake       entities.Amount  `json:"stake"`
	Position    int              `json:"position"`
	PooledFunds entities.Amount  `json:"pooled_funds"`
}

func (e PlayerEnteredEvent) Type() EventType {
	return EventTypePlayerEntered
}

// WinnerPickedEvent is emitted once a draw has paid out
type WinnerPickedEvent struct {
	PoolID       int64            `json:"pool_id"`
	PoolAddress  entities.Address `json:"pool_address"`
	Winner       entities.Address `json:"winner"`
	Amount       entities.Amount  `json:"amount"`
	PlayerCount  int              `json:"player_count"`
	LedgerHeight int64            `json:"ledger_height"`
}

func (e WinnerPickedEvent) Type() EventType {
	return EventTypeWinnerPicked
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	Address         entities.Address         `json:"address"`
	OldBalance      entities.Amount          `json:"old_balance"`
	NewBalance      entities.Amount          `json:"new_balance"`
	TransactionType entities.TransactionType `json:"transaction_type"`
	ChangeAmount    entities.Amount          `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountOpenedEvent represents a new ledger account
type AccountOpenedEvent struct {
	Address        entities.Address `json:"address"`
	InitialBalance entities.Amount  `json:"initial_balance"`
}

func (e AccountOpenedEvent) Type() EventType {
	return EventTypeAccountOpened
}
