package entities

import "time"

// TransactionType represents the kind of balance change
type TransactionType string

const (
	TransactionTypeInitial       TransactionType = "initial"
	TransactionTypeLotteryStake  TransactionType = "lottery_stake"
	TransactionTypeLotteryPayout TransactionType = "lottery_payout"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	Address             Address         `db:"address"`
	BalanceBefore       Amount          `db:"balance_before"`
	BalanceAfter        Amount          `db:"balance_after"`
	ChangeAmount        Amount          `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedPoolID       *int64          `db:"related_pool_id"`
	CreatedAt           time.Time       `db:"created_at"`
}

// IsPositiveChange returns true if the change amount is positive
func (bh *BalanceHistory) IsPositiveChange() bool {
	return bh.ChangeAmount > 0
}

// GetTransactionDescription returns a human-readable description of the transaction
func (bh *BalanceHistory) GetTransactionDescription() string {
	switch bh.TransactionType {
	case TransactionTypeInitial:
		return "Opening balance"
	case TransactionTypeLotteryStake:
		return "Lottery entry"
	case TransactionTypeLotteryPayout:
		return "Lottery winnings"
	default:
		return string(bh.TransactionType)
	}
}
