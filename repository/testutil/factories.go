package testutil

import (
	"fmt"

	"lotterypool/domain/entities"
)

// TestAddress returns a deterministic address ending in n
func TestAddress(n int) entities.Address {
	return entities.MustParseAddress(fmt.Sprintf("0x%040x", n))
}

// CreateTestBalanceHistory creates a balance history entry with default values
func CreateTestBalanceHistory(address entities.Address, transactionType entities.TransactionType) *entities.BalanceHistory {
	return &entities.BalanceHistory{
		Address:         address,
		BalanceBefore:   100 * entities.OneCoin,
		BalanceAfter:    99 * entities.OneCoin,
		ChangeAmount:    -entities.OneCoin,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}
