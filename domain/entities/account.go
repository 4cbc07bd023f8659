package entities

import "time"

// Account is a ledger balance owned by an address
type Account struct {
	Address         Address   `db:"address"`
	Balance         Amount    `db:"balance"`
	AcceptsPayments bool      `db:"accepts_payments"` // false makes every incoming payout fail
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// CanReceive reports whether a payout to this account would succeed
func (a *Account) CanReceive() bool {
	return a != nil && a.AcceptsPayments
}

// CanAfford returns true if the account holds at least amount
func (a *Account) CanAfford(amount Amount) bool {
	return a.Balance >= amount
}
