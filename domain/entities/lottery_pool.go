package entities

import (
	"fmt"
	"time"
)

// LotteryPool is a single deployed lottery instance holding staked funds in custody
type LotteryPool struct {
	ID            int64     `db:"id"`
	Address       Address   `db:"address"`       // Derived at deployment, also an entropy input
	Administrator Address   `db:"administrator"` // Deploying caller, immutable
	PooledFunds   Amount    `db:"pooled_funds"`  // Sum of stakes since the last draw
	PlayerCount   int       `db:"player_count"`  // Number of entries since the last draw
	DrawCount     int64     `db:"draw_count"`    // Completed draws, used only for reporting
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// LotteryEntry is one accepted stake. The same participant may appear many times.
type LotteryEntry struct {
	ID          int64     `db:"id"`
	PoolID      int64     `db:"pool_id"`
	Participant Address   `db:"participant"`
	Stake       Amount    `db:"stake"`
	Position    int       `db:"position"` // 0-based insertion order within the current round
	EnteredAt   time.Time `db:"entered_at"`
}

// ValidateStake checks a stake against the fixed entry threshold
func ValidateStake(stake Amount) error {
	if stake < MinimumStake {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientStake, stake, MinimumStake)
	}
	return nil
}

// IsAdministrator reports whether caller controls this pool
func (p *LotteryPool) IsAdministrator(caller Address) bool {
	return p.Administrator == caller
}

// AuthorizeDraw returns ErrNotAuthorized unless caller is the administrator
func (p *LotteryPool) AuthorizeDraw(caller Address) error {
	if !p.IsAdministrator(caller) {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, caller)
	}
	return nil
}

// HasParticipants returns true if at least one entry is pending
func (p *LotteryPool) HasParticipants() bool {
	return p.PlayerCount > 0
}

// AcceptStake records a validated stake and returns the position of the new entry
func (p *LotteryPool) AcceptStake(stake Amount) (int, error) {
	if err := ValidateStake(stake); err != nil {
		return 0, err
	}
	position := p.PlayerCount
	p.PlayerCount++
	p.PooledFunds += stake
	return position, nil
}

// Reset empties the pool after a payout, returning the amount that was held
func (p *LotteryPool) Reset() Amount {
	paid := p.PooledFunds
	p.PooledFunds = 0
	p.PlayerCount = 0
	p.DrawCount++
	return paid
}

// CheckConsistency verifies that the pool row agrees with its entries
func (p *LotteryPool) CheckConsistency(entries []*LotteryEntry) error {
	if len(entries) != p.PlayerCount {
		return fmt.Errorf("pool %d has player count %d but %d entries", p.ID, p.PlayerCount, len(entries))
	}
	var sum Amount
	for _, e := range entries {
		sum += e.Stake
	}
	if sum != p.PooledFunds {
		return fmt.Errorf("pool %d holds %s but entries sum to %s", p.ID, p.PooledFunds, sum)
	}
	if (p.PooledFunds > 0) != (p.PlayerCount > 0) {
		return fmt.Errorf("pool %d has funds %s with %d players", p.ID, p.PooledFunds, p.PlayerCount)
	}
	return nil
}

// Participants returns the ordered participant addresses of the given entries
func Participants(entries []*LotteryEntry) []Address {
	players := make([]Address, len(entries))
	for i, e := range entries {
		players[i] = e.Participant
	}
	return players
}

// DrawResult describes a completed draw
type DrawResult struct {
	PoolID       int64
	PoolAddress  Address
	Winner       Address
	WinnerIndex  int
	Amount       Amount
	Participants []Address
	LedgerHeight int64
	DrawnAt      time.Time
}
