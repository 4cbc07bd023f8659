package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// Amount is a quantity of the native unit expressed in base units
type Amount int64

const (
	// AmountDecimals is the number of fractional digits in one coin
	AmountDecimals = 9

	// OneCoin is one whole native unit
	OneCoin Amount = 1_000_000_000

	// MinimumStake is the smallest accepted entry (0.01 coin)
	MinimumStake Amount = OneCoin / 100
)

// ParseAmount parses a decimal coin string such as "0.02" or "2" into base units
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("%w: %q must be an unsigned decimal", ErrInvalidAmount, s)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if !isDigits(whole) || !isDigits(frac) || (whole == "" && frac == "") {
		return 0, fmt.Errorf("%w: %q must be an unsigned decimal", ErrInvalidAmount, s)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > AmountDecimals {
		return 0, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, s, AmountDecimals)
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	if w > int64(maxAmount/OneCoin) {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}

	var f int64
	if frac != "" {
		padded := frac + strings.Repeat("0", AmountDecimals-len(frac))
		f, err = strconv.ParseInt(padded, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
		}
	}

	total := Amount(w)*OneCoin + Amount(f)
	if total < 0 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}
	return total, nil
}

const maxAmount = Amount(1<<63 - 1)

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String formats the amount as a decimal coin string with trailing zeros trimmed
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := v / int64(OneCoin)
	frac := v % int64(OneCoin)
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, whole)
	}
	fs := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	return fmt.Sprintf("%s%d.%s", sign, whole, fs)
}

// Coins returns the amount in whole coins as a float, for display and metrics only
func (a Amount) Coins() float64 {
	return float64(a) / float64(OneCoin)
}
