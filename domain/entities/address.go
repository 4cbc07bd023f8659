package entities

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressLength is the number of bytes in an address
const AddressLength = 20

// Address identifies an account or a pool, in 0x-prefixed lowercase hex form
type Address string

// ParseAddress validates and normalises an address string
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("%w: %q is missing 0x prefix", ErrInvalidAddress, s)
	}
	body := s[2:]
	if len(body) != AddressLength*2 {
		return "", fmt.Errorf("%w: %q must have %d hex characters", ErrInvalidAddress, s, AddressLength*2)
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	return Address("0x" + strings.ToLower(body)), nil
}

// MustParseAddress is ParseAddress for constants and tests
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Bytes returns the raw 20 bytes of the address
func (a Address) Bytes() []byte {
	b, err := hex.DecodeString(strings.TrimPrefix(string(a), "0x"))
	if err != nil {
		return nil
	}
	return b
}

// String implements fmt.Stringer
func (a Address) String() string {
	return string(a)
}

// Short returns an abbreviated form for logs and chat messages
func (a Address) Short() string {
	s := string(a)
	if len(s) < 10 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

// DerivePoolAddress computes a pool address from its administrator and a unique salt.
// The last 20 bytes of keccak256(administrator || salt) are used.
func DerivePoolAddress(administrator Address, salt []byte) Address {
	h := sha3.NewLegacyKeccak256()
	h.Write(administrator.Bytes())
	h.Write(salt)
	sum := h.Sum(nil)
	return Address("0x" + hex.EncodeToString(sum[len(sum)-AddressLength:]))
}
