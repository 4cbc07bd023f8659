// Package entropy produces the seed used to choose a lottery winner.
//
// The default block-metadata source hashes values that the operator of the
// ledger can observe and, to some degree, influence (the clock, the ledger
// height, the pool address and the participant list). It is NOT suitable
// when the operator is untrusted. The crypto source draws from crypto/rand.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"
	"time"

	"lotterypool/domain/entities"

	"golang.org/x/crypto/sha3"
)

const (
	SourceBlock  = "block"
	SourceCrypto = "crypto"
)

// Inputs are the observable values available at draw time
type Inputs struct {
	Timestamp    time.Time
	LedgerHeight int64
	PoolAddress  entities.Address
	Participants []entities.Address
}

// Source turns draw-time inputs into a seed
type Source interface {
	Seed(in Inputs) ([]byte, error)
	Name() string
}

// New returns the source registered under name
func New(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SourceBlock:
		return NewBlockMetadataSource(), nil
	case SourceCrypto:
		return NewCryptoSource(), nil
	default:
		return nil, fmt.Errorf("unknown entropy source %q", name)
	}
}

// BlockMetadataSource hashes draw metadata with keccak256
type BlockMetadataSource struct{}

// NewBlockMetadataSource creates the default weak source
func NewBlockMetadataSource() *BlockMetadataSource {
	return &BlockMetadataSource{}
}

func (s *BlockMetadataSource) Name() string { return SourceBlock }

// Seed returns keccak256(height || unix nanos || pool address || participants...)
func (s *BlockMetadataSource) Seed(in Inputs) ([]byte, error) {
	h := sha3.NewLegacyKeccak256()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(in.LedgerHeight))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(in.Timestamp.UnixNano()))
	h.Write(buf[:])

	h.Write(in.PoolAddress.Bytes())
	for _, p := range in.Participants {
		h.Write(p.Bytes())
	}
	return h.Sum(nil), nil
}

// CryptoSource ignores the inputs and reads 32 bytes from crypto/rand
type CryptoSource struct{}

// NewCryptoSource creates a source backed by the operating system CSPRNG
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{}
}

func (s *CryptoSource) Name() string { return SourceCrypto }

func (s *CryptoSource) Seed(Inputs) ([]byte, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to read random seed: %w", err)
	}
	return seed, nil
}

// PickIndex interprets seed as a big-endian unsigned integer and reduces it mod n
func PickIndex(seed []byte, n int) (int, error) {
	if n <= 0 {
		return 0, entities.ErrNoParticipants
	}
	v := new(big.Int).SetBytes(seed)
	return int(v.Mod(v, big.NewInt(int64(n))).Int64()), nil
}
