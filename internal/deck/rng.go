package deck

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource abstract
type RandomSource interface {
	IntN(n int) int // [0, n)
}

// Replicable RNG (e.g. Monte Carlo)
type seededRNG struct{ r *rand.Rand }

// NewSeededRNG returns a PCG source on stream 0.
func NewSeededRNG(seed uint64) RandomSource {
	return NewStreamRNG(seed, 0)
}

// NewStreamRNG returns an independent PCG stream for the same seed, so each
// simulator of one run can be driven without sharing state.
func NewStreamRNG(seed, stream uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, stream))}
}

func (s *seededRNG) IntN(n int) int { return s.r.IntN(n) }

// NewSeed reads a fresh seed from crypto/rand.
func NewSeed() uint64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		// back to math/rand/v2
		return rand.Uint64()
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// DefaultRNG is a freshly seeded source; not reproducible.
func DefaultRNG() RandomSource { return NewSeededRNG(NewSeed()) }
