package synthesizer

import (
	"math/rand"
	"time"
)

// Rand is the randomness source used for selection and allocation jitter.
// *math/rand.Rand satisfies it; tests inject seeded or scripted sources to
// assert exact allocations.
type Rand interface {
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// newDefaultRand returns a freshly seeded source. A new source per synthesis
// keeps the service safe for concurrent calls without locking.
func newDefaultRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// uniform returns a random value in [min, max).
func uniform(rng Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

// jitter returns a random delta in [-spread, +spread).
func jitter(rng Rand, spread float64) float64 {
	return (rng.Float64()*2 - 1) * spread
}
