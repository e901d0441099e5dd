// Package rng provides the seedable random sources used by the simulator and
// the validators. Nothing in this module touches a process-global generator.
package rng

import (
	"hash/fnv"
	"math/rand/v2"
)

// Rand is the subset of *rand.Rand the simulator depends on.
type Rand interface {
	Float64() float64
	IntN(n int) int
	NormFloat64() float64
}

// golden ratio increment, keeps derived streams far apart
const streamMix = 0x9e3779b97f4a7c15

// New returns a generator seeded with seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^streamMix))
}

// Stream returns the generator for one independent unit of work (a run, a
// bootstrap sample, a shuffle). The same (seed, index) pair always produces
// the same sequence, whatever goroutine draws from it.
func Stream(seed uint64, index int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(index+1)*streamMix))
}

// Derive returns the seed for one named consumer of seed, so consumers that
// number their streams from 0 do not replay each other's draws.
func Derive(seed uint64, label string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(label))
	return seed ^ h.Sum64()
}

// Uniform draws from [lo, hi).
func Uniform(r Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}
