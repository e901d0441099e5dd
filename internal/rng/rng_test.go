package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsReproducible(t *testing.T) {
	t.Parallel()

	a, b := New(42), New(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestStreamsDiffer(t *testing.T) {
	t.Parallel()

	s0, s1 := Stream(7, 0), Stream(7, 1)
	same := 0
	for i := 0; i < 32; i++ {
		if s0.Uint64() == s1.Uint64() {
			same++
		}
	}
	assert.Less(t, same, 32)

	again := Stream(7, 1)
	first := Stream(7, 1).Float64()
	assert.Equal(t, first, again.Float64())
}

func TestDerive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Derive(7, "bootstrap"), Derive(7, "bootstrap"))
	assert.NotEqual(t, Derive(7, "bootstrap"), Derive(7, "montecarlo"))
	assert.NotEqual(t, Derive(7, "bootstrap"), Derive(8, "bootstrap"))
	assert.NotEqual(t, Stream(Derive(7, "var"), 0).Uint64(), Stream(7, 0).Uint64())
}

func TestUniformRange(t *testing.T) {
	t.Parallel()

	r := New(1)
	for i := 0; i < 1000; i++ {
		x := Uniform(r, 0.75, 1.25)
		require.GreaterOrEqual(t, x, 0.75)
		require.Less(t, x, 1.25)
	}
}
