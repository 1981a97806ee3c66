// Package dist provides the random sampling used by simulation models.
//
// Every sampler is deterministic given a seed. Models that draw from several
// distributions should give each one its own stream derived with Stream, so
// that changing how often one distribution samples does not disturb the
// values the others produce.
package dist

import (
	"hash/fnv"
	"math/rand/v2"
)

// A Sampler draws values from one distribution.
type Sampler interface {
	Sample() float64
}

// SampleN draws n values from the sampler.
func SampleN(s Sampler, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = s.Sample()
	}
	return samples
}

// Stream derives the seed of a named sampling activity from a master seed.
// The same master seed and name always derive the same stream seed, and
// different names give streams that are independent for practical purposes.
func Stream(masterSeed uint64, name string) uint64 {
	return masterSeed ^ fnv1a64(name)
}

// NewSource returns a deterministic random source for the given seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, 0)
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
