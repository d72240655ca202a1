package random

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// UniformSampler draws factors from a seeded PCG stream so a session can be
// replayed exactly from its seed.
type UniformSampler struct {
	seed uint64
	src  rand.Source
}

// NewUniformSampler creates a sampler for seed. Seed 0 picks a time-based seed.
func NewUniformSampler(seed uint64) *UniformSampler {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &UniformSampler{
		seed: seed,
		src:  rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}
}

// Seed returns the seed in use
func (s *UniformSampler) Seed() uint64 { return s.seed }

// Uniform returns a draw from U(min, max); a collapsed range returns min
// without consuming the stream.
func (s *UniformSampler) Uniform(min, max float64) float64 {
	if min >= max {
		return min
	}
	dist := distuv.Uniform{Min: min, Max: max, Src: s.src}
	return dist.Rand()
}
