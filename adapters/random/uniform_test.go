package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniformSamplerDeterministic(t *testing.T) {
	a := NewUniformSampler(42)
	b := NewUniformSampler(42)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uniform(0.9, 1.1), b.Uniform(0.9, 1.1))
	}
}

func TestUniformSamplerRange(t *testing.T) {
	s := NewUniformSampler(7)
	for i := 0; i < 1000; i++ {
		v := s.Uniform(0.9, 1.1)
		assert.GreaterOrEqual(t, v, 0.9)
		assert.LessOrEqual(t, v, 1.1)
	}
}

func TestUniformSamplerCollapsedRange(t *testing.T) {
	s := NewUniformSampler(1)
	assert.Equal(t, 1.0, s.Uniform(1.0, 1.0))
}

func TestUniformSamplerTimeSeed(t *testing.T) {
	s := NewUniformSampler(0)
	assert.NotZero(t, s.Seed())
}
