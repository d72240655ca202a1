package ports

// Sampler draws the random factors used by fill and correction operations.
// It is the only source of nondeterminism in an editing session; tests
// replace it with a fixed stub.
type Sampler interface {
	// Uniform returns a value in [min, max]. min == max returns min.
	Uniform(min, max float64) float64
}
