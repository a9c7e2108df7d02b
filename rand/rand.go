package rand

import (
	"github.com/pkg/errors"
	"github.com/seehuhn/mt19937"
)

// A Generator wraps a Mersenne Twister so that every chain can own an
// isolated stream. It implements the source interface expected by gonum's
// distuv distributions (Uint64/Seed) as well as the subset of math/rand
// methods the samplers need.
type Generator struct {
	mt *mt19937.MT19937
}

// NewGenerator returns a new PRNG seeded with the given value.
func NewGenerator(seed int64) (*Generator, error) {
	r := mt19937.New()
	r.Seed(seed)
	return &Generator{mt: r}, nil
}

// NewGeneratorSlice returns a new PRNG seeded from a slice of values.
func NewGeneratorSlice(seed []uint64) (*Generator, error) {
	if len(seed) < 1 {
		return nil, errors.Errorf("Invalid seed slice of len %d", len(seed))
	}

	r := mt19937.New()
	r.SeedFromSlice(seed)
	return &Generator{mt: r}, nil
}

// NewStreams derives n generators from a single seed. Stream i is keyed on
// (seed, i) so streams never overlap and a run is reproducible from the seed
// alone.
func NewStreams(seed int64, n int) ([]*Generator, error) {
	if n < 1 {
		return nil, errors.Errorf("Invalid stream count %d", n)
	}

	gens := make([]*Generator, n)
	for i := range gens {
		g, err := NewGeneratorSlice([]uint64{uint64(seed), uint64(i)})
		if err != nil {
			return nil, errors.Wrapf(err, "Could not create stream %d", i)
		}
		gens[i] = g
	}

	return gens, nil
}

// Uint64 implements gonum's rand source interface.
func (g *Generator) Uint64() uint64 {
	return g.mt.Uint64()
}

// Seed implements gonum's rand source interface.
func (g *Generator) Seed(seed uint64) {
	g.mt.Seed(int64(seed))
}

// Int63 provides the same interface as Go's math/rand.
func (g *Generator) Int63() int64 {
	return g.mt.Int63()
}

// Int63n is a copy of the current Go code
func (g *Generator) Int63n(n int64) int64 {
	if n <= 0 {
		panic("invalid argument to Int63n")
	}

	if n&(n-1) == 0 { // n is power of two, can mask
		return g.Int63() & (n - 1)
	}

	max := int64((1 << 63) - 1 - (1<<63)%uint64(n))
	v := g.Int63()
	for v > max {
		v = g.Int63()
	}

	return v % n
}

// Intn returns a uniform int in [0, n).
func (g *Generator) Intn(n int) int {
	return int(g.Int63n(int64(n)))
}

// Float64 uses the commented, simpler implmentation since we don't have the
// same support requirements for users
func (g *Generator) Float64() float64 {
	// See the Go lang comments for Rand Float64 implementation for details
	return float64(g.Int63n(1<<53)) / (1 << 53)
}
