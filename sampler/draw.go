package sampler

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pelmix/pelmix/rand"
)

// DirichletDraw samples a probability vector from Dirichlet(alpha), allowing
// zero concentrations. Each category draws an independent Gamma(alpha_i, 1)
// and the vector is normalized; exact-zero components are then bumped to the
// smallest representable positive value so downstream log-likelihoods stay
// finite. A total concentration of exactly zero returns an all-zero vector,
// reserved for loci with no observations anywhere.
func DirichletDraw(alpha []float64, gen *rand.Generator) []float64 {
	out := make([]float64, len(alpha))
	if floats.Sum(alpha) == 0 {
		return out
	}

	for i, a := range alpha {
		if a > 0 {
			out[i] = distuv.Gamma{Alpha: a, Beta: 1, Src: gen}.Rand()
		}
	}

	total := floats.Sum(out)
	if total == 0 {
		// Every gamma draw underflowed; the least bad answer is uniform.
		flat := 1.0 / float64(len(out))
		for i := range out {
			out[i] = flat
		}
		return out
	}

	floats.Scale(1/total, out)
	for i, v := range out {
		if v == 0 {
			out[i] = math.SmallestNonzeroFloat64
		}
	}

	return out
}

// Categorical draws an index proportional to the given unnormalized weights.
// Non-finite weights and all-zero weight vectors are chain-fatal errors.
func Categorical(w []float64, gen *rand.Generator) (int, error) {
	total := 0.0
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return -1, errors.Errorf("Non-finite sampling weight %f at index %d", v, i)
		}
		total += v
	}
	if total <= 0 {
		return -1, errors.New("All sampling weights are zero")
	}

	u := gen.Float64() * total
	acc := 0.0
	for i, v := range w {
		acc += v
		if u < acc {
			return i, nil
		}
	}

	// Floating point round-off can leave u just past the last bucket
	return len(w) - 1, nil
}

// Bernoulli draws true with probability p.
func Bernoulli(p float64, gen *rand.Generator) bool {
	return gen.Float64() < p
}
