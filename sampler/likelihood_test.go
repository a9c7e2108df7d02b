package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pelmix/pelmix/model"
)

func TestEngineGenetic(t *testing.T) {
	assert := assert.New(t)

	d := hatcheryDataset(2)
	eng := NewEngine(d)

	// Only the 2 unknown-origin individuals get likelihood rows
	assert.Equal([]int{0, 1}, eng.Unknowns())

	// Hand-built frequency table: popA 0.9/0.1, popB 0.2/0.8
	freq := model.NewCountTable(3, 2)
	copy(freq.Row(0), []float64{0.9, 0.1})
	copy(freq.Row(1), []float64{0.2, 0.8})
	copy(freq.Row(2), []float64{0.5, 0.5})
	eng.Refresh(freq)

	// Individual 0 carries two copies of allele 1:
	// L(A) = 0.9^2, L(B) = 0.2^2
	assert.InDelta(0.81, eng.Genetic(0, 0), 1e-12)
	assert.InDelta(0.04, eng.Genetic(0, 1), 1e-12)
}

func TestEngineZeroFrequency(t *testing.T) {
	assert := assert.New(t)

	d := twoPopDataset(1)
	eng := NewEngine(d)

	// A zero frequency for an observed allele zeroes the whole product
	// instead of producing a NaN or infinity
	freq := model.NewCountTable(2, 4)
	copy(freq.Row(0), []float64{1.0, 0.0, 1.0, 0.0})
	copy(freq.Row(1), []float64{0.0, 1.0, 0.0, 1.0})
	eng.Refresh(freq)

	assert.InDelta(1.0, eng.Genetic(0, 0), 1e-12)
	assert.Equal(0.0, eng.Genetic(0, 1))
	assert.False(math.IsNaN(eng.Genetic(0, 1)))
}

func TestEngineLogSpaceStability(t *testing.T) {
	assert := assert.New(t)

	// Many loci with small frequencies would underflow a direct product of
	// per-locus likelihoods computed separately; the log-space accumulation
	// keeps a usable (possibly denormal or zero) result without NaN.
	nLoci := 400
	d := &model.Dataset{
		WildPops:  []string{"a"},
		GroupIDs:  []int{1},
		GroupName: []string{"g"},
		Baseline:  model.NewCountTable(1, 2*nLoci),
		Mixture:   model.NewCountTable(1, 2*nLoci),
		Origins:   []int{model.UnknownOrigin},
	}
	freq := model.NewCountTable(1, 2*nLoci)
	for l := 0; l < nLoci; l++ {
		d.Loci = append(d.Loci, model.Locus{Name: "L", Offset: 2 * l, Card: 2})
		d.Mixture.Set(0, 2*l, 2)
		freq.Set(0, 2*l, 0.01)
		freq.Set(0, 2*l+1, 0.99)
	}

	eng := NewEngine(d)
	eng.Refresh(freq)

	g := eng.Genetic(0, 0)
	assert.False(math.IsNaN(g))
	assert.True(g >= 0)
}
