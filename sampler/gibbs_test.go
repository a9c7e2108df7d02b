package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pelmix/pelmix/model"
	"github.com/pelmix/pelmix/rand"
)

func TestConfigCheck(t *testing.T) {
	assert := assert.New(t)

	good := Config{Reps: 100, Burn: 20, Thin: 1, Chains: 2}
	assert.NoError(good.Check())

	bad := []Config{
		{Reps: 0, Burn: 0, Thin: 1, Chains: 1},
		{Reps: 100, Burn: -1, Thin: 1, Chains: 1},
		{Reps: 100, Burn: 100, Thin: 1, Chains: 1},
		{Reps: 100, Burn: 0, Thin: 0, Chains: 1},
		{Reps: 100, Burn: 0, Thin: 1, Chains: 0},
		{Reps: 100, Burn: 0, Thin: 1, Chains: 1, Adapt: -1},
	}
	for i, c := range bad {
		assert.Error(c.Check(), "case %d should fail", i)
	}

	// Conditional GSI forces the adaptation count to zero
	c := Config{Reps: 10, Thin: 1, Chains: 1, Adapt: 50, CondGSI: true}.Norm()
	assert.Equal(0, c.Adapt)
}

func TestRetainedCount(t *testing.T) {
	assert := assert.New(t)

	// Retained samples per chain == floor((nreps - burnEff) / thin)
	for _, thin := range []int{1, 2, 5} {
		cfg := Config{Reps: 100, Burn: 20, Thin: thin, Chains: 1}
		exp := (100 - 20) / thin
		assert.Equal(exp, cfg.Retained())

		n := 0
		for it := 1; it <= cfg.Adapt+cfg.Reps; it++ {
			if cfg.record(it) {
				n++
			}
		}
		assert.Equal(exp, n, "thin=%d", thin)

		keep := Config{Reps: 100, Burn: 20, Thin: thin, Chains: 1, KeepBurn: true}
		assert.Equal(100/thin, keep.Retained())
		n = 0
		for it := 1; it <= keep.Adapt+keep.Reps; it++ {
			if keep.record(it) {
				n++
			}
		}
		assert.Equal(100/thin, n, "keep-burn thin=%d", thin)
	}

	// Adaptation iterations are never recorded
	cfg := Config{Reps: 10, Burn: 0, Thin: 1, Chains: 1, Adapt: 5}
	n := 0
	for it := 1; it <= cfg.Adapt+cfg.Reps; it++ {
		if cfg.record(it) {
			n++
		}
	}
	assert.Equal(10, n)
}

func TestInitialFreq(t *testing.T) {
	assert := assert.New(t)

	d := twoPopDataset(1)
	priors := model.BuildPriors(d)
	freq := InitialFreq(d, priors)

	// Posterior mean rows: each locus sub-row sums to 1
	for p := 0; p < freq.Rows; p++ {
		for _, l := range d.Loci {
			sum := 0.0
			for a := l.Offset; a < l.Offset+l.Card; a++ {
				sum += freq.At(p, a)
			}
			assert.InDelta(1.0, sum, 1e-9)
		}
	}

	// popA is nearly fixed for allele 1 at the diagnostic locus
	assert.True(freq.At(0, 0) > 0.99)
	assert.True(freq.At(1, 0) < 0.01)
}

func TestStepInvariants(t *testing.T) {
	assert := assert.New(t)

	d := hatcheryDataset(10)
	assert.NoError(d.Check())
	priors := model.BuildPriors(d)

	gen, err := rand.NewGenerator(1234)
	assert.NoError(err)

	st, err := NewInitialState(d, priors, gen)
	assert.NoError(err)

	eng := NewEngine(d)
	eng.Refresh(st.Freq)

	cfg := Config{Reps: 50, Burn: 0, Thin: 1, Chains: 1}
	for it := 0; it < 50; it++ {
		assert.NoError(Step(st, eng, d, priors, cfg, gen))

		// Mixing proportions always sum to 1
		sum := 0.0
		for _, v := range st.Pi {
			sum += v
		}
		assert.InDelta(1.0, sum, 1e-9)

		// Every locus sub-row of the frequency table is a simplex
		for p := 0; p < d.NumWild(); p++ {
			for _, l := range d.Loci {
				rowSum := 0.0
				for a := l.Offset; a < l.Offset+l.Card; a++ {
					rowSum += st.Freq.At(p, a)
				}
				assert.InDelta(1.0, rowSum, 1e-9)
			}
		}

		// The known hatchery individual never moves
		assert.Equal(2, st.Assign[10])

		// Unknowns stay in the wild population range
		for m := 0; m < 10; m++ {
			assert.True(st.Assign[m] >= 0 && st.Assign[m] < d.NumWild())
		}
	}
}

func TestCondGSIFreezesFrequencies(t *testing.T) {
	assert := assert.New(t)

	d := threePopDataset(10)
	priors := model.BuildPriors(d)

	gen, err := rand.NewGenerator(55)
	assert.NoError(err)

	st, err := NewInitialState(d, priors, gen)
	assert.NoError(err)
	eng := NewEngine(d)
	eng.Refresh(st.Freq)

	orig := st.Freq.Clone()

	cond := Config{Reps: 20, Burn: 0, Thin: 1, Chains: 1, CondGSI: true}.Norm()
	for it := 0; it < 20; it++ {
		assert.NoError(Step(st, eng, d, priors, cond, gen))
		// Bit-identical, not merely close
		assert.Equal(orig.Data, st.Freq.Data)
	}

	// Full-Bayes mode must actually move the table
	full := Config{Reps: 20, Burn: 0, Thin: 1, Chains: 1}
	st2, err := NewInitialState(d, priors, gen)
	assert.NoError(err)
	eng2 := NewEngine(d)
	eng2.Refresh(st2.Freq)
	before := st2.Freq.Clone()

	assert.NoError(Step(st2, eng2, d, priors, full, gen))
	assert.NotEqual(before.Data, st2.Freq.Data)
}

func TestTwoPopConvergence(t *testing.T) {
	assert := assert.New(t)

	// A perfectly separating locus: the unknown individual should sit in
	// population A essentially every post-burn-in iteration.
	d := twoPopDataset(1)
	priors := model.BuildPriors(d)

	gen, err := rand.NewGenerator(321)
	assert.NoError(err)

	st, err := NewInitialState(d, priors, gen)
	assert.NoError(err)
	eng := NewEngine(d)
	eng.Refresh(st.Freq)

	cfg := Config{Reps: 600, Burn: 100, Thin: 1, Chains: 1, CondGSI: true}.Norm()
	inA := 0
	kept := 0
	for it := 1; it <= cfg.Reps; it++ {
		assert.NoError(Step(st, eng, d, priors, cfg, gen))
		if it <= cfg.Burn {
			continue
		}
		kept++
		if st.Assign[0] == 0 {
			inA++
		}
	}

	assert.True(float64(inA)/float64(kept) >= 0.99,
		"posterior P(popA) = %f", float64(inA)/float64(kept))
}

func TestStateClone(t *testing.T) {
	assert := assert.New(t)

	d := threePopDataset(5)
	priors := model.BuildPriors(d)
	gen, err := rand.NewGenerator(2)
	assert.NoError(err)

	st, err := NewInitialState(d, priors, gen)
	assert.NoError(err)

	cp := st.Clone()
	cp.Pi[0] = 42
	cp.Assign[0] = 99
	cp.Freq.Set(0, 0, 42)

	assert.NotEqual(42.0, st.Pi[0])
	assert.NotEqual(99, st.Assign[0])
	assert.NotEqual(42.0, st.Freq.At(0, 0))
}
