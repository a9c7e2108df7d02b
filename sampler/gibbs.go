package sampler

import (
	"github.com/pkg/errors"

	"github.com/pelmix/pelmix/model"
	"github.com/pelmix/pelmix/rand"
	"github.com/pelmix/pelmix/trace"
)

// Config holds the run parameters shared by every chain.
type Config struct {
	Reps     int   // Sampling iterations per chain (includes burn-in)
	Burn     int   // Burn-in iterations discarded unless KeepBurn
	Thin     int   // Thinning interval for trace recording
	Chains   int   // Number of independent chains
	Adapt    int   // Adaptation iterations before sampling (full-Bayes only)
	KeepBurn bool  // Retain burn-in samples in the trace
	CondGSI  bool  // Conditional GSI: freeze allele frequencies at their initial value
	Seed     int64 // Seed for the derived per-chain streams

	// Progress, when set, is called after every iteration of every chain.
	// It must be safe for concurrent use.
	Progress func(chainID, iter int)
}

// Norm returns a copy with the conditional-GSI adjustment applied:
// conditional mode skips adaptation entirely.
func (c Config) Norm() Config {
	if c.CondGSI {
		c.Adapt = 0
	}
	return c
}

// Check validates the run parameters.
func (c Config) Check() error {
	if c.Reps < 1 {
		return errors.Errorf("Invalid iteration count %d", c.Reps)
	}
	if c.Burn < 0 || c.Burn >= c.Reps {
		return errors.Errorf("Invalid burn-in %d for %d iterations", c.Burn, c.Reps)
	}
	if c.Thin < 1 {
		return errors.Errorf("Invalid thinning interval %d", c.Thin)
	}
	if c.Chains < 1 {
		return errors.Errorf("Invalid chain count %d", c.Chains)
	}
	if c.Adapt < 0 {
		return errors.Errorf("Invalid adaptation count %d", c.Adapt)
	}
	return nil
}

// burnEff is the burn-in actually discarded from the trace.
func (c Config) burnEff() int {
	if c.KeepBurn {
		return 0
	}
	return c.Burn
}

// record reports whether iteration it (1-based, counting adaptation) is
// retained.
func (c Config) record(it int) bool {
	if it <= c.Adapt {
		return false
	}
	s := it - c.Adapt - c.burnEff()
	return s >= 1 && s%c.Thin == 0
}

// Retained returns the number of samples each chain records.
func (c Config) Retained() int {
	return (c.Reps - c.burnEff()) / c.Thin
}

// State is one iteration's snapshot of a chain's mutable quantities. Chains
// never share a State: each is advanced in place by Step and deep-copied from
// the shared initial state at launch.
type State struct {
	Iter   int
	Freq   *model.CountTable // Population x column allele frequencies
	Pi     []float64         // Mixing proportions over the population space
	Assign []int             // Population assignment per mixture individual
	Fam    Family
}

// Clone returns a deep copy suitable for an independent chain.
func (s *State) Clone() *State {
	cp := &State{
		Iter:   s.Iter,
		Freq:   s.Freq.Clone(),
		Pi:     make([]float64, len(s.Pi)),
		Assign: make([]int, len(s.Assign)),
		Fam:    s.Fam.Clone(),
	}
	copy(cp.Pi, s.Pi)
	copy(cp.Assign, s.Assign)
	return cp
}

// InitialFreq computes the posterior-mean allele frequency table from the
// baseline and prior pseudo-counts. Locus sub-rows with zero total
// pseudo-count fall back to a uniform simplex. Conditional-GSI chains keep
// this table for the whole run.
func InitialFreq(d *model.Dataset, priors *model.Priors) *model.CountTable {
	freq := model.NewCountTable(d.Baseline.Rows, d.Baseline.Cols)
	for p := 0; p < freq.Rows; p++ {
		base := d.Baseline.Row(p)
		prior := priors.Freq.Row(p)
		out := freq.Row(p)
		for _, l := range d.Loci {
			total := 0.0
			for a := l.Offset; a < l.Offset+l.Card; a++ {
				total += base[a] + prior[a]
			}
			if total == 0 {
				flat := 1.0 / float64(l.Card)
				for a := l.Offset; a < l.Offset+l.Card; a++ {
					out[a] = flat
				}
				continue
			}
			for a := l.Offset; a < l.Offset+l.Card; a++ {
				out[a] = (base[a] + prior[a]) / total
			}
		}
	}
	return freq
}

// NewInitialState builds the starting point shared by every chain: the
// posterior-mean frequency table, the prior-mean mixing proportions, and one
// imputation of the unknown origins drawn on the dedicated init stream.
func NewInitialState(d *model.Dataset, priors *model.Priors, gen *rand.Generator) (*State, error) {
	st := &State{
		Freq:   InitialFreq(d, priors),
		Pi:     make([]float64, d.NumPops()),
		Assign: make([]int, d.NumInds()),
		Fam:    NewFamily(d),
	}
	copy(st.Pi, priors.Mix)
	copy(st.Assign, d.Origins)

	eng := NewEngine(d)
	eng.Refresh(st.Freq)

	w := make([]float64, d.NumWild())
	for _, m := range eng.Unknowns() {
		for k := range w {
			w[k] = st.Pi[k] * eng.Genetic(m, k)
		}
		k, err := Categorical(w, gen)
		if err != nil {
			return nil, errors.Wrapf(err, "Could not impute initial origin for individual %d", m)
		}
		st.Assign[m] = k
	}

	// Give the family a defined nuisance state before the chains fork
	st.Fam.Resample(gen, st.Assign)
	st.Fam.Impute(gen, st.Assign)

	return st, nil
}

// Step advances the state by one Gibbs iteration. The update order is fixed:
// allele frequencies (full-Bayes only), family nuisance parameters, mixing
// proportions, latent origins, missing-covariate imputation.
func Step(st *State, eng *Engine, d *model.Dataset, priors *model.Priors, cfg Config, gen *rand.Generator) error {
	st.Iter++

	if !cfg.CondGSI {
		updateFreq(st, d, priors, gen)
		eng.Refresh(st.Freq)
	}

	st.Fam.Resample(gen, st.Assign)

	// Mixing proportions from Dirichlet(assignment counts + prior)
	alpha := make([]float64, d.NumPops())
	copy(alpha, priors.Mix)
	for _, p := range st.Assign {
		alpha[p]++
	}
	st.Pi = DirichletDraw(alpha, gen)

	// Latent origin redraw, restricted to wild populations
	w := make([]float64, d.NumWild())
	for _, m := range eng.Unknowns() {
		for k := range w {
			w[k] = st.Fam.AuxLikelihood(m, k) * st.Pi[k] * eng.Genetic(m, k)
		}
		k, err := Categorical(w, gen)
		if err != nil {
			return errors.Wrapf(err, "Resampling origin of individual %d", m)
		}
		st.Assign[m] = k
	}

	st.Fam.Impute(gen, st.Assign)

	return nil
}

// updateFreq redraws the wild rows of the allele-frequency table per locus
// from Dirichlet(baseline + prior + reassigned mixture counts). Degenerate
// locus rows (zero total concentration) fall back to a uniform simplex.
func updateFreq(st *State, d *model.Dataset, priors *model.Priors, gen *rand.Generator) {
	// Reassigned counts: mixture rows summed by current latent assignment
	counts := model.NewCountTable(d.NumPops(), d.NumCols())
	for m, p := range st.Assign {
		row := counts.Row(p)
		for c, x := range d.Mixture.Row(m) {
			row[c] += x
		}
	}

	for p := 0; p < d.NumWild(); p++ {
		base := d.Baseline.Row(p)
		prior := priors.Freq.Row(p)
		add := counts.Row(p)
		out := st.Freq.Row(p)

		for _, l := range d.Loci {
			alpha := make([]float64, l.Card)
			for a := 0; a < l.Card; a++ {
				c := l.Offset + a
				alpha[a] = base[c] + prior[c] + add[c]
			}

			draw := DirichletDraw(alpha, gen)
			zero := true
			for _, v := range draw {
				if v != 0 {
					zero = false
					break
				}
			}
			if zero {
				flat := 1.0 / float64(l.Card)
				for a := range draw {
					draw[a] = flat
				}
			}
			copy(out[l.Offset:l.Offset+l.Card], draw)
		}
	}
}

// Chain runs one independent Gibbs chain over its own copy of the state.
type Chain struct {
	ID     int
	Trace  *trace.Trace
	data   *model.Dataset
	priors *model.Priors
	cfg    Config
	gen    *rand.Generator
	eng    *Engine
	state  *State
}

// NewChain clones the shared initial state for one chain.
func NewChain(id int, d *model.Dataset, priors *model.Priors, init *State, cfg Config, gen *rand.Generator) *Chain {
	c := &Chain{
		ID:     id,
		Trace:  trace.New(id, cfg.Retained()),
		data:   d,
		priors: priors,
		cfg:    cfg,
		gen:    gen,
		eng:    NewEngine(d),
		state:  init.Clone(),
	}
	c.eng.Refresh(c.state.Freq)
	return c
}

// State exposes the chain's current state for tests.
func (c *Chain) State() *State {
	return c.state
}

// Run advances the chain through its adaptation and sampling phases,
// recording retained samples. A failure reports the chain id and iteration;
// the chain is then dead and its trace unusable.
func (c *Chain) Run() error {
	total := c.cfg.Adapt + c.cfg.Reps
	for it := 1; it <= total; it++ {
		if err := Step(c.state, c.eng, c.data, c.priors, c.cfg, c.gen); err != nil {
			return errors.Wrapf(err, "Chain %d failed at iteration %d", c.ID, it)
		}
		if c.cfg.record(it) {
			c.Trace.Add(it, c.state.Pi, c.state.Assign, c.state.Fam.Nuisance())
		}
		if c.cfg.Progress != nil {
			c.cfg.Progress(c.ID, it)
		}
	}
	return nil
}
