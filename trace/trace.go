// Package trace accumulates the retained samples of Gibbs chains in the
// order that they were recorded, and provides the column views the
// convergence diagnostics consume.
package trace

import (
	"github.com/pkg/errors"
)

// Trace holds one chain's retained samples. Samples are appended during the
// chain's sampling phase and are never merged into shared mutable state;
// multi-chain views are built by reading several traces side by side.
type Trace struct {
	ChainID int
	Iters   []int       // Absolute iteration number per retained sample
	Pi      [][]float64 // Mixing proportions over populations, per sample
	Assign  [][]int     // Per-individual population assignment, per sample
	Aux     [][]float64 // Flattened nuisance parameters, nil when none
}

// New creates an empty trace with storage preallocated for the expected
// number of retained samples.
func New(chainID int, capacity int) *Trace {
	return &Trace{
		ChainID: chainID,
		Iters:   make([]int, 0, capacity),
		Pi:      make([][]float64, 0, capacity),
		Assign:  make([][]int, 0, capacity),
	}
}

// Add appends one retained sample. All inputs are copied so the chain can
// keep mutating its working state.
func (t *Trace) Add(iter int, pi []float64, assign []int, aux []float64) {
	t.Iters = append(t.Iters, iter)

	pic := make([]float64, len(pi))
	copy(pic, pi)
	t.Pi = append(t.Pi, pic)

	asc := make([]int, len(assign))
	copy(asc, assign)
	t.Assign = append(t.Assign, asc)

	if aux != nil {
		auc := make([]float64, len(aux))
		copy(auc, aux)
		t.Aux = append(t.Aux, auc)
	}
}

// Len returns the number of retained samples.
func (t *Trace) Len() int {
	return len(t.Iters)
}

// GroupPi collapses one sample's population proportions into reporting-group
// proportions. groupIDs are the dataset's 1-based group ids per population.
func GroupPi(pi []float64, groupIDs []int, numGroups int) []float64 {
	out := make([]float64, numGroups)
	for p, v := range pi {
		out[groupIDs[p]-1] += v
	}
	return out
}

// GroupColumn returns the series of one reporting group's mixing proportion
// across all retained samples.
func (t *Trace) GroupColumn(groupIDs []int, g int) []float64 {
	out := make([]float64, t.Len())
	for i, pi := range t.Pi {
		for p, v := range pi {
			if groupIDs[p]-1 == g {
				out[i] += v
			}
		}
	}
	return out
}

// AuxColumn returns the series of one flattened nuisance parameter.
func (t *Trace) AuxColumn(j int) []float64 {
	out := make([]float64, len(t.Aux))
	for i, row := range t.Aux {
		out[i] = row[j]
	}
	return out
}

// GroupColumns gathers one group's series from every completed trace,
// skipping nil entries (failed chains leave a nil marker).
func GroupColumns(traces []*Trace, groupIDs []int, g int) [][]float64 {
	var out [][]float64
	for _, t := range traces {
		if t == nil {
			continue
		}
		out = append(out, t.GroupColumn(groupIDs, g))
	}
	return out
}

// AuxColumns gathers one nuisance parameter's series from every completed
// trace.
func AuxColumns(traces []*Trace, j int) [][]float64 {
	var out [][]float64
	for _, t := range traces {
		if t == nil {
			continue
		}
		out = append(out, t.AuxColumn(j))
	}
	return out
}

// CheckAligned verifies that all completed traces have the same length and
// shapes, which the diagnostics require.
func CheckAligned(traces []*Trace) error {
	var first *Trace
	for _, t := range traces {
		if t == nil {
			continue
		}
		if first == nil {
			first = t
			continue
		}
		if t.Len() != first.Len() {
			return errors.Errorf(
				"Chain %d has %d retained samples, chain %d has %d",
				t.ChainID, t.Len(), first.ChainID, first.Len(),
			)
		}
	}
	if first == nil {
		return errors.New("No completed chains")
	}
	return nil
}
