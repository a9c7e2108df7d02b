package sampler

import (
	"math"

	"github.com/pelmix/pelmix/model"
)

// Engine computes the genetic likelihood of every unknown-origin individual
// under every wild population's current allele frequencies. Values are
// accumulated in log space across loci to avoid underflow and exponentiated
// once per (individual, population) cell.
type Engine struct {
	data     *model.Dataset
	unknowns []int       // row indexes of unknown-origin individuals
	geno     [][]float64 // per individual, per wild population; nil rows for known
}

// NewEngine prepares the likelihood table structure. Refresh must be called
// with an allele-frequency table before the first read.
func NewEngine(d *model.Dataset) *Engine {
	e := &Engine{
		data: d,
		geno: make([][]float64, d.NumInds()),
	}

	for m, o := range d.Origins {
		if o == model.UnknownOrigin {
			e.unknowns = append(e.unknowns, m)
			e.geno[m] = make([]float64, d.NumWild())
		}
	}

	return e
}

// Unknowns returns the row indexes of the unknown-origin individuals.
func (e *Engine) Unknowns() []int {
	return e.unknowns
}

// Genetic returns the current genetic likelihood for unknown individual m
// under wild population k.
func (e *Engine) Genetic(m, k int) float64 {
	return e.geno[m][k]
}

// Refresh recomputes the genetic likelihood table for the given allele
// frequencies: exp(sum over columns of count * log(freq)).
func (e *Engine) Refresh(freq *model.CountTable) {
	nw := e.data.NumWild()
	for _, m := range e.unknowns {
		counts := e.data.Mixture.Row(m)
		for k := 0; k < nw; k++ {
			row := freq.Row(k)
			ll := 0.0
			for c, x := range counts {
				if x > 0 {
					ll += x * math.Log(row[c])
				}
			}
			e.geno[m][k] = math.Exp(ll)
		}
	}
}
