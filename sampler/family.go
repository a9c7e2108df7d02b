package sampler

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pelmix/pelmix/model"
	"github.com/pelmix/pelmix/rand"
)

// A Family supplies the auxiliary (non-genetic) likelihood component for one
// operating family. AuxLikelihood is the uniform capability every family
// exposes; Resample and Impute are no-ops for families without nuisance
// parameters. Chains own independent copies via Clone.
type Family interface {
	// AuxLikelihood returns the covariate contribution for individual m and
	// population k, unnormalized. Missing observations contribute 1.
	AuxLikelihood(m, k int) float64

	// Resample redraws the family's nuisance parameters from their full
	// conditional given the current assignments.
	Resample(gen *rand.Generator, assign []int)

	// Impute fills missing covariate observations given the new assignments.
	Impute(gen *rand.Generator, assign []int)

	// Nuisance returns a flattened snapshot of the nuisance parameters for
	// trace recording, or nil when the family has none.
	Nuisance() []float64

	// NuisanceNames returns display names aligned with Nuisance.
	NuisanceNames() []string

	// Clone returns a copy safe for an independent chain.
	Clone() Family
}

// NewFamily builds the runtime family for the dataset's selector.
func NewFamily(d *model.Dataset) Family {
	switch d.FamilyKind() {
	case model.IsotopeGaussian:
		return newIsotopeFamily(d)
	case model.PathogenBetaBin:
		return newPathogenFamily(d)
	}
	return multinomialFamily{}
}

// multinomialFamily is the plain genetic-only model: the auxiliary term is
// identically 1.
type multinomialFamily struct{}

func (multinomialFamily) AuxLikelihood(m, k int) float64             { return 1.0 }
func (multinomialFamily) Resample(gen *rand.Generator, assign []int) {}
func (multinomialFamily) Impute(gen *rand.Generator, assign []int)   {}
func (multinomialFamily) Nuisance() []float64                        { return nil }
func (multinomialFamily) NuisanceNames() []string                    { return nil }
func (f multinomialFamily) Clone() Family                            { return f }

// isotopeFamily scores each individual's continuous signature against every
// population's externally supplied Gaussian. The population parameters are
// fixed, so the full likelihood table is computed once up front and shared.
type isotopeFamily struct {
	dens [][]float64 // individuals x populations
}

func newIsotopeFamily(d *model.Dataset) *isotopeFamily {
	cov := d.Covariates
	dens := make([][]float64, d.NumInds())
	for m := range dens {
		row := make([]float64, d.NumPops())
		v := cov.IsoValue[m]
		for k := range row {
			if math.IsNaN(v) {
				row[k] = 1.0
			} else {
				row[k] = distuv.Normal{Mu: cov.IsoMean[k], Sigma: cov.IsoSD[k]}.Prob(v)
			}
		}
		dens[m] = row
	}
	return &isotopeFamily{dens: dens}
}

func (f *isotopeFamily) AuxLikelihood(m, k int) float64 {
	return f.dens[m][k]
}

func (f *isotopeFamily) Resample(gen *rand.Generator, assign []int) {}
func (f *isotopeFamily) Impute(gen *rand.Generator, assign []int)   {}
func (f *isotopeFamily) Nuisance() []float64                        { return nil }
func (f *isotopeFamily) NuisanceNames() []string                    { return nil }

// Clone shares the density table: it is read-only after construction.
func (f *isotopeFamily) Clone() Family { return f }

// pathogenFamily models a binary infection status with a Beta-distributed
// prevalence per (stratum, reporting group). The status vector is a working
// copy: originally-missing entries are re-imputed every iteration.
type pathogenFamily struct {
	status    []int  // working copy of infection status
	missing   []bool // true where the original observation was missing
	stratum   []int  // 0-based stratum index per individual
	groupIdx  []int  // 0-based group index per population
	groupName []string
	numStrata int
	numGroups int
	alpha     *model.CountTable // Beta priors; nil means flat Beta(1,1)
	beta      *model.CountTable
	prev      []float64 // strata x groups prevalence, row-major
}

func newPathogenFamily(d *model.Dataset) *pathogenFamily {
	cov := d.Covariates

	f := &pathogenFamily{
		status:    make([]int, d.NumInds()),
		missing:   make([]bool, d.NumInds()),
		stratum:   make([]int, d.NumInds()),
		groupIdx:  make([]int, d.NumPops()),
		groupName: d.GroupName,
		numStrata: cov.NumStrata,
		numGroups: d.NumGroups(),
		alpha:     cov.PrevAlpha,
		beta:      cov.PrevBeta,
		prev:      make([]float64, cov.NumStrata*d.NumGroups()),
	}

	copy(f.status, cov.Infected)
	for m, s := range cov.Infected {
		f.missing[m] = s == model.StatusMissing
	}
	for m, s := range cov.Stratum {
		f.stratum[m] = s - 1
	}
	for p := range f.groupIdx {
		f.groupIdx[p] = d.GroupOf(p)
	}

	// Start every prevalence at its prior mean so the first iteration's
	// likelihoods are defined before the first Resample.
	for s := 0; s < f.numStrata; s++ {
		for g := 0; g < f.numGroups; g++ {
			a, b := f.prior(s, g)
			f.prev[s*f.numGroups+g] = a / (a + b)
		}
	}

	return f
}

func (f *pathogenFamily) prior(s, g int) (float64, float64) {
	a, b := 1.0, 1.0
	if f.alpha != nil {
		a = f.alpha.At(s, g)
	}
	if f.beta != nil {
		b = f.beta.At(s, g)
	}
	return a, b
}

func (f *pathogenFamily) AuxLikelihood(m, k int) float64 {
	s := f.status[m]
	if s == model.StatusMissing {
		return 1.0
	}
	p := f.prev[f.stratum[m]*f.numGroups+f.groupIdx[k]]
	if s == model.StatusPositive {
		return p
	}
	return 1.0 - p
}

// Resample redraws every (stratum, group) prevalence from its Beta full
// conditional via the assignment x status cross-tabulation. Imputed statuses
// count like observed ones; still-missing entries contribute nothing.
func (f *pathogenFamily) Resample(gen *rand.Generator, assign []int) {
	pos := make([]float64, len(f.prev))
	neg := make([]float64, len(f.prev))

	for m, s := range f.status {
		if s == model.StatusMissing {
			continue
		}
		cell := f.stratum[m]*f.numGroups + f.groupIdx[assign[m]]
		if s == model.StatusPositive {
			pos[cell]++
		} else {
			neg[cell]++
		}
	}

	for s := 0; s < f.numStrata; s++ {
		for g := 0; g < f.numGroups; g++ {
			cell := s*f.numGroups + g
			a, b := f.prior(s, g)
			f.prev[cell] = distuv.Beta{Alpha: pos[cell] + a, Beta: neg[cell] + b, Src: gen}.Rand()
		}
	}
}

// Impute redraws originally-missing statuses from a Bernoulli at the
// prevalence indexed by each individual's newly assigned group.
func (f *pathogenFamily) Impute(gen *rand.Generator, assign []int) {
	for m, miss := range f.missing {
		if !miss {
			continue
		}
		p := f.prev[f.stratum[m]*f.numGroups+f.groupIdx[assign[m]]]
		if Bernoulli(p, gen) {
			f.status[m] = model.StatusPositive
		} else {
			f.status[m] = model.StatusNegative
		}
	}
}

func (f *pathogenFamily) Nuisance() []float64 {
	out := make([]float64, len(f.prev))
	copy(out, f.prev)
	return out
}

func (f *pathogenFamily) NuisanceNames() []string {
	names := make([]string, 0, len(f.prev))
	for s := 0; s < f.numStrata; s++ {
		for g := 0; g < f.numGroups; g++ {
			names = append(names, fmt.Sprintf("prevalence[%d,%s]", s+1, f.groupName[g]))
		}
	}
	return names
}

func (f *pathogenFamily) Clone() Family {
	cp := *f
	cp.status = make([]int, len(f.status))
	copy(cp.status, f.status)
	cp.prev = make([]float64, len(f.prev))
	copy(cp.prev, f.prev)
	return &cp
}
