package model

import (
	"math"

	"github.com/pkg/errors"
)

// Pathogen infection status codes for Covariates.Infected.
const (
	StatusMissing  = -1
	StatusNegative = 0
	StatusPositive = 1
)

// Covariates carries the auxiliary observation tables for the selected
// operating family. Kind selects which of the field groups is live; the
// others stay nil. A nil Covariates (or Kind == Multinomial) means the plain
// multinomial model with no auxiliary likelihood.
type Covariates struct {
	Kind string

	// Isotope family: one continuous signature per individual and a fixed
	// (externally estimated) Gaussian per population.
	IsoValue []float64 // Per individual; NaN = not measured
	IsoMean  []float64 // Per population
	IsoSD    []float64 // Per population

	// Pathogen family: a binary infection status and a stratum id per
	// individual, plus Beta prior parameters per (stratum, group).
	Infected  []int   // Per individual; StatusMissing/Negative/Positive
	Stratum   []int   // Per individual, 1-based stratum id
	NumStrata int
	PrevAlpha *CountTable // Strata x groups Beta alpha priors
	PrevBeta  *CountTable // Strata x groups Beta beta priors
}

// Check validates the covariate tables against the dataset's shape.
func (c *Covariates) Check(d *Dataset) error {
	switch c.Kind {
	case "", Multinomial:
		return nil

	case IsotopeGaussian:
		if len(c.IsoValue) != d.NumInds() {
			return errors.Errorf("Isotope values cover %d of %d individuals", len(c.IsoValue), d.NumInds())
		}
		if len(c.IsoMean) != d.NumPops() || len(c.IsoSD) != d.NumPops() {
			return errors.Errorf(
				"Isotope parameters cover %d/%d of %d populations",
				len(c.IsoMean), len(c.IsoSD), d.NumPops(),
			)
		}
		for p, sd := range c.IsoSD {
			if sd <= 0 || math.IsNaN(sd) {
				return errors.Errorf("Population %s has isotope sd %f", d.PopName(p), sd)
			}
		}
		return nil

	case PathogenBetaBin:
		if len(c.Infected) != d.NumInds() {
			return errors.Errorf("Infection status covers %d of %d individuals", len(c.Infected), d.NumInds())
		}
		for m, s := range c.Infected {
			if s != StatusMissing && s != StatusNegative && s != StatusPositive {
				return errors.Errorf("Individual %d has infection status %d", m, s)
			}
		}
		if len(c.Stratum) != d.NumInds() {
			return errors.Errorf("Stratum ids cover %d of %d individuals", len(c.Stratum), d.NumInds())
		}
		if c.NumStrata < 1 {
			return errors.Errorf("Invalid stratum count %d", c.NumStrata)
		}
		for m, s := range c.Stratum {
			if s < 1 || s > c.NumStrata {
				return errors.Errorf("Individual %d has stratum id %d outside 1..%d", m, s, c.NumStrata)
			}
		}
		for _, t := range []*CountTable{c.PrevAlpha, c.PrevBeta} {
			if t == nil {
				continue // defaults to Beta(1,1)
			}
			if err := t.Check(); err != nil {
				return errors.Wrap(err, "Invalid prevalence prior table")
			}
			if t.Rows != c.NumStrata || t.Cols != d.NumGroups() {
				return errors.Errorf(
					"Prevalence prior table is %dx%d, expected %dx%d",
					t.Rows, t.Cols, c.NumStrata, d.NumGroups(),
				)
			}
		}
		return nil
	}

	return errors.Errorf("Unknown family %q", c.Kind)
}

// FamilyKind returns the effective family selector for the dataset.
func (d *Dataset) FamilyKind() string {
	if d.Covariates == nil || d.Covariates.Kind == "" {
		return Multinomial
	}
	return d.Covariates.Kind
}
