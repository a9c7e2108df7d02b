package model

import (
	"github.com/pkg/errors"
)

// UnknownOrigin marks a mixture individual whose source population is latent.
const UnknownOrigin = -1

// Family selector constants - these match the strings used in input files.
const (
	Multinomial     = "multinomial"
	IsotopeGaussian = "normal"
	PathogenBetaBin = "ichthy"
)

// Locus describes one marker's block of allele-type columns in the shared
// column space of the baseline and mixture tables.
type Locus struct {
	Name   string // Marker name from the baseline
	Offset int    // First column of this locus' allele-type block
	Card   int    // Number of allele types enumerated at this locus
}

// CountTable is a dense row-major table of allele copy counts (or, for the
// per-chain frequency table, probabilities). Baseline and mixture tables are
// never mutated after construction.
type CountTable struct {
	Rows int
	Cols int
	Data []float64
}

// NewCountTable returns a zeroed table of the given shape.
func NewCountTable(rows, cols int) *CountTable {
	return &CountTable{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// Row returns a slice aliasing row i.
func (t *CountTable) Row(i int) []float64 {
	return t.Data[i*t.Cols : (i+1)*t.Cols]
}

// At returns the value at (i, j).
func (t *CountTable) At(i, j int) float64 {
	return t.Data[i*t.Cols+j]
}

// Set assigns the value at (i, j).
func (t *CountTable) Set(i, j int, v float64) {
	t.Data[i*t.Cols+j] = v
}

// Clone returns a deep copy of the table.
func (t *CountTable) Clone() *CountTable {
	cp := NewCountTable(t.Rows, t.Cols)
	copy(cp.Data, t.Data)
	return cp
}

// Check verifies the table shape is internally consistent.
func (t *CountTable) Check() error {
	if t.Rows < 0 || t.Cols < 0 {
		return errors.Errorf("Invalid table shape %dx%d", t.Rows, t.Cols)
	}
	if len(t.Data) != t.Rows*t.Cols {
		return errors.Errorf("Table %dx%d has %d cells", t.Rows, t.Cols, len(t.Data))
	}
	return nil
}

// Dataset is everything the external data-preparation step hands us: the two
// count tables in a shared fixed column order, the canonical population index
// space (wild populations first, then hatcheries), reporting groups, origin
// labels, and the covariate tables for the selected family.
type Dataset struct {
	Loci []Locus

	WildPops  []string // Wild population names, baseline row order
	Hatchery  []string // Hatchery names, rows following the wild populations
	GroupIDs  []int    // Reporting group id (1-based) per baseline population
	GroupName []string // Display name per reporting group

	Baseline *CountTable // Rows = populations (wild then hatchery)
	Mixture  *CountTable // Rows = mixture individuals

	// Origins holds, per mixture individual, a population index or
	// UnknownOrigin. Known labels are ground truth and are never resampled.
	Origins []int

	Covariates *Covariates
}

// NumWild returns K, the count of wild baseline populations.
func (d *Dataset) NumWild() int { return len(d.WildPops) }

// NumPops returns K+H, the full population index space.
func (d *Dataset) NumPops() int { return len(d.WildPops) + len(d.Hatchery) }

// NumInds returns the number of mixture individuals.
func (d *Dataset) NumInds() int { return d.Mixture.Rows }

// NumGroups returns G, the number of reporting groups.
func (d *Dataset) NumGroups() int { return len(d.GroupName) }

// NumCols returns the width of the shared column space.
func (d *Dataset) NumCols() int {
	if len(d.Loci) == 0 {
		return 0
	}
	last := d.Loci[len(d.Loci)-1]
	return last.Offset + last.Card
}

// PopName returns the display name for a population index.
func (d *Dataset) PopName(p int) string {
	if p < len(d.WildPops) {
		return d.WildPops[p]
	}
	return d.Hatchery[p-len(d.WildPops)]
}

// Check returns an error describing the first configuration problem found.
// It must pass before any chain is started.
func (d *Dataset) Check() error {
	if len(d.Loci) < 1 {
		return errors.New("Dataset has no loci")
	}

	off := 0
	for _, l := range d.Loci {
		if l.Card < 1 {
			return errors.Errorf("Locus %s has cardinality %d", l.Name, l.Card)
		}
		if l.Offset != off {
			return errors.Errorf("Locus %s offset %d, expected %d", l.Name, l.Offset, off)
		}
		off += l.Card
	}

	if len(d.WildPops) < 1 {
		return errors.New("Dataset has no wild populations")
	}

	if d.Baseline == nil || d.Mixture == nil {
		return errors.New("Dataset missing baseline or mixture table")
	}
	if err := d.Baseline.Check(); err != nil {
		return errors.Wrap(err, "Invalid baseline table")
	}
	if err := d.Mixture.Check(); err != nil {
		return errors.Wrap(err, "Invalid mixture table")
	}

	npop := d.NumPops()
	if d.Baseline.Rows != npop {
		return errors.Errorf(
			"Baseline has %d rows but %d populations are named (%d wild + %d hatchery)",
			d.Baseline.Rows, npop, len(d.WildPops), len(d.Hatchery),
		)
	}
	if d.Baseline.Cols != off {
		return errors.Errorf("Baseline has %d columns, loci enumerate %d", d.Baseline.Cols, off)
	}
	if d.Mixture.Cols != off {
		return errors.Errorf("Mixture has %d columns, loci enumerate %d", d.Mixture.Cols, off)
	}

	if len(d.GroupIDs) != npop {
		return errors.Errorf("Group vector covers %d of %d populations", len(d.GroupIDs), npop)
	}
	ng := d.NumGroups()
	if ng < 1 {
		return errors.New("Dataset has no reporting groups")
	}
	seen := make([]bool, ng)
	for p, g := range d.GroupIDs {
		if g < 1 || g > ng {
			return errors.Errorf("Population %s has group id %d outside 1..%d", d.PopName(p), g, ng)
		}
		seen[g-1] = true
	}
	for g, ok := range seen {
		if !ok {
			return errors.Errorf("Reporting group %s has no populations in the baseline", d.GroupName[g])
		}
	}

	if len(d.Origins) != d.Mixture.Rows {
		return errors.Errorf("Origin labels cover %d of %d individuals", len(d.Origins), d.Mixture.Rows)
	}
	for m, o := range d.Origins {
		if o != UnknownOrigin && (o < 0 || o >= npop) {
			return errors.Errorf("Individual %d has origin label %d outside the population space", m, o)
		}
	}

	if d.Covariates != nil {
		if err := d.Covariates.Check(d); err != nil {
			return errors.Wrap(err, "Invalid covariates")
		}
	}

	return nil
}

// GroupOf returns the 0-based reporting group index of a population.
func (d *Dataset) GroupOf(p int) int {
	return d.GroupIDs[p] - 1
}

// GroupSizes returns, per reporting group, the number of member populations.
func (d *Dataset) GroupSizes() []int {
	sizes := make([]int, d.NumGroups())
	for _, g := range d.GroupIDs {
		sizes[g-1]++
	}
	return sizes
}
