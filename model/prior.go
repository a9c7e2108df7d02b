package model

// Priors holds the Dirichlet pseudo-counts derived from the baseline. Both
// tables are read-only after BuildPriors returns; chains share one copy.
type Priors struct {
	// Freq matches the baseline's shape. Wild rows carry flat
	// 1/(alleles-at-locus) pseudo-counts so every allele type keeps support;
	// hatchery rows are zero since hatchery origins are never latent.
	Freq *CountTable

	// Mix has one entry per baseline population:
	// 1/(size of its reporting group)/(number of groups). This down-weights
	// populous reporting groups instead of putting flat mass on populations.
	Mix []float64
}

// BuildPriors derives the allele-frequency and mixing-proportion priors from
// the dataset. Pure function, no randomness.
func BuildPriors(d *Dataset) *Priors {
	freq := NewCountTable(d.Baseline.Rows, d.Baseline.Cols)
	for p := 0; p < d.NumWild(); p++ {
		row := freq.Row(p)
		for _, l := range d.Loci {
			flat := 1.0 / float64(l.Card)
			for a := 0; a < l.Card; a++ {
				row[l.Offset+a] = flat
			}
		}
	}

	sizes := d.GroupSizes()
	ng := float64(d.NumGroups())
	mix := make([]float64, d.NumPops())
	for p := range mix {
		mix[p] = 1.0 / float64(sizes[d.GroupOf(p)]) / ng
	}

	return &Priors{
		Freq: freq,
		Mix:  mix,
	}
}
