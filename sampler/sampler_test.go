package sampler

import (
	"github.com/pelmix/pelmix/model"
)

// twoPopDataset builds a synthetic two-population dataset with a perfectly
// separating diagnostic locus: population A carries only allele 1, population
// B only allele 2. Every unknown individual's genotype matches A.
func twoPopDataset(nUnknown int) *model.Dataset {
	d := &model.Dataset{
		Loci: []model.Locus{
			{Name: "diag1", Offset: 0, Card: 2},
			{Name: "diag2", Offset: 2, Card: 2},
		},
		WildPops:  []string{"popA", "popB"},
		GroupIDs:  []int{1, 2},
		GroupName: []string{"groupA", "groupB"},
		Baseline:  model.NewCountTable(2, 4),
		Mixture:   model.NewCountTable(nUnknown, 4),
		Origins:   make([]int, nUnknown),
	}

	copy(d.Baseline.Row(0), []float64{100, 0, 100, 0})
	copy(d.Baseline.Row(1), []float64{0, 100, 0, 100})

	for m := 0; m < nUnknown; m++ {
		copy(d.Mixture.Row(m), []float64{2, 0, 2, 0})
		d.Origins[m] = model.UnknownOrigin
	}

	return d
}

// threePopDataset builds the end-to-end scenario: 3 wild populations, 2
// reporting groups (group1={pop1,pop2}, group2={pop3}), 1 locus with 2
// alleles, and nUnknown individuals whose genotypes match pop1 exactly.
func threePopDataset(nUnknown int) *model.Dataset {
	d := &model.Dataset{
		Loci: []model.Locus{
			{Name: "L1", Offset: 0, Card: 2},
		},
		WildPops:  []string{"pop1", "pop2", "pop3"},
		GroupIDs:  []int{1, 1, 2},
		GroupName: []string{"group1", "group2"},
		Baseline:  model.NewCountTable(3, 2),
		Mixture:   model.NewCountTable(nUnknown, 2),
		Origins:   make([]int, nUnknown),
	}

	copy(d.Baseline.Row(0), []float64{50, 0})
	copy(d.Baseline.Row(1), []float64{40, 10})
	copy(d.Baseline.Row(2), []float64{0, 50})

	for m := 0; m < nUnknown; m++ {
		copy(d.Mixture.Row(m), []float64{2, 0})
		d.Origins[m] = model.UnknownOrigin
	}

	return d
}

// hatcheryDataset adds a hatchery population and one known-origin hatchery
// individual to the two-population scenario.
func hatcheryDataset(nUnknown int) *model.Dataset {
	d := &model.Dataset{
		Loci: []model.Locus{
			{Name: "diag", Offset: 0, Card: 2},
		},
		WildPops:  []string{"popA", "popB"},
		Hatchery:  []string{"hatchX"},
		GroupIDs:  []int{1, 2, 2},
		GroupName: []string{"groupA", "groupB"},
		Baseline:  model.NewCountTable(3, 2),
		Mixture:   model.NewCountTable(nUnknown+1, 2),
		Origins:   make([]int, nUnknown+1),
	}

	copy(d.Baseline.Row(0), []float64{50, 0})
	copy(d.Baseline.Row(1), []float64{0, 50})
	copy(d.Baseline.Row(2), []float64{25, 25})

	for m := 0; m < nUnknown; m++ {
		copy(d.Mixture.Row(m), []float64{2, 0})
		d.Origins[m] = model.UnknownOrigin
	}

	// Last individual is a known hatchery fish
	copy(d.Mixture.Row(nUnknown), []float64{1, 1})
	d.Origins[nUnknown] = 2

	return d
}
