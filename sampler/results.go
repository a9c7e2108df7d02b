package sampler

import (
	"github.com/pkg/errors"

	"github.com/pelmix/pelmix/diag"
	"github.com/pelmix/pelmix/trace"
)

// Results is the assembled output of a run: per-reporting-group posterior
// summaries, the joint diagnostic, and (under the pathogen family) the
// prevalence summaries. The underlying per-chain traces stay available on
// the Run for consumers that want the raw draws.
type Results struct {
	Groups   []*diag.Summary
	Nuisance []*diag.Summary
	MPSRF    float64
}

// Assemble reshapes the completed chains' samples into combined group-level
// traces and posterior summaries. Completed traces must be aligned; failed
// chains are skipped via their nil markers.
func (r *Run) Assemble() (*Results, error) {
	if err := trace.CheckAligned(r.Traces); err != nil {
		return nil, errors.Wrap(err, "Completed traces are unusable")
	}

	d := r.Data
	out := &Results{
		Groups: make([]*diag.Summary, 0, d.NumGroups()),
	}

	joint := make([][][]float64, 0, r.Completed())
	for g := 0; g < d.NumGroups(); g++ {
		cols := trace.GroupColumns(r.Traces, d.GroupIDs, g)

		s, err := diag.Summarize(d.GroupName[g], cols)
		if err != nil {
			return nil, errors.Wrapf(err, "Could not summarize group %s", d.GroupName[g])
		}
		out.Groups = append(out.Groups, s)

		// Build [chain][sample][group] for the joint diagnostic
		for c, col := range cols {
			if g == 0 {
				chain := make([][]float64, len(col))
				for i := range chain {
					chain[i] = make([]float64, d.NumGroups())
				}
				joint = append(joint, chain)
			}
			for i, v := range col {
				joint[c][i][g] = v
			}
		}
	}
	out.MPSRF = diag.MultivariatePSRF(joint)

	for j, name := range r.NuisanceNames() {
		s, err := diag.Summarize(name, trace.AuxColumns(r.Traces, j))
		if err != nil {
			return nil, errors.Wrapf(err, "Could not summarize %s", name)
		}
		out.Nuisance = append(out.Nuisance, s)
	}

	return out, nil
}
