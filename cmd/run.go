package cmd

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pelmix/pelmix/diag"
	"github.com/pelmix/pelmix/model"
	"github.com/pelmix/pelmix/sampler"
	"github.com/pelmix/pelmix/trace"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the mixture estimation and print posterior summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEstimate()
	},
}

func runEstimate() error {
	log.Infof("Reading dataset from %s", dataFile)
	d, err := model.NewDatasetFromFile(dataFile)
	if err != nil {
		return err
	}
	log.Infof(
		"Dataset: %d loci, %d wild + %d hatchery populations, %d groups, %d individuals (%s family)",
		len(d.Loci), d.NumWild(), len(d.Hatchery), d.NumGroups(), d.NumInds(), d.FamilyKind(),
	)

	cfg := sampler.Config{
		Reps:     repCount,
		Burn:     burnCount,
		Thin:     thinCount,
		Chains:   chainCount,
		Adapt:    adaptCount,
		KeepBurn: keepBurn,
		CondGSI:  !fullBayes,
		Seed:     randomSeed,
	}

	var mon *monitor
	if monitorAddr != "" {
		mon = &monitor{}
		if err := mon.Start(monitorAddr, cfg); err != nil {
			return err
		}
		cfg.Progress = mon.Progress
		defer mon.Stop()
	}

	start := time.Now()
	res, err := sampler.RunChains(d, cfg)
	if err != nil {
		return err
	}
	log.Infof("%d/%d chains completed in %v (%d retained samples each)",
		res.Completed(), cfg.Chains, time.Since(start), res.Cfg.Retained())

	if err := report(os.Stdout, d, res); err != nil {
		return err
	}

	if traceFile != "" {
		f, err := os.Create(traceFile)
		if err != nil {
			return errors.Wrapf(err, "Could not create trace file %s", traceFile)
		}
		defer f.Close()
		if err := writeTraceTSV(f, d, res); err != nil {
			return err
		}
		log.Infof("Wrote trace to %s", traceFile)
	}

	return nil
}

// report prints the per-group posterior summary table plus the joint
// diagnostic and, under the pathogen family, the prevalence summaries.
func report(w *os.File, d *model.Dataset, res *sampler.Run) error {
	asm, err := res.Assemble()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "group\tmean\tmedian\tsd\tp5\tp95\tpsrf\tess\n")
	for _, s := range asm.Groups {
		printSummary(w, s)
	}

	fmt.Fprintf(w, "# multivariate psrf: %s\n", naFmt(asm.MPSRF))

	for i, e := range res.Errs {
		if e != nil {
			fmt.Fprintf(w, "# chain %d missing: %v\n", i+1, e)
		}
	}

	if len(asm.Nuisance) > 0 {
		fmt.Fprintf(w, "parameter\tmean\tmedian\tsd\tp5\tp95\tpsrf\tess\n")
		for _, s := range asm.Nuisance {
			printSummary(w, s)
		}
	}

	return nil
}

func printSummary(w *os.File, s *diag.Summary) {
	fmt.Fprintf(w, "%s\t%.5f\t%.5f\t%.5f\t%.5f\t%.5f\t%s\t%.1f\n",
		s.Name, s.Mean, s.Median, s.SD, s.P5, s.P95, naFmt(s.PSRF), s.ESS)
}

func naFmt(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}

// writeTraceTSV emits the full multi-chain, multi-iteration trace: group
// mixing proportions and per-individual assignments, tagged by chain id and
// iteration.
func writeTraceTSV(w *os.File, d *model.Dataset, res *sampler.Run) error {
	fmt.Fprintf(w, "chain\titer")
	for g := 0; g < d.NumGroups(); g++ {
		fmt.Fprintf(w, "\t%s", d.GroupName[g])
	}
	for _, name := range res.NuisanceNames() {
		fmt.Fprintf(w, "\t%s", name)
	}
	for m := 0; m < d.NumInds(); m++ {
		fmt.Fprintf(w, "\tind%d", m+1)
	}
	fmt.Fprintf(w, "\n")

	for _, t := range res.Traces {
		if t == nil {
			continue
		}
		for i := 0; i < t.Len(); i++ {
			fmt.Fprintf(w, "%d\t%d", t.ChainID, t.Iters[i])
			for _, v := range trace.GroupPi(t.Pi[i], d.GroupIDs, d.NumGroups()) {
				fmt.Fprintf(w, "\t%.6f", v)
			}
			if t.Aux != nil {
				for _, v := range t.Aux[i] {
					fmt.Fprintf(w, "\t%.6f", v)
				}
			}
			for _, p := range t.Assign[i] {
				fmt.Fprintf(w, "\t%s", d.PopName(p))
			}
			fmt.Fprintf(w, "\n")
		}
	}

	return nil
}
