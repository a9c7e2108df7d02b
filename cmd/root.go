package cmd

import (
	"fmt"
	"os"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"
)

var log = logging.MustGetLogger("cmd")
var formatter = logging.MustStringFormatter(`%{level:.4s} %{module}: %{message}`)

var (
	dataFile    string
	randomSeed  int64
	chainCount  int
	repCount    int
	burnCount   int
	thinCount   int
	adaptCount  int
	keepBurn    bool
	fullBayes   bool
	logLevel    string
	monitorAddr string
	traceFile   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pelmix",
	Short: "Bayesian mixed-stock composition estimation",
	Long: `pelmix estimates the natal-origin composition of a mixed sample of
biological specimens against a genetic baseline, using the Pella-Masuda
hierarchical Bayesian mixture model. Among other features:

  - A collapsed-conjugate Gibbs sampler with latent origin assignment
  - Optional isotope (Gaussian) or pathogen (Beta-Binomial) covariates
  - Reproducible parallel chains with PSRF and ESS diagnostics
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.SetFormatter(formatter)
		logging.SetBackend(logging.NewLogBackend(os.Stderr, "", 0))

		level, err := logging.LogLevel(logLevel)
		if err != nil {
			return err
		}
		logging.SetLevel(level, "cmd")
		logging.SetLevel(level, "sampler")
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentFlags().StringVarP(&dataFile, "data", "d", "", "Dataset file (JSON) from the data-preparation step")
	rootCmd.PersistentFlags().Int64VarP(&randomSeed, "seed", "r", 1, "Random seed for the per-chain streams")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (debug|info|warning|error)")

	rootCmd.PersistentFlags().IntVarP(&chainCount, "chains", "c", 1, "Number of independent chains")
	rootCmd.PersistentFlags().IntVarP(&repCount, "reps", "n", 1000, "Sampling iterations per chain (includes burn-in)")
	rootCmd.PersistentFlags().IntVarP(&burnCount, "burn", "b", 500, "Burn-in iterations")
	rootCmd.PersistentFlags().IntVarP(&thinCount, "thin", "t", 1, "Thinning interval")
	rootCmd.PersistentFlags().IntVarP(&adaptCount, "adapt", "a", 0, "Adaptation iterations (full-Bayes mode only)")
	rootCmd.PersistentFlags().BoolVar(&keepBurn, "keep-burn", false, "Retain burn-in samples in the trace")
	rootCmd.PersistentFlags().BoolVar(&fullBayes, "full-bayes", false, "Full joint inference over allele frequencies (default is conditional GSI)")

	rootCmd.PersistentFlags().StringVar(&monitorAddr, "monitor", "", "Address for the expvar progress monitor (e.g. :8000)")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "File for the TSV trace of group proportions and assignments")

	rootCmd.MarkPersistentFlagRequired("data")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
