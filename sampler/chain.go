package sampler

import (
	"sync"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/pelmix/pelmix/model"
	"github.com/pelmix/pelmix/rand"
	"github.com/pelmix/pelmix/trace"
)

var log = logging.MustGetLogger("sampler")

// Run is the outcome of a full multi-chain run. Traces and Errs are indexed
// by chain (0-based); a failed chain leaves a nil trace and a non-nil error,
// an explicit marker rather than an aborted run.
type Run struct {
	Cfg    Config
	Data   *model.Dataset
	Traces []*trace.Trace
	Errs   []error
}

// Completed returns the number of chains that finished.
func (r *Run) Completed() int {
	n := 0
	for _, t := range r.Traces {
		if t != nil {
			n++
		}
	}
	return n
}

// NuisanceNames returns the display names of the family's nuisance
// parameters, nil when the family has none.
func (r *Run) NuisanceNames() []string {
	return NewFamily(r.Data).NuisanceNames()
}

// RunChains validates the inputs, builds the shared priors and initial state,
// and executes cfg.Chains independent chains in parallel. Chains never
// communicate; the call blocks on the join barrier until every chain has run
// to completion or failed.
func RunChains(d *model.Dataset, cfg Config) (*Run, error) {
	if err := d.Check(); err != nil {
		return nil, errors.Wrap(err, "Invalid dataset")
	}
	cfg = cfg.Norm()
	if err := cfg.Check(); err != nil {
		return nil, errors.Wrap(err, "Invalid run parameters")
	}

	priors := model.BuildPriors(d)

	// Stream 0 seeds the shared initial imputation; streams 1..N drive the
	// chains. No chain's stream is ever advanced by another's draws.
	streams, err := rand.NewStreams(cfg.Seed, cfg.Chains+1)
	if err != nil {
		return nil, err
	}

	init, err := NewInitialState(d, priors, streams[0])
	if err != nil {
		return nil, errors.Wrap(err, "Could not build initial state")
	}

	chains := make([]*Chain, cfg.Chains)
	for i := range chains {
		chains[i] = NewChain(i+1, d, priors, init, cfg, streams[i+1])
	}

	res := &Run{
		Cfg:    cfg,
		Data:   d,
		Traces: make([]*trace.Trace, cfg.Chains),
		Errs:   make([]error, cfg.Chains),
	}

	var wg sync.WaitGroup
	for i, c := range chains {
		wg.Add(1)
		go func(i int, c *Chain) {
			defer wg.Done()
			res.Errs[i] = c.Run()
		}(i, c)
	}
	wg.Wait()

	failed := 0
	for i, c := range chains {
		if res.Errs[i] != nil {
			failed++
			log.Warningf("%v", res.Errs[i])
			continue
		}
		res.Traces[i] = c.Trace
	}

	if failed == cfg.Chains {
		return nil, errors.Errorf("All %d chains failed; first error: %v", cfg.Chains, res.Errs[0])
	}
	if failed > 0 {
		log.Warningf("%d of %d chains failed; results cover the completed chains only", failed, cfg.Chains)
	}

	return res, nil
}
