package cmd

import (
	"expvar"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/pelmix/pelmix/sampler"
)

// monitor publishes run progress via the expvar package over HTTP so a long
// run can be watched from a browser or scraped.
type monitor struct {
	info    *expvar.Map
	stopped chan struct{}
	server  *http.Server
	started time.Time

	Chains     *expvar.Int
	Reps       *expvar.Int
	Burn       *expvar.Int
	Thin       *expvar.Int
	Iterations *expvar.Int
	RunTime    *expvar.Float
}

// Start begins the monitor
func (m *monitor) Start(addr string, cfg sampler.Config) error {
	if m.info != nil {
		return errors.Errorf("BUG: You may only start the process monitor once")
	}

	m.info = expvar.NewMap("pelmix-progress")
	m.stopped = make(chan struct{})
	m.started = time.Now()
	m.server = &http.Server{
		Addr: addr,
	}

	// Help the user and redirect to the only thing currently available:
	// the handler from the expvar package
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/debug/vars", http.StatusTemporaryRedirect)
	})

	m.Chains = expvar.NewInt("Chain-Count")
	m.Reps = expvar.NewInt("Iterations-Per-Chain")
	m.Burn = expvar.NewInt("Burn-In")
	m.Thin = expvar.NewInt("Thinning")
	m.Iterations = expvar.NewInt("Total-Iterations")
	m.RunTime = expvar.NewFloat("Run-Time-Secs")

	m.Chains.Set(int64(cfg.Chains))
	m.Reps.Set(int64(cfg.Adapt + cfg.Reps))
	m.Burn.Set(int64(cfg.Burn))
	m.Thin.Set(int64(cfg.Thin))

	go func() {
		defer close(m.stopped)
		if err := m.server.ListenAndServe(); err != http.ErrServerClosed {
			log.Warningf("Monitor server: %v", err)
		}
	}()

	return nil
}

// Progress is handed to the sampler config; it is called from every chain's
// goroutine, so it only touches expvar's atomic types.
func (m *monitor) Progress(chainID, iter int) {
	m.Iterations.Add(1)
	m.RunTime.Set(time.Since(m.started).Seconds())
}

// Stop shuts the monitor down and waits for the server to exit.
func (m *monitor) Stop() {
	if m.server == nil {
		return
	}
	m.server.Close()
	<-m.stopped
}
