// Package scenario sequences the harness's demonstration scenarios: raw
// interleaving, guarded vs. unguarded counting, gate coordination, pooled
// dispatch with induced faults, priority-tagged workers, and one explicitly
// labeled busy-wait anti-pattern.
//
// Scenarios are independently resettable: each run constructs its own
// primitives, and a fault inside one scenario is recovered and reported
// without aborting the others.
package scenario

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/threadworks/harness/internal/logx"
	"github.com/threadworks/harness/internal/report"
	"github.com/threadworks/harness/worker"
)

// Config carries the tunables shared by the scenarios. The zero value is not
// usable; start from Defaults.
type Config struct {
	// Workers is N: concurrent incrementers in the counter scenario.
	Workers int
	// Increments is M: increments per worker; the guarded run must land on
	// exactly Workers*Increments.
	Increments int
	// Tasks is K: units submitted in the pool scenario.
	Tasks int
	// PoolSize is P: pool workers in the pool scenario, deliberately < K.
	PoolSize int
	// Faults is the number of induced-fault units in the pool scenario.
	Faults int
	// Lines is R: lines each interleaving worker emits.
	Lines int
	// ShowProgress enables the guarded-run progress bar.
	ShowProgress bool

	Log *logx.Logger
	Out io.Writer
}

// Defaults returns the configuration the CLI starts from.
func Defaults() *Config {
	return &Config{
		Workers:    3,
		Increments: 1000,
		Tasks:      20,
		PoolSize:   4,
		Faults:     5,
		Lines:      20,
		Log:        logx.Discard(),
		Out:        os.Stdout,
	}
}

// Result is a scenario's observational output: reported, never asserted.
type Result struct {
	Notes []string
}

func (r *Result) notef(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Scenario is one named, independently runnable demonstration.
type Scenario struct {
	Name    string
	Summary string
	Run     func(ctx context.Context, cfg *Config) (Result, error)
}

// All returns every scenario in presentation order.
func All() []Scenario {
	return []Scenario{
		{
			Name:    "interleave",
			Summary: "two workers emit unguarded output: nondeterministic order, deterministic total",
			Run:     runInterleave,
		},
		{
			Name:    "counter",
			Summary: "guarded increments land exactly on N*M; unguarded increments lose updates",
			Run:     runCounter,
		},
		{
			Name:    "gate",
			Summary: "a waiter started before Open makes no progress until the gate opens",
			Run:     runGate,
		},
		{
			Name:    "pool",
			Summary: "induced faults surface on their tokens without sinking the pool",
			Run:     runPool,
		},
		{
			Name:    "priority",
			Summary: "equal work under different priority hints; order observed, never asserted",
			Run:     runPriority,
		},
		{
			Name:    "spinwait",
			Summary: "ANTI-PATTERN: busy-waiting on a flag vs. blocking on a gate",
			Run:     runSpinwait,
		},
	}
}

// Runner drives a set of scenarios and collects their outcomes.
type Runner struct {
	cfg *Config
}

// NewRunner creates a runner over cfg. A nil cfg uses Defaults.
func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = Defaults()
	}
	if cfg.Log == nil {
		cfg.Log = logx.Discard()
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &Runner{cfg: cfg}
}

// Run executes the given scenarios in order and returns one outcome each.
// An empty filter runs everything. A panic inside a scenario is captured as
// that scenario's fault; the remaining scenarios still run.
func (r *Runner) Run(ctx context.Context, names []string) []report.Outcome {
	var outcomes []report.Outcome
	for _, sc := range selectScenarios(names) {
		report.SectionHeader(r.cfg.Out, sc.Name, sc.Summary)

		start := time.Now()
		res, err := r.runOne(ctx, sc)
		out := report.Outcome{
			Scenario: sc.Name,
			Summary:  sc.Summary,
			Duration: time.Since(start),
			Notes:    res.Notes,
			Err:      err,
		}

		report.RenderNotes(r.cfg.Out, out)
		if err != nil {
			r.cfg.Log.Errorf("scenario %s: %v", sc.Name, err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// runOne runs a single scenario behind the same recovery boundary the
// workers use, so a scenario-level panic is an outcome, not a crash.
func (r *Runner) runOne(ctx context.Context, sc Scenario) (Result, error) {
	var res Result
	err := worker.Run(ctx, sc.Name, func(ctx context.Context) error {
		var err error
		res, err = sc.Run(ctx, r.cfg)
		return err
	})
	return res, err
}

func selectScenarios(names []string) []Scenario {
	all := All()
	if len(names) == 0 {
		return all
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var picked []Scenario
	for _, sc := range all {
		if wanted[sc.Name] {
			picked = append(picked, sc)
		}
	}
	return picked
}
