// Command harness runs the thread-coordination demonstration scenarios:
// mutual exclusion around a shared counter, level-triggered gate signaling,
// pooled dispatch with fault isolation, and advisory worker priorities.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/threadworks/harness/internal/logx"
	"github.com/threadworks/harness/internal/report"
	"github.com/threadworks/harness/scenario"
)

var (
	flagWorkers    int
	flagIncrements int
	flagTasks      int
	flagPoolSize   int
	flagFaults     int
	flagScenarios  []string
	flagVerbose    bool
	flagNoProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "harness",
	Short: "Run the thread-coordination demonstration scenarios",
	Long: `harness exercises correct concurrency idioms in one process: guarded
shared-counter mutation, level-triggered gate signaling, a fixed-size worker
pool with per-submission completion tokens and fault isolation, and advisory
worker priorities. Each scenario reports independently; one scenario's fault
never aborts the others.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		level := logx.LevelWarn
		if flagVerbose {
			level = logx.LevelDebug
		}

		cfg := scenario.Defaults()
		cfg.Workers = flagWorkers
		cfg.Increments = flagIncrements
		cfg.Tasks = flagTasks
		cfg.PoolSize = flagPoolSize
		cfg.Faults = flagFaults
		cfg.ShowProgress = !flagNoProgress
		cfg.Log = logx.New(level)
		cfg.Out = cmd.OutOrStdout()

		outcomes := scenario.NewRunner(cfg).Run(ctx, flagScenarios)

		report.SectionHeader(cfg.Out, "summary")
		if faulted := report.RenderTable(cfg.Out, outcomes); faulted > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func bindFlags(fs *flag.FlagSet) {
	defaults := scenario.Defaults()
	fs.IntVar(&flagWorkers, "workers", defaults.Workers, "incrementer workers (N) in the counter scenario")
	fs.IntVar(&flagIncrements, "increments", defaults.Increments, "increments per worker (M) in the counter scenario")
	fs.IntVar(&flagTasks, "tasks", defaults.Tasks, "units submitted (K) in the pool scenario")
	fs.IntVar(&flagPoolSize, "pool-size", defaults.PoolSize, "pool workers (P) in the pool scenario")
	fs.IntVar(&flagFaults, "faults", defaults.Faults, "induced-fault units in the pool scenario")
	fs.StringSliceVar(&flagScenarios, "scenario", nil, "scenarios to run (repeatable; default all)")
	fs.BoolVarP(&flagVerbose, "verbose", "v", false, "show per-worker diagnostics")
	fs.BoolVar(&flagNoProgress, "no-progress", false, "disable the increment progress bar")
}

func init() {
	bindFlags(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
