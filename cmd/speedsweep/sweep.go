package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"speedsweep/internal/benchmark"
	"speedsweep/internal/config"
	"speedsweep/internal/render"
	"speedsweep/internal/telemetry"
)

// newRunnerFunc builds the trial runner for a sweep. Tests replace it.
var newRunnerFunc = func(cfg config.Sweep, stderr io.Writer) (benchmark.TrialRunner, error) {
	r, err := benchmark.NewProcessRunner(cfg.Program, cfg.Mode, cfg.TrialTimeout)
	if err != nil {
		return nil, err
	}
	r.Stderr = stderr
	return r, nil
}

// sweepFlags maps each flag to its configuration key.
var sweepFlags = map[string]string{
	"program":       config.KeyProgram,
	"mode":          config.KeyMode,
	"min-threads":   config.KeyMinThreads,
	"max-threads":   config.KeyMaxThreads,
	"threads":       config.KeyThreads,
	"trials":        config.KeyTrials,
	"divisor":       config.KeyDivisor,
	"trial-timeout": config.KeyTrialTimeout,
	"render":        config.KeyRender,
	"out":           config.KeyOut,
	"metrics-addr":  config.KeyMetricsAddr,
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the benchmark program across a range of thread counts",
		Long: `Runs "<program> -v <mode> -t <threads>" several times for every thread
count, reads the speedup the program prints on its first line of output, and
reports the average per thread count. Trials that exit non-zero or print
something that is not a number are discarded.`,
		Args: cobra.NoArgs,
		RunE: runSweep,
	}

	d := config.Default()
	f := cmd.Flags()
	f.String("program", d.Program, "Benchmark program, split with shell quoting rules")
	f.Int("mode", d.Mode, "Value passed to the program as -v")
	f.Int("min-threads", d.MinThreads, "First thread count of the range")
	f.Int("max-threads", d.MaxThreads, "End of the thread range (exclusive)")
	f.IntSlice("threads", nil, "Explicit thread counts; overrides the range")
	f.Int("trials", d.Trials, "Trials per thread count")
	f.String("divisor", d.Divisor, "Average divisor: attempted or succeeded")
	f.Duration("trial-timeout", 0, "Kill a trial after this long (0 waits forever)")
	f.StringSlice("render", d.Render, "Renderers to use: "+strings.Join(render.Formats(), ", "))
	f.String("out", d.Out, "Base path for file renderers; the format's extension is appended")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address during the sweep")

	for name, key := range sweepFlags {
		viper.BindPFlag(key, f.Lookup(name))
	}
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromViper()
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	divisor, err := benchmark.ParseDivisorPolicy(cfg.Divisor)
	if err != nil {
		return err
	}

	renderer, err := render.NewMulti(cfg.Render, cfg.Out, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	runner, err := newRunnerFunc(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	metrics := telemetry.NewMetrics()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := telemetry.StartMetricsServer(ctx, cfg.MetricsAddr, metrics); err != nil {
				telemetry.LogError("Metrics server failed", err, "addr", cfg.MetricsAddr)
			}
		}()
	}

	averager := benchmark.NewAverager(runner)
	averager.Trials = cfg.Trials
	averager.Divisor = divisor
	averager.Observer = metrics

	configs := cfg.Configurations()
	telemetry.LogInfo("Starting sweep",
		"program", cfg.Program,
		"mode", cfg.Mode,
		"configurations", len(configs),
		"trials", cfg.Trials,
		"divisor", string(divisor))

	result, err := benchmark.NewSweeper(averager).Sweep(ctx, configs)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	return renderer.Render(result)
}
