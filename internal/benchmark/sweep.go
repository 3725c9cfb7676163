package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Default thread range: 2 through 32.
const (
	DefaultMinThreads = 2
	DefaultMaxThreads = 33
)

// Range returns the thread counts from low (inclusive) to high (exclusive).
func Range(low, high int) []int {
	if high <= low {
		return []int{}
	}
	out := make([]int, 0, high-low)
	for t := low; t < high; t++ {
		out = append(out, t)
	}
	return out
}

// Sweeper runs an Averager over a list of configurations.
type Sweeper struct {
	Averager *Averager
	Logger   *slog.Logger
}

func NewSweeper(averager *Averager) *Sweeper {
	return &Sweeper{Averager: averager}
}

// Sweep averages each configuration in order. The returned slices are indexed
// like configurations. A configuration whose trials all failed does not stop
// the sweep; any fatal error does, and no partial result is returned.
func (s *Sweeper) Sweep(ctx context.Context, configurations []int) (SweepResult, error) {
	for _, threads := range configurations {
		if threads < 1 {
			return SweepResult{}, fmt.Errorf("%w: thread count must be positive, got %d", ErrInvalidConfiguration, threads)
		}
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result := SweepResult{
		Configurations: make([]int, 0, len(configurations)),
		Averages:       make([]decimal.Decimal, 0, len(configurations)),
		Results:        make([]ConfigurationResult, 0, len(configurations)),
		StartedAt:      time.Now(),
	}

	for _, threads := range configurations {
		res, err := s.Averager.AverageFor(ctx, threads)
		if err != nil {
			return SweepResult{}, fmt.Errorf("configuration with %d threads: %w", threads, err)
		}
		if res.AllFailed() {
			logger.Warn("All trials failed", "threads", threads, "trials", res.Attempted)
		} else {
			logger.Info("Configuration complete", "threads", threads, "average", res.Average.StringFixed(Precision), "succeeded", res.Succeeded, "attempted", res.Attempted)
		}
		result.Configurations = append(result.Configurations, threads)
		result.Averages = append(result.Averages, res.Average)
		result.Results = append(result.Results, res)
	}

	result.Elapsed = time.Since(result.StartedAt)
	return result, nil
}
