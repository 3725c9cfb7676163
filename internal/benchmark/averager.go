package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTrials is the number of trials per configuration.
const DefaultTrials = 5

// DivisorPolicy selects the denominator of a configuration average.
type DivisorPolicy string

const (
	// DivideByAttempted divides by the configured trial count, so failed
	// trials pull the average down.
	DivideByAttempted DivisorPolicy = "attempted"
	// DivideBySucceeded divides by the number of trials that reported a value.
	DivideBySucceeded DivisorPolicy = "succeeded"
)

// ParseDivisorPolicy accepts "attempted" or "succeeded"; empty means attempted.
func ParseDivisorPolicy(s string) (DivisorPolicy, error) {
	switch DivisorPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DivideByAttempted:
		return DivideByAttempted, nil
	case DivideBySucceeded:
		return DivideBySucceeded, nil
	default:
		return "", fmt.Errorf("unknown divisor policy %q (want %q or %q)", s, DivideByAttempted, DivideBySucceeded)
	}
}

// Averager reduces repeated trials of one configuration to a rounded mean.
type Averager struct {
	Runner   TrialRunner
	Trials   int
	Divisor  DivisorPolicy
	Observer Observer
	Logger   *slog.Logger
}

// NewAverager returns an Averager with the default trial count and divisor.
func NewAverager(runner TrialRunner) *Averager {
	return &Averager{
		Runner:  runner,
		Trials:  DefaultTrials,
		Divisor: DivideByAttempted,
	}
}

// AverageFor runs the configured number of trials sequentially and returns
// their mean rounded to Precision digits. Failed trials contribute nothing to
// the sum. If every trial fails the average is zero and AllFailed is true.
func (a *Averager) AverageFor(ctx context.Context, threads int) (ConfigurationResult, error) {
	if threads < 1 {
		return ConfigurationResult{}, fmt.Errorf("%w: thread count must be positive, got %d", ErrInvalidConfiguration, threads)
	}
	if a.Trials < 1 {
		return ConfigurationResult{}, fmt.Errorf("%w: trials must be positive, got %d", ErrInvalidConfiguration, a.Trials)
	}
	logger := a.logger()

	sum := decimal.Zero
	succeeded := 0
	for i := 1; i <= a.Trials; i++ {
		start := time.Now()
		speedup, err := a.Runner.RunTrial(ctx, threads)
		elapsed := time.Since(start)

		if err != nil {
			var failure *TrialFailure
			if !errors.As(err, &failure) {
				return ConfigurationResult{}, err
			}
			logger.Debug("Trial discarded", "threads", threads, "trial", i, "reason", failure.Reason, "error", err)
			a.observeTrial(threads, string(failure.Reason), elapsed)
			continue
		}

		logger.Debug("Trial finished", "threads", threads, "trial", i, "speedup", speedup.String(), "elapsed", elapsed)
		a.observeTrial(threads, "success", elapsed)
		sum = sum.Add(speedup)
		succeeded++
	}

	result := ConfigurationResult{
		Threads:   threads,
		Average:   a.mean(sum, succeeded),
		Attempted: a.Trials,
		Succeeded: succeeded,
	}
	if a.Observer != nil {
		a.Observer.ObserveConfiguration(result)
	}
	return result, nil
}

func (a *Averager) mean(sum decimal.Decimal, succeeded int) decimal.Decimal {
	divisor := a.Trials
	if a.Divisor == DivideBySucceeded {
		divisor = succeeded
	}
	if divisor == 0 {
		return decimal.Zero.RoundBank(Precision)
	}
	return sum.Div(decimal.NewFromInt(int64(divisor))).RoundBank(Precision)
}

func (a *Averager) observeTrial(threads int, outcome string, elapsed time.Duration) {
	if a.Observer != nil {
		a.Observer.ObserveTrial(threads, outcome, elapsed)
	}
}

func (a *Averager) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
