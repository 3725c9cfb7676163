package benchmark

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Precision is the number of fractional digits kept in a configuration average.
const Precision = 3

var (
	// ErrLaunch marks a child process that could not be started at all.
	ErrLaunch = errors.New("failed to launch benchmark program")
	// ErrInvalidConfiguration is returned for non-positive thread or trial counts.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// FailureReason classifies why a single trial was discarded.
type FailureReason string

const (
	ReasonExitStatus      FailureReason = "exit_status"
	ReasonTimeout         FailureReason = "timeout"
	ReasonEmptyOutput     FailureReason = "empty_output"
	ReasonMalformedOutput FailureReason = "malformed_output"
)

// TrialFailure is a trial that ran but produced no usable speedup.
// It is absorbed by the Averager and never aborts a sweep.
type TrialFailure struct {
	Threads  int
	Reason   FailureReason
	ExitCode int
	Err      error
}

func (f *TrialFailure) Error() string {
	msg := fmt.Sprintf("trial with %d threads failed (%s)", f.Threads, f.Reason)
	if f.Reason == ReasonExitStatus {
		msg = fmt.Sprintf("%s: exit code %d", msg, f.ExitCode)
	}
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *TrialFailure) Unwrap() error {
	return f.Err
}

// ConfigurationResult is the rounded mean speedup for one thread count.
type ConfigurationResult struct {
	Threads   int             `json:"threads"`
	Average   decimal.Decimal `json:"average"`
	Attempted int             `json:"attempted"`
	Succeeded int             `json:"succeeded"`
}

// AllFailed reports whether the average is zero only because no trial succeeded.
func (r ConfigurationResult) AllFailed() bool {
	return r.Succeeded == 0
}

// Point is one (threads, speedup) pair handed to a renderer.
type Point struct {
	X int
	Y decimal.Decimal
}

// SweepResult pairs the swept configurations with their averages.
// Configurations, Averages and Results always have the same length and index i
// of each refers to the same configuration.
type SweepResult struct {
	Configurations []int                 `json:"configurations"`
	Averages       []decimal.Decimal     `json:"averages"`
	Results        []ConfigurationResult `json:"results"`
	StartedAt      time.Time             `json:"started_at"`
	Elapsed        time.Duration         `json:"elapsed"`
}

// Points returns the ordered (x, y) pairs of the sweep.
func (s SweepResult) Points() []Point {
	points := make([]Point, len(s.Configurations))
	for i, threads := range s.Configurations {
		points[i] = Point{X: threads, Y: s.Averages[i]}
	}
	return points
}

// Len returns the number of configurations in the sweep.
func (s SweepResult) Len() int {
	return len(s.Configurations)
}

// Observer receives trial and configuration outcomes, e.g. for metrics.
type Observer interface {
	ObserveTrial(threads int, outcome string, elapsed time.Duration)
	ObserveConfiguration(result ConfigurationResult)
}
