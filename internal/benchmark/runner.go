package benchmark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/shopspring/decimal"
)

// TrialRunner runs the external program once for a thread count and returns
// the speedup it reported. A *TrialFailure means the trial is discarded; any
// other error is fatal to the sweep.
type TrialRunner interface {
	RunTrial(ctx context.Context, threads int) (decimal.Decimal, error)
}

// ProcessRunner implements TrialRunner by spawning a child process.
type ProcessRunner struct {
	// Program is the command prefix, e.g. ["./mandelbrot"] or
	// ["taskset", "-c", "0-15", "./mandelbrot"].
	Program []string
	// Mode is passed as the -v argument.
	Mode int
	// Timeout bounds a single trial. Zero waits forever.
	Timeout time.Duration
	// Stderr receives the child's standard error. Nil means os.Stderr.
	Stderr io.Writer
}

// NewProcessRunner splits a shell-style command string into a ProcessRunner.
func NewProcessRunner(program string, mode int, timeout time.Duration) (*ProcessRunner, error) {
	parts, err := shellquote.Split(program)
	if err != nil {
		return nil, fmt.Errorf("invalid program %q: %w", program, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: program must not be empty", ErrInvalidConfiguration)
	}
	return &ProcessRunner{
		Program: parts,
		Mode:    mode,
		Timeout: timeout,
	}, nil
}

// Args returns the full argument vector for a trial with the given thread count.
func (r *ProcessRunner) Args(threads int) []string {
	args := make([]string, 0, len(r.Program)+4)
	args = append(args, r.Program...)
	return append(args, "-v", strconv.Itoa(r.Mode), "-t", strconv.Itoa(threads))
}

func (r *ProcessRunner) RunTrial(ctx context.Context, threads int) (decimal.Decimal, error) {
	if len(r.Program) == 0 {
		return decimal.Zero, fmt.Errorf("%w: program must not be empty", ErrInvalidConfiguration)
	}

	trialCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		trialCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := r.Args(threads)
	cmd := exec.CommandContext(trialCtx, args[0], args[1:]...)

	// Stdin stays nil (/dev/null) and ExtraFiles empty: the child only
	// inherits descriptors 0-2.
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	// A background child of the program may keep stdout open after the
	// program itself exited cleanly. The first line is already captured.
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() {
		err = nil
	}
	if ctx.Err() != nil {
		return decimal.Zero, ctx.Err()
	}
	if err != nil {
		if trialCtx.Err() != nil {
			return decimal.Zero, &TrialFailure{Threads: threads, Reason: ReasonTimeout, ExitCode: -1, Err: trialCtx.Err()}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return decimal.Zero, &TrialFailure{Threads: threads, Reason: ReasonExitStatus, ExitCode: exitErr.ExitCode()}
		}
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrLaunch, args[0], err)
	}

	speedup, err := ParseSpeedup(out.String())
	if err != nil {
		var failure *TrialFailure
		if errors.As(err, &failure) {
			failure.Threads = threads
		}
		return decimal.Zero, err
	}
	return speedup, nil
}

// ParseSpeedup reads the first line of a program's output as an exact decimal.
func ParseSpeedup(output string) (decimal.Decimal, error) {
	line, _, _ := strings.Cut(output, "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return decimal.Zero, &TrialFailure{Reason: ReasonEmptyOutput}
	}

	value, err := decimal.NewFromString(line)
	if err != nil {
		return decimal.Zero, &TrialFailure{Reason: ReasonMalformedOutput, Err: err}
	}
	if value.IsNegative() {
		return decimal.Zero, &TrialFailure{Reason: ReasonMalformedOutput, Err: fmt.Errorf("negative speedup %s", line)}
	}
	return value, nil
}
