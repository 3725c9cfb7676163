package benchmark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperBehaviorEnv = "SPEEDSWEEP_HELPER"

// TestHelperProcess stands in for the external benchmark program. It is only
// active when re-executed by helperRunner.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	if len(args) != 4 || args[0] != "-v" || args[2] != "-t" {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %v\n", args)
		os.Exit(2)
	}
	threads, _ := strconv.Atoi(args[3])

	behavior, value, _ := strings.Cut(os.Getenv(helperBehaviorEnv), ":")
	switch behavior {
	case "fixed":
		fmt.Println(value)
	case "threads":
		fmt.Printf("%d.0\n", threads)
	case "mode":
		fmt.Println(args[1])
	case "multiline":
		fmt.Println(value)
		fmt.Println("999")
	case "empty":
	case "garbage":
		fmt.Println("fast!")
	case "fail":
		os.Exit(3)
	case "hang":
		time.Sleep(30 * time.Second)
	case "alternate":
		// Odd-numbered calls succeed, even-numbered calls fail.
		path := os.Getenv("SPEEDSWEEP_HELPER_COUNTER")
		data, _ := os.ReadFile(path)
		n, _ := strconv.Atoi(strings.TrimSpace(string(data)))
		n++
		_ = os.WriteFile(path, []byte(strconv.Itoa(n)), 0644)
		if n%2 == 0 {
			os.Exit(1)
		}
		fmt.Println(value)
	default:
		fmt.Fprintf(os.Stderr, "unknown helper behavior %q\n", behavior)
		os.Exit(2)
	}
}

// helperRunner returns a ProcessRunner that re-executes the test binary as the
// benchmark program with the given behavior.
func helperRunner(t *testing.T, behavior string) *ProcessRunner {
	t.Helper()
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	t.Setenv(helperBehaviorEnv, behavior)
	if behavior == "alternate" || strings.HasPrefix(behavior, "alternate:") {
		t.Setenv("SPEEDSWEEP_HELPER_COUNTER", filepath.Join(t.TempDir(), "counter"))
	}
	return &ProcessRunner{
		Program: []string{os.Args[0], "-test.run=^TestHelperProcess$", "--"},
		Mode:    2,
		Stderr:  io.Discard,
	}
}

func TestNewProcessRunner(t *testing.T) {
	r, err := NewProcessRunner(`taskset -c "0-15" ./mandelbrot`, 2, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"taskset", "-c", "0-15", "./mandelbrot"}, r.Program)
	assert.Equal(t, time.Second, r.Timeout)
	assert.Equal(t,
		[]string{"taskset", "-c", "0-15", "./mandelbrot", "-v", "2", "-t", "8"},
		r.Args(8))

	_, err = NewProcessRunner("   ", 2, 0)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewProcessRunner(`./mandelbrot "unterminated`, 2, 0)
	assert.Error(t, err)
}

func TestParseSpeedup(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
		reason FailureReason
	}{
		{name: "plain", output: "3.14159\n", want: "3.14159"},
		{name: "whitespace", output: "  2.5  \r\n", want: "2.5"},
		{name: "no newline", output: "7", want: "7"},
		{name: "first line only", output: "1.25\n9.99\n", want: "1.25"},
		{name: "empty", output: "", reason: ReasonEmptyOutput},
		{name: "blank line", output: "\n4.0\n", reason: ReasonEmptyOutput},
		{name: "garbage", output: "speedup: 3x\n", reason: ReasonMalformedOutput},
		{name: "negative", output: "-1.5\n", reason: ReasonMalformedOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpeedup(tt.output)
			if tt.reason != "" {
				var failure *TrialFailure
				require.ErrorAs(t, err, &failure)
				assert.Equal(t, tt.reason, failure.Reason)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestProcessRunner_Success(t *testing.T) {
	r := helperRunner(t, "fixed:1.23456")

	got, err := r.RunTrial(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "1.23456", got.String())
}

func TestProcessRunner_PassesModeAndThreads(t *testing.T) {
	r := helperRunner(t, "threads")
	got, err := r.RunTrial(context.Background(), 12)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(12).Equal(got))

	r = helperRunner(t, "mode")
	r.Mode = 7
	got, err = r.RunTrial(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(7).Equal(got))
}

func TestProcessRunner_ReadsFirstLineOnly(t *testing.T) {
	r := helperRunner(t, "multiline:2.75")
	got, err := r.RunTrial(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "2.75", got.String())
}

func TestProcessRunner_BackgroundChildHoldsStdout(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	// The program exits 0 right away but leaves a child holding stdout open.
	r := &ProcessRunner{
		Program: []string{sh, "-c", "echo 2.5; sleep 3 & exit 0", "sh"},
		Mode:    2,
		Stderr:  io.Discard,
	}

	got, err := r.RunTrial(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "2.5", got.String())
}

func TestProcessRunner_TrialFailures(t *testing.T) {
	tests := []struct {
		behavior string
		reason   FailureReason
	}{
		{behavior: "fail", reason: ReasonExitStatus},
		{behavior: "empty", reason: ReasonEmptyOutput},
		{behavior: "garbage", reason: ReasonMalformedOutput},
	}

	for _, tt := range tests {
		t.Run(tt.behavior, func(t *testing.T) {
			r := helperRunner(t, tt.behavior)
			_, err := r.RunTrial(context.Background(), 3)

			var failure *TrialFailure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, tt.reason, failure.Reason)
			assert.Equal(t, 3, failure.Threads)
			assert.NotErrorIs(t, err, ErrLaunch)
		})
	}
}

func TestProcessRunner_ExitCode(t *testing.T) {
	r := helperRunner(t, "fail")
	_, err := r.RunTrial(context.Background(), 2)

	var failure *TrialFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 3, failure.ExitCode)
	assert.Contains(t, err.Error(), "exit code 3")
}

func TestProcessRunner_Timeout(t *testing.T) {
	r := helperRunner(t, "hang")
	r.Timeout = 200 * time.Millisecond

	start := time.Now()
	_, err := r.RunTrial(context.Background(), 2)

	var failure *TrialFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, ReasonTimeout, failure.Reason)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestProcessRunner_ParentCancelled(t *testing.T) {
	r := helperRunner(t, "hang")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	_, err := r.RunTrial(ctx, 2)
	assert.ErrorIs(t, err, context.Canceled)

	var failure *TrialFailure
	assert.False(t, errors.As(err, &failure), "cancellation must not be absorbed as a trial failure")
}

func TestProcessRunner_LaunchFailure(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing executable", func(t *testing.T) {
		r := &ProcessRunner{Program: []string{filepath.Join(dir, "does-not-exist")}, Stderr: io.Discard}
		_, err := r.RunTrial(context.Background(), 2)
		assert.ErrorIs(t, err, ErrLaunch)
	})

	t.Run("not executable", func(t *testing.T) {
		path := filepath.Join(dir, "plain.txt")
		require.NoError(t, os.WriteFile(path, []byte("1.0\n"), 0644))

		r := &ProcessRunner{Program: []string{path}, Stderr: io.Discard}
		_, err := r.RunTrial(context.Background(), 2)
		assert.ErrorIs(t, err, ErrLaunch)
	})

	t.Run("empty program", func(t *testing.T) {
		r := &ProcessRunner{}
		_, err := r.RunTrial(context.Background(), 2)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
}
