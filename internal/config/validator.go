package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/kballard/go-shellquote"

	"speedsweep/internal/benchmark"
	"speedsweep/internal/render"
)

// Validate checks a Sweep and reports every problem in a single error.
func Validate(s Sweep) error {
	var errors []string

	if parts, err := shellquote.Split(s.Program); err != nil {
		errors = append(errors, fmt.Sprintf("program is not a valid command line: %v", err))
	} else if len(parts) == 0 {
		errors = append(errors, "program must not be empty")
	}

	if s.Trials <= 0 {
		errors = append(errors, fmt.Sprintf("trials must be positive, got: %d", s.Trials))
	}

	if len(s.Threads) > 0 {
		for _, t := range s.Threads {
			if t <= 0 {
				errors = append(errors, fmt.Sprintf("threads must be positive, got: %d", t))
			}
		}
	} else {
		if s.MinThreads <= 0 {
			errors = append(errors, fmt.Sprintf("min_threads must be positive, got: %d", s.MinThreads))
		}
		if s.MaxThreads <= s.MinThreads {
			errors = append(errors, fmt.Sprintf("max_threads must be greater than min_threads (%d), got: %d", s.MinThreads, s.MaxThreads))
		}
	}

	if _, err := benchmark.ParseDivisorPolicy(s.Divisor); err != nil {
		errors = append(errors, err.Error())
	}

	if s.TrialTimeout < 0 {
		errors = append(errors, fmt.Sprintf("trial_timeout must not be negative, got: %v", s.TrialTimeout))
	}

	if len(s.Render) == 0 {
		errors = append(errors, "at least one renderer is required")
	}
	for _, f := range s.Render {
		if !render.IsFormat(f) {
			errors = append(errors, fmt.Sprintf("unknown renderer %q (want one of %s)", f, strings.Join(render.Formats(), ", ")))
		}
	}

	if s.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(s.MetricsAddr); err != nil {
			errors = append(errors, fmt.Sprintf("metrics_addr must be host:port, got: %q", s.MetricsAddr))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(errors, "\n  "))
	}
	return nil
}
