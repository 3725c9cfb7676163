package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"speedsweep/internal/benchmark"
)

// Configuration keys, shared by flags, environment and config file.
const (
	KeyProgram      = "program"
	KeyMode         = "mode"
	KeyMinThreads   = "min_threads"
	KeyMaxThreads   = "max_threads"
	KeyThreads      = "threads"
	KeyTrials       = "trials"
	KeyDivisor      = "divisor"
	KeyTrialTimeout = "trial_timeout"
	KeyRender       = "render"
	KeyOut          = "out"
	KeyMetricsAddr  = "metrics_addr"
	KeyVerbose      = "verbose"
	KeyQuiet        = "quiet"
	KeyLogFile      = "log_file"
)

// Defaults for a sweep with no overrides.
const (
	DefaultProgram = "./mandelbrot"
	DefaultMode    = 2
	DefaultOut     = "speedup"
)

// DefaultRender lists the renderers used when none are configured.
var DefaultRender = []string{"text", "chart"}

// Sweep is the typed configuration for one sweep.
type Sweep struct {
	Program      string
	Mode         int
	MinThreads   int
	MaxThreads   int
	Threads      []int
	Trials       int
	Divisor      string
	TrialTimeout time.Duration
	Render       []string
	Out          string
	MetricsAddr  string
}

// Default returns the configuration used when nothing is overridden.
func Default() Sweep {
	return Sweep{
		Program:    DefaultProgram,
		Mode:       DefaultMode,
		MinThreads: benchmark.DefaultMinThreads,
		MaxThreads: benchmark.DefaultMaxThreads,
		Trials:     benchmark.DefaultTrials,
		Divisor:    string(benchmark.DivideByAttempted),
		Render:     append([]string(nil), DefaultRender...),
		Out:        DefaultOut,
	}
}

// Configurations returns the explicit thread list if one is set, otherwise the
// [MinThreads, MaxThreads) range.
func (s Sweep) Configurations() []int {
	if len(s.Threads) > 0 {
		return append([]int(nil), s.Threads...)
	}
	return benchmark.Range(s.MinThreads, s.MaxThreads)
}

// SetDefaults registers every default with viper.
func SetDefaults() {
	d := Default()
	viper.SetDefault(KeyProgram, d.Program)
	viper.SetDefault(KeyMode, d.Mode)
	viper.SetDefault(KeyMinThreads, d.MinThreads)
	viper.SetDefault(KeyMaxThreads, d.MaxThreads)
	viper.SetDefault(KeyThreads, []int{})
	viper.SetDefault(KeyTrials, d.Trials)
	viper.SetDefault(KeyDivisor, d.Divisor)
	viper.SetDefault(KeyTrialTimeout, d.TrialTimeout)
	viper.SetDefault(KeyRender, d.Render)
	viper.SetDefault(KeyOut, d.Out)
	viper.SetDefault(KeyMetricsAddr, "")
	viper.SetDefault(KeyVerbose, false)
	viper.SetDefault(KeyQuiet, false)
	viper.SetDefault(KeyLogFile, "")
}

// Load initializes the configuration from file and environment variables.
// A missing default config file is not an error; a missing explicit one is.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("speedsweep")
	}

	viper.SetEnvPrefix("SPEEDSWEEP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	return nil
}

// FromViper builds a Sweep from the values currently held by viper.
func FromViper() (Sweep, error) {
	threads, err := intList(viper.Get(KeyThreads))
	if err != nil {
		return Sweep{}, fmt.Errorf("invalid %s: %w", KeyThreads, err)
	}

	return Sweep{
		Program:      viper.GetString(KeyProgram),
		Mode:         viper.GetInt(KeyMode),
		MinThreads:   viper.GetInt(KeyMinThreads),
		MaxThreads:   viper.GetInt(KeyMaxThreads),
		Threads:      threads,
		Trials:       viper.GetInt(KeyTrials),
		Divisor:      viper.GetString(KeyDivisor),
		TrialTimeout: viper.GetDuration(KeyTrialTimeout),
		Render:       splitList(viper.GetStringSlice(KeyRender)),
		Out:          viper.GetString(KeyOut),
		MetricsAddr:  viper.GetString(KeyMetricsAddr),
	}, nil
}

// splitList flattens entries such as "text,png" coming from env vars.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

// intList accepts the shapes viper hands back for a list of ints: a flag's
// []int, a YAML sequence, or a comma separated string from the environment.
func intList(v any) ([]int, error) {
	var parts []string
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []int:
		if len(val) == 0 {
			return nil, nil
		}
		return val, nil
	case []any:
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
	case []string:
		parts = splitList(val)
	case string:
		parts = splitList([]string{strings.Trim(val, "[]")})
	case int:
		return []int{val}, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}

	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid int %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
