// Package render turns a sweep result into something a person can look at:
// a text summary, a terminal chart, an image, or a data file. The benchmark
// packages never depend on it.
package render

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"speedsweep/internal/benchmark"
)

// Renderer consumes the two parallel sequences of a sweep.
type Renderer interface {
	Render(result benchmark.SweepResult) error
}

const (
	FormatText  = "text"
	FormatChart = "chart"
	FormatPNG   = "png"
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatYAML  = "yaml"
)

// ErrNoData is returned by renderers that cannot draw an empty sweep.
var ErrNoData = errors.New("no results to render")

var formats = []string{FormatText, FormatChart, FormatPNG, FormatJSON, FormatCSV, FormatYAML}

// Formats lists the renderer names accepted by New.
func Formats() []string {
	return slices.Clone(formats)
}

func IsFormat(name string) bool {
	return slices.Contains(formats, strings.ToLower(name))
}

// New returns the renderer for format. Terminal renderers write to out; file
// renderers write to base plus the format's extension and report the path on
// out.
func New(format, base string, out io.Writer) (Renderer, error) {
	switch f := strings.ToLower(format); f {
	case FormatText:
		return &Summary{Out: out}, nil
	case FormatChart:
		return &Chart{Out: out}, nil
	case FormatPNG:
		return &PNG{Path: base + ".png", Out: out}, nil
	case FormatJSON, FormatCSV, FormatYAML:
		e, err := NewFileExporter(base+"."+f, f)
		if err != nil {
			return nil, err
		}
		e.Out = out
		return e, nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", format)
	}
}

// Multi renders the same result with each renderer in order.
type Multi []Renderer

// NewMulti builds one renderer per format.
func NewMulti(formats []string, base string, out io.Writer) (Multi, error) {
	m := make(Multi, 0, len(formats))
	for _, f := range formats {
		r, err := New(f, base, out)
		if err != nil {
			return nil, err
		}
		m = append(m, r)
	}
	return m, nil
}

func (m Multi) Render(result benchmark.SweepResult) error {
	for _, r := range m {
		if err := r.Render(result); err != nil {
			return err
		}
	}
	return nil
}

// resultAt returns the per-configuration detail for point i, if the sweep
// carries it.
func resultAt(res benchmark.SweepResult, i int) (benchmark.ConfigurationResult, bool) {
	if i < len(res.Results) {
		return res.Results[i], true
	}
	return benchmark.ConfigurationResult{}, false
}
