package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"speedsweep/internal/benchmark"
)

// FileExporter writes the sweep points to a JSON, CSV or YAML file.
type FileExporter struct {
	path   string
	format string
	// Out, if set, receives a note with the written path.
	Out io.Writer
}

func NewFileExporter(path, format string) (*FileExporter, error) {
	switch format {
	case FormatJSON, FormatCSV, FormatYAML:
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	return &FileExporter{path: path, format: format}, nil
}

// Path returns the file the exporter writes.
func (e *FileExporter) Path() string {
	return e.path
}

// speedup is a fixed-point decimal that encodes as a bare number.
type speedup string

func (s speedup) MarshalJSON() ([]byte, error) {
	return []byte(s), nil
}

func (s speedup) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: string(s)}, nil
}

type record struct {
	Threads   int     `json:"threads" yaml:"threads"`
	Speedup   speedup `json:"average_speedup" yaml:"average_speedup"`
	Succeeded int     `json:"succeeded" yaml:"succeeded"`
	Attempted int     `json:"attempted" yaml:"attempted"`
	AllFailed bool    `json:"all_failed" yaml:"all_failed"`
}

func records(res benchmark.SweepResult) []record {
	out := make([]record, 0, res.Len())
	for i, p := range res.Points() {
		rec := record{Threads: p.X, Speedup: speedup(p.Y.StringFixed(benchmark.Precision))}
		if r, ok := resultAt(res, i); ok {
			rec.Succeeded = r.Succeeded
			rec.Attempted = r.Attempted
			rec.AllFailed = r.AllFailed()
		}
		out = append(out, rec)
	}
	return out
}

func (e *FileExporter) Render(res benchmark.SweepResult) error {
	recs := records(res)

	var data []byte
	var err error
	switch e.format {
	case FormatJSON:
		data, err = json.MarshalIndent(recs, "", "  ")
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.Marshal(recs)
	case FormatCSV:
		data, err = encodeCSV(recs)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(e.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", e.path, err)
	}
	if e.Out != nil {
		fmt.Fprintf(e.Out, "Results saved to %s\n", e.path)
	}
	return nil
}

func encodeCSV(recs []record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"threads", "average_speedup", "succeeded", "attempted", "all_failed"}); err != nil {
		return nil, err
	}
	for _, r := range recs {
		row := []string{
			strconv.Itoa(r.Threads),
			string(r.Speedup),
			strconv.Itoa(r.Succeeded),
			strconv.Itoa(r.Attempted),
			strconv.FormatBool(r.AllFailed),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
