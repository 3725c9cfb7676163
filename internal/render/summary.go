package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"speedsweep/internal/benchmark"
)

// Summary prints the averages as one line followed by a per-configuration table.
type Summary struct {
	Out io.Writer
}

func (s *Summary) Render(res benchmark.SweepResult) error {
	values := make([]string, len(res.Averages))
	for i, avg := range res.Averages {
		values[i] = avg.StringFixed(benchmark.Precision)
	}
	if _, err := fmt.Fprintf(s.Out, "Speedup results: [%s]\n\n", strings.Join(values, ", ")); err != nil {
		return err
	}

	w := tabwriter.NewWriter(s.Out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "THREADS\tSPEEDUP\tTRIALS\tNOTE")
	for i, p := range res.Points() {
		trials, note := "-", ""
		if r, ok := resultAt(res, i); ok {
			trials = fmt.Sprintf("%d/%d", r.Succeeded, r.Attempted)
			if r.AllFailed() {
				note = "all trials failed"
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.X, p.Y.StringFixed(benchmark.Precision), trials, note)
	}
	return w.Flush()
}
