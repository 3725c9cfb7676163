package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"speedsweep/internal/benchmark"
)

// PNG saves the sweep as a line chart with point markers.
type PNG struct {
	Path   string
	Width  vg.Length
	Height vg.Length
	// Out, if set, receives a note with the saved path.
	Out io.Writer
}

func (p *PNG) Render(res benchmark.SweepResult) error {
	points := res.Points()
	if len(points) == 0 {
		return fmt.Errorf("png chart: %w", ErrNoData)
	}

	plt := plot.New()
	plt.Title.Text = "Average speedup by thread count"
	plt.X.Label.Text = "threads"
	plt.Y.Label.Text = "average speedup"
	plt.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.X)
		xys[i].Y = pt.Y.InexactFloat64()
	}
	if err := plotutil.AddLinePoints(plt, "speedup", xys); err != nil {
		return fmt.Errorf("png chart: %w", err)
	}

	width, height := p.Width, p.Height
	if width == 0 {
		width = 8 * vg.Inch
	}
	if height == 0 {
		height = 5 * vg.Inch
	}

	if dir := filepath.Dir(p.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := plt.Save(width, height, p.Path); err != nil {
		return fmt.Errorf("failed to save chart to %s: %w", p.Path, err)
	}
	if p.Out != nil {
		fmt.Fprintf(p.Out, "Chart saved to %s\n", p.Path)
	}
	return nil
}
