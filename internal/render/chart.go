package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"speedsweep/internal/benchmark"
)

const defaultChartHeight = 12

var (
	chartTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)
	axisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")) // Gray
	markerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // Cyan
			Bold(true)
	failedMarkerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")) // Red
)

// Chart draws the sweep as a terminal line chart: threads on the x axis,
// average speedup on the y axis, one marker per configuration. Configurations
// where every trial failed are drawn with an x.
type Chart struct {
	Out    io.Writer
	Height int
}

func (c *Chart) Render(res benchmark.SweepResult) error {
	points := res.Points()
	if len(points) == 0 {
		_, err := fmt.Fprintln(c.Out, "No results to chart.")
		return err
	}

	height := c.Height
	if height < 2 {
		height = defaultChartHeight
	}

	maxY := 0.0
	maxX := 0
	for _, p := range points {
		maxY = math.Max(maxY, p.Y.InexactFloat64())
		maxX = max(maxX, p.X)
	}
	if maxY <= 0 {
		maxY = 1
	}

	colWidth := max(3, len(strconv.Itoa(maxX))+1)
	width := len(points) * colWidth
	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}

	rowOf := func(y float64) int {
		return height - 1 - int(math.Round(y/maxY*float64(height-1)))
	}

	// Connect consecutive markers first so the markers win.
	for i := 1; i < len(points); i++ {
		c1, c2 := (i-1)*colWidth+colWidth-1, i*colWidth+colWidth-1
		r1, r2 := rowOf(points[i-1].Y.InexactFloat64()), rowOf(points[i].Y.InexactFloat64())
		for col := c1 + 1; col < c2; col++ {
			frac := float64(col-c1) / float64(c2-c1)
			row := int(math.Round(float64(r1) + frac*float64(r2-r1)))
			grid[row][col] = '.'
		}
	}
	for i, p := range points {
		marker := 'o'
		if r, ok := resultAt(res, i); ok && r.AllFailed() {
			marker = 'x'
		}
		grid[rowOf(p.Y.InexactFloat64())][i*colWidth+colWidth-1] = marker
	}

	var b strings.Builder
	b.WriteString(chartTitleStyle.Render("Average speedup by thread count"))
	b.WriteString("\n\n")
	for r, row := range grid {
		label := maxY * float64(height-1-r) / float64(height-1)
		b.WriteString(axisStyle.Render(fmt.Sprintf("%8.3f ┤", label)))
		for _, ch := range row {
			switch ch {
			case 'o':
				b.WriteString(markerStyle.Render("o"))
			case 'x':
				b.WriteString(failedMarkerStyle.Render("x"))
			case '.':
				b.WriteString(axisStyle.Render("."))
			default:
				b.WriteRune(ch)
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(axisStyle.Render(strings.Repeat(" ", 9) + "└" + strings.Repeat("─", width)))
	b.WriteString("\n" + strings.Repeat(" ", 10))
	for _, p := range points {
		fmt.Fprintf(&b, "%*d", colWidth, p.X)
	}
	b.WriteString("\n" + strings.Repeat(" ", 10) + axisStyle.Render("threads") + "\n")

	_, err := io.WriteString(c.Out, b.String())
	return err
}
