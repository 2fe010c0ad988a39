package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series for plotting. Values are percentages.
type Series struct {
	Name   string
	Values []float64
}

type dash struct {
	name   string
	period int
	on     int
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 4
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var dashes = []dash{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

var palette = []string{
	"\x1b[36m", // cyan
	"\x1b[35m", // magenta
	"\x1b[33m", // yellow
	"\x1b[32m", // green
}

// canvas is a grid of braille cells, two dots wide and four dots tall each.
type canvas struct {
	width, height int
	cells         [][]uint8
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return &canvas{width: width, height: height, cells: cells}
}

func (c *canvas) dotRows() int { return c.height * 4 }

func (c *canvas) set(x, y int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cy >= c.height || cx >= c.width {
		return
	}
	c.cells[cy][cx] |= dotBit(x%2, y%4)
}

// line draws with Bresenham, skipping dots the dash pattern leaves blank.
func (c *canvas) line(x0, y0, x1, y1 int, d dash) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if d.draws(x0) {
			c.set(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (d dash) draws(x int) bool {
	if d.period <= 1 {
		return true
	}
	return absInt(x)%d.period < d.on
}

// dotBit maps a dot inside a cell to its bit in the braille block.
func dotBit(x, y int) uint8 {
	if y == 3 {
		return 0x40 << uint(x)
	}
	return 1 << uint(y+3*x)
}

func braille(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

// PlotSeries renders a text plot on a fixed 0-100% scale.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return PlotSeriesWithColor(w, title, series, width, height, false)
}

// PlotSeriesWithColor renders a text plot with optional forced color output.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	layers := make([]*canvas, len(series))
	for i, s := range series {
		layers[i] = newCanvas(width, height)
		drawSeries(layers[i], resample(s.Values, width), dashes[i%len(dashes)])
	}

	useColor := shouldUseColor(w, forceColor)
	var out strings.Builder
	if title != "" {
		out.WriteString(title + "\n")
	}
	for _, s := range series {
		lo, hi := seriesBounds(s.Values)
		out.WriteString(fmt.Sprintf("%s: last=%.1f%% min=%.1f%% max=%.1f%%\n", s.Name, s.Values[len(s.Values)-1], lo, hi))
	}
	for y := 0; y < height; y++ {
		out.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, axisLabel(y, height), axisSeparator))
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i, layer := range layers {
				if m := layer.cells[y][x]; m != 0 {
					mask |= m
					if owner < 0 {
						owner = i
					}
				}
			}
			if useColor && owner >= 0 {
				out.WriteString(palette[owner%len(palette)])
				out.WriteRune(braille(mask))
				out.WriteString(colorReset)
				continue
			}
			out.WriteRune(braille(mask))
		}
		out.WriteByte('\n')
	}
	out.WriteString(legend(series, useColor) + "\n\n")
	_, err := io.WriteString(w, out.String())
	return err
}

func drawSeries(c *canvas, values []float64, d dash) {
	prevX, prevY := -1, -1
	for x, v := range values {
		px, py := x*2, percentToDot(v, c.dotRows())
		if prevX < 0 {
			if d.draws(px) {
				c.set(px, py)
			}
		} else {
			c.line(prevX, prevY, px, py, d)
		}
		prevX, prevY = px, py
	}
}

// percentToDot maps 100% to the top dot row and 0% to the bottom one.
func percentToDot(v float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	v = math.Max(0, math.Min(100, v))
	return clampInt(int(math.Round((1-v/100)*float64(rows-1))), 0, rows-1)
}

func axisLabel(y, height int) string {
	switch {
	case y == 0:
		return "100%"
	case y == height-1:
		return "0%"
	case height > 2 && y == height/2:
		return "50%"
	default:
		return ""
	}
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", braille(0x01), s.Name, dashes[i%len(dashes)].name)
		if useColor {
			label = palette[i%len(palette)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// resample stretches or averages values to exactly width points.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	switch {
	case n == 0 || width <= 0:
		return nil
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	case n > width:
		for i := range out {
			start := i * n / width
			end := (i + 1) * n / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	width := totalWidth - axisLabelWidth - runewidth.StringWidth(axisSeparator)
	if width < minPlotWidth {
		return minPlotWidth
	}
	return width
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
