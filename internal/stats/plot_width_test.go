package stats

import (
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestPlotWidthFor(t *testing.T) {
	axisWidth := axisLabelWidth + runewidth.StringWidth(axisSeparator)
	if got := PlotWidthFor(80); got != 80-axisWidth {
		t.Fatalf("expected width %d, got %d", 80-axisWidth, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}
