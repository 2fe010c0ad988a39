// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/dualnback/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Composite returns the mean of the visual and audio accuracy of a session.
func Composite(s model.SessionSummary) float64 {
	return (s.VisualStats.Accuracy() + s.AudioStats.Accuracy()) / 2
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := seriesBounds(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = clampInt(idx, 0, len(sparkChars)-1)
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Totals sums the per-modality counters over sessions.
func Totals(sessions []model.SessionSummary) (visual, audio model.AccuracyStats) {
	for _, s := range sessions {
		visual = visual.Add(s.VisualStats)
		audio = audio.Add(s.AudioStats)
	}
	return visual, audio
}

// Overview holds the headline numbers for a set of sessions.
type Overview struct {
	Sessions      int
	Turns         int
	AvgVisual     float64
	AvgAudio      float64
	BestComposite float64
	MaxNLevel     int
	Visual        model.AccuracyStats
	Audio         model.AccuracyStats
}

// Summarize computes headline numbers. Accuracy averages are per session.
func Summarize(sessions []model.SessionSummary) Overview {
	var ov Overview
	if len(sessions) == 0 {
		return ov
	}
	var sumVisual, sumAudio float64
	for _, s := range sessions {
		sumVisual += s.VisualStats.Accuracy()
		sumAudio += s.AudioStats.Accuracy()
		if c := Composite(s); c > ov.BestComposite {
			ov.BestComposite = c
		}
		if s.Settings.NLevel > ov.MaxNLevel {
			ov.MaxNLevel = s.Settings.NLevel
		}
		ov.Turns += s.VisualStats.Total()
	}
	count := float64(len(sessions))
	ov.Sessions = len(sessions)
	ov.AvgVisual = sumVisual / count
	ov.AvgAudio = sumAudio / count
	ov.Visual, ov.Audio = Totals(sessions)
	return ov
}

// RenderSummary prints a summary block for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionSummary) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	ov := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d (%d turns)", ov.Sessions, ov.Turns),
		fmt.Sprintf("Highest N: %d", ov.MaxNLevel),
		fmt.Sprintf("Avg Visual Accuracy: %.2f%%", ov.AvgVisual*100),
		fmt.Sprintf("Avg Audio Accuracy: %.2f%%", ov.AvgAudio*100),
		fmt.Sprintf("Best Session: %.2f%%", ov.BestComposite*100),
		fmt.Sprintf("Visual Hit/False Alarm: %.2f%% / %.2f%%", ov.Visual.HitRate()*100, ov.Visual.FalseAlarmRate()*100),
		fmt.Sprintf("Audio Hit/False Alarm: %.2f%% / %.2f%%", ov.Audio.HitRate()*100, ov.Audio.FalseAlarmRate()*100),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// CurveSeries returns smoothed visual, audio and composite accuracy in percent.
func CurveSeries(sessions []model.SessionSummary, window int) []Series {
	if len(sessions) == 0 {
		return nil
	}
	visual := make([]float64, len(sessions))
	audio := make([]float64, len(sessions))
	composite := make([]float64, len(sessions))
	for i, s := range sessions {
		visual[i] = s.VisualStats.Accuracy() * 100
		audio[i] = s.AudioStats.Accuracy() * 100
		composite[i] = Composite(s) * 100
	}
	return []Series{
		{Name: "Visual", Values: MovingAverage(visual, window)},
		{Name: "Audio", Values: MovingAverage(audio, window)},
		{Name: "Overall", Values: MovingAverage(composite, window)},
	}
}

// RenderCurves prints accuracy learning curves.
func RenderCurves(w io.Writer, sessions []model.SessionSummary, window int) error {
	return RenderCurvesWithSize(w, sessions, window, 0, 10, false)
}

// RenderCurvesWithSize prints learning curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, sessions []model.SessionSummary, window, totalWidth, height int, useColor bool) error {
	series := CurveSeries(sessions, window)
	if len(series) == 0 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Accuracy Curves", series, width, height, useColor)
}

// SessionRows formats sessions as table rows, newest first.
func SessionRows(sessions []model.SessionSummary) [][]string {
	rows := make([][]string, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		rows = append(rows, []string{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", s.Settings.NLevel),
			fmt.Sprintf("%d", s.Settings.SpeedMs),
			fmt.Sprintf("%d", s.Settings.SessionLength),
			formatPct(s.VisualStats.Accuracy()),
			formatPct(s.AudioStats.Accuracy()),
			formatPct(Composite(s)),
		})
	}
	return rows
}

// SessionHeaders are the column titles matching SessionRows.
var SessionHeaders = []string{"Ended", "N", "Speed (ms)", "Length", "Visual", "Audio", "Overall"}

// RenderSessionTable prints one row per session, newest first.
func RenderSessionTable(w io.Writer, sessions []model.SessionSummary) error {
	if len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Sessions"); err != nil {
		return err
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(SessionHeaders, SessionRows(sessions), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func seriesBounds(values []float64) (float64, float64) {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, v := range values {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.IsInf(minVal, 1) {
		return 0, 0
	}
	return minVal, maxVal
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
