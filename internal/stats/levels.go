package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/verte-zerg/dualnback/internal/model"
)

// LevelStats aggregates every session played at one N level.
type LevelStats struct {
	NLevel   int
	Sessions int
	Visual   model.AccuracyStats
	Audio    model.AccuracyStats
	Best     float64
	Trend    []float64
}

// Composite returns the mean of pooled visual and audio accuracy.
func (l LevelStats) Composite() float64 {
	return (l.Visual.Accuracy() + l.Audio.Accuracy()) / 2
}

// LevelBreakdown groups sessions by N level, lowest level first.
func LevelBreakdown(sessions []model.SessionSummary) []LevelStats {
	byLevel := map[int]*LevelStats{}
	for _, s := range sessions {
		lvl, ok := byLevel[s.Settings.NLevel]
		if !ok {
			lvl = &LevelStats{NLevel: s.Settings.NLevel}
			byLevel[s.Settings.NLevel] = lvl
		}
		c := Composite(s)
		lvl.Sessions++
		lvl.Visual = lvl.Visual.Add(s.VisualStats)
		lvl.Audio = lvl.Audio.Add(s.AudioStats)
		lvl.Trend = append(lvl.Trend, c*100)
		if c > lvl.Best {
			lvl.Best = c
		}
	}
	out := make([]LevelStats, 0, len(byLevel))
	for _, lvl := range byLevel {
		out = append(out, *lvl)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NLevel < out[j].NLevel
	})
	return out
}

// LevelHeaders are the column titles matching LevelRows.
var LevelHeaders = []string{"N", "Sessions", "Visual", "Audio", "V Hit/FA", "A Hit/FA", "Best", "Trend"}

// LevelRows formats a level breakdown as table rows.
func LevelRows(levels []LevelStats) [][]string {
	rows := make([][]string, 0, len(levels))
	for _, lvl := range levels {
		rows = append(rows, []string{
			fmt.Sprintf("%d", lvl.NLevel),
			fmt.Sprintf("%d", lvl.Sessions),
			formatPct(lvl.Visual.Accuracy()),
			formatPct(lvl.Audio.Accuracy()),
			formatPct(lvl.Visual.HitRate()) + "/" + formatPct(lvl.Visual.FalseAlarmRate()),
			formatPct(lvl.Audio.HitRate()) + "/" + formatPct(lvl.Audio.FalseAlarmRate()),
			formatPct(lvl.Best),
			Sparkline(lvl.Trend),
		})
	}
	return rows
}

// RenderLevelTable prints the per-level breakdown.
func RenderLevelTable(w io.Writer, levels []LevelStats) error {
	if len(levels) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "By N Level"); err != nil {
		return err
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(LevelHeaders, LevelRows(levels), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
