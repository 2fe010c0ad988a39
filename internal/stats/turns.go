package stats

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/verte-zerg/dualnback/internal/model"
)

// TurnHeaders are the column titles matching TurnRows.
var TurnHeaders = []string{"Turn", "Position", "Sound", "Visual", "Audio"}

// TurnRows lists each turn with the outcome of both claims.
func TurnRows(events []model.GameEvent) [][]string {
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			strconv.Itoa(ev.TurnIndex + 1),
			strconv.Itoa(ev.Stimulus.Position + 1),
			ev.Stimulus.Sound,
			model.Classify(ev.Response.VisualMatch, ev.VisualMatch).String(),
			model.Classify(ev.Response.AudioMatch, ev.AudioMatch).String(),
		})
	}
	return rows
}

// RenderSessionDetail prints one session's settings, scores and turns.
func RenderSessionDetail(w io.Writer, rec model.SessionRecord) error {
	v, a := rec.VisualStats, rec.AudioStats
	lines := []string{
		fmt.Sprintf("Session %s", rec.ID),
		fmt.Sprintf("Played: %s (%s)", rec.EndedAt.Local().Format("2006-01-02 15:04"), rec.EndedAt.Sub(rec.StartedAt).Round(time.Second)),
		fmt.Sprintf("N=%d  speed=%dms  length=%d  sounds=%s", rec.Settings.NLevel, rec.Settings.SpeedMs, rec.Settings.SessionLength, rec.Settings.AudioSet),
		fmt.Sprintf("Visual: %s  hit %s  false alarm %s  (TP %d TN %d FP %d FN %d)",
			formatPct(v.Accuracy()), formatPct(v.HitRate()), formatPct(v.FalseAlarmRate()),
			v.TruePositives, v.TrueNegatives, v.FalsePositives, v.FalseNegatives),
		fmt.Sprintf("Audio:  %s  hit %s  false alarm %s  (TP %d TN %d FP %d FN %d)",
			formatPct(a.Accuracy()), formatPct(a.HitRate()), formatPct(a.FalseAlarmRate()),
			a.TruePositives, a.TrueNegatives, a.FalsePositives, a.FalseNegatives),
		"",
	}
	lines = append(lines, formatTable(TurnHeaders, TurnRows(rec.Events), map[int]bool{0: true, 1: true})...)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
