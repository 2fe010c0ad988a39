package stats

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/verte-zerg/dualnback/internal/model"
)

var csvHeader = []string{
	"timestamp",
	"n_level",
	"speed_ms",
	"session_length",
	"visual_true_positives",
	"visual_true_negatives",
	"visual_false_positives",
	"visual_false_negatives",
	"audio_true_positives",
	"audio_true_negatives",
	"audio_false_positives",
	"audio_false_negatives",
}

// WriteCSV writes one row per session summary, preceded by a header row.
func WriteCSV(w io.Writer, sessions []model.SessionSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range sessions {
		v, a := s.VisualStats, s.AudioStats
		row := []string{
			s.EndedAt.Format(time.RFC3339),
			strconv.Itoa(s.Settings.NLevel),
			strconv.Itoa(s.Settings.SpeedMs),
			strconv.Itoa(s.Settings.SessionLength),
			u32(v.TruePositives), u32(v.TrueNegatives), u32(v.FalsePositives), u32(v.FalseNegatives),
			u32(a.TruePositives), u32(a.TrueNegatives), u32(a.FalsePositives), u32(a.FalseNegatives),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func u32(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
