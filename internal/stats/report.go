package stats

import (
	"context"

	"github.com/verte-zerg/dualnback/internal/model"
	"github.com/verte-zerg/dualnback/internal/store"
)

// Report contains precomputed data for history rendering.
type Report struct {
	Sessions []model.SessionSummary
	Window   []model.SessionSummary
	Levels   []LevelStats
}

// BuildReport loads and prepares data for history rendering.
func BuildReport(ctx context.Context, st *store.Store, filter model.HistoryFilter) (Report, error) {
	sessions, err := st.ListSessions(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	if filter.Last > 0 && len(sessions) > filter.Last {
		sessions = sessions[len(sessions)-filter.Last:]
	}
	return Report{
		Sessions: sessions,
		Window:   lastSessions(sessions, filter.CurveWindow),
		Levels:   LevelBreakdown(sessions),
	}, nil
}

func lastSessions(sessions []model.SessionSummary, window int) []model.SessionSummary {
	if window <= 0 || len(sessions) <= window {
		return sessions
	}
	return sessions[len(sessions)-window:]
}
