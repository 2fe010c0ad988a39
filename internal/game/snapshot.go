package game

import "github.com/verte-zerg/dualnback/internal/model"

// Snapshot is the read-only per-turn view handed to the UI.
type Snapshot struct {
	State          State
	Settings       model.Settings
	Index          int
	Stimulus       model.Stimulus
	HasStimulus    bool
	VisualStats    model.AccuracyStats
	AudioStats     model.AccuracyStats
	UpcomingVisual bool
	UpcomingAudio  bool
}

// Running reports whether the session accepts responses.
func (s Snapshot) Running() bool {
	return s.State == StateRunning
}

// Snapshot derives the query surface from the current state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:       s.state,
		Settings:    s.settings,
		Index:       s.index,
		VisualStats: s.visualStats,
		AudioStats:  s.audioStats,
	}
	snap.Stimulus, snap.HasStimulus = s.Peek()
	if snap.HasStimulus {
		snap.UpcomingVisual, snap.UpcomingAudio = s.truthAt(s.index)
	}
	return snap
}
