// Package model defines shared data structures.
package model

import "time"

// Settings defines the parameters of a training session.
type Settings struct {
	NLevel        int    `json:"n_level"`
	SpeedMs       int    `json:"speed_ms"`
	SessionLength int    `json:"session_length"`
	AudioSet      string `json:"audio_set,omitempty"`
}

// Stimulus is one turn's pair of cues: a grid position and a sound symbol.
type Stimulus struct {
	Position int    `json:"visual"`
	Sound    string `json:"audio"`
}

// Response is the player's claim for a single turn.
type Response struct {
	VisualMatch bool `json:"visual_match"`
	AudioMatch  bool `json:"audio_match"`
}

// GameEvent records one processed turn.
type GameEvent struct {
	TurnIndex   int      `json:"turn_index"`
	Stimulus    Stimulus `json:"stimulus"`
	VisualMatch bool     `json:"is_visual_match"`
	AudioMatch  bool     `json:"is_audio_match"`
	Response    Response `json:"user_response"`
}

// SessionRecord captures a finished session, including its turn history.
type SessionRecord struct {
	ID          string
	StartedAt   time.Time
	EndedAt     time.Time
	Settings    Settings
	Events      []GameEvent
	VisualStats AccuracyStats
	AudioStats  AccuracyStats
}

// Summary drops the event history for list views.
func (r SessionRecord) Summary() SessionSummary {
	return SessionSummary{
		ID:          r.ID,
		EndedAt:     r.EndedAt,
		Settings:    r.Settings,
		VisualStats: r.VisualStats,
		AudioStats:  r.AudioStats,
	}
}

// SessionSummary is a session without its event history.
type SessionSummary struct {
	ID          string
	EndedAt     time.Time
	Settings    Settings
	VisualStats AccuracyStats
	AudioStats  AccuracyStats
}

// HistoryFilter defines filters and options for history output.
type HistoryFilter struct {
	NLevel      int
	Since       *time.Time
	Last        int
	CurveWindow int
}

// KeyBindings lists the keys that claim a match for each modality.
type KeyBindings struct {
	Position []string
	Audio    []string
}

// DefaultKeyBindings returns the built-in key layout.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Position: []string{"p", "h", "[", "right"},
		Audio:    []string{"a", "l", "]", "left"},
	}
}

// Config holds the runtime configuration for a play session.
type Config struct {
	Settings   Settings
	AudioLabel string
	Keys       KeyBindings
}
