// Package game runs a dual n-back session: sequences, turn index and scoring.
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/dualnback/internal/generator"
	"github.com/verte-zerg/dualnback/internal/model"
)

// Session length bounds applied before generation.
const (
	MinSessionLength = 10
	MaxSessionLength = 100
)

var (
	// ErrNotFinished is returned when a record is requested mid-session.
	ErrNotFinished = errors.New("game: session is not finished")
	// ErrSequenceMismatch is returned when a plan's sequences disagree with its settings.
	ErrSequenceMismatch = errors.New("game: sequence lengths do not match session length")
)

// State is the lifecycle phase of a Session.
type State int

// Session states.
const (
	StateIdle State = iota
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Plan holds pre-generated sequences for one session.
type Plan struct {
	Settings model.Settings
	Audio    []string
	Visual   []int
}

// Prepare clamps the session length, validates the lag and generates both
// sequences. It is CPU-bound; interactive callers should run it off their
// event loop.
func Prepare(gen *generator.Generator, settings model.Settings, audioSymbols []string) (Plan, error) {
	settings.SessionLength = ClampLength(settings.SessionLength)
	if settings.NLevel < 1 || settings.NLevel >= settings.SessionLength {
		return Plan{}, fmt.Errorf("%w (n=%d, length=%d)", generator.ErrInvalidLag, settings.NLevel, settings.SessionLength)
	}
	audio, visual, err := generator.ComposeDual(gen, settings.NLevel, settings.SessionLength, audioSymbols)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to generate sequences: %w", err)
	}
	return Plan{Settings: settings, Audio: audio, Visual: visual}, nil
}

// ClampLength bounds a session length to [MinSessionLength, MaxSessionLength].
func ClampLength(length int) int {
	if length < MinSessionLength {
		return MinSessionLength
	}
	if length > MaxSessionLength {
		return MaxSessionLength
	}
	return length
}

// Session is the single owner of a running session's state. It is not safe
// for concurrent use; callers serialize access.
type Session struct {
	id          string
	settings    model.Settings
	state       State
	audioSeq    []string
	visualSeq   []int
	index       int
	events      []model.GameEvent
	visualStats model.AccuracyStats
	audioStats  model.AccuracyStats
	startedAt   time.Time
	endedAt     time.Time
	now         func() time.Time
}

// NewSession returns an idle session.
func NewSession() *Session {
	return &Session{now: time.Now}
}

// Start prepares fresh sequences and begins a session.
func (s *Session) Start(gen *generator.Generator, settings model.Settings, audioSymbols []string) error {
	plan, err := Prepare(gen, settings, audioSymbols)
	if err != nil {
		return err
	}
	return s.Begin(plan)
}

// Begin replaces all session state with the given plan and starts running.
func (s *Session) Begin(plan Plan) error {
	length := plan.Settings.SessionLength
	if len(plan.Audio) != length || len(plan.Visual) != length {
		return fmt.Errorf("%w (length=%d, audio=%d, visual=%d)", ErrSequenceMismatch, length, len(plan.Audio), len(plan.Visual))
	}
	if plan.Settings.NLevel < 1 || plan.Settings.NLevel >= length {
		return fmt.Errorf("%w (n=%d, length=%d)", generator.ErrInvalidLag, plan.Settings.NLevel, length)
	}
	now := s.clock()
	*s = Session{
		id:        uuid.New().String(),
		settings:  plan.Settings,
		state:     StateRunning,
		audioSeq:  append([]string(nil), plan.Audio...),
		visualSeq: append([]int(nil), plan.Visual...),
		events:    make([]model.GameEvent, 0, length),
		startedAt: now,
		now:       s.now,
	}
	return nil
}

// Reset drops the current session and returns to idle.
func (s *Session) Reset() {
	*s = Session{now: s.now}
}

// State returns the lifecycle phase.
func (s *Session) State() State {
	return s.state
}

// Settings returns the settings of the current session.
func (s *Session) Settings() model.Settings {
	return s.settings
}

// Index returns the number of processed turns.
func (s *Session) Index() int {
	return s.index
}

// Peek returns the stimulus for the current turn without advancing.
func (s *Session) Peek() (model.Stimulus, bool) {
	if s.state != StateRunning || s.index >= len(s.visualSeq) {
		return model.Stimulus{}, false
	}
	return s.stimulusAt(s.index), true
}

// ProcessResponse scores the player's claim for the current turn and advances.
// It is a no-op returning false unless the session is running.
func (s *Session) ProcessResponse(resp model.Response) (model.GameEvent, bool) {
	if s.state != StateRunning {
		return model.GameEvent{}, false
	}
	visualTruth, audioTruth := s.truthAt(s.index)
	s.visualStats.Record(resp.VisualMatch, visualTruth)
	s.audioStats.Record(resp.AudioMatch, audioTruth)

	event := model.GameEvent{
		TurnIndex:   s.index,
		Stimulus:    s.stimulusAt(s.index),
		VisualMatch: visualTruth,
		AudioMatch:  audioTruth,
		Response:    resp,
	}
	s.events = append(s.events, event)
	s.index++
	if s.index >= s.settings.SessionLength {
		s.state = StateFinished
		s.endedAt = s.clock()
	}
	return event, true
}

// Events returns a copy of the processed turns.
func (s *Session) Events() []model.GameEvent {
	return append([]model.GameEvent(nil), s.events...)
}

// Stats returns the visual and audio counters.
func (s *Session) Stats() (visual, audio model.AccuracyStats) {
	return s.visualStats, s.audioStats
}

// Record returns the output record of a finished session.
func (s *Session) Record() (model.SessionRecord, error) {
	if s.state != StateFinished {
		return model.SessionRecord{}, fmt.Errorf("%w (state=%s)", ErrNotFinished, s.state)
	}
	return model.SessionRecord{
		ID:          s.id,
		StartedAt:   s.startedAt,
		EndedAt:     s.endedAt,
		Settings:    s.settings,
		Events:      s.Events(),
		VisualStats: s.visualStats,
		AudioStats:  s.audioStats,
	}, nil
}

// truthAt reports the lag-n matches for turn i. Before turn n nothing can match.
func (s *Session) truthAt(i int) (visual, audio bool) {
	n := s.settings.NLevel
	if i < n || i >= len(s.visualSeq) {
		return false, false
	}
	return s.visualSeq[i] == s.visualSeq[i-n], s.audioSeq[i] == s.audioSeq[i-n]
}

func (s *Session) stimulusAt(i int) model.Stimulus {
	return model.Stimulus{Position: s.visualSeq[i], Sound: s.audioSeq[i]}
}

func (s *Session) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
