package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/dualnback/internal/game"
	"github.com/verte-zerg/dualnback/internal/generator"
	"github.com/verte-zerg/dualnback/internal/model"
	"github.com/verte-zerg/dualnback/internal/store"
)

var testSymbols = []string{"A", "K", "Q", "R", "U", "W", "H", "L", "O"}

func testConfig() model.Config {
	return model.Config{
		Settings:   model.Settings{NLevel: 2, SpeedMs: 1000, SessionLength: 10, AudioSet: "nonconfusing"},
		AudioLabel: "nonconfusing",
		Keys:       model.DefaultKeyBindings(),
	}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// startGame presses space and delivers the generated plan.
func startGame(t *testing.T, m *Model) {
	t.Helper()
	_, cmd := m.Update(keyPress(" "))
	if cmd == nil || m.phase != phaseLoading {
		t.Fatalf("expected loading phase with a command, got phase %d", m.phase)
	}
	msg := cmd()
	if _, ok := msg.(planMsg); !ok {
		t.Fatalf("expected planMsg, got %T", msg)
	}
	_, cmd = m.Update(msg)
	if m.phase != phasePlaying || cmd == nil {
		t.Fatalf("expected playing phase with a tick scheduled, got phase %d", m.phase)
	}
}

func tick(m *Model) tea.Cmd {
	_, cmd := m.Update(tickMsg{round: m.round, turn: m.session.Index()})
	return cmd
}

func TestKeysRecordClaims(t *testing.T) {
	m := NewModel(testConfig(), nil, generator.NewWithSeed(42), testSymbols)
	startGame(t, m)
	m.Update(keyPress("right"))
	m.Update(keyPress("l"))
	if !m.pending.VisualMatch || !m.pending.AudioMatch {
		t.Fatalf("expected both claims pending, got %+v", m.pending)
	}
	tick(m)
	visual, audio := m.session.Stats()
	if visual.FalsePositives != 1 || audio.FalsePositives != 1 {
		t.Fatalf("claims on turn 0 should be false alarms: %+v %+v", visual, audio)
	}
	if m.pending != (model.Response{}) {
		t.Fatalf("expected pending claims cleared after tick")
	}
}

func TestStaleTicksAreIgnored(t *testing.T) {
	m := NewModel(testConfig(), nil, generator.NewWithSeed(42), testSymbols)
	startGame(t, m)
	m.Update(tickMsg{round: m.round - 1, turn: 0})
	m.Update(tickMsg{round: m.round, turn: 5})
	if m.session.Index() != 0 {
		t.Fatalf("stale ticks advanced the session to %d", m.session.Index())
	}
}

func TestEscAbortsSession(t *testing.T) {
	m := NewModel(testConfig(), nil, generator.NewWithSeed(42), testSymbols)
	startGame(t, m)
	round := m.round
	m.Update(keyPress("esc"))
	if m.phase != phaseReady || m.session.State() != game.StateIdle {
		t.Fatalf("expected idle after esc, got phase %d state %s", m.phase, m.session.State())
	}
	m.Update(tickMsg{round: round, turn: 0})
	if m.session.Index() != 0 {
		t.Fatalf("tick from the aborted round advanced the session")
	}
}

func TestFullSessionIsSaved(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "dualnback.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	m := NewModel(testConfig(), st, generator.NewWithSeed(7), testSymbols)
	startGame(t, m)
	for i := 0; i < 10; i++ {
		cmd := tick(m)
		if i < 9 && cmd == nil {
			t.Fatalf("expected next tick after turn %d", i)
		}
	}
	if m.phase != phaseResults || m.result == nil {
		t.Fatalf("expected results phase, got %d", m.phase)
	}
	sessions, err := st.ListSessions(context.Background(), model.HistoryFilter{})
	if err != nil || len(sessions) != 1 {
		t.Fatalf("expected one saved session, got %d (%v)", len(sessions), err)
	}
	if sessions[0].VisualStats.Total() != 10 {
		t.Fatalf("unexpected saved stats: %+v", sessions[0].VisualStats)
	}
	if !m.hasLast || m.allVisual.Total() != 10 {
		t.Fatalf("expected footer stats updated")
	}
	if view := m.View(); !strings.Contains(view, "Session complete") {
		t.Fatalf("expected results view, got:\n%s", view)
	}
}

func TestStartErrorReturnsToReady(t *testing.T) {
	cfg := testConfig()
	cfg.Settings.NLevel = 20
	m := NewModel(cfg, nil, generator.NewWithSeed(1), testSymbols)
	_, cmd := m.Update(keyPress(" "))
	m.Update(cmd())
	if m.phase != phaseReady || m.err == nil {
		t.Fatalf("expected error on ready screen, got phase %d err %v", m.phase, m.err)
	}
	if !strings.Contains(m.View(), m.err.Error()) {
		t.Fatalf("expected error in view")
	}
}

func TestQuitKeys(t *testing.T) {
	m := NewModel(testConfig(), nil, generator.NewWithSeed(1), testSymbols)
	if _, cmd := m.Update(keyPress("q")); cmd == nil {
		t.Fatalf("expected quit command on q")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Fatalf("expected quit command on ctrl+c")
	}
}
