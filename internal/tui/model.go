// Package tui provides the Bubble Tea dual n-back interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dualnback/internal/game"
	"github.com/verte-zerg/dualnback/internal/generator"
	"github.com/verte-zerg/dualnback/internal/model"
	statsPkg "github.com/verte-zerg/dualnback/internal/stats"
	"github.com/verte-zerg/dualnback/internal/store"
)

type phase int

const (
	phaseReady phase = iota
	phaseLoading
	phasePlaying
	phaseResults
)

// planMsg carries sequences generated off the UI goroutine.
type planMsg struct {
	round int
	plan  game.Plan
	err   error
}

// tickMsg closes the turn that was on screen when it was scheduled.
type tickMsg struct {
	round int
	turn  int
}

// Model implements the Bubble Tea game UI.
type Model struct {
	config  model.Config
	store   *store.Store
	gen     *generator.Generator
	symbols []string
	session *game.Session

	width  int
	height int

	phase   phase
	round   int
	pending model.Response
	err     error
	result  *model.SessionRecord

	lastComposite float64
	hasLast       bool
	allVisual     model.AccuracyStats
	allAudio      model.AccuracyStats
}

var (
	cellStyle     = lipgloss.NewStyle().Width(7).Height(3).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3A3A3A"))
	activeStyle   = cellStyle.Copy().Background(lipgloss.Color("#C89A3A")).BorderForeground(lipgloss.Color("#C89A3A"))
	soundStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0")).Padding(0, 2)
	keyIdleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Padding(0, 1)
	keyRightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0B0B0B")).Background(lipgloss.Color("#52C41A")).Padding(0, 1)
	keyWrongStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0B0B0B")).Background(lipgloss.Color("#FF4D4F")).Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs a game TUI model.
func NewModel(cfg model.Config, store *store.Store, gen *generator.Generator, symbols []string) *Model {
	m := &Model{
		config:  cfg,
		store:   store,
		gen:     gen,
		symbols: symbols,
		session: game.NewSession(),
	}
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case planMsg:
		return m, m.handlePlan(msg)
	case tickMsg:
		return m, m.handleTick(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.phase == phasePlaying {
		switch {
		case matchesKey(m.config.Keys.Position, key):
			m.pending.VisualMatch = true
		case matchesKey(m.config.Keys.Audio, key):
			m.pending.AudioMatch = true
		case key == "esc":
			m.abort()
		}
		return m, nil
	}
	switch key {
	case "q":
		return m, tea.Quit
	case "esc":
		m.abort()
		return m, nil
	case " ", "enter":
		if m.phase == phaseLoading {
			return m, nil
		}
		return m, m.start()
	}
	return m, nil
}

func matchesKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// start schedules sequence generation; the session begins once the plan arrives.
func (m *Model) start() tea.Cmd {
	m.round++
	m.phase = phaseLoading
	m.err = nil
	m.result = nil
	m.pending = model.Response{}
	round, gen, settings, symbols := m.round, m.gen, m.config.Settings, m.symbols
	return func() tea.Msg {
		plan, err := game.Prepare(gen, settings, symbols)
		return planMsg{round: round, plan: plan, err: err}
	}
}

func (m *Model) handlePlan(msg planMsg) tea.Cmd {
	if msg.round != m.round || m.phase != phaseLoading {
		return nil
	}
	if msg.err == nil {
		msg.err = m.session.Begin(msg.plan)
	}
	if msg.err != nil {
		m.err = msg.err
		m.phase = phaseReady
		return nil
	}
	m.phase = phasePlaying
	return m.scheduleTick()
}

func (m *Model) scheduleTick() tea.Cmd {
	round, turn := m.round, m.session.Index()
	speed := time.Duration(m.session.Settings().SpeedMs) * time.Millisecond
	return tea.Tick(speed, func(time.Time) tea.Msg {
		return tickMsg{round: round, turn: turn}
	})
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.round != m.round || m.phase != phasePlaying || msg.turn != m.session.Index() {
		return nil
	}
	m.session.ProcessResponse(m.pending)
	m.pending = model.Response{}
	if m.session.State() == game.StateFinished {
		m.finishSession()
		return nil
	}
	return m.scheduleTick()
}

func (m *Model) abort() {
	m.round++
	m.session.Reset()
	m.pending = model.Response{}
	m.phase = phaseReady
}

func (m *Model) finishSession() {
	rec, err := m.session.Record()
	if err != nil {
		logErrf("failed to build session record: %v\n", err)
		m.phase = phaseReady
		return
	}
	if m.store != nil {
		if err := m.store.InsertSession(context.Background(), rec); err != nil {
			logErrf("failed to save session: %v\n", err)
		}
	}
	m.lastComposite = statsPkg.Composite(rec.Summary())
	m.hasLast = true
	m.allVisual = m.allVisual.Add(rec.VisualStats)
	m.allAudio = m.allAudio.Add(rec.AudioStats)
	m.result = &rec
	m.phase = phaseResults
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.HistoryFilter{NLevel: m.config.Settings.NLevel})
	if err != nil {
		logErrf("failed to load session stats: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	m.lastComposite = statsPkg.Composite(sessions[len(sessions)-1])
	m.hasLast = true
	m.allVisual, m.allAudio = statsPkg.Totals(sessions)
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.phase {
	case phasePlaying:
		content = m.renderBoard()
	case phaseResults:
		content = m.renderResults()
	default:
		content = m.renderReady()
	}
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderReady() string {
	s := m.config.Settings
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Dual %d-Back", s.NLevel)),
		"",
		fmt.Sprintf("%d turns · %d ms per turn · sounds: %s", game.ClampLength(s.SessionLength), s.SpeedMs, m.config.AudioLabel),
		fmt.Sprintf("Position match: %s    Sound match: %s", strings.Join(m.config.Keys.Position, " "), strings.Join(m.config.Keys.Audio, " ")),
		"",
	}
	if m.phase == phaseLoading {
		lines = append(lines, "Generating sequences...")
	} else {
		lines = append(lines, "space to start · q to quit")
	}
	if m.err != nil {
		lines = append(lines, "", errorStyle.Render(m.err.Error()))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBoard() string {
	snap := m.session.Snapshot()
	grid := renderGrid(snap.Stimulus.Position, snap.HasStimulus)
	sound := soundStyle.Render(snap.Stimulus.Sound)
	indicators := lipgloss.JoinHorizontal(lipgloss.Top,
		keyIndicator("position", m.pending.VisualMatch, snap.UpcomingVisual),
		"  ",
		keyIndicator("sound", m.pending.AudioMatch, snap.UpcomingAudio),
	)
	header := titleStyle.Render(fmt.Sprintf("%d-back", snap.Settings.NLevel))
	return lipgloss.JoinVertical(lipgloss.Center, header, "", grid, "", sound, "", indicators)
}

func renderGrid(active int, show bool) string {
	rows := make([]string, 0, generator.GridSize)
	for r := 0; r < generator.GridSize; r++ {
		cells := make([]string, 0, generator.GridSize)
		for c := 0; c < generator.GridSize; c++ {
			style := cellStyle
			if show && r*generator.GridSize+c == active {
				style = activeStyle
			}
			cells = append(cells, style.Render(""))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// keyIndicator shows a claim once made, coloured by whether it is right.
func keyIndicator(label string, pressed, truth bool) string {
	switch {
	case !pressed:
		return keyIdleStyle.Render(label)
	case truth:
		return keyRightStyle.Render(label)
	default:
		return keyWrongStyle.Render(label)
	}
}

func (m *Model) renderResults() string {
	rec := m.result
	if rec == nil {
		return m.renderReady()
	}
	width := m.width * 7 / 10
	if width < 20 {
		width = 20
	}
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Session complete · %d-back", rec.Settings.NLevel)),
		"",
		fmt.Sprintf("Visual  %s  hit %.1f%%  false alarm %.1f%%", formatPct(rec.VisualStats.Accuracy()), rec.VisualStats.HitRate()*100, rec.VisualStats.FalseAlarmRate()*100),
		fmt.Sprintf("Audio   %s  hit %.1f%%  false alarm %.1f%%", formatPct(rec.AudioStats.Accuracy()), rec.AudioStats.HitRate()*100, rec.AudioStats.FalseAlarmRate()*100),
		"",
		"Positions",
		wrapTokens(buildOutcomeTokens(rec.Events, modalityVisual), width),
		"",
		"Sounds",
		wrapTokens(buildOutcomeTokens(rec.Events, modalityAudio), width),
		"",
		"space to play again · esc for menu · q to quit",
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if m.phase == phasePlaying {
		snap := m.session.Snapshot()
		segments = append(segments,
			fmt.Sprintf("Turn %d/%d", snap.Index+1, snap.Settings.SessionLength),
			fmt.Sprintf("Visual hit %.1f%% · FA %.1f%%", snap.VisualStats.HitRate()*100, snap.VisualStats.FalseAlarmRate()*100),
			fmt.Sprintf("Audio hit %.1f%% · FA %.1f%%", snap.AudioStats.HitRate()*100, snap.AudioStats.FalseAlarmRate()*100),
		)
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %s", formatPct(m.lastComposite)))
	}
	if m.allVisual.Total() > 0 {
		all := (m.allVisual.Accuracy() + m.allAudio.Accuracy()) / 2
		segments = append(segments, fmt.Sprintf("All-time N=%d %s", m.config.Settings.NLevel, formatPct(all)))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
