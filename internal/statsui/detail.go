package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dualnback/internal/stats"
)

// selectedID returns the session under the table cursor.
func (m *Model) selectedID() (string, bool) {
	idx := m.sessionTable.Cursor()
	if idx < 0 || idx >= len(m.rowIDs) {
		return "", false
	}
	return m.rowIDs[idx], true
}

func (m *Model) openDetail() {
	id, ok := m.selectedID()
	if !ok {
		return
	}
	rec, found, err := m.store.GetSession(context.Background(), id)
	switch {
	case err != nil:
		m.errMsg = err.Error()
		return
	case !found:
		m.errMsg = fmt.Sprintf("session %s could not be loaded", id)
		return
	}
	var buf bytes.Buffer
	if err := stats.RenderSessionDetail(&buf, rec); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.detail.SetContent(strings.TrimRight(buf.String(), "\n"))
	m.detail.GotoTop()
	m.detailMode = true
}

func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		m.detailMode = false
		return m, tea.ClearScreen
	case "g", "home":
		m.detail.GotoTop()
		return m, nil
	case "G", "end":
		m.detail.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) renderDetail() string {
	help := headerStyle.Render("Scroll: up/down/pgup/pgdn  Close: esc")
	box := modalStyle.Width(maxInt(10, m.width-2)).Render(m.detail.View())
	return lipgloss.JoinVertical(lipgloss.Left, box, help)
}
