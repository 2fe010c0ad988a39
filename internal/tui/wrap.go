package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/dualnback/internal/model"
)

type modality int

const (
	modalityVisual modality = iota
	modalityAudio
)

var outcomeStyles = map[model.Outcome]lipgloss.Style{
	model.TruePositive:  lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true),
	model.FalseNegative: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Underline(true),
	model.FalsePositive: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
	model.TrueNegative:  lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")),
}

type styledToken struct {
	s       string
	width   int
	isSpace bool
}

// buildOutcomeTokens renders one token per turn for a modality, styled by
// how the claim compared with the truth. Grid positions display as 1..9.
func buildOutcomeTokens(events []model.GameEvent, which modality) []styledToken {
	out := make([]styledToken, 0, len(events)*2)
	for i, ev := range events {
		if i > 0 {
			out = append(out, styledToken{s: " ", width: 1, isSpace: true})
		}
		text := ev.Stimulus.Sound
		claim, truth := ev.Response.AudioMatch, ev.AudioMatch
		if which == modalityVisual {
			text = strconv.Itoa(ev.Stimulus.Position + 1)
			claim, truth = ev.Response.VisualMatch, ev.VisualMatch
		}
		style := outcomeStyles[model.Classify(claim, truth)]
		out = append(out, styledToken{
			s:     style.Render(text),
			width: runewidth.StringWidth(text),
		})
	}
	return out
}

func renderTokens(tokens []styledToken) string {
	var b strings.Builder
	for _, item := range tokens {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapTokens breaks lines at spaces so no line exceeds width. A single
// token wider than width gets a line of its own.
func wrapTokens(tokens []styledToken, width int) string {
	if width <= 0 {
		return renderTokens(tokens)
	}
	var out strings.Builder
	line := make([]styledToken, 0, len(tokens))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(tokens); {
		item := tokens[i]
		if lineWidth+item.width > width && len(line) > 0 {
			switch {
			case item.isSpace:
				out.WriteString(renderTokens(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
				i++
			case lastSpaceIdx >= 0:
				out.WriteString(renderTokens(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledToken{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			default:
				out.WriteString(renderTokens(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		if item.isSpace && len(line) == 0 {
			i++
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderTokens(line))
	return out.String()
}

func lineWidthOf(line []styledToken) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledToken) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
