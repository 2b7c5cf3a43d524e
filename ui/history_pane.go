package ui

import (
	"strings"

	"github.com/kastheco/testsmith/config/auditlog"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// HistoryPane renders a scrollable list of recorded activity, newest first.
type HistoryPane struct {
	events      []auditlog.Event
	viewport    viewport.Model
	width       int
	height      int
	filterLabel string
}

// NewHistoryPane creates an empty HistoryPane.
func NewHistoryPane() *HistoryPane {
	return &HistoryPane{viewport: viewport.New(0, 0)}
}

// SetSize updates the pane dimensions and rebuilds the viewport content.
func (p *HistoryPane) SetSize(w, h int) {
	p.width = w
	// Reserve 1 line for the header.
	bodyH := h - 1
	if bodyH < 0 {
		bodyH = 0
	}
	p.height = h
	p.viewport.Width = w
	p.viewport.Height = bodyH
	p.viewport.SetContent(p.renderBody())
}

// SetEvents replaces the event list and refreshes the viewport.
func (p *HistoryPane) SetEvents(events []auditlog.Event) {
	p.events = events
	p.viewport.SetContent(p.renderBody())
	p.viewport.GotoTop()
}

// SetFilter updates the filter label shown in the header.
func (p *HistoryPane) SetFilter(label string) {
	p.filterLabel = label
}

// ScrollDown scrolls the viewport down by n lines.
func (p *HistoryPane) ScrollDown(n int) {
	p.viewport.LineDown(n)
}

// ScrollUp scrolls the viewport up by n lines.
func (p *HistoryPane) ScrollUp(n int) {
	p.viewport.LineUp(n)
}

var (
	historyHeaderStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	historyTimeStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	historyRepoStyle   = lipgloss.NewStyle().Foreground(ColorSubtle)
	historyMsgStyle    = lipgloss.NewStyle().Foreground(ColorText)
	historyEmptyStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
)

// String renders the pane: a 1-line header + scrollable body.
func (p *HistoryPane) String() string {
	header := p.renderHeader()
	body := p.viewport.View()
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func (p *HistoryPane) renderHeader() string {
	left := "── history ──"
	right := p.filterLabel
	if right == "" {
		right = "all"
	}

	gap := p.width - runewidth.StringWidth(left) - runewidth.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	return historyHeaderStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func (p *HistoryPane) renderBody() string {
	if len(p.events) == 0 {
		return historyEmptyStyle.Render("no events")
	}

	lines := make([]string, 0, len(p.events))
	for _, e := range p.events {
		icon, color := EventKindIcon(e.Kind)
		line := historyTimeStyle.Render(e.Timestamp.Local().Format("Jan 02 15:04")) + " " +
			lipgloss.NewStyle().Foreground(color).Render(icon) + " "
		if e.Repo != "" {
			line += historyRepoStyle.Render(e.Repo) + " "
		}
		line += historyMsgStyle.Render(e.Message)
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// EventKindIcon returns the icon and color for an audit event kind.
func EventKindIcon(kind auditlog.EventKind) (icon string, color lipgloss.Color) {
	switch kind {
	case auditlog.EventLogin:
		return "→", ColorFoam
	case auditlog.EventLogout:
		return "←", ColorMuted
	case auditlog.EventSessionExpired:
		return "⏸", ColorGold
	case auditlog.EventSummariesGenerated:
		return "✦", ColorIris
	case auditlog.EventCodeGenerated:
		return "◆", ColorFoam
	case auditlog.EventTestSaved:
		return "↓", ColorFoam
	case auditlog.EventPRCreated:
		return "⎇", ColorIris
	case auditlog.EventPRFailed:
		return "✕", ColorLove
	case auditlog.EventError:
		return "!", ColorLove
	default:
		return "·", ColorMuted
	}
}
