package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StatusBarData holds the contextual information displayed in the status bar.
type StatusBarData struct {
	Login  string // empty = signed out
	Repo   string // owner/name, empty outside a repository
	Path   string // directory inside Repo
	Screen string // current route name
	Busy   string // in-flight work label, e.g. "generating"
}

// StatusBar is the top status bar component.
type StatusBar struct {
	width int
	data  StatusBarData
}

// NewStatusBar creates a new StatusBar.
func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

// SetSize sets the terminal width for the status bar.
func (s *StatusBar) SetSize(width int) {
	s.width = width
}

// SetData updates the status bar content.
func (s *StatusBar) SetData(data StatusBarData) {
	s.data = data
}

var statusBarStyle = lipgloss.NewStyle().
	Background(ColorSurface).
	Foreground(ColorText).
	Padding(0, 1)

var statusBarAppNameStyle = lipgloss.NewStyle().
	Foreground(ColorIris).
	Background(ColorSurface).
	Bold(true)

var statusBarSepStyle = lipgloss.NewStyle().
	Foreground(ColorOverlay).
	Background(ColorSurface)

var statusBarLoginStyle = lipgloss.NewStyle().
	Foreground(ColorFoam).
	Background(ColorSurface)

var statusBarRepoStyle = lipgloss.NewStyle().
	Foreground(ColorText).
	Background(ColorSurface)

var statusBarScreenStyle = lipgloss.NewStyle().
	Foreground(ColorSubtle).
	Background(ColorSurface)

var statusBarBusyStyle = lipgloss.NewStyle().
	Foreground(ColorGold).
	Background(ColorSurface)

const statusBarSep = " │ "

func (s *StatusBar) String() string {
	if s.width < 10 {
		return ""
	}

	parts := make([]string, 0, 5)
	parts = append(parts, statusBarAppNameStyle.Render("testsmith"))

	if s.data.Login != "" {
		parts = append(parts, statusBarLoginStyle.Render("@"+s.data.Login))
	}

	if s.data.Repo != "" {
		repo := s.data.Repo
		if s.data.Path != "" {
			repo += "/" + strings.Trim(s.data.Path, "/")
		}
		parts = append(parts, statusBarRepoStyle.Render(repo))
	}

	if s.data.Screen != "" {
		parts = append(parts, statusBarScreenStyle.Render(s.data.Screen))
	}

	if s.data.Busy != "" {
		parts = append(parts, statusBarBusyStyle.Render(s.data.Busy))
	}

	sep := statusBarSepStyle.Render(statusBarSep)
	content := strings.Join(parts, sep)

	return statusBarStyle.Width(s.width).MaxHeight(1).Render(content)
}
