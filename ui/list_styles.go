package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var listBorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorOverlay).
	Padding(0, 1)

var listFocusedBorderStyle = listBorderStyle.
	Border(lipgloss.DoubleBorder()).
	BorderForeground(ColorIris)

var listTitleStyle = lipgloss.NewStyle().
	Bold(true)

var listSubtitleStyle = lipgloss.NewStyle().
	Foreground(ColorMuted)

var listRowStyle = lipgloss.NewStyle().
	Foreground(ColorText)

var listDetailStyle = lipgloss.NewStyle().
	Foreground(ColorSubtle)

var listDimStyle = lipgloss.NewStyle().
	Foreground(ColorMuted)

var listSelectedStyle = lipgloss.NewStyle().
	Background(ColorIris).
	Foreground(ColorBase)

var listEmptyStyle = lipgloss.NewStyle().
	Foreground(ColorMuted).
	Italic(true)

var listFooterStyle = lipgloss.NewStyle().
	Foreground(ColorGold)
