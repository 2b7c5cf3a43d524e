package app

import (
	"github.com/kastheco/testsmith/ui"

	"github.com/charmbracelet/lipgloss"
)

// helpContent returns the text of the help overlay.
func helpContent() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		ui.GradientText("testsmith", ui.GradientStart, ui.GradientEnd),
		"",
		descStyle.Render("browse a github repository, pick files, and turn them into tests."),
		descStyle.Render("summaries first, then code, then a pull request."),
		"",
		headerStyle.Render("repositories:"),
		keyStyle.Render("↵/o")+descStyle.Render("       - open repository"),
		keyStyle.Render("/")+descStyle.Render("         - filter by name"),
		keyStyle.Render("r")+descStyle.Render("         - refresh"),
		keyStyle.Render("L")+descStyle.Render("         - log out"),
		"",
		headerStyle.Render("files:"),
		keyStyle.Render("↵/o")+descStyle.Render("       - enter directory"),
		keyStyle.Render("space")+descStyle.Render("     - select or unselect file"),
		keyStyle.Render("⌫/h")+descStyle.Render("       - up a level"),
		keyStyle.Render("g")+descStyle.Render("         - summarize selected files"),
		"",
		headerStyle.Render("summaries and tests:"),
		keyStyle.Render("↵/o")+descStyle.Render("       - generate test code"),
		keyStyle.Render("c")+descStyle.Render("         - copy code"),
		keyStyle.Render("s")+descStyle.Render("         - save code to the download dir"),
		keyStyle.Render("P")+descStyle.Render("         - create pull request"),
		keyStyle.Render("esc/b")+descStyle.Render("     - back"),
		"",
		headerStyle.Render("anywhere:"),
		keyStyle.Render(":")+descStyle.Render("         - go to path (/repositories/owner/name)"),
		keyStyle.Render("H")+descStyle.Render("         - activity history"),
		keyStyle.Render("?")+descStyle.Render("         - this help"),
		keyStyle.Render("q")+descStyle.Render("         - quit"),
	)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ui.ColorFoam)
	keyStyle    = lipgloss.NewStyle().Bold(true).Foreground(ui.ColorGold)
	descStyle   = lipgloss.NewStyle().Foreground(ui.ColorText)
)
