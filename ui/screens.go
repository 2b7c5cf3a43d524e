package ui

import (
	"fmt"
	"strings"

	"github.com/kastheco/testsmith/internal/backend"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const (
	markerPrivate   = "◆"
	markerPublic    = "◇"
	markerDir       = "▸"
	markerFile      = "·"
	markerSelected  = "✓"
	markerSummary   = "○"
	markerGenerated = "●"
)

// RepoItems renders repositories as list rows keyed by full name.
func RepoItems(repos []backend.Repository) []ListItem {
	items := make([]ListItem, 0, len(repos))
	for _, r := range repos {
		it := ListItem{
			Key:    r.FullName,
			Title:  r.FullName,
			Detail: r.Language,
			Marker: markerPublic,
			Color:  ColorFoam,
		}
		if r.Private {
			it.Marker = markerPrivate
			it.Color = ColorGold
		}
		items = append(items, it)
	}
	return items
}

// EntryItems renders a directory listing keyed by path. Directories get a
// trailing slash; selected files get a check mark.
func EntryItems(entries []backend.Entry, selected func(path string) bool) []ListItem {
	items := make([]ListItem, 0, len(entries))
	for _, e := range entries {
		it := ListItem{Key: e.Path, Title: e.Name}
		switch {
		case e.IsDir():
			it.Title += "/"
			it.Marker = markerDir
			it.Color = ColorPine
		case selected != nil && selected(e.Path):
			it.Marker = markerSelected
			it.Color = ColorFoam
		default:
			it.Marker = markerFile
			it.Color = ColorMuted
		}
		if e.Size > 0 && !e.IsDir() {
			it.Detail = humanSize(e.Size)
		}
		items = append(items, it)
	}
	return items
}

// SummaryItems renders summaries keyed by title. A summary whose code is
// being generated shows the spinner frame; one with code shows a dot.
func SummaryItems(summaries []backend.Summary, generating func(title string) bool, hasCode func(title string) bool, spinnerFrame string) []ListItem {
	items := make([]ListItem, 0, len(summaries))
	for _, s := range summaries {
		it := ListItem{
			Key:    s.Title,
			Title:  s.Title,
			Detail: s.Framework,
			Marker: markerSummary,
			Color:  ColorMuted,
		}
		switch {
		case generating != nil && generating(s.Title):
			it.Marker = spinnerFrame
			it.Color = ColorGold
		case hasCode != nil && hasCode(s.Title):
			it.Marker = markerGenerated
			it.Color = ColorFoam
		}
		items = append(items, it)
	}
	return items
}

var summaryHeadingStyle = lipgloss.NewStyle().
	Foreground(ColorIris).
	Bold(true)

var summaryMetaStyle = lipgloss.NewStyle().
	Foreground(ColorMuted)

var summaryBodyStyle = lipgloss.NewStyle().
	Foreground(ColorText)

// RenderSummary renders one summary's title, source file and wrapped
// description for the detail pane.
func RenderSummary(s backend.Summary, width int) string {
	if width < 10 {
		width = 10
	}
	var b strings.Builder
	b.WriteString(summaryHeadingStyle.Render(wordwrap.String(s.Title, width)))
	meta := make([]string, 0, 2)
	if s.File != "" {
		meta = append(meta, s.File)
	}
	if s.Framework != "" {
		meta = append(meta, s.Framework)
	}
	if len(meta) > 0 {
		b.WriteString("\n")
		b.WriteString(summaryMetaStyle.Render(strings.Join(meta, " · ")))
	}
	b.WriteString("\n\n")
	b.WriteString(summaryBodyStyle.Render(wordwrap.String(s.Description, width)))
	return b.String()
}

var promptStyle = lipgloss.NewStyle().
	Foreground(ColorText)

var promptKeyStyle = lipgloss.NewStyle().
	Foreground(ColorIris).
	Bold(true)

var hintStyle = lipgloss.NewStyle().
	Foreground(ColorMuted)

// RenderLogin renders the login screen: the banner and either a prompt or,
// while a login is in progress, the waiting message.
func RenderLogin(width, height, frame int, loading bool, authURL string) string {
	var body string
	if loading {
		body = promptStyle.Render("Logging in with GitHub...")
		if authURL != "" {
			body += "\n\n" + hintStyle.Render(wordwrap.String("If no browser opened, visit "+authURL, max(width-4, 20)))
		}
	} else {
		body = promptStyle.Render("Press ") + promptKeyStyle.Render("l") + promptStyle.Render(" to log in with GitHub")
	}
	content := lipgloss.JoinVertical(lipgloss.Center, Banner(frame, width), "", body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

var notFoundStyle = lipgloss.NewStyle().
	Foreground(ColorLove).
	Bold(true)

// RenderNotFound renders the catch-all screen for an unknown route.
func RenderNotFound(width, height int, path string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		notFoundStyle.Render("404"),
		"",
		promptStyle.Render(fmt.Sprintf("Nothing lives at %s", path)),
		hintStyle.Render("esc goes back"),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
