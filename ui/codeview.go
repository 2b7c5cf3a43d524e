package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kastheco/testsmith/log"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// DetectGlamourStyle picks the glamour standard style for the terminal
// background. It queries the terminal, so call it before the program
// takes over stdin.
func DetectGlamourStyle() string {
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// fenceLanguages maps file extensions to markdown fence languages for the
// common test targets. Unknown extensions fall back to the bare extension.
var fenceLanguages = map[string]string{
	".ts":  "typescript",
	".tsx": "tsx",
	".js":  "javascript",
	".jsx": "jsx",
	".py":  "python",
	".go":  "go",
	".rb":  "ruby",
	".rs":  "rust",
	".kt":  "kotlin",
	".cs":  "csharp",
}

// FenceLanguage returns the markdown fence language for filename.
func FenceLanguage(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if lang, ok := fenceLanguages[ext]; ok {
		return lang
	}
	return strings.TrimPrefix(ext, ".")
}

var codeHeaderStyle = lipgloss.NewStyle().
	Foreground(ColorIris).
	Bold(true)

var codeStatusStyles = map[string]lipgloss.Style{
	"Create PR":   lipgloss.NewStyle().Foreground(ColorSubtle),
	"Creating...": lipgloss.NewStyle().Foreground(ColorGold),
	"Success!":    lipgloss.NewStyle().Foreground(ColorFoam).Bold(true),
	"Failed":      lipgloss.NewStyle().Foreground(ColorLove).Bold(true),
}

var codeNoticeStyle = lipgloss.NewStyle().
	Foreground(ColorMuted).
	Italic(true)

// CodeView shows generated test code rendered through glamour inside a
// scrollable viewport.
type CodeView struct {
	viewport viewport.Model
	style    string

	filename string
	code     string
	status   string
	notice   string

	width, height int
}

// NewCodeView creates a code view using the given glamour standard style
// ("dark", "light", "notty").
func NewCodeView(style string) *CodeView {
	if style == "" {
		style = "dark"
	}
	return &CodeView{viewport: viewport.New(0, 0), style: style}
}

// SetSize resizes the view and re-renders the code for the new width.
func (c *CodeView) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.viewport.Width = width
	bodyH := height - 2 // header + blank
	if bodyH < 1 {
		bodyH = 1
	}
	c.viewport.Height = bodyH
	c.render()
}

// SetCode replaces the displayed file and scrolls to the top.
func (c *CodeView) SetCode(filename, code string) {
	c.filename = filename
	c.code = code
	c.render()
	c.viewport.GotoTop()
}

// SetStatus sets the pull request label shown next to the filename.
func (c *CodeView) SetStatus(status string) {
	c.status = status
}

// SetNotice sets a transient muted line, such as "Copied!".
func (c *CodeView) SetNotice(notice string) {
	c.notice = notice
}

// Filename returns the displayed file name.
func (c *CodeView) Filename() string {
	return c.filename
}

func (c *CodeView) ScrollDown(n int) {
	c.viewport.LineDown(n)
}

func (c *CodeView) ScrollUp(n int) {
	c.viewport.LineUp(n)
}

// Markdown wraps code in a fenced block tagged with the file's language.
func Markdown(filename, code string) string {
	return fmt.Sprintf("```%s\n%s\n```\n", FenceLanguage(filename), strings.TrimRight(code, "\n"))
}

func (c *CodeView) render() {
	if c.code == "" {
		c.viewport.SetContent("")
		return
	}
	wrap := c.width - 2
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(c.style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		log.WarningLog.Printf("code view: glamour renderer: %v", err)
		c.viewport.SetContent(c.code)
		return
	}
	out, err := r.Render(Markdown(c.filename, c.code))
	if err != nil {
		log.WarningLog.Printf("code view: render %s: %v", c.filename, err)
		c.viewport.SetContent(c.code)
		return
	}
	c.viewport.SetContent(out)
}

func (c *CodeView) String() string {
	header := codeHeaderStyle.Render(c.filename)
	if c.status != "" {
		style, ok := codeStatusStyles[c.status]
		if !ok {
			style = codeNoticeStyle
		}
		header += "  " + style.Render("["+c.status+"]")
	}
	if c.notice != "" {
		header += "  " + codeNoticeStyle.Render(c.notice)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", c.viewport.View())
}
