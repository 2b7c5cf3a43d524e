package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// GradientText colors text left to right from startHex to endHex. Each line
// gets the same horizontal ramp so multi-line block art stays aligned.
// Invalid colors fall back to plain text.
func GradientText(text, startHex, endHex string) string {
	start, err := colorful.Hex(startHex)
	if err != nil {
		return text
	}
	end, err := colorful.Hex(endHex)
	if err != nil {
		return text
	}

	lines := strings.Split(text, "\n")
	widest := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > widest {
			widest = n
		}
	}

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for col, r := range []rune(line) {
			if r == ' ' {
				b.WriteRune(r)
				continue
			}
			t := 0.0
			if widest > 1 {
				t = float64(col) / float64(widest-1)
			}
			c := start.BlendLuv(end, t).Clamped()
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(string(r)))
		}
	}
	return b.String()
}
