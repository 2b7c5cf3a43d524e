package overlay

import (
	"strings"

	"github.com/kastheco/testsmith/ui"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var shadowStyle = lipgloss.NewStyle().Foreground(ui.ColorOverlay)

// PlaceOverlay draws fg on top of bg with its top-left corner at (x, y).
// When center is set, x and y are ignored and fg is centered. When shadow is
// set, a one-cell drop shadow is drawn right of and below fg. Cells of fg
// that fall outside bg are clipped.
func PlaceOverlay(x, y int, fg, bg string, shadow, center bool) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")

	fgWidth := 0
	for _, l := range fgLines {
		fgWidth = max(fgWidth, ansi.StringWidth(l))
	}
	bgWidth := 0
	for _, l := range bgLines {
		bgWidth = max(bgWidth, ansi.StringWidth(l))
	}

	if shadow {
		cell := shadowStyle.Render("░")
		for i := range fgLines {
			pad := fgWidth - ansi.StringWidth(fgLines[i])
			fgLines[i] += strings.Repeat(" ", pad)
			if i > 0 {
				fgLines[i] += cell
			} else {
				fgLines[i] += " "
			}
		}
		fgLines = append(fgLines, " "+strings.Repeat(cell, fgWidth))
		fgWidth++
	}

	if center {
		x = (bgWidth - fgWidth) / 2
		y = (len(bgLines) - len(fgLines)) / 2
	}
	x = max(x, 0)
	y = max(y, 0)

	out := make([]string, len(bgLines))
	copy(out, bgLines)
	for i, fgLine := range fgLines {
		row := y + i
		if row >= len(out) {
			break
		}
		bgLine := out[row]
		left := ansi.Truncate(bgLine, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		if strings.Contains(left, "\x1b") {
			left += ansi.ResetStyle
		}
		visible := fgLine
		if bgWidth > 0 && x+ansi.StringWidth(fgLine) > bgWidth {
			visible = ansi.Truncate(fgLine, max(bgWidth-x, 0), "")
		}
		right := ansi.TruncateLeft(bgLine, x+ansi.StringWidth(visible), "")
		out[row] = left + visible + right
	}
	return strings.Join(out, "\n")
}
