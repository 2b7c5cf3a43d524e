package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// ListItem is one row of a List. Key identifies the row across SetItems
// calls so the cursor survives a refresh.
type ListItem struct {
	Key    string
	Title  string
	Detail string // right-aligned, subtle
	Marker string // one-cell glyph drawn before the title
	Color  lipgloss.TerminalColor
	Dim    bool
}

// List is a bordered, scrollable single-line-per-item list with an optional
// substring filter.
type List struct {
	title    string
	subtitle string
	footer   string
	empty    string

	allItems []ListItem
	items    []ListItem
	query    string

	selectedIdx   int
	scrollOffset  int
	height, width int
	focused       bool
}

// NewList creates a list with the given header title and empty-state text.
func NewList(title, empty string) *List {
	return &List{title: title, empty: empty, focused: true}
}

func (l *List) SetTitle(title string) {
	l.title = title
}

// SetSubtitle sets the muted line under the title (breadcrumbs, counts).
func (l *List) SetSubtitle(subtitle string) {
	l.subtitle = subtitle
}

// SetFooter sets the highlighted line under the items. Empty hides it.
func (l *List) SetFooter(footer string) {
	l.footer = footer
}

func (l *List) SetEmptyText(empty string) {
	l.empty = empty
}

func (l *List) SetFocused(focused bool) {
	l.focused = focused
}

func (l *List) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.ensureSelectedVisible()
}

// SetItems replaces the rows. The cursor stays on the row with the same key
// when it is still present, otherwise it is clamped.
func (l *List) SetItems(items []ListItem) {
	var key string
	if sel, ok := l.Selected(); ok {
		key = sel.Key
	}
	l.allItems = items
	l.rebuild(key)
}

// SetFilter narrows the rows to those whose title contains query,
// case-insensitively.
func (l *List) SetFilter(query string) {
	var key string
	if sel, ok := l.Selected(); ok {
		key = sel.Key
	}
	l.query = query
	l.rebuild(key)
}

// Filter returns the active filter query.
func (l *List) Filter() string {
	return l.query
}

func (l *List) rebuild(keepKey string) {
	l.items = l.items[:0]
	q := strings.ToLower(l.query)
	for _, it := range l.allItems {
		if q == "" || strings.Contains(strings.ToLower(it.Title), q) {
			l.items = append(l.items, it)
		}
	}

	idx := -1
	if keepKey != "" {
		for i, it := range l.items {
			if it.Key == keepKey {
				idx = i
				break
			}
		}
	}
	if idx >= 0 {
		l.selectedIdx = idx
	} else if l.selectedIdx >= len(l.items) {
		l.selectedIdx = len(l.items) - 1
	}
	if l.selectedIdx < 0 {
		l.selectedIdx = 0
	}
	l.ensureSelectedVisible()
}

// Len is the number of visible (filtered) rows.
func (l *List) Len() int {
	return len(l.items)
}

// Selected returns the row under the cursor.
func (l *List) Selected() (ListItem, bool) {
	if len(l.items) == 0 {
		return ListItem{}, false
	}
	return l.items[l.selectedIdx], true
}

// SelectedIndex returns the cursor position within the visible rows.
func (l *List) SelectedIndex() int {
	return l.selectedIdx
}

// Select moves the cursor to the row with key. It reports whether the row exists.
func (l *List) Select(key string) bool {
	for i, it := range l.items {
		if it.Key == key {
			l.selectedIdx = i
			l.ensureSelectedVisible()
			return true
		}
	}
	return false
}

// Reset moves the cursor to the top.
func (l *List) Reset() {
	l.selectedIdx = 0
	l.scrollOffset = 0
}

// Down selects the next item in the list.
func (l *List) Down() {
	if len(l.items) == 0 {
		return
	}
	if l.selectedIdx < len(l.items)-1 {
		l.selectedIdx++
	}
	l.ensureSelectedVisible()
}

// Up selects the prev item in the list.
func (l *List) Up() {
	if len(l.items) == 0 {
		return
	}
	if l.selectedIdx > 0 {
		l.selectedIdx--
	}
	l.ensureSelectedVisible()
}

// headerLines counts the title, the optional subtitle and the blank gap.
func (l *List) headerLines() int {
	n := 2
	if l.subtitle != "" {
		n++
	}
	return n
}

// availContentLines returns the number of rows available for items inside
// the border, excluding the header and footer.
func (l *List) availContentLines() int {
	const borderV = 2
	avail := l.height - borderV - l.headerLines()
	if l.footer != "" {
		avail -= 2
	}
	if avail < 1 {
		avail = 1
	}
	return avail
}

// ensureSelectedVisible adjusts scrollOffset so the selected row is visible.
func (l *List) ensureSelectedVisible() {
	if len(l.items) == 0 {
		l.scrollOffset = 0
		return
	}
	avail := l.availContentLines()
	if l.selectedIdx < l.scrollOffset {
		l.scrollOffset = l.selectedIdx
	}
	if l.selectedIdx >= l.scrollOffset+avail {
		l.scrollOffset = l.selectedIdx - avail + 1
	}
	if l.scrollOffset < 0 {
		l.scrollOffset = 0
	}
}

func (l *List) renderRow(it ListItem, selected bool, width int) string {
	marker := it.Marker
	if marker == "" {
		marker = " "
	}
	marker = ansi.Truncate(marker, 1, "")
	markerW := runewidth.StringWidth(marker)

	detail := it.Detail
	detailW := runewidth.StringWidth(detail)
	if detailW > width/3 {
		detail = runewidth.Truncate(detail, width/3, "…")
		detailW = runewidth.StringWidth(detail)
	}

	titleW := width - markerW - 1 - detailW
	if detail != "" {
		titleW--
	}
	if titleW < 1 {
		titleW = 1
	}
	title := runewidth.Truncate(it.Title, titleW, "…")
	gap := width - markerW - 1 - runewidth.StringWidth(title) - detailW
	if gap < 0 {
		gap = 0
	}
	line := marker + " " + title + strings.Repeat(" ", gap) + detail

	if selected {
		return listSelectedStyle.Render(line)
	}

	rowStyle := listRowStyle
	if it.Dim {
		rowStyle = listDimStyle
	}
	markerStyle := rowStyle
	if it.Color != nil {
		markerStyle = markerStyle.Foreground(it.Color)
	}
	return markerStyle.Render(marker) + " " +
		rowStyle.Render(title) + strings.Repeat(" ", gap) +
		listDetailStyle.Render(detail)
}

func (l *List) String() string {
	// Border frame: 2 border + 2 padding = 4 chars horizontal, 2 chars vertical.
	const borderH = 4
	const borderV = 2

	innerWidth := l.width - borderH
	if innerWidth < 8 {
		innerWidth = 8
	}
	innerHeight := l.height - borderV
	if innerHeight < 4 {
		innerHeight = 4
	}
	// Width includes the horizontal padding.
	contentWidth := innerWidth - 2

	var b strings.Builder
	title := l.title
	if l.query != "" {
		title += " /" + l.query
	}
	b.WriteString(listTitleStyle.Render(GradientText(runewidth.Truncate(title, contentWidth, "…"), GradientStart, GradientEnd)))
	b.WriteString("\n")
	if l.subtitle != "" {
		b.WriteString(listSubtitleStyle.Render(runewidth.Truncate(l.subtitle, contentWidth, "…")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(l.items) == 0 {
		b.WriteString(listEmptyStyle.Render(l.empty))
	} else {
		avail := l.availContentLines()
		end := l.scrollOffset + avail
		if end > len(l.items) {
			end = len(l.items)
		}
		rows := make([]string, 0, end-l.scrollOffset)
		for i := l.scrollOffset; i < end; i++ {
			rows = append(rows, l.renderRow(l.items[i], i == l.selectedIdx && l.focused, contentWidth))
		}
		b.WriteString(strings.Join(rows, "\n"))
	}

	if l.footer != "" {
		b.WriteString("\n\n")
		b.WriteString(listFooterStyle.Render(runewidth.Truncate(l.footer, contentWidth, "…")))
	}

	borderStyle := listBorderStyle
	if l.focused {
		borderStyle = listFocusedBorderStyle
	}
	bordered := borderStyle.Width(innerWidth).Height(innerHeight).Render(b.String())
	placed := lipgloss.Place(l.width, l.height, lipgloss.Left, lipgloss.Top, bordered)

	// Hard-clip to l.height lines.
	placedLines := strings.Split(placed, "\n")
	if l.height > 0 && len(placedLines) > l.height {
		placedLines = placedLines[:l.height]
	}
	return strings.Join(placedLines, "\n")
}
