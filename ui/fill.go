package ui

import "strings"

// FillBackground pads s to exactly height lines so bubbletea's alt-screen
// renderer doesn't leave stale content below the rendered view. Lines past
// height are dropped.
func FillBackground(s string, height int) string {
	if height <= 0 {
		return s
	}

	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
