package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

func stripANSI(s string) string {
	return ansi.Strip(s)
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}
