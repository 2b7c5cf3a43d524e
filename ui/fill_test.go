package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillBackground_PadsToHeight(t *testing.T) {
	out := FillBackground("a\nb", 4)
	assert.Equal(t, []string{"a", "b", "", ""}, strings.Split(out, "\n"))
}

func TestFillBackground_ClipsTallOutput(t *testing.T) {
	out := FillBackground("a\nb\nc", 2)
	assert.Equal(t, "a\nb", out)
}

func TestFillBackground_ZeroHeightIsNoop(t *testing.T) {
	assert.Equal(t, "a\nb", FillBackground("a\nb", 0))
}
