package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusBar_Baseline(t *testing.T) {
	sb := NewStatusBar()
	sb.SetSize(80)
	sb.SetData(StatusBarData{Login: "octocat", Screen: "repositories"})

	result := stripANSI(sb.String())
	assert.Contains(t, result, "testsmith")
	assert.Contains(t, result, "@octocat")
	assert.Contains(t, result, "repositories")
	assert.Equal(t, 0, strings.Count(result, "\n"))
}

func TestStatusBar_RepoAndPath(t *testing.T) {
	sb := NewStatusBar()
	sb.SetSize(120)
	sb.SetData(StatusBarData{Login: "octocat", Repo: "octo/app", Path: "src/lib/"})

	assert.Contains(t, stripANSI(sb.String()), "octo/app/src/lib")
}

func TestStatusBar_SignedOutOmitsLogin(t *testing.T) {
	sb := NewStatusBar()
	sb.SetSize(80)
	sb.SetData(StatusBarData{Screen: "login"})

	assert.NotContains(t, stripANSI(sb.String()), "@")
}

func TestStatusBar_Busy(t *testing.T) {
	sb := NewStatusBar()
	sb.SetSize(120)
	sb.SetData(StatusBarData{Login: "octocat", Busy: "generating"})

	assert.Contains(t, stripANSI(sb.String()), "generating")
}

func TestStatusBar_TooNarrow(t *testing.T) {
	sb := NewStatusBar()
	sb.SetSize(5)
	assert.Empty(t, sb.String())
}
