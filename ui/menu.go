package ui

import (
	"strings"

	"github.com/kastheco/testsmith/keys"

	"github.com/charmbracelet/lipgloss"
)

var keyStyle = lipgloss.NewStyle().Foreground(ColorSubtle)

var descStyle = lipgloss.NewStyle().Foreground(ColorMuted)

var sepStyle = lipgloss.NewStyle().Foreground(ColorOverlay)

var actionGroupStyle = lipgloss.NewStyle().Foreground(ColorRose)

var separator = " • "
var verticalSeparator = " │ "

var menuStyle = lipgloss.NewStyle().
	Foreground(ColorFoam)

// MenuState represents the screen the menu is describing.
type MenuState int

const (
	StateLogin MenuState = iota
	StateLoggingIn
	StateRepositories
	StateBrowse
	StateSummaries
	StateCode
	StateFilter
	StateHistory
	StateNotFound
)

// menuGroups lists the action group and system group for each state. The
// action group is highlighted; the system group trails after a bar.
var menuGroups = map[MenuState][2][]keys.KeyName{
	StateLogin: {
		{keys.KeyLogin},
		{keys.KeyHistory, keys.KeyHelp, keys.KeyQuit},
	},
	StateLoggingIn: {
		nil,
		{keys.KeyQuit},
	},
	StateRepositories: {
		{keys.KeyEnter, keys.KeySearch, keys.KeyRefresh},
		{keys.KeyHistory, keys.KeyLogout, keys.KeyHelp, keys.KeyQuit},
	},
	StateBrowse: {
		{keys.KeyEnter, keys.KeySelect, keys.KeyGoUp, keys.KeyGenerate},
		{keys.KeyBack, keys.KeyHelp, keys.KeyQuit},
	},
	StateSummaries: {
		{keys.KeyEnter},
		{keys.KeyBack, keys.KeyHelp, keys.KeyQuit},
	},
	StateCode: {
		{keys.KeyCreatePR, keys.KeyCopy, keys.KeySave},
		{keys.KeyBack, keys.KeyHelp, keys.KeyQuit},
	},
	StateFilter: {
		{keys.KeySubmitName},
		{keys.KeyBack},
	},
	StateHistory: {
		{keys.KeyUp, keys.KeyDown},
		{keys.KeyBack, keys.KeyQuit},
	},
	StateNotFound: {
		nil,
		{keys.KeyBack, keys.KeyQuit},
	},
}

type Menu struct {
	options       []keys.KeyName
	height, width int
	state         MenuState

	// actionSize is how many leading options form the highlighted group.
	actionSize int

	// enterLabel overrides the help text of the enter key, which means
	// different things on different screens.
	enterLabel string

	// keyDown is the key which is pressed. The default is -1.
	keyDown keys.KeyName
}

func NewMenu() *Menu {
	m := &Menu{keyDown: -1}
	m.SetState(StateLogin)
	return m
}

func (m *Menu) Keydown(name keys.KeyName) {
	m.keyDown = name
}

func (m *Menu) ClearKeydown() {
	m.keyDown = -1
}

// State returns the current menu state.
func (m *Menu) State() MenuState {
	return m.state
}

// SetState updates the menu state and options accordingly
func (m *Menu) SetState(state MenuState) {
	m.state = state
	groups := menuGroups[state]
	m.options = append(append([]keys.KeyName{}, groups[0]...), groups[1]...)
	m.actionSize = len(groups[0])
}

// SetEnterLabel sets the label shown for the enter key. Empty restores the default.
func (m *Menu) SetEnterLabel(label string) {
	m.enterLabel = label
}

// SetSize sets the width of the window. The menu will be centered horizontally within this width.
func (m *Menu) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Menu) String() string {
	var s strings.Builder

	for i, k := range m.options {
		help := keys.GlobalkeyBindings[k].Help()
		helpKey, helpDesc := help.Key, help.Desc
		if k == keys.KeyEnter && m.enterLabel != "" {
			helpDesc = m.enterLabel
		}

		var (
			localActionStyle = actionGroupStyle
			localKeyStyle    = keyStyle
			localDescStyle   = descStyle
		)
		if m.keyDown == k {
			localActionStyle = localActionStyle.Underline(true)
			localKeyStyle = localKeyStyle.Underline(true)
			localDescStyle = localDescStyle.Underline(true)
		}

		if i < m.actionSize {
			s.WriteString(localActionStyle.Render(helpKey + " " + helpDesc))
		} else {
			s.WriteString(localKeyStyle.Render(helpKey))
			s.WriteString(descStyle.Render(" "))
			s.WriteString(localDescStyle.Render(helpDesc))
		}

		if i != len(m.options)-1 {
			if i == m.actionSize-1 {
				s.WriteString(sepStyle.Render(verticalSeparator))
			} else {
				s.WriteString(sepStyle.Render(separator))
			}
		}
	}

	centeredMenuText := menuStyle.Render(s.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, centeredMenuText)
}
