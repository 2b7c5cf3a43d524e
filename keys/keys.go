package keys

import (
	"github.com/charmbracelet/bubbles/key"
)

type KeyName int

const (
	KeyUp KeyName = iota
	KeyDown
	KeyEnter
	KeyQuit
	KeyHelp

	KeyLogin  // Key for starting the GitHub login flow
	KeyLogout // Key for forgetting the stored token

	KeySelect   // Toggle the file under the cursor in or out of the selection
	KeyGoUp     // Leave the current directory
	KeyBack     // Step back one screen, discarding later-stage state
	KeyGenerate // Request summaries for the selected files
	KeyRefresh  // Reload the current listing
	KeySearch   // Filter the repository list

	KeyCopy     // Copy generated code to the clipboard
	KeySave     // Write generated code to the download directory
	KeyCreatePR // Open a pull request with the generated code
	KeyHistory  // Show the activity history
	KeyGoto     // Jump to a route by path

	KeySubmitName // SubmitName is a special keybinding for confirming text input.
)

// GlobalKeyStringsMap is a global, immutable map string to keybinding.
var GlobalKeyStringsMap = map[string]KeyName{
	"up":        KeyUp,
	"k":         KeyUp,
	"down":      KeyDown,
	"j":         KeyDown,
	"enter":     KeyEnter,
	"o":         KeyEnter,
	"q":         KeyQuit,
	"?":         KeyHelp,
	"l":         KeyLogin,
	"L":         KeyLogout,
	" ":         KeySelect,
	"space":     KeySelect,
	"backspace": KeyGoUp,
	"h":         KeyGoUp,
	"left":      KeyGoUp,
	"esc":       KeyBack,
	"b":         KeyBack,
	"g":         KeyGenerate,
	"r":         KeyRefresh,
	"/":         KeySearch,
	"c":         KeyCopy,
	"s":         KeySave,
	"P":         KeyCreatePR,
	"H":         KeyHistory,
	":":         KeyGoto,
}

// GlobalkeyBindings is a global, immutable map of KeyName to keybinding.
var GlobalkeyBindings = map[KeyName]key.Binding{
	KeyUp: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	KeyDown: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	KeyEnter: key.NewBinding(
		key.WithKeys("enter", "o"),
		key.WithHelp("↵/o", "open"),
	),
	KeyQuit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	KeyHelp: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	KeyLogin: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "log in"),
	),
	KeyLogout: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "log out"),
	),
	KeySelect: key.NewBinding(
		key.WithKeys(" ", "space"),
		key.WithHelp("space", "select"),
	),
	KeyGoUp: key.NewBinding(
		key.WithKeys("backspace", "h", "left"),
		key.WithHelp("⌫/h", "up a level"),
	),
	KeyBack: key.NewBinding(
		key.WithKeys("esc", "b"),
		key.WithHelp("esc/b", "back"),
	),
	KeyGenerate: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "summarize"),
	),
	KeyRefresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	KeySearch: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	KeyCopy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy"),
	),
	KeySave: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "save"),
	),
	KeyCreatePR: key.NewBinding(
		key.WithKeys("P"),
		key.WithHelp("P", "create pr"),
	),
	KeyHistory: key.NewBinding(
		key.WithKeys("H"),
		key.WithHelp("H", "history"),
	),
	KeyGoto: key.NewBinding(
		key.WithKeys(":"),
		key.WithHelp(":", "go to path"),
	),

	// -- Special keybindings --

	KeySubmitName: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
}
