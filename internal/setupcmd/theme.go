package setupcmd

import (
	"github.com/kastheco/testsmith/ui"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// formTheme styles the setup form with the app palette. Only the styles of
// inputs, the framework select and the telemetry confirm are set.
func formTheme() *huh.Theme {
	t := huh.ThemeBase()

	f := &t.Focused
	f.Base = f.Base.BorderForeground(ui.ColorIris)
	f.Title = f.Title.Foreground(ui.ColorIris).Bold(true)
	f.Description = f.Description.Foreground(ui.ColorMuted)
	f.ErrorIndicator = f.ErrorIndicator.Foreground(ui.ColorLove)
	f.ErrorMessage = f.ErrorMessage.Foreground(ui.ColorLove)

	f.TextInput.Prompt = f.TextInput.Prompt.Foreground(ui.ColorPine)
	f.TextInput.Cursor = f.TextInput.Cursor.Foreground(ui.ColorFoam)
	f.TextInput.Placeholder = f.TextInput.Placeholder.Foreground(ui.ColorMuted)
	f.TextInput.Text = f.TextInput.Text.Foreground(ui.ColorText)

	// Framework select.
	f.SelectSelector = f.SelectSelector.Foreground(ui.ColorFoam)
	f.Option = f.Option.Foreground(ui.ColorText)
	f.SelectedOption = f.SelectedOption.Foreground(ui.ColorFoam)

	// Telemetry confirm.
	f.FocusedButton = f.FocusedButton.Foreground(ui.ColorBase).Background(ui.ColorFoam)
	f.BlurredButton = f.BlurredButton.Foreground(ui.ColorSubtle).Background(ui.ColorSurface)

	t.Blurred = t.Focused
	t.Blurred.Base = t.Blurred.Base.BorderStyle(lipgloss.HiddenBorder())
	t.Blurred.Title = t.Blurred.Title.Foreground(ui.ColorSubtle).Bold(false)

	return t
}
