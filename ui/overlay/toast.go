package overlay

import (
	"time"

	"github.com/kastheco/testsmith/ui"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// ToastType identifies the kind of toast notification.
type ToastType int

const (
	ToastInfo ToastType = iota
	ToastSuccess
	ToastError
)

// AnimPhase represents the current animation phase of a toast.
type AnimPhase int

const (
	PhaseSlidingIn AnimPhase = iota
	PhaseVisible
	PhaseSlidingOut
	PhaseDone
)

// Animation and display constants.
const (
	SlideInDuration  = 300 * time.Millisecond
	SlideOutDuration = 200 * time.Millisecond

	InfoDismissAfter    = 3 * time.Second
	SuccessDismissAfter = 3 * time.Second

	MinToastWidth = 30
	MaxToastWidth = 60
)

// toast is the single notification on screen.
type toast struct {
	ID         string
	Type       ToastType
	Message    string
	Phase      AnimPhase
	PhaseStart time.Time
	Duration   time.Duration // 0 means dismissed externally (errors)
	Width      int
}

// calcToastWidth computes the toast width from its message: icon (up to 2
// cells) + space + message + padding (2) + border (2).
func calcToastWidth(msg string) int {
	contentWidth := 2 + 1 + runewidth.StringWidth(msg) + 4
	return clampInt(contentWidth, MinToastWidth, MaxToastWidth)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ToastManager holds one notification slot. Errors own the slot until they
// are cleared by id; info and success notices only take an idle slot and
// time out on their own.
type ToastManager struct {
	current *toast
	width   int
	height  int
	now     func() time.Time
}

// NewToastManager creates an empty ToastManager.
func NewToastManager() *ToastManager {
	return &ToastManager{now: time.Now}
}

// SetSize updates the available viewport dimensions for toast positioning.
func (tm *ToastManager) SetSize(width, height int) {
	tm.width = width
	tm.height = height
}

// Error shows msg as the error identified by id, replacing whatever is in
// the slot. Showing the id that is already displayed is a no-op.
func (tm *ToastManager) Error(id, msg string) {
	if t := tm.current; t != nil && t.Type == ToastError && t.ID == id && t.Phase != PhaseSlidingOut {
		return
	}
	tm.show(&toast{ID: id, Type: ToastError, Message: msg})
}

// ClearError slides out the displayed error when its id matches. An empty
// id clears any displayed error.
func (tm *ToastManager) ClearError(id string) {
	t := tm.current
	if t == nil || t.Type != ToastError {
		return
	}
	if id != "" && t.ID != id {
		return
	}
	tm.slideOut(t)
}

// Info shows an informational notice unless an error holds the slot.
// It reports whether the notice was shown.
func (tm *ToastManager) Info(msg string) bool {
	return tm.notice(ToastInfo, msg, InfoDismissAfter)
}

// Success shows a success notice unless an error holds the slot.
// It reports whether the notice was shown.
func (tm *ToastManager) Success(msg string) bool {
	return tm.notice(ToastSuccess, msg, SuccessDismissAfter)
}

func (tm *ToastManager) notice(typ ToastType, msg string, d time.Duration) bool {
	if t := tm.current; t != nil && t.Type == ToastError && t.Phase != PhaseSlidingOut {
		return false
	}
	tm.show(&toast{Type: typ, Message: msg, Duration: d})
	return true
}

func (tm *ToastManager) show(t *toast) {
	t.Width = calcToastWidth(t.Message)
	t.Phase = PhaseSlidingIn
	t.PhaseStart = tm.now()
	tm.current = t
}

func (tm *ToastManager) slideOut(t *toast) {
	if t.Phase == PhaseSlidingOut || t.Phase == PhaseDone {
		return
	}
	t.Phase = PhaseSlidingOut
	t.PhaseStart = tm.now()
}

// HasActiveToasts returns true while a toast is on screen or animating.
func (tm *ToastManager) HasActiveToasts() bool {
	return tm.current != nil && tm.current.Phase != PhaseDone
}

// Message returns the displayed text and type, or "" when the slot is empty.
func (tm *ToastManager) Message() (string, ToastType) {
	if !tm.HasActiveToasts() {
		return "", ToastInfo
	}
	return tm.current.Message, tm.current.Type
}

// ToastTickMsg is sent by the main app every ~50ms while a toast is active
// to drive animation phase transitions.
type ToastTickMsg struct{}

// Tick advances the animation phase based on elapsed time and drops the
// toast once it has slid out.
func (tm *ToastManager) Tick() {
	t := tm.current
	if t == nil {
		return
	}
	now := tm.now()
	elapsed := now.Sub(t.PhaseStart)
	switch t.Phase {
	case PhaseSlidingIn:
		if elapsed >= SlideInDuration {
			t.Phase = PhaseVisible
			t.PhaseStart = now
		}
	case PhaseVisible:
		if t.Duration > 0 && elapsed >= t.Duration {
			t.Phase = PhaseSlidingOut
			t.PhaseStart = now
		}
	case PhaseSlidingOut:
		if elapsed >= SlideOutDuration {
			tm.current = nil
		}
	case PhaseDone:
		tm.current = nil
	}
}

// toastColor returns the Rosé Pine Moon palette color for a toast type.
func toastColor(typ ToastType) lipgloss.Color {
	switch typ {
	case ToastSuccess:
		return ui.ColorFoam
	case ToastError:
		return ui.ColorLove
	default:
		return ui.ColorIris
	}
}

func toastIcon(typ ToastType) string {
	style := lipgloss.NewStyle().Foreground(toastColor(typ))
	switch typ {
	case ToastSuccess:
		return style.Render("✓")
	case ToastError:
		return style.Render("✗")
	default:
		return style.Render("▸")
	}
}

// slideOffset returns the horizontal offset for the slide animation.
func (tm *ToastManager) slideOffset() int {
	t := tm.current
	fullOffset := t.Width + 4
	elapsed := tm.now().Sub(t.PhaseStart)
	switch t.Phase {
	case PhaseSlidingIn:
		progress := min(float64(elapsed)/float64(SlideInDuration), 1)
		// Ease-out
		progress = 1 - (1-progress)*(1-progress)
		return int(float64(fullOffset) * (1 - progress))
	case PhaseSlidingOut:
		progress := min(float64(elapsed)/float64(SlideOutDuration), 1)
		// Ease-in
		progress = progress * progress
		return int(float64(fullOffset) * progress)
	default:
		return 0
	}
}

// View renders the active toast. Long messages wrap within the toast width.
func (tm *ToastManager) View() string {
	if !tm.HasActiveToasts() {
		return ""
	}
	t := tm.current
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(toastColor(t.Type)).
		Padding(0, 1).
		Width(t.Width).
		Render(toastIcon(t.Type) + " " + t.Message)
}

// GetPosition returns the x, y coordinates for placing the toast overlay:
// top right, shifted right while sliding.
func (tm *ToastManager) GetPosition() (int, int) {
	if !tm.HasActiveToasts() {
		return 0, 0
	}
	x := tm.width - tm.current.Width - 4
	if x < 0 {
		x = 0
	}
	return x + tm.slideOffset(), 1
}
