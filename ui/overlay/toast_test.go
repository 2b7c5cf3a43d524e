package overlay

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager() (*ToastManager, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	tm := NewToastManager()
	tm.now = clock.now
	tm.SetSize(100, 30)
	return tm, clock
}

func TestToast_ErrorStaysUntilCleared(t *testing.T) {
	tm, clock := newTestManager()
	tm.Error("e1", "Failed to fetch files.")

	clock.advance(time.Minute)
	tm.Tick()
	tm.Tick()
	require.True(t, tm.HasActiveToasts())
	msg, typ := tm.Message()
	assert.Equal(t, "Failed to fetch files.", msg)
	assert.Equal(t, ToastError, typ)
}

func TestToast_ClearErrorMatchesID(t *testing.T) {
	tm, clock := newTestManager()
	tm.Error("e2", "second")

	tm.ClearError("e1")
	clock.advance(SlideOutDuration)
	tm.Tick()
	tm.Tick()
	assert.True(t, tm.HasActiveToasts(), "stale id must not clear a newer error")

	tm.ClearError("e2")
	clock.advance(SlideOutDuration)
	tm.Tick()
	assert.False(t, tm.HasActiveToasts())
}

func TestToast_NoticeDoesNotReplaceError(t *testing.T) {
	tm, _ := newTestManager()
	tm.Error("e1", "boom")

	assert.False(t, tm.Success("Copied!"))
	msg, _ := tm.Message()
	assert.Equal(t, "boom", msg)
}

func TestToast_ErrorReplacesNotice(t *testing.T) {
	tm, _ := newTestManager()
	require.True(t, tm.Info("Saved"))
	tm.Error("e1", "boom")

	msg, typ := tm.Message()
	assert.Equal(t, "boom", msg)
	assert.Equal(t, ToastError, typ)
}

func TestToast_NoticeTimesOut(t *testing.T) {
	tm, clock := newTestManager()
	tm.Success("Copied!")

	clock.advance(SlideInDuration)
	tm.Tick() // visible
	clock.advance(SuccessDismissAfter)
	tm.Tick() // sliding out
	clock.advance(SlideOutDuration)
	tm.Tick() // gone
	assert.False(t, tm.HasActiveToasts())
	assert.Empty(t, tm.View())
}

func TestToast_SameErrorIDIsNoOp(t *testing.T) {
	tm, clock := newTestManager()
	tm.Error("e1", "boom")
	clock.advance(SlideInDuration)
	tm.Tick()

	tm.Error("e1", "boom")
	x, _ := tm.GetPosition()
	assert.Equal(t, 100-calcToastWidth("boom")-4, x, "re-showing must not restart the slide")
}

func TestToast_ViewContainsMessage(t *testing.T) {
	tm, _ := newTestManager()
	tm.Error("e1", "Authentication token is missing.")
	assert.Contains(t, ansi.Strip(tm.View()), "✗ Authentication token is missing.")
}

func TestCalcToastWidth_Clamped(t *testing.T) {
	assert.Equal(t, MinToastWidth, calcToastWidth("x"))
	assert.Equal(t, MaxToastWidth, calcToastWidth(strings.Repeat("x", 200)))
}
