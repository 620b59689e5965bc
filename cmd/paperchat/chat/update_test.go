package chat

import (
	"strings"
	"testing"

	"paperchat/cmd/paperchat/ui"
	"paperchat/internal/config"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func TestUpdate_WindowSizeInitializesViewport(t *testing.T) {
	t.Parallel()

	m := New(NewMockBackend(), config.DefaultConfig())
	if m.ready {
		t.Fatal("model claims ready before the first resize")
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
	m = updated.(Model)

	if !m.ready {
		t.Fatal("model not ready after resize")
	}
	if m.viewport.Width != 98 {
		t.Errorf("viewport width = %d, want 98", m.viewport.Width)
	}
	// 50 minus header 3, input 3, footer 2.
	if m.viewport.Height != 42 {
		t.Errorf("viewport height = %d, want 42", m.viewport.Height)
	}
}

func TestUpdate_ResizeExtremeDimensionsDoesNotPanic(t *testing.T) {
	t.Parallel()

	dims := []struct{ w, h int }{
		{0, 0},
		{-5, -5},
		{1, 1},
		{2000, 3},
		{3, 2000},
	}

	for _, d := range dims {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("resize to %dx%d panicked: %v", d.w, d.h, r)
				}
			}()
			m := NewTestModel()
			updated, _ := m.Update(tea.WindowSizeMsg{Width: d.w, Height: d.h})
			_ = updated.(Model).View()
		}()
	}
}

func TestUpdate_ErrorBannerTakesLayoutSpace(t *testing.T) {
	t.Parallel()

	m := NewTestModel()
	before := m.viewport.Height

	updated, cmd := m.Update(documentsMsg{err: &MockError{msg: "backend down"}})
	m = pump(t, updated.(Model), cmd)

	if m.Err() == nil {
		t.Fatal("error not surfaced")
	}
	if got := m.viewport.Height; got != before-errorBannerHeight {
		t.Errorf("viewport height with banner = %d, want %d", got, before-errorBannerHeight)
	}
	if !strings.Contains(m.View(), "backend down") {
		t.Error("banner text missing from the view")
	}
}

func TestUpdate_EscDismissesErrorBanner(t *testing.T) {
	t.Parallel()

	m := NewTestModel()
	before := m.viewport.Height

	updated, cmd := m.Update(documentsMsg{err: &MockError{msg: "boom"}})
	m = pump(t, updated.(Model), cmd)

	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.Err() != nil {
		t.Error("error still set after dismissal")
	}
	if m.viewport.Height != before {
		t.Errorf("viewport height after dismissal = %d, want %d", m.viewport.Height, before)
	}
	if strings.Contains(m.View(), "boom") {
		t.Error("dismissed banner still rendered")
	}
}

func TestUpdate_AltEToggleHidesAndRestoresBanner(t *testing.T) {
	t.Parallel()

	m := NewTestModel()
	updated, cmd := m.Update(documentsMsg{err: &MockError{msg: "flaky"}})
	m = pump(t, updated.(Model), cmd)

	m = pressKey(t, m, altKey('e'))
	if strings.Contains(m.View(), "flaky") {
		t.Error("banner visible after alt+e hide")
	}
	if m.Err() == nil {
		t.Error("alt+e must hide the banner without clearing the error")
	}

	m = pressKey(t, m, altKey('e'))
	if !strings.Contains(m.View(), "flaky") {
		t.Error("banner not restored by second alt+e")
	}
}

func TestUpdate_AltDOpensDocumentsAndRefreshes(t *testing.T) {
	t.Parallel()

	backend := NewMockBackend()
	m := NewTestModel(WithBackend(backend))

	m = pressKey(t, m, altKey('d'))

	if m.viewMode != DocumentsView {
		t.Fatalf("viewMode = %v, want DocumentsView", m.viewMode)
	}
	if backend.ListCalls() != 1 {
		t.Errorf("list calls = %d, want 1", backend.ListCalls())
	}

	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.viewMode != ChatView {
		t.Errorf("esc did not return to chat view")
	}
}

func TestUpdate_AltMTogglesMouseCapture(t *testing.T) {
	t.Parallel()

	m := NewTestModel()
	initial := m.mouseEnabled

	updated, cmd := m.Update(altKey('m'))
	m = updated.(Model)
	if m.mouseEnabled == initial {
		t.Error("alt+m did not flip mouse capture")
	}
	if cmd == nil {
		t.Error("mouse toggle must emit a program command")
	}

	updated, _ = m.Update(altKey('m'))
	if updated.(Model).mouseEnabled != initial {
		t.Error("second alt+m did not restore the initial state")
	}
}

func TestUpdate_SpinnerTickIgnoredWhenIdle(t *testing.T) {
	t.Parallel()

	m := NewTestModel()
	_, cmd := m.Update(spinner.TickMsg{})
	if cmd != nil {
		t.Error("idle model re-armed the spinner clock")
	}
}

func TestUpdate_InputHistoryRecallAtEdges(t *testing.T) {
	t.Parallel()

	m := NewTestModel()
	m.inputHistory = []string{"first question", "second question"}
	m.historyIndex = 2

	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if got := m.textarea.Value(); got != "second question" {
		t.Errorf("after up, input = %q, want %q", got, "second question")
	}

	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if got := m.textarea.Value(); got != "first question" {
		t.Errorf("after up up, input = %q, want %q", got, "first question")
	}

	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if got := m.textarea.Value(); got != "second question" {
		t.Errorf("after down, input = %q, want %q", got, "second question")
	}

	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if got := m.textarea.Value(); got != "" {
		t.Errorf("down past the newest entry should blank the input, got %q", got)
	}
}

// ==== BANNER ====

// pumpTicks is pump without the clock filter, so typewriter animation
// actually runs. Tests using it shrink the interval to keep wall time low.
func pumpTicks(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 2000 {
			t.Fatalf("tick pump did not settle after %d steps", steps)
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		msg := next()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		switch msg.(type) {
		case tea.QuitMsg, spinner.TickMsg:
			continue
		}

		updated, nextCmd := m.Update(msg)
		m = updated.(Model)
		if nextCmd != nil {
			queue = append(queue, nextCmd)
		}
	}
	return m
}

func TestUpdate_BannerRevealsTitleThenTagline(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.UI.TypewriterIntervalMS = 1
	m := New(NewMockBackend(), cfg)
	sized, _ := m.handleResize(tea.WindowSizeMsg{Width: 100, Height: 50})
	m = sized.(Model)

	updated, cmd := m.Update(bannerRetriggerMsg{})
	m = pumpTicks(t, updated.(Model), cmd)

	if !m.title.Done() {
		t.Fatal("title never finished revealing")
	}
	if !m.tagline.Done() {
		t.Fatal("tagline was not promoted after the title finished")
	}
	if got, want := m.title.Text(), m.mode.Icon()+" "+m.mode.DisplayName(); got != want {
		t.Errorf("title text = %q, want %q", got, want)
	}
	if got, want := m.tagline.Text(), m.mode.Description(); got != want {
		t.Errorf("tagline text = %q, want %q", got, want)
	}
}

func TestUpdate_StaleBannerTicksIgnoredAfterModeSwitch(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.UI.TypewriterIntervalMS = 1
	m := New(NewMockBackend(), cfg)
	sized, _ := m.handleResize(tea.WindowSizeMsg{Width: 100, Height: 50})
	m = sized.(Model)

	// Start one reveal and capture its first in-flight tick.
	updated, cmd := m.Update(bannerRetriggerMsg{})
	m = updated.(Model)
	staleMsg := cmd()
	for {
		if batch, ok := staleMsg.(tea.BatchMsg); ok {
			staleMsg = batch[0]()
			continue
		}
		break
	}
	if _, ok := staleMsg.(ui.TypewriterTickMsg); !ok {
		t.Fatalf("expected a typewriter tick, got %T", staleMsg)
	}

	// Restart under a fresh token, fully reveal, then replay the stale tick.
	updated, cmd = m.Update(bannerRetriggerMsg{})
	m = pumpTicks(t, updated.(Model), cmd)
	shown := m.title.Text()

	updated, _ = m.Update(staleMsg)
	m = updated.(Model)
	if m.title.Text() != shown {
		t.Error("stale tick from the abandoned reveal advanced the banner")
	}
}

// ==== DRAG TRACKING ====

func TestUpdate_DragMotionHighlightsDropTarget(t *testing.T) {
	t.Parallel()

	m := NewTestModel()

	motion := func(x, y int) tea.MouseMsg {
		return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}
	}

	// Into the transcript area.
	updated, _ := m.Update(motion(10, 10))
	m = updated.(Model)
	if !m.dropzone.Over() {
		t.Fatal("drag into the app did not arm the drop target")
	}

	// Down into the nested input region.
	inputY := headerHeight + m.viewport.Height + 1
	updated, _ = m.Update(motion(10, inputY))
	m = updated.(Model)
	if m.dropzone.Depth() != 2 {
		t.Errorf("depth inside input = %d, want 2", m.dropzone.Depth())
	}

	// Out through the footer.
	updated, _ = m.Update(motion(10, m.height-1))
	m = updated.(Model)
	if m.dropzone.Over() {
		t.Error("highlight survived leaving the window region")
	}
	if m.dropzone.Depth() != 0 {
		t.Errorf("depth after leaving = %d, want 0", m.dropzone.Depth())
	}
}

func TestUpdate_EscClearsStuckDragBeforeErrors(t *testing.T) {
	t.Parallel()

	m := NewTestModel()
	updated, cmd := m.Update(documentsMsg{err: &MockError{msg: "still here"}})
	m = pump(t, updated.(Model), cmd)

	// Simulate a drag whose leave events never arrived.
	m.dropzone.Enter(true)
	m.dropzone.Enter(true)

	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.dropzone.Depth() != 0 {
		t.Error("esc did not clear the stuck drag")
	}
	if m.Err() == nil {
		t.Error("esc consumed the error while clearing the drag")
	}

	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Err() != nil {
		t.Error("second esc did not dismiss the error")
	}
}
