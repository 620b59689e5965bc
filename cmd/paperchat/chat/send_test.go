package chat

import (
	"strings"
	"testing"

	"paperchat/internal/modes"

	tea "github.com/charmbracelet/bubbletea"
)

func submit(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.textarea.SetValue(text)
	return pressKey(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestSend_EmptyInputIsNoOp(t *testing.T) {
	t.Parallel()

	backend := NewMockBackend()
	m := NewTestModel(WithBackend(backend))

	m = pressKey(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.History()) != 0 {
		t.Errorf("history grew to %d on empty submit", len(m.History()))
	}
	if len(backend.AskCalls()) != 0 {
		t.Error("empty submit reached the backend")
	}
	if m.isLoading {
		t.Error("empty submit set the loading state")
	}
}

func TestSend_WhitespaceOnlyIsNoOp(t *testing.T) {
	t.Parallel()

	backend := NewMockBackend()
	m := NewTestModel(WithBackend(backend))

	m = submit(t, m, "   \n\t  ")

	if len(m.History()) != 0 || len(backend.AskCalls()) != 0 {
		t.Error("whitespace-only submit was not rejected")
	}
}

func TestSend_SubmitAsksAndAppendsAnswer(t *testing.T) {
	t.Parallel()

	backend := NewMockBackend()
	m := NewTestModel(WithBackend(backend))

	m = submit(t, m, "What is attention?")

	if got := backend.AskCalls(); len(got) != 1 || got[0] != "What is attention?" {
		t.Fatalf("ask calls = %v, want the one question", got)
	}
	if got := backend.LastAskMode(); got != m.Mode().Key() {
		t.Errorf("mode sent = %q, want %q", got, m.Mode().Key())
	}

	h := m.History()
	if len(h) != 2 {
		t.Fatalf("history length = %d, want user turn plus answer", len(h))
	}
	if h[0].Role != roleUser || h[0].Content != "What is attention?" {
		t.Errorf("first turn = %+v, want the user question", h[0])
	}
	if h[0].Time.IsZero() {
		t.Error("user turn missing its client timestamp")
	}
	if h[1].Role != roleAssistant || h[1].Content != "Mock answer" {
		t.Errorf("second turn = %+v, want the mock answer", h[1])
	}

	meta := h[1].Meta
	if meta == nil {
		t.Fatal("answer carries no metadata")
	}
	if meta.KnowledgeMode != "strict" || meta.SourcesUsed != 2 ||
		meta.SearchResultsCount != 5 || meta.TotalTokens != 128 {
		t.Errorf("metadata = %+v, want the envelope values", meta)
	}

	if m.isLoading {
		t.Error("still loading after the answer landed")
	}
	if m.textarea.Value() != "" {
		t.Error("input not cleared on submit")
	}
}

func TestSend_InFlightSubmitRejected(t *testing.T) {
	t.Parallel()

	backend := NewMockBackend()
	m := NewTestModel(WithBackend(backend), WithLoading(true))

	m.textarea.SetValue("second question")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if cmd != nil {
		t.Error("in-flight submit produced a command")
	}
	if len(backend.AskCalls()) != 0 {
		t.Error("in-flight submit reached the backend")
	}
	if m.textarea.Value() != "second question" {
		t.Error("rejected submit must leave the draft in place")
	}
}

func TestSend_FailureKeepsUserTurn(t *testing.T) {
	t.Parallel()

	backend := NewMockBackend()
	backend.SetAskError(&MockError{msg: "model overloaded"})
	m := NewTestModel(WithBackend(backend))

	m = submit(t, m, "doomed question")

	h := m.History()
	if len(h) != 1 {
		t.Fatalf("history length = %d, want just the user turn", len(h))
	}
	if h[0].Role != roleUser || h[0].Content != "doomed question" {
		t.Errorf("surviving turn = %+v, want the user question", h[0])
	}
	if m.Err() == nil {
		t.Fatal("failure not surfaced")
	}
	if m.isLoading {
		t.Error("loading state stuck after failure")
	}
	if !strings.Contains(m.View(), "model overloaded") {
		t.Error("failure reason missing from the view")
	}
}

func TestSend_NextSubmitClearsPriorError(t *testing.T) {
	t.Parallel()

	backend := NewMockBackend()
	backend.SetAskError(&MockError{msg: "first strike"})
	m := NewTestModel(WithBackend(backend))

	m = submit(t, m, "will fail")
	if m.Err() == nil {
		t.Fatal("setup failure not surfaced")
	}

	backend.SetAskError(nil)
	m = submit(t, m, "will succeed")

	if m.Err() != nil {
		t.Errorf("stale error survived a successful turn: %v", m.Err())
	}
	if len(m.History()) != 3 {
		t.Errorf("history length = %d, want failed turn plus question and answer", len(m.History()))
	}
}

func TestSend_ModeKeyTravelsWithQuestion(t *testing.T) {
	t.Parallel()

	backend := NewMockBackend()
	m := NewTestModel(WithBackend(backend), WithMode(modes.Expert))

	m = submit(t, m, "cross-check this")

	if got := backend.LastAskMode(); got != "expert" {
		t.Errorf("mode sent = %q, want %q", got, "expert")
	}
	_ = m
}

// ==== SLASH COMMANDS ====

func TestCommands_HelpRespondsWithoutBackend(t *testing.T) {
	t.Parallel()

	backend := NewMockBackend()
	m := NewTestModel(WithBackend(backend))

	m = submit(t, m, "/help")

	h := m.History()
	if len(h) != 1 || h[0].Role != roleAssistant {
		t.Fatalf("history = %+v, want a single assistant reply", h)
	}
	if !strings.Contains(h[0].Content, "/upload") {
		t.Error("help text does not mention /upload")
	}
	if len(backend.AskCalls()) != 0 {
		t.Error("/help reached the backend")
	}
}

func TestCommands_UnknownSurfacesError(t *testing.T) {
	t.Parallel()

	m := NewTestModel()
	m = submit(t, m, "/frobnicate")

	if m.Err() == nil || !strings.Contains(m.Err().Error(), "unknown command") {
		t.Errorf("err = %v, want an unknown-command error", m.Err())
	}
	if len(m.History()) != 0 {
		t.Error("unknown command entered the transcript")
	}
}

func TestCommands_ClearEmptiesTranscript(t *testing.T) {
	t.Parallel()

	m := NewTestModel(WithHistory(
		Message{Role: roleUser, Content: "q"},
		Message{Role: roleAssistant, Content: "a"},
	))

	m = submit(t, m, "/clear")

	if len(m.History()) != 0 {
		t.Errorf("history length after /clear = %d", len(m.History()))
	}
}

func TestCommands_ModeArgumentSwitchesDirectly(t *testing.T) {
	t.Parallel()

	m := NewTestModel()
	m = submit(t, m, "/mode augmented")

	if m.Mode() != modes.Augmented {
		t.Errorf("mode = %v, want Augmented", m.Mode())
	}
	if m.pickerOpen {
		t.Error("direct mode switch opened the picker")
	}
}

func TestCommands_ModeBadArgumentSurfacesError(t *testing.T) {
	t.Parallel()

	m := NewTestModel()
	before := m.Mode()

	m = submit(t, m, "/mode psychic")

	if m.Err() == nil {
		t.Fatal("bad mode argument not surfaced")
	}
	if m.Mode() != before {
		t.Error("bad mode argument changed the mode")
	}
}

func TestCommands_BareModeOpensPicker(t *testing.T) {
	t.Parallel()

	m := NewTestModel()
	m = submit(t, m, "/mode")

	if !m.pickerOpen {
		t.Error("/mode did not open the picker")
	}
}

func TestCommands_DocsSwitchesView(t *testing.T) {
	t.Parallel()

	backend := NewMockBackend()
	m := NewTestModel(WithBackend(backend))

	m = submit(t, m, "/docs")

	if m.viewMode != DocumentsView {
		t.Errorf("viewMode = %v, want DocumentsView", m.viewMode)
	}
	if backend.ListCalls() != 1 {
		t.Errorf("list calls = %d, want 1", backend.ListCalls())
	}
}

func TestCommands_RecordedInInputHistoryOnly(t *testing.T) {
	t.Parallel()

	m := NewTestModel()
	m = submit(t, m, "/docs")

	if len(m.inputHistory) != 1 || m.inputHistory[0] != "/docs" {
		t.Errorf("input history = %v, want the command", m.inputHistory)
	}
	if len(m.History()) != 0 {
		t.Error("command leaked into the transcript")
	}
}
