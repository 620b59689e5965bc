package chat

import (
	"strings"
	"time"

	"paperchat/internal/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// handleSubmit runs on Enter. Slash commands act on the interface itself;
// anything else is a question for the backend.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}
	if m.isLoading {
		return m, nil
	}

	if strings.HasPrefix(input, "/") {
		m.rememberInput(input)
		m.textarea.Reset()
		return m.handleCommand(input)
	}
	return m.sendQuestion(input)
}

func (m Model) sendQuestion(question string) (tea.Model, tea.Cmd) {
	// The user's turn lands in the transcript before the backend answers.
	m.history = append(m.history, Message{
		Role:    roleUser,
		Content: question,
		Time:    time.Now(),
	})
	m.rememberInput(question)
	m.textarea.Reset()

	m.isLoading = true
	m.statusMessage = ""
	m.err = nil
	m.showError = false

	m.refreshViewport()
	m.viewport.GotoBottom()

	logging.Session("asking (%s): %.60s", m.mode.Key(), question)
	return m, tea.Batch(m.spinner.Tick, m.askCmd(question), m.resizeCmd())
}

// rememberInput appends to the recall ring and parks the cursor past the
// end, so Up starts from the newest entry.
func (m *Model) rememberInput(input string) {
	if n := len(m.inputHistory); n > 0 && m.inputHistory[n-1] == input {
		m.historyIndex = len(m.inputHistory)
		return
	}
	m.inputHistory = append(m.inputHistory, input)
	m.historyIndex = len(m.inputHistory)
}

func (m Model) askCmd(question string) tea.Cmd {
	client := m.client
	mode := m.mode.Key()
	ctx := m.shutdownCtx
	return func() tea.Msg {
		resp, err := client.Ask(ctx, question, mode)
		return answerMsg{resp: resp, err: err}
	}
}
