package chat

import (
	"fmt"
	"os"
	"strings"
	"time"

	"paperchat/internal/modes"

	tea "github.com/charmbracelet/bubbletea"
)

const helpText = "## Commands\n\n" +
	"| Command | Effect |\n" +
	"| --- | --- |\n" +
	"| `/help` | Show this help |\n" +
	"| `/docs` | Open the document manager |\n" +
	"| `/upload [path ...]` | Upload PDFs, or browse when no path is given |\n" +
	"| `/mode [name]` | Switch knowledge mode, or open the picker |\n" +
	"| `/clear` | Clear the transcript |\n" +
	"| `/quit` | Exit |\n\n" +
	"## Keys\n\n" +
	"| Key | Effect |\n" +
	"| --- | --- |\n" +
	"| `enter` | Send, `alt+enter` for a newline |\n" +
	"| `up` / `down` | Recall earlier input at the edges of the box |\n" +
	"| `ctrl+k` | Knowledge mode picker |\n" +
	"| `alt+d` | Documents, `alt+u` file browser |\n" +
	"| `alt+m` | Toggle mouse capture |\n" +
	"| `esc` | Dismiss the error banner, or quit |\n\n" +
	"Drop PDF files onto the window to upload them."

// handleCommand routes a slash command. Commands never enter the
// transcript as user turns; their output, when any, shows up as
// assistant text.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		m.history = append(m.history, Message{
			Role:    roleAssistant,
			Content: helpText,
			Time:    time.Now(),
			Doc:     true,
		})
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case "/docs", "/documents":
		m.viewMode = DocumentsView
		return m, m.refreshDocsCmd()

	case "/upload":
		if len(args) == 0 {
			m.viewMode = FilePickerView
			return m, m.filepicker.Init()
		}
		return m.startUpload(expandPaths(args))

	case "/mode":
		if len(args) == 0 {
			m.pickerOpen = true
			m.syncPickerSelection()
			return m, nil
		}
		mode, err := modes.Parse(args[0])
		if err != nil {
			m.err = err
			m.showError = true
			return m, m.resizeCmd()
		}
		return m.selectMode(mode)

	case "/clear":
		m.history = nil
		m.statusMessage = ""
		m.refreshViewport()
		m.viewport.GotoTop()
		return m, nil

	case "/quit", "/exit":
		m.performShutdown()
		return m, tea.Quit
	}

	m.err = fmt.Errorf("unknown command %s, try /help", cmd)
	m.showError = true
	return m, m.resizeCmd()
}

// expandPaths resolves a leading ~ on each argument.
func expandPaths(args []string) []string {
	home, err := os.UserHomeDir()
	out := make([]string, 0, len(args))
	for _, a := range args {
		if err == nil && strings.HasPrefix(a, "~/") {
			a = home + a[1:]
		}
		out = append(out, a)
	}
	return out
}
