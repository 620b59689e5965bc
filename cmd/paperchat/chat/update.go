package chat

import (
	"strings"
	"time"

	"paperchat/cmd/paperchat/ui"
	"paperchat/internal/logging"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case spinner.TickMsg:
		if m.isLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case ui.TypewriterTickMsg:
		return m.handleTypewriterTick(msg)

	case bannerRetriggerMsg:
		cmd := m.startModeBanner()
		return m, cmd

	case documentsMsg:
		return m.handleDocuments(msg)

	case fileUploadedMsg:
		return m.handleFileUploaded(msg)

	case answerMsg:
		return m.handleAnswer(msg)

	case documentDeletedMsg:
		return m.handleDocumentDeleted(msg)

	case watchedFileMsg:
		return m.handleWatchedFile(msg)
	}

	// The filepicker reads directories through its own private messages.
	if m.viewMode == FilePickerView {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleTypewriterTick advances both banner lines and promotes the tagline
// once the title has fully revealed.
func (m Model) handleTypewriterTick(msg ui.TypewriterTickMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	cmds = append(cmds, cmd)
	m.tagline, cmd = m.tagline.Update(msg)
	cmds = append(cmds, cmd)
	if m.title.Done() && m.tagline.Suspended() {
		m.tagline, cmd = m.tagline.Reveal(m.mode.Description(), m.modeEpoch)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleDocuments(msg documentsMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if msg.err != nil {
		m.err = msg.err
		m.showError = true
		cmds = append(cmds, m.resizeCmd())
		logging.Documents("list failed: %v", msg.err)
	} else {
		m.docs = msg.docs
		m.docsLoaded = true
		if m.selectedDoc >= len(m.docs) {
			m.selectedDoc = len(m.docs) - 1
		}
		if m.selectedDoc < 0 {
			m.selectedDoc = 0
		}
		logging.Documents("listed %d documents", len(msg.docs))
	}

	// The refresh that follows the last file of a batch clears the
	// progress state, which re-enables upload triggers.
	if m.batch != nil && m.batch.Done() {
		m.statusMessage = m.batch.Summary()
		logging.Upload("batch finished: %s", m.batch.Summary())
		m.batch = nil
		if len(m.pendingInbox) > 0 {
			paths := m.pendingInbox
			m.pendingInbox = nil
			var cmd tea.Cmd
			m, cmd = m.startUpload(paths)
			cmds = append(cmds, cmd)
		}
	}

	m.refreshViewport()
	return m, tea.Batch(cmds...)
}

func (m Model) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	m.isLoading = false
	if msg.err != nil {
		// The optimistic user message stays in the transcript; only the
		// error surface changes.
		m.err = msg.err
		m.showError = true
		logging.Session("ask failed: %v", msg.err)
		return m, m.resizeCmd()
	}

	meta := &ResponseMeta{
		KnowledgeMode:      msg.resp.KnowledgeMode,
		SourcesUsed:        msg.resp.SourcesUsed,
		SearchResultsCount: msg.resp.SearchResultsCount,
	}
	if msg.resp.TokenUsage != nil {
		meta.TotalTokens = msg.resp.TokenUsage.TotalTokens
	}
	m.history = append(m.history, Message{
		Role:    roleAssistant,
		Content: msg.resp.Answer,
		Time:    time.Now(),
		Meta:    meta,
	})
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleDocumentDeleted(msg documentDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		m.showError = true
		logging.Documents("delete %s failed: %v", msg.id, msg.err)
		return m, m.resizeCmd()
	}
	m.statusMessage = "Deleted " + msg.name
	logging.Documents("deleted %s (%s)", msg.name, msg.id)
	return m, m.refreshDocsCmd()
}

func (m Model) handleWatchedFile(msg watchedFileMsg) (tea.Model, tea.Cmd) {
	rearm := m.awaitInboxCmd()
	if m.batch != nil {
		// An upload run owns the pipeline; queue the file for the next one.
		m.pendingInbox = append(m.pendingInbox, msg.path)
		return m, rearm
	}
	var cmd tea.Cmd
	m, cmd = m.startUpload([]string{msg.path})
	return m, tea.Batch(cmd, rearm)
}

// ==== KEY ROUTING ====

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global bindings first.
	if msg.Type == tea.KeyCtrlC {
		m.performShutdown()
		return m, tea.Quit
	}

	// The mode picker is modal while open.
	if m.pickerOpen {
		return m.handlePickerKey(msg)
	}

	switch m.viewMode {
	case DocumentsView:
		return m.handleDocumentsKey(msg)
	case FilePickerView:
		return m.handleFilePickerKey(msg)
	}

	return m.handleChatKey(msg)
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A drop pastes the file paths as bracketed text. Intercept before the
	// textarea sees it.
	if msg.Paste {
		if paths := parseDroppedPaths(string(msg.Runes)); len(paths) > 0 {
			m.dropzone.Drop()
			m.overApp = false
			m.overInput = false
			return m.startUpload(paths)
		}
	}

	switch msg.Type {
	case tea.KeyEnter:
		if msg.Alt || msg.Paste {
			break // newline, let the textarea handle it
		}
		if !m.isLoading {
			return m.handleSubmit()
		}
		return m, nil

	case tea.KeyEsc:
		if m.dropzone.Depth() > 0 {
			m.dropzone.Reset()
			m.overApp = false
			m.overInput = false
			return m, nil
		}
		if m.err != nil && m.showError {
			m.showError = false
			m.err = nil
			return m, m.resizeCmd()
		}
		m.performShutdown()
		return m, tea.Quit

	case tea.KeyCtrlK:
		m.pickerOpen = true
		m.syncPickerSelection()
		return m, nil

	case tea.KeyUp:
		if m.textarea.Line() == 0 {
			if m.historyIndex > 0 {
				m.historyIndex--
				m.textarea.SetValue(m.inputHistory[m.historyIndex])
				m.textarea.CursorEnd()
			}
			return m, nil
		}

	case tea.KeyDown:
		if m.textarea.Line() == m.textarea.LineCount()-1 {
			if m.historyIndex < len(m.inputHistory) {
				m.historyIndex++
				if m.historyIndex == len(m.inputHistory) {
					m.textarea.SetValue("")
				} else {
					m.textarea.SetValue(m.inputHistory[m.historyIndex])
					m.textarea.CursorEnd()
				}
			}
			return m, nil
		}

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// Alt bindings.
	if msg.Alt && len(msg.Runes) > 0 {
		switch msg.Runes[0] {
		case 'd':
			m.viewMode = DocumentsView
			return m, m.refreshDocsCmd()

		case 'u':
			m.viewMode = FilePickerView
			return m, m.filepicker.Init()

		case 'm':
			m.mouseEnabled = !m.mouseEnabled
			if m.mouseEnabled {
				return m, tea.EnableMouseCellMotion
			}
			return m, tea.DisableMouse

		case 'e':
			if m.err != nil {
				m.showError = !m.showError
				return m, m.resizeCmd()
			}
			return m, nil
		}
	}

	if !m.isLoading {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleDocumentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A pending delete narrows input to the confirmation.
	if m.pendingDelete != "" {
		switch msg.String() {
		case "y", "Y":
			id := m.pendingDelete
			name := m.docName(id)
			m.pendingDelete = ""
			return m, m.deleteDocCmd(id, name)
		case "n", "N", "esc":
			m.pendingDelete = ""
			return m, nil
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedDoc > 0 {
			m.selectedDoc--
		}
	case "down", "j":
		if m.selectedDoc < len(m.docs)-1 {
			m.selectedDoc++
		}
	case "d", "x", "delete":
		if len(m.docs) > 0 {
			m.pendingDelete = m.docs[m.selectedDoc].PDFID
		}
	case "r":
		return m, m.refreshDocsCmd()
	case "u":
		m.viewMode = FilePickerView
		return m, m.filepicker.Init()
	case "esc", "q":
		m.viewMode = ChatView
		m.refreshViewport()
	}
	return m, nil
}

func (m Model) handleFilePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		m.viewMode = ChatView
		return m, nil
	}

	var cmd tea.Cmd
	m.filepicker, cmd = m.filepicker.Update(msg)

	if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
		m.viewMode = ChatView
		var upCmd tea.Cmd
		m, upCmd = m.startUpload([]string{path})
		return m, tea.Batch(cmd, upCmd)
	}
	if didSelect, path := m.filepicker.DidSelectDisabledFile(msg); didSelect {
		m.err = &notPDFError{path: path}
		m.showError = true
		return m, tea.Batch(cmd, m.resizeCmd())
	}
	return m, cmd
}

// ==== MOUSE ====

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		if m.viewMode == ChatView && !m.pickerOpen {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		return m.trackDragMotion(msg.X, msg.Y, msg.Button != tea.MouseButtonNone), nil

	case tea.MouseActionPress:
		if m.pickerOpen && !m.pickerRect().contains(msg.X, msg.Y) {
			// Outside click abandons the picker without changing the mode.
			m.pickerOpen = false
			return m, nil
		}
	}
	return m, nil
}

// trackDragMotion turns pointer containment changes into enter/leave pairs
// on the drop zone. The input box nests inside the app-wide target, so a
// pointer settling on it holds depth 2.
func (m Model) trackDragMotion(x, y int, dragging bool) Model {
	inApp := m.appRect().contains(x, y)
	inInput := inApp && m.inputRect().contains(x, y)

	if inApp && !m.overApp {
		m.dropzone.Enter(dragging)
	}
	if inInput && !m.overInput {
		m.dropzone.Enter(dragging)
	}
	if !inInput && m.overInput {
		m.dropzone.Leave()
	}
	if !inApp && m.overApp {
		m.dropzone.Leave()
	}
	m.overApp = inApp
	m.overInput = inInput
	return m
}

// ==== RESIZE ====

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	if msg.Width < 0 {
		msg.Width = 0
	}
	if msg.Height < 0 {
		msg.Height = 0
	}
	m.width = msg.Width
	m.height = msg.Height

	chatWidth := m.chatWidth()
	vpHeight := msg.Height - headerHeight - inputHeight - footerHeight - m.errorBannerSpace()
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(chatWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth
		m.viewport.Height = vpHeight
	}

	m.textarea.SetWidth(chatWidth - 4)
	m.filepicker.Height = vpHeight
	m.modeList.SetSize(pickerWidth-4, pickerHeight-4)
	if w := chatWidth / 3; w > 12 {
		m.progress.Width = w
	}

	m.renderer.SetWidth(chatWidth - 2)
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// refreshViewport re-renders the transcript, or the welcome screen when
// the transcript is empty.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	if len(m.history) == 0 {
		m.viewport.SetContent(m.renderWelcome())
		return
	}
	m.viewport.SetContent(m.renderHistory())
}

// resizeCmd replays the current dimensions so layout-affecting state
// changes (like the error banner appearing) take space immediately.
func (m Model) resizeCmd() tea.Cmd {
	width, height := m.width, m.height
	return func() tea.Msg { return tea.WindowSizeMsg{Width: width, Height: height} }
}

// notPDFError surfaces a rejected file picker selection.
type notPDFError struct {
	path string
}

func (e *notPDFError) Error() string {
	return "only PDF files can be uploaded: " + e.path
}

// parseDroppedPaths extracts absolute file paths from pasted text. A drop
// arrives as one path per line, or several space-separated paths with
// backslash-escaped spaces, often quoted. Anything that does not look like
// a set of paths returns nil and falls through to normal text input.
func parseDroppedPaths(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, tok := range splitDropLine(line) {
			tok = strings.Trim(tok, "'\"")
			tok = strings.ReplaceAll(tok, "\\ ", " ")
			if tok == "" {
				continue
			}
			if !strings.HasPrefix(tok, "/") {
				return nil
			}
			out = append(out, tok)
		}
	}
	return out
}

// splitDropLine splits "/a/b.pdf /c/d.pdf" style lines on unescaped
// path boundaries.
func splitDropLine(line string) []string {
	parts := strings.Split(line, " /")
	out := []string{parts[0]}
	for _, p := range parts[1:] {
		last := out[len(out)-1]
		if strings.HasSuffix(last, "\\") {
			// Escaped space inside a filename, not a boundary.
			out[len(out)-1] = last + " /" + p
			continue
		}
		out = append(out, "/"+p)
	}
	return out
}

func (m Model) docName(id string) string {
	for _, d := range m.docs {
		if d.PDFID == id {
			return d.PDFName
		}
	}
	return id
}
