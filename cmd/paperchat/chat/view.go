package chat

import (
	"fmt"
	"strings"
	"time"

	"paperchat/cmd/paperchat/ui"
	"paperchat/internal/modes"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// ==== VIEW RENDERING ====

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.viewMode {
	case DocumentsView:
		return m.renderDocuments()
	case FilePickerView:
		return m.renderFilePicker()
	}

	header := m.renderHeader()

	var content string
	if m.pickerOpen {
		content = m.renderPicker()
	} else {
		content = m.viewport.View()
		if m.err != nil && m.showError {
			content = lipgloss.JoinVertical(lipgloss.Left, content, m.renderErrorBanner())
		}
		content = m.styles.Content.Render(content)
	}

	inputStyle := m.styles.DropZone
	if m.dropzone.Over() {
		inputStyle = m.styles.DropZoneActive
	}
	inputArea := inputStyle.Render(m.textarea.View())

	footer := m.renderFooter()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		inputArea,
		footer,
	)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" paperchat ")
	modeBadge := m.styles.Badge.
		Background(ui.ModeColor(m.mode.Key())).
		Render(" " + m.mode.Key() + " ")

	docCount := ""
	if m.docsLoaded {
		docCount = m.styles.Muted.Render(fmt.Sprintf("%d docs", len(m.docs)))
	}

	var status string
	switch {
	case m.batch != nil:
		p := m.batch.Progress()
		ratio := 0.0
		if p.Total > 0 {
			ratio = float64(p.Completed) / float64(p.Total)
		}
		status = lipgloss.JoinHorizontal(
			lipgloss.Center,
			m.progress.ViewAs(ratio),
			" ",
			m.styles.Badge.Render(fmt.Sprintf("uploading %d/%d", p.Completed, p.Total)),
		)
	case m.isLoading:
		status = lipgloss.JoinHorizontal(
			lipgloss.Center,
			m.spinner.View(),
			" ",
			m.styles.Badge.Render("Thinking..."),
		)
	case m.statusMessage != "":
		status = m.styles.Muted.Render(m.statusMessage)
	default:
		status = m.styles.Success.Render("Ready")
	}

	statusLine := lipgloss.JoinHorizontal(
		lipgloss.Center,
		title,
		" ",
		modeBadge,
		"  ",
		docCount,
		"  ",
		status,
	)

	banner := " " + m.title.View()
	if tag := m.tagline.View(); tag != "" {
		banner += "  " + tag
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		statusLine,
		banner,
		m.styles.RenderDivider(m.width),
	)
}

// renderErrorBanner draws the single dismissible error surface under the
// transcript. One line of message inside a border, truncated to fit.
func (m Model) renderErrorBanner() string {
	hint := "esc to dismiss"
	line := "Error: " + m.err.Error()
	avail := m.chatWidth() - 4 - runewidth.StringWidth(hint) - 2
	if avail > 8 {
		line = runewidth.Truncate(line, avail, "…")
	}

	msg := lipgloss.NewStyle().Foreground(ui.Destructive).Bold(true).Render(line) +
		"  " + m.styles.Muted.Render(hint)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.Destructive).
		Padding(0, 1).
		Width(m.chatWidth() - 2).
		Render(msg)
}

func (m Model) renderFooter() string {
	hotkeys := "enter: send | ctrl+k: mode | alt+d: docs | alt+u: upload | /help"
	mouseIndicator := ""
	if !m.mouseEnabled {
		mouseIndicator = " | [SELECT]"
	}
	timestamp := time.Now().Format("15:04")
	help := m.styles.Muted.Render(fmt.Sprintf("%s | %s%s", timestamp, hotkeys, mouseIndicator))
	return lipgloss.NewStyle().
		MarginTop(1).
		Render(help)
}

// renderPicker centers the mode list over the content area. Placement
// mirrors pickerRect so clicks and drawing agree.
func (m Model) renderPicker() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Theme.Primary).
		Padding(0, 1).
		Width(pickerWidth - 2).
		Height(pickerHeight - 2).
		Render(m.modeList.View())

	contentH := m.height - headerHeight - inputHeight - footerHeight
	if contentH < 1 {
		contentH = 1
	}
	return lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderHistory() string {
	var sb strings.Builder

	for _, msg := range m.history {
		ts := m.styles.Muted.Render(msg.Time.Format("15:04"))

		switch msg.Role {
		case roleUser:
			label := m.styles.Bold.
				Foreground(m.styles.Theme.Primary).
				MarginTop(1).
				Render("You")
			sb.WriteString(label + " " + ts + "\n")
			sb.WriteString(m.styles.UserInput.Render(msg.Content))
			sb.WriteString("\n\n")

		default:
			label := m.styles.Bold.
				Foreground(m.styles.Theme.Accent).
				MarginTop(1).
				Render("paperchat")
			sb.WriteString(label + " " + ts + "\n")
			if msg.Doc {
				sb.WriteString(m.renderDoc(msg.Content))
			} else {
				sb.WriteString(m.safeRender(msg.Content))
			}
			sb.WriteString("\n")
			if msg.Meta != nil {
				sb.WriteString(m.renderMeta(msg.Meta) + "\n")
			}
		}
	}

	return sb.String()
}

// renderMeta draws the provenance line under an answer.
func (m Model) renderMeta(meta *ResponseMeta) string {
	label := meta.KnowledgeMode
	if mode, err := modes.Parse(meta.KnowledgeMode); err == nil {
		label = mode.Icon() + " " + mode.DisplayName()
	}
	parts := []string{
		label,
		fmt.Sprintf("%d sources", meta.SourcesUsed),
		fmt.Sprintf("%d results", meta.SearchResultsCount),
	}
	if meta.TotalTokens > 0 {
		parts = append(parts, fmt.Sprintf("%d tokens", meta.TotalTokens))
	}
	return m.styles.Muted.Render(strings.Join(parts, " · "))
}

// safeRender renders markdown with panic recovery, falling back to the
// raw text.
func (m Model) safeRender(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		return m.renderer.Render(content)
	}
	return content
}

// renderDoc renders authored documentation through glamour. Answers
// cannot use it (their code and math handling is stricter), but for our
// own static text its table layout is the nicer one.
func (m Model) renderDoc(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(m.chatWidth() - 2)}
	if m.styles.Theme.IsDark {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath("light"))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}

func (m Model) renderWelcome() string {
	hints := []string{
		"",
		m.styles.Muted.Render("Drop PDF files onto the window, or press alt+u to browse."),
		m.styles.Muted.Render("Ask a question once your documents are in. /help lists commands."),
	}
	if m.docsLoaded && len(m.docs) > 0 {
		hints = append(hints, "",
			m.styles.Body.Render(fmt.Sprintf("%d documents ready.", len(m.docs))))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		append([]string{ui.Logo(m.styles)}, hints...)...)
}

// ==== DOCUMENTS VIEW ====

func (m Model) renderDocuments() string {
	title := m.styles.Header.Render(" Documents ")

	var body string
	switch {
	case !m.docsLoaded:
		body = m.styles.Muted.Render("Loading...")
	case len(m.docs) == 0:
		body = m.styles.Muted.Render("No documents yet. Press u to upload one.")
	default:
		body = m.renderDocRows()
	}

	hints := "↑/↓ move · d delete · r refresh · u upload · esc back"
	if m.pendingDelete != "" {
		hints = "y confirm delete · n cancel"
	}
	footer := lipgloss.NewStyle().
		MarginTop(1).
		Render(m.styles.Muted.Render(hints))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.styles.Content.Render(body),
		footer,
	)
}

func (m Model) renderDocRows() string {
	nameW := m.width - 30
	if nameW < 16 {
		nameW = 16
	}
	if nameW > 56 {
		nameW = 56
	}

	var sb strings.Builder
	head := fmt.Sprintf("  %s %7s %6s",
		runewidth.FillRight("Name", nameW), "Chunks", "Pages")
	sb.WriteString(m.styles.Bold.Render(head) + "\n")

	for i, d := range m.docs {
		name := runewidth.FillRight(runewidth.Truncate(d.PDFName, nameW, "…"), nameW)
		row := fmt.Sprintf("%s %7d %6d", name, d.ChunkCount, d.PageCount())

		if i == m.selectedDoc {
			sb.WriteString(m.styles.Bold.Foreground(m.styles.Theme.Accent).Render("› " + row))
		} else {
			sb.WriteString(m.styles.Body.Render("  " + row))
		}
		sb.WriteString("\n")

		if m.pendingDelete == d.PDFID {
			confirm := fmt.Sprintf("  delete %s? (y/n)", d.PDFName)
			sb.WriteString(m.styles.Warning.Render(confirm) + "\n")
		}
	}
	return sb.String()
}

func (m Model) renderFilePicker() string {
	title := m.styles.Header.Render(" Select a PDF ")
	content := m.styles.Content.Render(m.filepicker.View())
	hint := lipgloss.NewStyle().
		MarginTop(1).
		Render(m.styles.Muted.Render("enter: select · esc: back"))
	return lipgloss.JoinVertical(lipgloss.Left, title, content, hint)
}
