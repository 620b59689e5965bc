package chat

import (
	"errors"
	"path/filepath"

	"paperchat/internal/logging"
	"paperchat/internal/upload"

	tea "github.com/charmbracelet/bubbletea"
)

// startUpload begins a batch for the given paths. While a batch is live the
// call is a no-op, so drops, the picker, and the inbox watcher cannot
// interleave runs. A selection with nothing uploadable fails here, before
// any network traffic.
func (m Model) startUpload(paths []string) (Model, tea.Cmd) {
	if m.batch != nil {
		return m, nil
	}

	maxBytes := int64(m.cfg.Upload.MaxFileMB) * 1 << 20
	b, err := upload.NewBatch(paths, upload.WithMaxFileSize(maxBytes))
	if err != nil {
		m.err = err
		m.showError = true
		logging.Upload("rejected selection of %d paths: %v", len(paths), err)
		return m, m.resizeCmd()
	}

	m.batch = b
	m.statusMessage = ""
	logging.Upload("batch %s started, %d files", b.ID, b.Progress().Total)

	var cmds []tea.Cmd
	if msg := b.LastError(); msg != "" {
		// Oversized files fail during batch construction.
		m.err = errors.New(msg)
		m.showError = true
		cmds = append(cmds, m.resizeCmd())
	}
	if b.Done() {
		// Every file was screened out before submission; the closing
		// refresh still runs and clears the batch.
		cmds = append(cmds, m.refreshDocsCmd())
	} else {
		cmds = append(cmds, m.uploadNextCmd())
	}
	return m, tea.Batch(cmds...)
}

// handleFileUploaded records one file's outcome and either submits the next
// file or, after the last one, refreshes the document list. The refresh
// response clears the batch.
func (m Model) handleFileUploaded(msg fileUploadedMsg) (tea.Model, tea.Cmd) {
	if m.batch == nil {
		return m, nil
	}

	var cmds []tea.Cmd
	if msg.err != nil {
		m.batch.Fail(msg.err)
		m.err = errors.New(m.batch.LastError())
		m.showError = true
		cmds = append(cmds, m.resizeCmd())
		logging.Upload("upload %s failed: %v", msg.name, msg.err)
	} else {
		m.batch.Succeed()
		logging.Upload("uploaded %s", msg.name)
	}

	if m.batch.Done() {
		cmds = append(cmds, m.refreshDocsCmd())
	} else {
		cmds = append(cmds, m.uploadNextCmd())
	}
	return m, tea.Batch(cmds...)
}

// uploadNextCmd submits the file at the batch cursor. One file is in flight
// at a time; the next submission is issued only after this one's outcome
// comes back.
func (m Model) uploadNextCmd() tea.Cmd {
	b := m.batch
	client := m.client
	ctx := m.shutdownCtx
	return func() tea.Msg {
		path, ok := b.Current()
		if !ok {
			return nil
		}
		err := client.UploadDocument(ctx, path)
		return fileUploadedMsg{name: filepath.Base(path), err: err}
	}
}

func (m Model) refreshDocsCmd() tea.Cmd {
	client := m.client
	ctx := m.shutdownCtx
	return func() tea.Msg {
		docs, err := client.ListDocuments(ctx)
		return documentsMsg{docs: docs, err: err}
	}
}

func (m Model) deleteDocCmd(id, name string) tea.Cmd {
	client := m.client
	ctx := m.shutdownCtx
	return func() tea.Msg {
		err := client.DeleteDocument(ctx, id)
		return documentDeletedMsg{id: id, name: name, err: err}
	}
}

// awaitInboxCmd blocks on the watcher's feed for the next settled file.
// The handler re-arms it after every delivery.
func (m Model) awaitInboxCmd() tea.Cmd {
	w := m.watcher
	return func() tea.Msg {
		if w == nil {
			return nil
		}
		path, ok := <-w.Files()
		if !ok {
			return nil
		}
		return watchedFileMsg{path: path}
	}
}
