package chat

import (
	"paperchat/internal/logging"
	"paperchat/internal/modes"

	tea "github.com/charmbracelet/bubbletea"
)

// handlePickerKey runs while the mode picker is open. The picker is modal;
// nothing reaches the underlying view until it closes.
func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if item, ok := m.modeList.SelectedItem().(modeItem); ok {
			return m.selectMode(item.mode)
		}
		m.pickerOpen = false
		return m, nil

	case tea.KeyEsc, tea.KeyCtrlK:
		m.pickerOpen = false
		return m, nil

	case tea.KeyRunes:
		// 1..n jump straight to a mode.
		if len(msg.Runes) == 1 {
			if idx := int(msg.Runes[0] - '1'); idx >= 0 && idx < len(modes.All()) {
				return m.selectMode(modes.All()[idx])
			}
		}
	}

	var cmd tea.Cmd
	m.modeList, cmd = m.modeList.Update(msg)
	return m, cmd
}

// selectMode commits a mode choice, closes the picker, and replays the
// banner. Reselecting the active mode replays it too.
func (m Model) selectMode(mode modes.KnowledgeMode) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.pickerOpen = false
	cmd := m.startModeBanner()

	if m.configPath != "" && m.cfg.UI.DefaultMode != mode.Key() {
		m.cfg.UI.DefaultMode = mode.Key()
		if err := m.cfg.Save(m.configPath); err != nil {
			logging.UI("persisting mode choice: %v", err)
		}
	}
	logging.UI("mode set to %s", mode.Key())
	return m, cmd
}

// syncPickerSelection moves the list cursor onto the active mode before
// the picker opens.
func (m *Model) syncPickerSelection() {
	for i, mode := range modes.All() {
		if mode == m.mode {
			m.modeList.Select(i)
			return
		}
	}
}
