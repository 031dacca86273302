package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"ecatalog-admin/internal/api"
	"ecatalog-admin/internal/core/syncrun"
	"ecatalog-admin/internal/notify"
)

func (m Model) handleSyncKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc":
		// leaving the screen stops every poll chain; no timer survives
		m.tracker.CancelAll()
		m.state = stateMenu
		return m, nil
	case "up", "k":
		if m.sync.index > 0 {
			m.sync.index--
		}
	case "down", "j":
		if m.sync.index < len(m.sync.integrations)-1 {
			m.sync.index++
		}
	case "r":
		m.sync.loading = true
		return m, tea.Batch(m.spinner.Tick, m.loadIntegrationsCmd())
	case "n":
		return m.triggerSync(api.SyncNomenklatura)
	case "c":
		return m.triggerSync(api.SyncClients)
	case "x":
		m.tracker.CancelAll()
		for _, rv := range m.sync.runs {
			rv.active = false
		}
		m.notices.Push(notify.Info, "All sync runs cancelled.")
		return m, m.scheduleToastTick()
	}
	return m, nil
}

func (m Model) triggerSync(res api.SyncResource) (tea.Model, tea.Cmd) {
	if m.sync.index >= len(m.sync.integrations) {
		return m, nil
	}
	in := m.sync.integrations[m.sync.index]
	if !in.IsActive {
		m.notices.Push(notify.Warning, "Integration "+in.Name+" is inactive.")
		return m, m.scheduleToastTick()
	}
	if m.tracker.Active(res, in.ID) {
		m.notices.Push(notify.Info, "Sync already running for "+syncrun.Key(res, in.ID)+".")
		return m, m.scheduleToastTick()
	}
	return m, m.startSyncCmd(res, in.ID)
}
